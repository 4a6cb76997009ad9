package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kestrelsec/pagewarden/internal/bridge"
	"github.com/kestrelsec/pagewarden/internal/config"
	"github.com/kestrelsec/pagewarden/internal/coordinator"
	"github.com/kestrelsec/pagewarden/internal/enforcement"
	"github.com/kestrelsec/pagewarden/internal/extractor"
	"github.com/kestrelsec/pagewarden/internal/httpclient"
	"github.com/kestrelsec/pagewarden/internal/logger"
	"github.com/kestrelsec/pagewarden/internal/riskcache"
	"github.com/kestrelsec/pagewarden/internal/scoring"
	"github.com/kestrelsec/pagewarden/internal/store"
)

func main() {
	flags := ParseFlags()

	configPath := config.GetConfigPath(flags.GlobalConfigFile)
	gCfg, err := config.LoadGlobalConfig(configPath)
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not load global config using path '%s': %v", configPath, err)
	}
	applyFlagOverrides(gCfg, flags)

	zLogger, err := logger.NewBuilder().WithConfig(gCfg.LogConfig).Build()
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not initialize logger: %v", err)
	}
	if configPath != "" {
		zLogger.Info().Str("config_file", configPath).Msg("Global configuration loaded")
	} else {
		zLogger.Info().Msg("No configuration file found, running on defaults")
	}

	// Persisted state first: enforcement needs settings and history
	// before the first navigation event arrives.
	st, err := store.NewStore(gCfg.StorageConfig.DatabasePath, gCfg.StorageConfig.ScanHistoryCapacity, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Str("path", gCfg.StorageConfig.DatabasePath).Msg("Failed to open state store")
	}

	settings, err := st.LoadSettings()
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to load persisted settings")
	}
	historyEntries, err := st.LoadScanHistory()
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to load scan history")
	}

	hcCfg := httpclient.DefaultConfig()
	hcCfg.Timeout = gCfg.OracleConfig.Timeout()
	hcCfg.InsecureSkipVerify = gCfg.OracleConfig.InsecureSkipTLS
	hcCfg.MaxResponseBytes = int64(gCfg.OracleConfig.MaxResponseKiB) * 1024
	hcCfg.Retry.MaxRetries = gCfg.OracleConfig.Retries
	httpClient, err := httpclient.NewClient(hcCfg, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to initialize HTTP client")
	}

	scorer := scoring.NewClient(gCfg.OracleConfig, httpClient, zLogger)
	cache := riskcache.NewCache(gCfg.CacheConfig, zLogger)
	pageExtractor := extractor.NewExtractor(gCfg.ExtractorConfig, zLogger)

	blockedPageURL := "http://" + gCfg.BridgeConfig.ListenAddr + gCfg.BridgeConfig.BlockedPagePath
	hub := bridge.NewDirectiveHub(gCfg.BridgeConfig.ClientStaleThreshold(), blockedPageURL, zLogger)

	enforcer := enforcement.NewEnforcer(hub, st, settings, gCfg.StorageConfig.ScanHistoryCapacity, zLogger)
	enforcer.History().Restore(historyEntries)

	coord := coordinator.NewCoordinator(
		cache,
		scorer,
		pageExtractor,
		enforcer,
		gCfg.CacheConfig.TTL(),
		config.DefaultEventQueueSize,
		zLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.Start(ctx)

	server := bridge.NewServer(gCfg.BridgeConfig, coord, enforcer, hub, zLogger)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zLogger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			zLogger.Error().Err(err).Msg("Bridge server failed")
		}
	}

	// Teardown order: stop accepting bridge traffic, drain the
	// coordinator, then close the store last so late history writes land.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeoutSecs*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zLogger.Warn().Err(err).Msg("Bridge shutdown did not complete cleanly")
	}

	cancel()
	coord.Stop()

	if err := st.Close(); err != nil {
		zLogger.Warn().Err(err).Msg("State store close failed")
	}
	zLogger.Info().Msg("PageWarden stopped")
}

func applyFlagOverrides(gCfg *config.GlobalConfig, flags AppFlags) {
	if flags.ListenAddr != "" {
		gCfg.BridgeConfig.ListenAddr = flags.ListenAddr
	}
	if flags.DatabasePath != "" {
		gCfg.StorageConfig.DatabasePath = flags.DatabasePath
	}
	if flags.LogLevel != "" {
		gCfg.LogConfig.LogLevel = flags.LogLevel
	}
}
