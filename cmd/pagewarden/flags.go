package main

import "flag"

type AppFlags struct {
	GlobalConfigFile string
	ListenAddr       string
	DatabasePath     string
	LogLevel         string
}

func ParseFlags() AppFlags {
	globalConfigFile := flag.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := flag.String("c", "", "Alias for -config")

	listenAddr := flag.String("listen", "", "Bridge listen address (overrides config file if set)")
	listenAddrAlias := flag.String("l", "", "Alias for -listen")

	databasePath := flag.String("db", "", "Path to the SQLite state database (overrides config file if set)")

	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config file if set)")

	flag.Parse()

	flags := AppFlags{}

	if *globalConfigFile != "" {
		flags.GlobalConfigFile = *globalConfigFile
	} else if *globalConfigFileAlias != "" {
		flags.GlobalConfigFile = *globalConfigFileAlias
	}

	if *listenAddr != "" {
		flags.ListenAddr = *listenAddr
	} else if *listenAddrAlias != "" {
		flags.ListenAddr = *listenAddrAlias
	}

	flags.DatabasePath = *databasePath
	flags.LogLevel = *logLevel

	return flags
}
