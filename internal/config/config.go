package config

// GlobalConfig aggregates all configuration sections.
type GlobalConfig struct {
	LogConfig       LogConfig       `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	OracleConfig    OracleConfig    `json:"oracle_config" yaml:"oracle_config"`
	CacheConfig     CacheConfig     `json:"cache_config,omitempty" yaml:"cache_config,omitempty"`
	ExtractorConfig ExtractorConfig `json:"extractor_config,omitempty" yaml:"extractor_config,omitempty"`
	BridgeConfig    BridgeConfig    `json:"bridge_config,omitempty" yaml:"bridge_config,omitempty"`
	StorageConfig   StorageConfig   `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
}

// NewDefaultGlobalConfig creates a GlobalConfig with default values for
// all sections. A missing config file is not an error; the daemon runs
// on defaults.
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LogConfig:       NewDefaultLogConfig(),
		OracleConfig:    NewDefaultOracleConfig(),
		CacheConfig:     NewDefaultCacheConfig(),
		ExtractorConfig: NewDefaultExtractorConfig(),
		BridgeConfig:    NewDefaultBridgeConfig(),
		StorageConfig:   NewDefaultStorageConfig(),
	}
}
