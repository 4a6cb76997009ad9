package config

// StorageConfig defines where persisted state (settings, blocked sites,
// scan history) lives.
type StorageConfig struct {
	DatabasePath        string `json:"database_path,omitempty" yaml:"database_path,omitempty"`
	ScanHistoryCapacity int    `json:"scan_history_capacity,omitempty" yaml:"scan_history_capacity,omitempty" validate:"omitempty,gt=0"`
}

// NewDefaultStorageConfig creates default storage configuration.
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DatabasePath:        DefaultStoreFileName,
		ScanHistoryCapacity: DefaultScanHistoryCapacity,
	}
}
