package config

import "time"

// CacheConfig defines the verdict cache bounds.
type CacheConfig struct {
	TTLSeconds int `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty" validate:"omitempty,gt=0"`
	MaxEntries int `json:"max_entries,omitempty" yaml:"max_entries,omitempty" validate:"omitempty,gt=0"`
}

// NewDefaultCacheConfig creates default cache configuration.
func NewDefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTLSeconds: DefaultCacheTTLSeconds,
		MaxEntries: DefaultCacheMaxEntries,
	}
}

// TTL returns the entry time-to-live as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
