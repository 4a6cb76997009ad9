package config

import "time"

// OracleConfig defines how the external scoring oracle is reached.
type OracleConfig struct {
	BaseURL         string `json:"base_url" yaml:"base_url" validate:"required,url"`
	ScanPath        string `json:"scan_path,omitempty" yaml:"scan_path,omitempty"`
	PhishingPath    string `json:"phishing_path,omitempty" yaml:"phishing_path,omitempty"`
	TimeoutSecs     int    `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,gt=0,lte=60"`
	Retries         int    `json:"retries,omitempty" yaml:"retries,omitempty" validate:"omitempty,gte=0,lte=5"`
	ClientVersion   string `json:"client_version,omitempty" yaml:"client_version,omitempty"`
	MaxResponseKiB  int    `json:"max_response_kib,omitempty" yaml:"max_response_kib,omitempty" validate:"omitempty,gt=0"`
	InsecureSkipTLS bool   `json:"insecure_skip_tls,omitempty" yaml:"insecure_skip_tls,omitempty"`
}

// NewDefaultOracleConfig creates default oracle configuration.
func NewDefaultOracleConfig() OracleConfig {
	return OracleConfig{
		BaseURL:        DefaultOracleBaseURL,
		ScanPath:       DefaultOracleScanPath,
		PhishingPath:   DefaultOraclePhishingPath,
		TimeoutSecs:    DefaultOracleTimeoutSecs,
		Retries:        DefaultOracleRetries,
		ClientVersion:  DefaultClientVersion,
		MaxResponseKiB: DefaultOracleMaxResponseKiB,
	}
}

// Timeout returns the request timeout as a duration.
func (c OracleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}
