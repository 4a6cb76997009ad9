package config

import "time"

// BridgeConfig defines the local HTTP message bridge the browser client
// connects to.
type BridgeConfig struct {
	ListenAddr          string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty" validate:"omitempty,hostname_port"`
	ClientStaleSeconds  int    `json:"client_stale_seconds,omitempty" yaml:"client_stale_seconds,omitempty" validate:"omitempty,gt=0"`
	MaxMessageBodyBytes int64  `json:"max_message_body_bytes,omitempty" yaml:"max_message_body_bytes,omitempty" validate:"omitempty,gt=0"`
	BlockedPagePath     string `json:"blocked_page_path,omitempty" yaml:"blocked_page_path,omitempty"`
}

// NewDefaultBridgeConfig creates default bridge configuration.
func NewDefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		ListenAddr:          DefaultBridgeListenAddr,
		ClientStaleSeconds:  DefaultClientStaleSeconds,
		MaxMessageBodyBytes: DefaultMaxMessageBodyBytes,
		BlockedPagePath:     DefaultBlockedPagePath,
	}
}

// ClientStaleThreshold returns how long a content-script client may go
// without polling before its tab is treated as unreachable.
func (c BridgeConfig) ClientStaleThreshold() time.Duration {
	return time.Duration(c.ClientStaleSeconds) * time.Second
}
