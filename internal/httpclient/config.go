package httpclient

import "time"

// Config controls the underlying net/http transport and client.
type Config struct {
	Timeout             time.Duration
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	InsecureSkipVerify  bool
	EnableHTTP2         bool
	FollowRedirects     bool
	MaxRedirects        int
	UserAgent           string
	CustomHeaders       map[string]string
	MaxResponseBytes    int64
	Retry               RetryConfig
}

// DefaultConfig returns a config tuned for short API calls.
func DefaultConfig() Config {
	return Config{
		Timeout:             5 * time.Second,
		DialTimeout:         3 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 3 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		EnableHTTP2:         true,
		FollowRedirects:     true,
		MaxRedirects:        5,
		MaxResponseBytes:    1 << 20,
		Retry:               DefaultRetryConfig(),
	}
}
