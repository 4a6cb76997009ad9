package config

// Default values for configuration sections.
const (
	DefaultLogFile       = ""
	DefaultLogFormat     = "console"
	DefaultLogLevel      = "info"
	DefaultMaxLogBackups = 3
	DefaultMaxLogSizeMB  = 50

	DefaultOracleBaseURL        = "http://127.0.0.1:5000/api/security"
	DefaultOracleTimeoutSecs    = 5
	DefaultOracleRetries        = 1
	DefaultClientVersionHeader  = "X-PageWarden-Version"
	DefaultClientVersion        = "1.0.0"
	DefaultOracleScanPath       = "/scan"
	DefaultOraclePhishingPath   = "/phishing/detect"
	DefaultOracleMaxResponseKiB = 256

	DefaultCacheTTLSeconds = 300
	DefaultCacheMaxEntries = 100

	DefaultMaxHTMLExcerptChars = 300000
	DefaultMaxVisibleTextChars = 50000
	DefaultMaxFormFields       = 50

	DefaultBridgeListenAddr      = "127.0.0.1:8976"
	DefaultClientStaleSeconds    = 3
	DefaultMaxMessageBodyBytes   = 2 << 20 // 2 MiB; page HTML excerpts dominate
	DefaultBlockedPagePath       = "/blocked"
	DefaultScanHistoryCapacity   = 10
	DefaultEventQueueSize        = 256
	DefaultStoreFileName         = "pagewarden.db"
	DefaultShutdownTimeoutSecs   = 10
	DefaultSweepIntervalSeconds  = 300
	DefaultScanResultWaitSeconds = 8
)
