package models

// ExtensionSettings is the process-wide protection state. It is loaded
// once from the store at startup and mutated only through explicit
// settings actions arriving over the bridge.
type ExtensionSettings struct {
	Enabled              bool     `json:"extensionEnabled"`
	BlockingEnabled      bool     `json:"blockingEnabled"`
	NotificationsEnabled bool     `json:"notificationsEnabled"`
	BlockedSites         []string `json:"blockedSites"`
	Whitelist            []string `json:"whitelist,omitempty"`
}

// DefaultSettings returns the state used when the store holds nothing,
// e.g. on first launch. Protection is on, blocking is on.
func DefaultSettings() ExtensionSettings {
	return ExtensionSettings{
		Enabled:              true,
		BlockingEnabled:      true,
		NotificationsEnabled: true,
	}
}

// IsBlocked reports whether the normalized URL was previously blocked.
func (s *ExtensionSettings) IsBlocked(normalizedURL string) bool {
	return containsURL(s.BlockedSites, normalizedURL)
}

// IsWhitelisted reports whether the normalized URL is exempt from blocking.
func (s *ExtensionSettings) IsWhitelisted(normalizedURL string) bool {
	return containsURL(s.Whitelist, normalizedURL)
}

// AddBlockedSite inserts the URL into the blocked set. Returns false when
// it was already present.
func (s *ExtensionSettings) AddBlockedSite(normalizedURL string) bool {
	if containsURL(s.BlockedSites, normalizedURL) {
		return false
	}
	s.BlockedSites = append(s.BlockedSites, normalizedURL)
	return true
}

func containsURL(urls []string, target string) bool {
	for _, u := range urls {
		if u == target {
			return true
		}
	}
	return false
}
