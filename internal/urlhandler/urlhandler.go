package urlhandler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL for use as a cache / history key:
// scheme and host are lowercased, the fragment is stripped, and the
// result is re-serialized as scheme://host/path?query. The operation is
// idempotent: normalizing an already-normalized URL returns it unchanged.
func NormalizeURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", errors.New("URL is empty or only whitespace")
	}

	// Add scheme if missing so bare hostnames parse with a host part.
	if !strings.Contains(trimmedURL, "://") && !strings.HasPrefix(trimmedURL, "//") {
		trimmedURL = "http://" + trimmedURL
	}

	parsedURL, err := url.Parse(trimmedURL)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", trimmedURL, err)
	}

	if parsedURL.Host == "" {
		return "", errors.New("URL lacks a valid hostname")
	}

	parsedURL.Scheme = strings.ToLower(parsedURL.Scheme)
	parsedURL.Host = strings.ToLower(parsedURL.Host)
	parsedURL.Fragment = ""
	parsedURL.RawFragment = ""

	return parsedURL.String(), nil
}

// IsScannable reports whether the URL is eligible for risk scanning.
// Only http and https navigations are scanned; everything else
// (about:, chrome:, file:, data:, ...) is ignored by the coordinator.
func IsScannable(rawURL string) bool {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	switch strings.ToLower(parsedURL.Scheme) {
	case "http", "https":
		return parsedURL.Host != ""
	default:
		return false
	}
}

// HostnameOf extracts the lowercased hostname without port.
func HostnameOf(rawURL string) (string, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", rawURL, err)
	}
	hostname := parsedURL.Hostname()
	if hostname == "" {
		return "", fmt.Errorf("URL has no hostname component: %s", rawURL)
	}
	return strings.ToLower(hostname), nil
}

// ValidateURLFormat validates URL format using net/url parsing (for
// config and message validation).
func ValidateURLFormat(rawURL string) error {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return fmt.Errorf("URL is empty")
	}

	if _, err := url.ParseRequestURI(trimmedURL); err != nil {
		return fmt.Errorf("invalid URL format '%s': %w", trimmedURL, err)
	}

	return nil
}
