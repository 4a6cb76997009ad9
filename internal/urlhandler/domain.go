package urlhandler

import (
	"errors"
	"net"
	"strings"

	"github.com/kestrelsec/pagewarden/internal/models"
	"golang.org/x/net/publicsuffix"
)

// suspiciousTLDs is a fixed denylist of low-trust top-level domains that
// are disproportionately used for throwaway phishing hosts.
var suspiciousTLDs = map[string]bool{
	"tk":      true,
	"ml":      true,
	"ga":      true,
	"cf":      true,
	"gq":      true,
	"xyz":     true,
	"top":     true,
	"club":    true,
	"work":    true,
	"click":   true,
	"link":    true,
	"zip":     true,
	"country": true,
}

// AnalyzeHost splits a hostname into the DomainInfo consumed by the
// heuristic scorer. A dotted-quad IPv4 host is flagged numeric and left
// unsplit; otherwise the primary domain is the effective TLD plus one
// label, falling back to the last two labels when the public suffix list
// cannot place the host.
func AnalyzeHost(hostname string) (models.DomainInfo, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return models.DomainInfo{}, errors.New("hostname is empty")
	}

	// Strip port if present.
	if strings.Contains(hostname, ":") {
		if host, _, err := net.SplitHostPort(hostname); err == nil {
			hostname = host
		}
	}

	info := models.DomainInfo{FullDomain: hostname}

	if ip := net.ParseIP(hostname); ip != nil && ip.To4() != nil {
		info.IsNumericHost = true
		info.PrimaryDomain = hostname
		return info, nil
	}

	parts := strings.Split(hostname, ".")
	if len(parts) < 2 {
		// localhost or a single-label intranet name
		info.PrimaryDomain = hostname
		return info, nil
	}

	info.TLD = parts[len(parts)-1]
	info.HasSuspiciousTLD = suspiciousTLDs[info.TLD]

	primary, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		// Hosts directly on a public suffix (or unknown suffixes) fall
		// back to the last two labels.
		primary = parts[len(parts)-2] + "." + parts[len(parts)-1]
	}
	info.PrimaryDomain = primary

	if sub := strings.TrimSuffix(hostname, primary); sub != "" {
		info.Subdomain = strings.TrimSuffix(sub, ".")
	}

	return info, nil
}

// IsSuspiciousTLD reports whether the bare TLD string is on the denylist.
func IsSuspiciousTLD(tld string) bool {
	return suspiciousTLDs[strings.ToLower(strings.TrimPrefix(tld, "."))]
}
