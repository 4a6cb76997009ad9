package models

// SuspiciousPattern tags a DOM construct commonly seen on phishing or
// malware delivery pages. The vocabulary is fixed; extractors must not
// invent new tags at runtime.
type SuspiciousPattern string

const (
	PatternHiddenPassword      SuspiciousPattern = "hidden-password"
	PatternFakeBranding        SuspiciousPattern = "fake-branding"
	PatternRedirectionScript   SuspiciousPattern = "redirection-script"
	PatternIframeInjection     SuspiciousPattern = "iframe-injection"
	PatternWebcamAccessRequest SuspiciousPattern = "webcam-access-request"
)

// FormField describes a single input discovered on the page. Values are
// never captured; for password fields even metadata is reduced to shape.
type FormField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Placeholder string `json:"placeholder,omitempty"`
	IsRequired  bool   `json:"isRequired"`
	Action      string `json:"action,omitempty"`
}

// DomainInfo is the hostname breakdown used by the heuristic scorer.
type DomainInfo struct {
	FullDomain       string `json:"fullDomain"`
	PrimaryDomain    string `json:"primaryDomain"`
	Subdomain        string `json:"subdomain,omitempty"`
	TLD              string `json:"tld,omitempty"`
	IsNumericHost    bool   `json:"isNumericHost"`
	HasSuspiciousTLD bool   `json:"hasSuspiciousTld"`
}

// TLSInfo captures transport posture as observed from the page URL.
type TLSInfo struct {
	IsSecureTransport bool `json:"isSecureTransport"`
}

// PageSnapshot is the bounded structured extraction of one loaded page,
// used for deep phishing analysis. Immutable once produced; owned by the
// navigation coordinator for the duration of a single scan.
type PageSnapshot struct {
	URL                string              `json:"url"`
	HTMLExcerpt        string              `json:"htmlExcerpt,omitempty"`
	VisibleText        string              `json:"visibleText,omitempty"`
	FormFields         []FormField         `json:"formFields,omitempty"`
	DomainInfo         DomainInfo          `json:"domainInfo"`
	TLSInfo            TLSInfo             `json:"tlsInfo"`
	SuspiciousPatterns []SuspiciousPattern `json:"suspiciousPatterns,omitempty"`
}

// HasPattern reports whether the snapshot carries the given tag.
func (s *PageSnapshot) HasPattern(p SuspiciousPattern) bool {
	for _, tag := range s.SuspiciousPatterns {
		if tag == p {
			return true
		}
	}
	return false
}
