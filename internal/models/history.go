package models

import "time"

// ScanHistoryEntry is one row of the capped scan-history ring, kept for
// later display in the popup UI.
type ScanHistoryEntry struct {
	URL       string      `json:"url"`
	Verdict   RiskVerdict `json:"verdict"`
	Timestamp time.Time   `json:"timestamp"`
}
