package enforcement

import (
	"sync"

	"github.com/kestrelsec/pagewarden/internal/models"
)

// History is the capped scan-history ring, most-recent-first. Every
// verdict lands here regardless of the action taken, so the popup can
// show what was scanned and why.
type History struct {
	mu       sync.Mutex
	entries  []models.ScanHistoryEntry
	capacity int
}

// NewHistory creates a ring with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 10
	}
	return &History{capacity: capacity}
}

// Add prepends the entry, dropping the oldest beyond capacity.
func (h *History) Add(entry models.ScanHistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]models.ScanHistoryEntry{entry}, h.entries...)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[:h.capacity]
	}
}

// Entries returns a copy of the ring, most recent first.
func (h *History) Entries() []models.ScanHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]models.ScanHistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Restore seeds the ring from persisted entries (most recent first).
func (h *History) Restore(entries []models.ScanHistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(entries) > h.capacity {
		entries = entries[:h.capacity]
	}
	h.entries = make([]models.ScanHistoryEntry, len(entries))
	copy(h.entries, entries)
}
