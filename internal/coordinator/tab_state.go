package coordinator

import "github.com/kestrelsec/pagewarden/internal/models"

// tabPhase is the per-tab scan state machine:
// Idle -> Scanning -> {Scored, Failed} -> Idle.
type tabPhase int

const (
	phaseIdle tabPhase = iota
	phaseScanning
	phaseScored
	phaseFailed
)

func (p tabPhase) String() string {
	switch p {
	case phaseScanning:
		return "scanning"
	case phaseScored:
		return "scored"
	case phaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// tabState tracks one tab across navigations. expectedURL is the guard
// that lets the coordinator discard scan results that resolve after the
// tab has already navigated elsewhere.
type tabState struct {
	phase       tabPhase
	expectedURL string
	lastVerdict *models.RiskVerdict
}
