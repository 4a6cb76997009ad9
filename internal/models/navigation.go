package models

// NavigationPhase marks where in the page lifecycle an event was emitted.
type NavigationPhase string

const (
	PhaseLoading  NavigationPhase = "loading"
	PhaseDOMReady NavigationPhase = "domReady"
)

// NavigationEvent is one navigation lifecycle notification from the
// browser client. Consumed at most once per distinct (tab, URL) pair;
// only top-level frames (FrameID 0) are eligible for scanning.
type NavigationEvent struct {
	TabID   int             `json:"tabId"`
	URL     string          `json:"url"`
	FrameID int             `json:"frameId"`
	Phase   NavigationPhase `json:"phase"`
}

// IsTopLevel reports whether the event concerns the tab's main frame.
func (e NavigationEvent) IsTopLevel() bool {
	return e.FrameID == 0
}
