package bridge

import "github.com/kestrelsec/pagewarden/internal/models"

// Actions understood by the message endpoint. Every request is answered,
// success or explicit failure; the client never waits indefinitely.
const (
	ActionNavigationEvent      = "navigationEvent"
	ActionPhishingPageAnalysis = "phishingPageAnalysis"
	ActionGetTabScanResult     = "getTabScanResult"
	ActionScanURL              = "scanUrl"
	ActionBlockSite            = "blockSite"
	ActionShowWarning          = "showWarning"
	ActionUpdateSettings       = "updateSettings"
	ActionGetSettings          = "getSettings"
	ActionGetScanHistory       = "getScanHistory"
	ActionPullDirectives       = "pullDirectives"
)

// Message is the inbound envelope. Fields beyond Action are populated
// per action; absent ones decode to zero values.
type Message struct {
	Action   string                    `json:"action"`
	ClientID string                    `json:"clientId,omitempty"`
	TabID    int                       `json:"tabId,omitempty"`
	URL      string                    `json:"url,omitempty"`
	FrameID  int                       `json:"frameId,omitempty"`
	Phase    string                    `json:"phase,omitempty"`
	HTML     string                    `json:"html,omitempty"`
	Title    string                    `json:"title,omitempty"`
	Text     string                    `json:"text,omitempty"`
	Settings *models.ExtensionSettings `json:"settings,omitempty"`
}

// Reply is the outbound envelope.
type Reply struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func okReply(data interface{}) Reply {
	return Reply{Success: true, Data: data}
}

func errorReply(message string) Reply {
	return Reply{Success: false, Error: message}
}
