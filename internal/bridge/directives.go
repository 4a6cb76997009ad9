package bridge

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/rs/zerolog"
)

// DirectiveType enumerates the UI mutations pushed to the client.
type DirectiveType string

const (
	DirectiveSetBadge DirectiveType = "setBadge"
	DirectiveOverlay  DirectiveType = "showOverlay"
	DirectiveRedirect DirectiveType = "redirect"
	DirectiveNotify   DirectiveType = "notify"
)

// Directive is one queued UI instruction for the browser client.
type Directive struct {
	Type      DirectiveType       `json:"type"`
	TabID     int                 `json:"tabId"`
	RiskLevel models.RiskLevel    `json:"riskLevel,omitempty"`
	Verdict   *models.RiskVerdict `json:"verdict,omitempty"`
	TargetURL string              `json:"targetUrl,omitempty"`
	Title     string              `json:"title,omitempty"`
	Message   string              `json:"message,omitempty"`
}

// backgroundQueueKey collects directives the background client executes
// itself (badge, redirect, notification); overlay directives are keyed
// by tab because only that tab's content script can inject them.
const backgroundQueueKey = -1

// DirectiveHub queues directives and tracks client polling so the
// enforcement layer can tell a deliverable directive from a dead letter.
// It is the enforcement TabUI: delivery failure here is what triggers
// the overlay -> redirect -> notify fallback chain.
type DirectiveHub struct {
	mu             sync.Mutex
	queues         map[int][]Directive
	lastPoll       map[int]time.Time
	staleThreshold time.Duration
	blockedPageURL string
	now            func() time.Time
	logger         zerolog.Logger
}

// NewDirectiveHub creates a hub. blockedPageURL is the absolute URL of
// the local blocked page redirect target.
func NewDirectiveHub(staleThreshold time.Duration, blockedPageURL string, logger zerolog.Logger) *DirectiveHub {
	return &DirectiveHub{
		queues:         make(map[int][]Directive),
		lastPoll:       make(map[int]time.Time),
		staleThreshold: staleThreshold,
		blockedPageURL: blockedPageURL,
		now:            time.Now,
		logger:         logger.With().Str("component", "DirectiveHub").Logger(),
	}
}

// SetClock replaces the hub's time source. Test hook.
func (h *DirectiveHub) SetClock(now func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = now
}

// MarkPoll records client liveness. tabID < 0 marks the background
// client; content scripts pass their own tab id.
func (h *DirectiveHub) MarkPoll(tabID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := tabID
	if key < 0 {
		key = backgroundQueueKey
	}
	h.lastPoll[key] = h.now()
}

// Drain returns and clears the queued directives for a polling client.
func (h *DirectiveHub) Drain(tabID int) []Directive {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := tabID
	if key < 0 {
		key = backgroundQueueKey
	}
	h.lastPoll[key] = h.now()

	directives := h.queues[key]
	delete(h.queues, key)
	return directives
}

func (h *DirectiveHub) isReachable(key int) bool {
	last, ok := h.lastPoll[key]
	return ok && h.now().Sub(last) < h.staleThreshold
}

func (h *DirectiveHub) enqueue(key int, d Directive) error {
	if !h.isReachable(key) {
		return fmt.Errorf("no live client for queue %d", key)
	}
	h.queues[key] = append(h.queues[key], d)
	return nil
}

// SetBadge queues a badge update for the background client.
func (h *DirectiveHub) SetBadge(tabID int, level models.RiskLevel) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enqueue(backgroundQueueKey, Directive{
		Type:      DirectiveSetBadge,
		TabID:     tabID,
		RiskLevel: level,
	})
}

// InjectOverlay queues a blocking overlay for the tab's content script.
// Fails when that tab's client has not polled recently.
func (h *DirectiveHub) InjectOverlay(tabID int, verdict models.RiskVerdict) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enqueue(tabID, Directive{
		Type:    DirectiveOverlay,
		TabID:   tabID,
		Verdict: &verdict,
	})
}

// RedirectToBlocked queues a navigation to the local blocked page, with
// the reason carried as a query parameter.
func (h *DirectiveHub) RedirectToBlocked(tabID int, blockedURL string, reason string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	target := fmt.Sprintf("%s?url=%s&reason=%s",
		h.blockedPageURL, url.QueryEscape(blockedURL), url.QueryEscape(reason))
	return h.enqueue(backgroundQueueKey, Directive{
		Type:      DirectiveRedirect,
		TabID:     tabID,
		TargetURL: target,
	})
}

// Notify queues a transient notification.
func (h *DirectiveHub) Notify(tabID int, title string, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enqueue(backgroundQueueKey, Directive{
		Type:    DirectiveNotify,
		TabID:   tabID,
		Title:   title,
		Message: message,
	})
}
