package bridge

import (
	"testing"
	"time"

	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() (*DirectiveHub, *time.Time) {
	current := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	hub := NewDirectiveHub(3*time.Second, "http://127.0.0.1:8976/blocked", zerolog.Nop())
	hub.SetClock(func() time.Time { return current })
	return hub, &current
}

func TestDirectiveHub_BadgeQueuedForBackgroundClient(t *testing.T) {
	hub, _ := newTestHub()
	hub.MarkPoll(-1)

	require.NoError(t, hub.SetBadge(5, models.RiskLevelHigh))

	directives := hub.Drain(-1)
	require.Len(t, directives, 1)
	assert.Equal(t, DirectiveSetBadge, directives[0].Type)
	assert.Equal(t, 5, directives[0].TabID)
	assert.Equal(t, models.RiskLevelHigh, directives[0].RiskLevel)
}

func TestDirectiveHub_UnpolledClientIsUnreachable(t *testing.T) {
	hub, _ := newTestHub()

	err := hub.SetBadge(5, models.RiskLevelLow)
	assert.Error(t, err)
}

func TestDirectiveHub_StaleClientIsUnreachable(t *testing.T) {
	hub, current := newTestHub()
	hub.MarkPoll(-1)

	*current = current.Add(4 * time.Second)
	err := hub.SetBadge(5, models.RiskLevelLow)
	assert.Error(t, err)
}

func TestDirectiveHub_OverlayKeyedByTab(t *testing.T) {
	hub, _ := newTestHub()
	hub.MarkPoll(7)

	verdict := models.RiskVerdict{URL: "https://evil.example.com", RiskLevel: models.RiskLevelHigh}
	require.NoError(t, hub.InjectOverlay(7, verdict))

	// Overlay for tab 7 fails when only tab 9's client is live.
	err := hub.InjectOverlay(9, verdict)
	assert.Error(t, err)

	directives := hub.Drain(7)
	require.Len(t, directives, 1)
	assert.Equal(t, DirectiveOverlay, directives[0].Type)
	require.NotNil(t, directives[0].Verdict)
	assert.Equal(t, "https://evil.example.com", directives[0].Verdict.URL)
}

func TestDirectiveHub_RedirectCarriesBlockedPageURL(t *testing.T) {
	hub, _ := newTestHub()
	hub.MarkPoll(-1)

	require.NoError(t, hub.RedirectToBlocked(3, "https://evil.example.com/path?a=1", "Known phishing page"))

	directives := hub.Drain(-1)
	require.Len(t, directives, 1)
	assert.Equal(t, DirectiveRedirect, directives[0].Type)
	assert.Contains(t, directives[0].TargetURL, "http://127.0.0.1:8976/blocked?url=")
	assert.Contains(t, directives[0].TargetURL, "https%3A%2F%2Fevil.example.com")
	assert.Contains(t, directives[0].TargetURL, "Known+phishing+page")
}

func TestDirectiveHub_DrainClearsQueue(t *testing.T) {
	hub, _ := newTestHub()
	hub.MarkPoll(-1)

	require.NoError(t, hub.SetBadge(1, models.RiskLevelLow))
	require.NoError(t, hub.Notify(1, "title", "message"))

	assert.Len(t, hub.Drain(-1), 2)
	assert.Empty(t, hub.Drain(-1))
}

func TestDirectiveHub_DrainRefreshesLiveness(t *testing.T) {
	hub, current := newTestHub()
	hub.MarkPoll(-1)

	// Polling keeps the client live across what would otherwise be the
	// staleness cutoff.
	*current = current.Add(2 * time.Second)
	hub.Drain(-1)
	*current = current.Add(2 * time.Second)

	assert.NoError(t, hub.SetBadge(1, models.RiskLevelLow))
}
