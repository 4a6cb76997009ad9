package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kestrelsec/pagewarden/internal/config"
	"github.com/kestrelsec/pagewarden/internal/enforcement"
	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanService struct {
	navigations []models.NavigationEvent
	verdicts    map[string]models.RiskVerdict
	tabVerdicts map[int]models.RiskVerdict
}

func newFakeScanService() *fakeScanService {
	return &fakeScanService{
		verdicts:    make(map[string]models.RiskVerdict),
		tabVerdicts: make(map[int]models.RiskVerdict),
	}
}

func (f *fakeScanService) HandleNavigation(event models.NavigationEvent) {
	f.navigations = append(f.navigations, event)
}

func (f *fakeScanService) DeepScan(ctx context.Context, tabID int, pageURL string, htmlBody string) models.RiskVerdict {
	if verdict, ok := f.verdicts[pageURL]; ok {
		return verdict
	}
	return models.NewUnknownVerdict(pageURL, time.Now())
}

func (f *fakeScanService) ScanURL(ctx context.Context, url string) models.RiskVerdict {
	if verdict, ok := f.verdicts[url]; ok {
		return verdict
	}
	return models.NewUnknownVerdict(url, time.Now())
}

func (f *fakeScanService) TabVerdict(tabID int) (models.RiskVerdict, bool) {
	verdict, ok := f.tabVerdicts[tabID]
	return verdict, ok
}

type nopPersister struct{}

func (nopPersister) SaveSettings(models.ExtensionSettings) error     { return nil }
func (nopPersister) AppendScanHistory(models.ScanHistoryEntry) error { return nil }

type serverFixture struct {
	server   *Server
	scans    *fakeScanService
	enforcer *enforcement.Enforcer
	hub      *DirectiveHub
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	cfg := config.NewDefaultBridgeConfig()
	scans := newFakeScanService()
	hub := NewDirectiveHub(cfg.ClientStaleThreshold(), "http://127.0.0.1:8976/blocked", zerolog.Nop())
	enforcer := enforcement.NewEnforcer(hub, nopPersister{}, models.DefaultSettings(), 10, zerolog.Nop())

	return &serverFixture{
		server:   NewServer(cfg, scans, enforcer, hub, zerolog.Nop()),
		scans:    scans,
		enforcer: enforcer,
		hub:      hub,
	}
}

func (f *serverFixture) post(t *testing.T, msg interface{}) (*httptest.ResponseRecorder, Reply) {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.server.handleMessage(rec, req)

	var reply Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return rec, reply
}

func dataAsMap(t *testing.T, reply Reply) map[string]interface{} {
	t.Helper()
	m, ok := reply.Data.(map[string]interface{})
	require.True(t, ok, "reply data is not an object: %#v", reply.Data)
	return m
}

func TestHandleMessage_RejectsGet(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/message", nil)
	rec := httptest.NewRecorder()
	f.server.handleMessage(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleMessage_RejectsInvalidJSON(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	f.server.handleMessage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMessage_UnknownAction(t *testing.T) {
	f := newServerFixture(t)

	rec, reply := f.post(t, Message{Action: "selfDestruct"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, reply.Success)
	assert.Contains(t, reply.Error, "selfDestruct")
}

func TestNavigationEvent_ForwardedToCoordinator(t *testing.T) {
	f := newServerFixture(t)

	rec, reply := f.post(t, Message{
		Action:  ActionNavigationEvent,
		TabID:   3,
		URL:     "https://example.com",
		FrameID: 0,
		Phase:   "loading",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reply.Success)
	require.Len(t, f.scans.navigations, 1)
	assert.Equal(t, 3, f.scans.navigations[0].TabID)
	assert.Equal(t, models.PhaseLoading, f.scans.navigations[0].Phase)
}

func TestNavigationEvent_RequiresURL(t *testing.T) {
	f := newServerFixture(t)

	rec, reply := f.post(t, Message{Action: ActionNavigationEvent, TabID: 3})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, reply.Success)
}

func TestScanURL_ReturnsVerdict(t *testing.T) {
	f := newServerFixture(t)
	f.scans.verdicts["https://example.com"] = models.RiskVerdict{
		URL:       "https://example.com",
		RiskLevel: models.RiskLevelMedium,
		Score:     70,
	}

	rec, reply := f.post(t, Message{Action: ActionScanURL, URL: "https://example.com"})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, reply.Success)
	data := dataAsMap(t, reply)
	assert.Equal(t, "MEDIUM", data["riskLevel"])
	assert.Equal(t, float64(70), data["score"])
}

func TestScanURL_RejectsMalformedURL(t *testing.T) {
	f := newServerFixture(t)

	rec, reply := f.post(t, Message{Action: ActionScanURL, URL: ""})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, reply.Success)
}

func TestPhishingPageAnalysis_RequiresURLAndHTML(t *testing.T) {
	f := newServerFixture(t)

	rec, _ := f.post(t, Message{Action: ActionPhishingPageAnalysis, URL: "https://example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.post(t, Message{Action: ActionPhishingPageAnalysis, HTML: "<html></html>"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPhishingPageAnalysis_ReturnsVerdict(t *testing.T) {
	f := newServerFixture(t)
	f.scans.verdicts["https://phish.example.com"] = models.RiskVerdict{
		URL:       "https://phish.example.com",
		RiskLevel: models.RiskLevelHigh,
	}

	_, reply := f.post(t, Message{
		Action: ActionPhishingPageAnalysis,
		TabID:  2,
		URL:    "https://phish.example.com",
		HTML:   "<html><body>login</body></html>",
	})

	require.True(t, reply.Success)
	assert.Equal(t, "HIGH", dataAsMap(t, reply)["riskLevel"])
}

func TestGetTabScanResult(t *testing.T) {
	f := newServerFixture(t)
	f.scans.tabVerdicts[4] = models.RiskVerdict{URL: "https://example.com", RiskLevel: models.RiskLevelLow}

	_, reply := f.post(t, Message{Action: ActionGetTabScanResult, TabID: 4})
	require.True(t, reply.Success)
	assert.Equal(t, "LOW", dataAsMap(t, reply)["riskLevel"])

	// Unknown tab: success with empty data, not an error.
	_, reply = f.post(t, Message{Action: ActionGetTabScanResult, TabID: 99})
	assert.True(t, reply.Success)
	assert.Nil(t, reply.Data)
}

func TestSettings_UpdateAndGet(t *testing.T) {
	f := newServerFixture(t)

	updated := models.DefaultSettings()
	updated.BlockingEnabled = false
	_, reply := f.post(t, Message{Action: ActionUpdateSettings, Settings: &updated})
	require.True(t, reply.Success)

	_, reply = f.post(t, Message{Action: ActionGetSettings})
	require.True(t, reply.Success)
	data := dataAsMap(t, reply)
	assert.Equal(t, false, data["blockingEnabled"])
	assert.Equal(t, true, data["extensionEnabled"])
}

func TestUpdateSettings_RequiresSettings(t *testing.T) {
	f := newServerFixture(t)

	rec, _ := f.post(t, Message{Action: ActionUpdateSettings})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockSite_NormalizesAndPersists(t *testing.T) {
	f := newServerFixture(t)

	_, reply := f.post(t, Message{Action: ActionBlockSite, URL: "HTTPS://Evil.Example.COM/page#frag"})
	require.True(t, reply.Success)

	settings := f.enforcer.Settings()
	assert.True(t, settings.IsBlocked("https://evil.example.com/page"))
}

func TestGetScanHistory(t *testing.T) {
	f := newServerFixture(t)
	f.enforcer.History().Add(models.ScanHistoryEntry{
		URL:     "https://example.com",
		Verdict: models.RiskVerdict{URL: "https://example.com", RiskLevel: models.RiskLevelLow},
	})

	_, reply := f.post(t, Message{Action: ActionGetScanHistory})
	require.True(t, reply.Success)

	entries, ok := reply.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, entries, 1)
}

func TestPullDirectives_DrainsQueue(t *testing.T) {
	f := newServerFixture(t)

	// First poll registers the background client, allowing enqueues.
	_, reply := f.post(t, Message{Action: ActionPullDirectives, ClientID: "background"})
	require.True(t, reply.Success)

	require.NoError(t, f.hub.SetBadge(2, models.RiskLevelMedium))

	_, reply = f.post(t, Message{Action: ActionPullDirectives, ClientID: "background"})
	require.True(t, reply.Success)
	directives, ok := reply.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, directives, 1)

	directive, ok := directives[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(DirectiveSetBadge), directive["type"])
}

func TestHandleBlockedPage_EscapesInput(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/blocked?url=https%3A%2F%2Fevil.example.com&reason=%3Cscript%3Ealert(1)%3C%2Fscript%3E", nil)
	rec := httptest.NewRecorder()
	f.server.handleBlockedPage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "https://evil.example.com")
}
