package coordinator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kestrelsec/pagewarden/internal/enforcement"
	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScorer struct {
	mu       sync.Mutex
	verdicts map[string]models.RiskVerdict
	gates    map[string]chan struct{}
	calls    int
}

func newFakeScorer() *fakeScorer {
	return &fakeScorer{
		verdicts: make(map[string]models.RiskVerdict),
		gates:    make(map[string]chan struct{}),
	}
}

func (f *fakeScorer) set(url string, level models.RiskLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verdicts[url] = models.RiskVerdict{
		URL:           url,
		RiskLevel:     level,
		DetectionType: models.DetectionTypeOracle,
		Timestamp:     time.Now(),
	}
}

// gate makes ScoreURL for the given URL block until release is called.
func (f *fakeScorer) gate(url string) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[url] = ch
	return func() { close(ch) }
}

func (f *fakeScorer) ScoreURL(ctx context.Context, url string) models.RiskVerdict {
	f.mu.Lock()
	f.calls++
	gate := f.gates[url]
	verdict, ok := f.verdicts[url]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
	if !ok {
		return models.NewUnknownVerdict(url, time.Now())
	}
	return verdict
}

func (f *fakeScorer) ScoreSnapshot(ctx context.Context, snapshot *models.PageSnapshot) models.RiskVerdict {
	return f.ScoreURL(ctx, snapshot.URL)
}

func (f *fakeScorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]models.RiskVerdict
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]models.RiskVerdict)}
}

func (f *fakeCache) Get(url string) (models.RiskVerdict, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	verdict, ok := f.entries[url]
	return verdict, ok
}

func (f *fakeCache) Put(url string, verdict models.RiskVerdict) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[url] = verdict
}

func (f *fakeCache) Sweep() int { return 0 }

type fakeExtractor struct{}

func (fakeExtractor) Extract(pageURL string, htmlBody string) (*models.PageSnapshot, error) {
	if htmlBody == "" {
		return nil, fmt.Errorf("empty page body")
	}
	return &models.PageSnapshot{URL: pageURL}, nil
}

type appliedVerdict struct {
	tabID   int
	verdict models.RiskVerdict
}

type fakeApplier struct {
	applied chan appliedVerdict
}

func newFakeApplier() *fakeApplier {
	return &fakeApplier{applied: make(chan appliedVerdict, 16)}
}

func (f *fakeApplier) Apply(tabID int, verdict models.RiskVerdict) enforcement.Action {
	f.applied <- appliedVerdict{tabID: tabID, verdict: verdict}
	return enforcement.ActionAllow
}

func (f *fakeApplier) next(t *testing.T) appliedVerdict {
	t.Helper()
	select {
	case a := <-f.applied:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a verdict to be applied")
		return appliedVerdict{}
	}
}

func (f *fakeApplier) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case a := <-f.applied:
		t.Fatalf("unexpected verdict applied: tab=%d url=%s", a.tabID, a.verdict.URL)
	case <-time.After(wait):
	}
}

type coordinatorFixture struct {
	coord   *Coordinator
	scorer  *fakeScorer
	cache   *fakeCache
	applier *fakeApplier
}

func newFixture(t *testing.T) *coordinatorFixture {
	t.Helper()
	scorer := newFakeScorer()
	cache := newFakeCache()
	applier := newFakeApplier()

	coord := NewCoordinator(cache, scorer, fakeExtractor{}, applier, time.Hour, 64, zerolog.Nop())
	coord.Start(context.Background())
	t.Cleanup(coord.Stop)

	return &coordinatorFixture{coord: coord, scorer: scorer, cache: cache, applier: applier}
}

func loadingEvent(tabID int, url string) models.NavigationEvent {
	return models.NavigationEvent{TabID: tabID, URL: url, FrameID: 0, Phase: models.PhaseLoading}
}

func TestCoordinator_NavigationScoresAndApplies(t *testing.T) {
	f := newFixture(t)
	f.scorer.set("https://example.com", models.RiskLevelLow)

	f.coord.HandleNavigation(loadingEvent(1, "https://example.com"))

	applied := f.applier.next(t)
	assert.Equal(t, 1, applied.tabID)
	assert.Equal(t, "https://example.com", applied.verdict.URL)
	assert.Equal(t, models.RiskLevelLow, applied.verdict.RiskLevel)

	// The verdict is cached for the next navigation to the same URL.
	cached, ok := f.cache.Get("https://example.com")
	require.True(t, ok)
	assert.Equal(t, models.RiskLevelLow, cached.RiskLevel)
}

func TestCoordinator_CacheHitSkipsScoring(t *testing.T) {
	f := newFixture(t)
	f.cache.Put("https://example.com", models.RiskVerdict{
		URL:       "https://example.com",
		RiskLevel: models.RiskLevelMedium,
	})

	f.coord.HandleNavigation(loadingEvent(3, "https://example.com"))

	applied := f.applier.next(t)
	assert.Equal(t, models.RiskLevelMedium, applied.verdict.RiskLevel)
	assert.Equal(t, 0, f.scorer.callCount())
}

func TestCoordinator_IgnoresNonScannableNavigations(t *testing.T) {
	f := newFixture(t)

	// Subframe, wrong phase, and non-http scheme are all ignored.
	f.coord.HandleNavigation(models.NavigationEvent{TabID: 1, URL: "https://example.com", FrameID: 2, Phase: models.PhaseLoading})
	f.coord.HandleNavigation(models.NavigationEvent{TabID: 1, URL: "https://example.com", FrameID: 0, Phase: models.PhaseDOMReady})
	f.coord.HandleNavigation(loadingEvent(1, "chrome://settings"))
	f.coord.HandleNavigation(loadingEvent(1, "about:blank"))

	f.applier.expectNone(t, 200*time.Millisecond)
	assert.Equal(t, 0, f.scorer.callCount())
}

func TestCoordinator_StaleResultDiscarded(t *testing.T) {
	f := newFixture(t)

	releaseA := f.scorer.gate("https://a.example.com")
	f.scorer.set("https://a.example.com", models.RiskLevelHigh)
	f.scorer.set("https://b.example.com", models.RiskLevelLow)

	// Navigate to A; its scan hangs. Navigate the same tab to B before
	// A's result arrives.
	f.coord.HandleNavigation(loadingEvent(7, "https://a.example.com"))
	f.coord.HandleNavigation(loadingEvent(7, "https://b.example.com"))

	applied := f.applier.next(t)
	assert.Equal(t, "https://b.example.com", applied.verdict.URL)

	// A's scan completes late: its verdict must not reach the tab.
	releaseA()
	f.applier.expectNone(t, 300*time.Millisecond)

	verdict, ok := f.coord.TabVerdict(7)
	require.True(t, ok)
	assert.Equal(t, "https://b.example.com", verdict.URL)

	// The stale verdict still lands in the cache: it is valid for the
	// URL, just not for this tab anymore.
	require.Eventually(t, func() bool {
		_, ok := f.cache.Get("https://a.example.com")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCoordinator_DeepScan(t *testing.T) {
	f := newFixture(t)
	f.scorer.set("https://phish.example.com/login", models.RiskLevelHigh)

	verdict := f.coord.DeepScan(context.Background(), 4, "https://phish.example.com/login", "<html><body>login</body></html>")

	assert.Equal(t, models.RiskLevelHigh, verdict.RiskLevel)

	applied := f.applier.next(t)
	assert.Equal(t, 4, applied.tabID)

	// Cached under the page URL.
	_, ok := f.cache.Get("https://phish.example.com/login")
	assert.True(t, ok)
}

func TestCoordinator_DeepScanExtractionFailureIsUnknown(t *testing.T) {
	f := newFixture(t)

	verdict := f.coord.DeepScan(context.Background(), 4, "https://example.com", "")

	assert.Equal(t, models.RiskLevelUnknown, verdict.RiskLevel)
}

func TestCoordinator_ManualScanDoesNotTouchTabs(t *testing.T) {
	f := newFixture(t)
	f.scorer.set("https://check-me.example.com", models.RiskLevelMedium)

	verdict := f.coord.ScanURL(context.Background(), "https://check-me.example.com")

	assert.Equal(t, models.RiskLevelMedium, verdict.RiskLevel)
	f.applier.expectNone(t, 200*time.Millisecond)

	_, ok := f.cache.Get("https://check-me.example.com")
	assert.True(t, ok)
}

func TestCoordinator_ManualScanServedFromCache(t *testing.T) {
	f := newFixture(t)
	f.cache.Put("https://cached.example.com", models.RiskVerdict{
		URL:       "https://cached.example.com",
		RiskLevel: models.RiskLevelLow,
	})

	verdict := f.coord.ScanURL(context.Background(), "https://cached.example.com")

	assert.Equal(t, models.RiskLevelLow, verdict.RiskLevel)
	assert.Equal(t, 0, f.scorer.callCount())
}

func TestCoordinator_TabVerdictUnknownTab(t *testing.T) {
	f := newFixture(t)

	_, ok := f.coord.TabVerdict(999)
	assert.False(t, ok)
}

func TestCoordinator_URLsNormalizedBeforeScoring(t *testing.T) {
	f := newFixture(t)
	f.scorer.set("https://example.com/page", models.RiskLevelLow)

	f.coord.HandleNavigation(loadingEvent(2, "HTTPS://EXAMPLE.com/page#section"))

	applied := f.applier.next(t)
	assert.Equal(t, "https://example.com/page", applied.verdict.URL)
}
