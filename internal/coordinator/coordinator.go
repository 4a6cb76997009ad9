package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/kestrelsec/pagewarden/internal/enforcement"
	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/kestrelsec/pagewarden/internal/urlhandler"
	"github.com/rs/zerolog"
)

// Scorer produces verdicts; it never fails, it degrades.
type Scorer interface {
	ScoreURL(ctx context.Context, url string) models.RiskVerdict
	ScoreSnapshot(ctx context.Context, snapshot *models.PageSnapshot) models.RiskVerdict
}

// SnapshotExtractor builds a page snapshot from raw HTML.
type SnapshotExtractor interface {
	Extract(pageURL string, htmlBody string) (*models.PageSnapshot, error)
}

// VerdictCache is the coordinator's view of the risk cache.
type VerdictCache interface {
	Get(url string) (models.RiskVerdict, bool)
	Put(url string, verdict models.RiskVerdict)
	Sweep() int
}

// Applier is the coordinator's view of the enforcement layer.
type Applier interface {
	Apply(tabID int, verdict models.RiskVerdict) enforcement.Action
}

// command is one unit of work posted into the event loop. All cache,
// tab-state, and enforcement mutation happens inside the loop goroutine,
// so none of it needs locking.
type command interface{ isCommand() }

type navigationCommand struct {
	event models.NavigationEvent
}

type urlScanResult struct {
	tabID   int
	url     string
	verdict models.RiskVerdict
}

type deepScanResult struct {
	tabID   int
	url     string
	verdict models.RiskVerdict
	reply   chan<- models.RiskVerdict
}

type manualScanCommand struct {
	url   string
	reply chan<- models.RiskVerdict
}

type tabQueryCommand struct {
	tabID int
	reply chan<- *models.RiskVerdict
}

func (navigationCommand) isCommand() {}
func (urlScanResult) isCommand()     {}
func (deepScanResult) isCommand()    {}
func (manualScanCommand) isCommand() {}
func (tabQueryCommand) isCommand()   {}

// Coordinator reacts to navigation events and bridge messages: it
// triggers extraction and scoring exactly once per distinct navigation,
// consults the verdict cache, and hands results to enforcement. It is a
// single-goroutine reducer over a command stream; scoring calls run in
// spawned goroutines and post their results back into the loop, where a
// per-tab expected-URL guard drops anything stale.
type Coordinator struct {
	cache     VerdictCache
	scorer    Scorer
	extractor SnapshotExtractor
	enforcer  Applier
	logger    zerolog.Logger

	sweepInterval time.Duration
	commands      chan command
	tabs          map[int]*tabState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoordinator wires the scanning pipeline. Callers construct it after
// persisted state is loaded and before any event source is attached.
func NewCoordinator(
	cache VerdictCache,
	scorer Scorer,
	extractor SnapshotExtractor,
	enforcer Applier,
	sweepInterval time.Duration,
	queueSize int,
	logger zerolog.Logger,
) *Coordinator {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Coordinator{
		cache:         cache,
		scorer:        scorer,
		extractor:     extractor,
		enforcer:      enforcer,
		sweepInterval: sweepInterval,
		commands:      make(chan command, queueSize),
		tabs:          make(map[int]*tabState),
		logger:        logger.With().Str("component", "Coordinator").Logger(),
	}
}

// Start launches the event loop. Events posted before Start are queued.
func (c *Coordinator) Start(parent context.Context) {
	c.ctx, c.cancel = context.WithCancel(parent)
	c.wg.Add(1)
	go c.run()
	c.logger.Info().Dur("sweep_interval", c.sweepInterval).Msg("Navigation coordinator started")
}

// Stop cancels in-flight scoring and waits for the loop to drain.
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.logger.Info().Msg("Navigation coordinator stopped")
}

// HandleNavigation posts a navigation event. Never blocks the caller:
// when the queue is full the event is dropped and logged, which reads
// as a cache miss on the next event for that tab.
func (c *Coordinator) HandleNavigation(event models.NavigationEvent) {
	select {
	case c.commands <- navigationCommand{event: event}:
	default:
		c.logger.Warn().Int("tab_id", event.TabID).Str("url", event.URL).Msg("Event queue full, dropping navigation event")
	}
}

// DeepScan runs content-script-triggered phishing analysis for a loaded
// page and returns the verdict to reply to the client with. Extraction
// and scoring run off-loop; application to the tab still goes through
// the expected-URL guard.
func (c *Coordinator) DeepScan(ctx context.Context, tabID int, pageURL string, htmlBody string) models.RiskVerdict {
	normalized := c.normalize(pageURL)
	reply := make(chan models.RiskVerdict, 1)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		verdict := c.scoreDeep(normalized, htmlBody)
		select {
		case c.commands <- deepScanResult{tabID: tabID, url: normalized, verdict: verdict, reply: reply}:
		case <-c.ctx.Done():
			reply <- verdict
		}
	}()

	select {
	case verdict := <-reply:
		return verdict
	case <-ctx.Done():
		return models.NewUnknownVerdict(normalized, time.Now())
	}
}

// ScanURL performs an on-demand URL scan for the popup. The verdict is
// cached but not applied to any tab.
func (c *Coordinator) ScanURL(ctx context.Context, url string) models.RiskVerdict {
	normalized := c.normalize(url)
	reply := make(chan models.RiskVerdict, 1)

	select {
	case c.commands <- manualScanCommand{url: normalized, reply: reply}:
	case <-ctx.Done():
		return models.NewUnknownVerdict(normalized, time.Now())
	}

	select {
	case verdict := <-reply:
		return verdict
	case <-ctx.Done():
		return models.NewUnknownVerdict(normalized, time.Now())
	}
}

// TabVerdict returns the last verdict applied to the tab, if any.
func (c *Coordinator) TabVerdict(tabID int) (models.RiskVerdict, bool) {
	reply := make(chan *models.RiskVerdict, 1)
	select {
	case c.commands <- tabQueryCommand{tabID: tabID, reply: reply}:
	case <-c.ctx.Done():
		return models.RiskVerdict{}, false
	}
	verdict := <-reply
	if verdict == nil {
		return models.RiskVerdict{}, false
	}
	return *verdict, true
}

func (c *Coordinator) run() {
	defer c.wg.Done()

	sweepTicker := time.NewTicker(c.sweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-sweepTicker.C:
			c.cache.Sweep()
		case cmd := <-c.commands:
			c.dispatch(cmd)
		}
	}
}

func (c *Coordinator) dispatch(cmd command) {
	// Nothing below is allowed to panic out of the loop: a scanning
	// failure must terminate in a verdict, not take the daemon down.
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("Recovered panic in coordinator loop")
		}
	}()

	switch cmd := cmd.(type) {
	case navigationCommand:
		c.handleNavigation(cmd.event)
	case urlScanResult:
		c.handleURLScanResult(cmd)
	case deepScanResult:
		c.handleDeepScanResult(cmd)
	case manualScanCommand:
		c.handleManualScan(cmd)
	case tabQueryCommand:
		cmd.reply <- c.tabVerdictLocked(cmd.tabID)
	}
}

func (c *Coordinator) handleNavigation(event models.NavigationEvent) {
	if event.Phase != models.PhaseLoading || !event.IsTopLevel() || !urlhandler.IsScannable(event.URL) {
		return
	}

	normalized := c.normalize(event.URL)
	tab := c.tab(event.TabID)

	// A newer navigation supersedes any scan still in flight for this
	// tab; the old result will fail the expected-URL check on arrival.
	tab.phase = phaseScanning
	tab.expectedURL = normalized

	if verdict, ok := c.cache.Get(normalized); ok {
		c.logger.Debug().Int("tab_id", event.TabID).Str("url", normalized).Msg("Cache hit")
		c.settle(event.TabID, tab, verdict)
		return
	}

	c.logger.Debug().Int("tab_id", event.TabID).Str("url", normalized).Msg("Cache miss, scoring URL")
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		verdict := c.scorer.ScoreURL(c.ctx, normalized)
		select {
		case c.commands <- urlScanResult{tabID: event.TabID, url: normalized, verdict: verdict}:
		case <-c.ctx.Done():
		}
	}()
}

func (c *Coordinator) handleURLScanResult(result urlScanResult) {
	// Verdicts are order-independent per URL, so the cache write is
	// valid even when the tab has moved on.
	c.cache.Put(result.url, result.verdict)

	tab, ok := c.tabs[result.tabID]
	if !ok || tab.expectedURL != result.url {
		c.logger.Debug().Int("tab_id", result.tabID).Str("url", result.url).Msg("Discarding stale scan result")
		return
	}
	c.settle(result.tabID, tab, result.verdict)
}

func (c *Coordinator) handleDeepScanResult(result deepScanResult) {
	c.cache.Put(result.url, result.verdict)

	tab, ok := c.tabs[result.tabID]
	if !ok {
		// Deep scans may arrive for tabs the coordinator never saw a
		// navigation for (client attached mid-session).
		tab = c.tab(result.tabID)
		tab.expectedURL = result.url
	}
	if tab.expectedURL == result.url {
		c.settle(result.tabID, tab, result.verdict)
	} else {
		c.logger.Debug().Int("tab_id", result.tabID).Str("url", result.url).Msg("Discarding stale deep scan result")
	}

	result.reply <- result.verdict
}

func (c *Coordinator) handleManualScan(cmd manualScanCommand) {
	if verdict, ok := c.cache.Get(cmd.url); ok {
		cmd.reply <- verdict
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		verdict := c.scorer.ScoreURL(c.ctx, cmd.url)
		c.cache.Put(cmd.url, verdict)
		cmd.reply <- verdict
	}()
}

// settle moves a tab to its terminal per-navigation state and forwards
// the verdict to enforcement.
func (c *Coordinator) settle(tabID int, tab *tabState, verdict models.RiskVerdict) {
	if verdict.RiskLevel == models.RiskLevelUnknown {
		tab.phase = phaseFailed
	} else {
		tab.phase = phaseScored
	}
	v := verdict
	tab.lastVerdict = &v

	action := c.enforcer.Apply(tabID, verdict)
	c.logger.Info().
		Int("tab_id", tabID).
		Str("url", verdict.URL).
		Str("risk_level", string(verdict.RiskLevel)).
		Str("detection_type", string(verdict.DetectionType)).
		Str("action", string(action)).
		Msg("Navigation scan settled")

	tab.phase = phaseIdle
}

// scoreDeep builds the snapshot and scores it. Extraction failure
// degrades to an UNKNOWN verdict instead of surfacing an error.
func (c *Coordinator) scoreDeep(normalizedURL string, htmlBody string) models.RiskVerdict {
	snapshot, err := c.extractor.Extract(normalizedURL, htmlBody)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", normalizedURL).Msg("Snapshot extraction failed")
		return models.NewUnknownVerdict(normalizedURL, time.Now())
	}
	return c.scorer.ScoreSnapshot(c.ctx, snapshot)
}

func (c *Coordinator) tab(tabID int) *tabState {
	tab, ok := c.tabs[tabID]
	if !ok {
		tab = &tabState{}
		c.tabs[tabID] = tab
	}
	return tab
}

func (c *Coordinator) tabVerdictLocked(tabID int) *models.RiskVerdict {
	if tab, ok := c.tabs[tabID]; ok {
		return tab.lastVerdict
	}
	return nil
}

func (c *Coordinator) normalize(url string) string {
	if normalized, err := urlhandler.NormalizeURL(url); err == nil {
		return normalized
	}
	return url
}
