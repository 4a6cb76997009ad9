package enforcement

import (
	"sync"
	"time"

	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/rs/zerolog"
)

// Action is what the enforcement layer decided to do with a verdict.
type Action string

const (
	ActionAllow Action = "allow"
	ActionWarn  Action = "warn"
	ActionBlock Action = "block"
)

// TabUI abstracts the browser-side surfaces the enforcer can mutate.
// The bridge implements it by queueing directives for the client; tests
// substitute a fake.
type TabUI interface {
	// SetBadge updates the tab's icon/badge to reflect the risk level.
	SetBadge(tabID int, level models.RiskLevel) error
	// InjectOverlay asks the tab's content script to cover the page
	// with a blocking overlay. Fails when the client is unreachable.
	InjectOverlay(tabID int, verdict models.RiskVerdict) error
	// RedirectToBlocked navigates the tab to the local blocked page.
	RedirectToBlocked(tabID int, url string, reason string) error
	// Notify shows a transient notification.
	Notify(tabID int, title string, message string) error
}

// Persister receives state changes that must survive restarts.
type Persister interface {
	SaveSettings(settings models.ExtensionSettings) error
	AppendScanHistory(entry models.ScanHistoryEntry) error
}

// Enforcer turns verdicts into user-visible outcomes: badge updates,
// warnings, and blocks with a redirect fallback when overlay injection
// fails. It owns the runtime settings and the scan-history ring.
type Enforcer struct {
	ui        TabUI
	persister Persister
	history   *History
	logger    zerolog.Logger

	settingsMu sync.RWMutex
	settings   models.ExtensionSettings
}

// NewEnforcer creates an enforcement layer seeded with loaded settings.
func NewEnforcer(ui TabUI, persister Persister, settings models.ExtensionSettings, historyCapacity int, logger zerolog.Logger) *Enforcer {
	return &Enforcer{
		ui:        ui,
		persister: persister,
		history:   NewHistory(historyCapacity),
		settings:  settings,
		logger:    logger.With().Str("component", "Enforcer").Logger(),
	}
}

// History exposes the scan-history ring.
func (e *Enforcer) History() *History {
	return e.history
}

// Settings returns a copy of the current settings.
func (e *Enforcer) Settings() models.ExtensionSettings {
	e.settingsMu.RLock()
	defer e.settingsMu.RUnlock()
	return e.settings
}

// UpdateSettings replaces the runtime settings and persists them.
func (e *Enforcer) UpdateSettings(settings models.ExtensionSettings) error {
	e.settingsMu.Lock()
	e.settings = settings
	e.settingsMu.Unlock()

	if err := e.persister.SaveSettings(settings); err != nil {
		e.logger.Error().Err(err).Msg("Failed to persist settings update")
		return err
	}
	e.logger.Info().
		Bool("enabled", settings.Enabled).
		Bool("blocking", settings.BlockingEnabled).
		Bool("notifications", settings.NotificationsEnabled).
		Msg("Settings updated")
	return nil
}

// BlockSite adds the URL to the blocked set and persists the change.
func (e *Enforcer) BlockSite(normalizedURL string) error {
	e.settingsMu.Lock()
	added := e.settings.AddBlockedSite(normalizedURL)
	settings := e.settings
	e.settingsMu.Unlock()

	if !added {
		return nil
	}
	return e.persister.SaveSettings(settings)
}

// Apply executes the decision table for one verdict. The badge update
// is the only action guaranteed on every call; everything else depends
// on risk level and settings. Apply never returns an error: enforcement
// failures degrade toward weaker-but-present warnings.
func (e *Enforcer) Apply(tabID int, verdict models.RiskVerdict) Action {
	e.recordHistory(verdict)
	e.updateBadge(tabID, verdict)

	settings := e.Settings()
	if !settings.Enabled {
		return ActionAllow
	}

	switch verdict.RiskLevel {
	case models.RiskLevelHigh:
		if settings.BlockingEnabled && !settings.IsWhitelisted(verdict.URL) {
			e.block(tabID, verdict)
			return ActionBlock
		}
		e.warn(tabID, verdict, settings)
		return ActionWarn
	case models.RiskLevelMedium:
		if settings.BlockingEnabled {
			e.warn(tabID, verdict, settings)
			return ActionWarn
		}
		return ActionAllow
	default:
		// LOW and UNKNOWN: badge only.
		return ActionAllow
	}
}

func (e *Enforcer) recordHistory(verdict models.RiskVerdict) {
	entry := models.ScanHistoryEntry{
		URL:       verdict.URL,
		Verdict:   verdict,
		Timestamp: verdict.Timestamp,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	e.history.Add(entry)
	if err := e.persister.AppendScanHistory(entry); err != nil {
		e.logger.Warn().Err(err).Str("url", verdict.URL).Msg("Failed to persist scan history entry")
	}
}

func (e *Enforcer) updateBadge(tabID int, verdict models.RiskVerdict) {
	if err := e.ui.SetBadge(tabID, verdict.RiskLevel); err != nil {
		e.logger.Debug().Err(err).Int("tab_id", tabID).Msg("Badge update failed")
	}
}

// block runs the enforcement fallback chain: overlay, then redirect to
// the blocked page, then notification-only so the user is never left
// unprotected or staring at a broken tab.
func (e *Enforcer) block(tabID int, verdict models.RiskVerdict) {
	if err := e.BlockSite(verdict.URL); err != nil {
		e.logger.Warn().Err(err).Str("url", verdict.URL).Msg("Failed to persist blocked site")
	}

	overlayErr := e.ui.InjectOverlay(tabID, verdict)
	if overlayErr == nil {
		e.logger.Info().Int("tab_id", tabID).Str("url", verdict.URL).Msg("Blocked page via overlay")
		return
	}
	e.logger.Warn().Err(overlayErr).Int("tab_id", tabID).Msg("Overlay injection failed, redirecting to blocked page")

	reason := blockReason(verdict)
	redirectErr := e.ui.RedirectToBlocked(tabID, verdict.URL, reason)
	if redirectErr == nil {
		e.logger.Info().Int("tab_id", tabID).Str("url", verdict.URL).Msg("Blocked page via redirect")
		return
	}
	e.logger.Warn().Err(redirectErr).Int("tab_id", tabID).Msg("Blocked-page redirect failed, degrading to notification")

	if err := e.ui.Notify(tabID, "Dangerous site", "PageWarden could not block "+verdict.URL+": "+reason); err != nil {
		e.logger.Error().Err(err).Int("tab_id", tabID).Msg("All enforcement surfaces failed for high-risk page")
	}
}

func (e *Enforcer) warn(tabID int, verdict models.RiskVerdict, settings models.ExtensionSettings) {
	if !settings.NotificationsEnabled {
		return
	}
	if err := e.ui.Notify(tabID, "Suspicious site", blockReason(verdict)); err != nil {
		e.logger.Debug().Err(err).Int("tab_id", tabID).Msg("Warning notification failed")
	}
}

func blockReason(verdict models.RiskVerdict) string {
	if len(verdict.ThreatsDetected) > 0 && verdict.ThreatsDetected[0].Description != "" {
		return verdict.ThreatsDetected[0].Description
	}
	return "Risk level " + string(verdict.RiskLevel)
}
