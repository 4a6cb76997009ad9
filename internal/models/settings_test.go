package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	assert.True(t, settings.Enabled)
	assert.True(t, settings.BlockingEnabled)
	assert.True(t, settings.NotificationsEnabled)
	assert.Empty(t, settings.BlockedSites)
}

func TestSettings_BlockedAndWhitelisted(t *testing.T) {
	settings := ExtensionSettings{
		BlockedSites: []string{"https://evil.example.com"},
		Whitelist:    []string{"https://trusted.example.com"},
	}

	assert.True(t, settings.IsBlocked("https://evil.example.com"))
	assert.False(t, settings.IsBlocked("https://other.example.com"))
	assert.True(t, settings.IsWhitelisted("https://trusted.example.com"))
	assert.False(t, settings.IsWhitelisted("https://evil.example.com"))
}

func TestSettings_AddBlockedSite(t *testing.T) {
	settings := DefaultSettings()

	assert.True(t, settings.AddBlockedSite("https://evil.example.com"))
	assert.False(t, settings.AddBlockedSite("https://evil.example.com"))
	assert.Len(t, settings.BlockedSites, 1)
}

func TestRiskVerdict_IsActionable(t *testing.T) {
	assert.False(t, RiskVerdict{RiskLevel: RiskLevelLow}.IsActionable())
	assert.True(t, RiskVerdict{RiskLevel: RiskLevelMedium}.IsActionable())
	assert.True(t, RiskVerdict{RiskLevel: RiskLevelHigh}.IsActionable())
	assert.False(t, RiskVerdict{RiskLevel: RiskLevelUnknown}.IsActionable())
}

func TestNavigationEvent_IsTopLevel(t *testing.T) {
	assert.True(t, NavigationEvent{FrameID: 0}.IsTopLevel())
	assert.False(t, NavigationEvent{FrameID: 3}.IsTopLevel())
}

func TestPageSnapshot_HasPattern(t *testing.T) {
	snapshot := &PageSnapshot{SuspiciousPatterns: []SuspiciousPattern{PatternHiddenPassword}}

	assert.True(t, snapshot.HasPattern(PatternHiddenPassword))
	assert.False(t, snapshot.HasPattern(PatternFakeBranding))
}
