package scoring

import (
	"fmt"
	"strings"

	"github.com/kestrelsec/pagewarden/internal/models"
)

// Heuristic scoring weights. The summed score is capped at 100 and the
// MEDIUM threshold sits strictly above 60; this scorer never reaches
// HIGH because it is a low-confidence approximation used only when the
// oracle is unreachable.
const (
	keywordPoints        = 5
	keywordScoreCap      = 30
	credentialPairPoints = 25
	suspiciousTLDPoints  = 20
	mediumThreshold      = 60
	heuristicConfidence  = 25
)

// suspiciousKeywords are the terms whose density in visible text feeds
// the keyword signal.
var suspiciousKeywords = []string{
	"login", "verify", "account", "password", "urgent",
	"suspend", "confirm", "bank", "winner", "prize",
}

// HeuristicScorer is the deterministic, dependency-free fallback risk
// function. Identical snapshots always produce identical verdicts; the
// verdict timestamp is left zero so callers stamp it at the boundary.
type HeuristicScorer struct{}

// NewHeuristicScorer creates the fallback scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Score accumulates independent signals from the snapshot into a capped
// 0-100 score and maps it onto a risk level.
func (h *HeuristicScorer) Score(snapshot *models.PageSnapshot) models.RiskVerdict {
	var threats []models.Threat
	total := 0

	if points, hits := h.keywordScore(snapshot.VisibleText); points > 0 {
		total += points
		threats = append(threats, models.Threat{
			Type:        "suspicious_keywords",
			Severity:    models.ThreatSeverityLow,
			Description: fmt.Sprintf("%d suspicious keyword occurrences in visible text", hits),
			Score:       points,
		})
	}

	if h.hasCredentialPair(snapshot.FormFields) {
		total += credentialPairPoints
		threats = append(threats, models.Threat{
			Type:        "credential_form",
			Severity:    models.ThreatSeverityMedium,
			Description: "Page combines password and email fields",
			Score:       credentialPairPoints,
		})
	}

	if snapshot.DomainInfo.HasSuspiciousTLD {
		total += suspiciousTLDPoints
		threats = append(threats, models.Threat{
			Type:        "suspicious_tld",
			Severity:    models.ThreatSeverityMedium,
			Description: fmt.Sprintf("Low-trust top-level domain .%s", snapshot.DomainInfo.TLD),
			Score:       suspiciousTLDPoints,
		})
	}

	if total > 100 {
		total = 100
	}

	riskLevel := models.RiskLevelLow
	recommendation := models.RecommendationAllow
	if total > mediumThreshold {
		riskLevel = models.RiskLevelMedium
		recommendation = models.RecommendationWarn
	}

	return models.RiskVerdict{
		URL:             snapshot.URL,
		RiskLevel:       riskLevel,
		Score:           total,
		Confidence:      heuristicConfidence,
		ThreatsDetected: threats,
		Recommendation:  recommendation,
		DetectionType:   models.DetectionTypeBasicFallback,
	}
}

// keywordScore counts keyword occurrences in the lowercased visible
// text, awarding keywordPoints per hit up to the cap.
func (h *HeuristicScorer) keywordScore(visibleText string) (points int, hits int) {
	text := strings.ToLower(visibleText)
	for _, keyword := range suspiciousKeywords {
		hits += strings.Count(text, keyword)
	}
	points = hits * keywordPoints
	if points > keywordScoreCap {
		points = keywordScoreCap
	}
	return points, hits
}

// hasCredentialPair reports a password field combined with an email
// field, the minimal shape of a credential-harvesting form.
func (h *HeuristicScorer) hasCredentialPair(fields []models.FormField) bool {
	hasPassword := false
	hasEmail := false
	for _, field := range fields {
		switch {
		case field.Type == "password":
			hasPassword = true
		case field.Type == "email":
			hasEmail = true
		case strings.Contains(strings.ToLower(field.Name), "email"),
			strings.Contains(strings.ToLower(field.Placeholder), "email"):
			hasEmail = true
		}
	}
	return hasPassword && hasEmail
}
