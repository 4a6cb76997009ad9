package models

import "time"

// RiskLevel classifies the overall risk of a URL or page.
type RiskLevel string

const (
	RiskLevelLow     RiskLevel = "LOW"
	RiskLevelMedium  RiskLevel = "MEDIUM"
	RiskLevelHigh    RiskLevel = "HIGH"
	RiskLevelUnknown RiskLevel = "UNKNOWN"
)

// Recommendation is the enforcement hint attached to a verdict.
type Recommendation string

const (
	RecommendationAllow Recommendation = "ALLOW_ACCESS"
	RecommendationWarn  Recommendation = "WARN_USER"
	RecommendationBlock Recommendation = "BLOCK"
)

// DetectionType records which analysis path produced a verdict.
type DetectionType string

const (
	DetectionTypeOracle        DetectionType = "oracle"
	DetectionTypeBasicFallback DetectionType = "basic_fallback"
	DetectionTypeAnalysisError DetectionType = "analysis_error"
)

// ThreatSeverity uses a low/medium/high scale for quick triage.
type ThreatSeverity string

const (
	ThreatSeverityLow    ThreatSeverity = "low"
	ThreatSeverityMedium ThreatSeverity = "medium"
	ThreatSeverityHigh   ThreatSeverity = "high"
)

// Threat is a single detection contributing to a verdict.
type Threat struct {
	Type        string         `json:"type"`
	Severity    ThreatSeverity `json:"severity"`
	Description string         `json:"description"`
	Score       int            `json:"score"`
}

// RiskVerdict is the immutable outcome of risk scoring for one URL.
// It is produced by the scoring client or the local heuristic scorer,
// cached by normalized URL, and appended to scan history.
type RiskVerdict struct {
	URL             string         `json:"url"`
	RiskLevel       RiskLevel      `json:"riskLevel"`
	Score           int            `json:"score"`
	Confidence      int            `json:"confidence"`
	ThreatsDetected []Threat       `json:"threatsDetected,omitempty"`
	Recommendation  Recommendation `json:"recommendation"`
	DetectionType   DetectionType  `json:"detectionType"`
	Timestamp       time.Time      `json:"timestamp"`
}

// NewUnknownVerdict builds the degraded verdict used when no analysis
// path could produce a result for the given URL.
func NewUnknownVerdict(url string, now time.Time) RiskVerdict {
	return RiskVerdict{
		URL:            url,
		RiskLevel:      RiskLevelUnknown,
		Score:          0,
		Confidence:     0,
		Recommendation: RecommendationAllow,
		DetectionType:  DetectionTypeAnalysisError,
		Timestamp:      now,
	}
}

// IsActionable reports whether the verdict carries enough signal for the
// enforcement layer to warn or block on.
func (v RiskVerdict) IsActionable() bool {
	return v.RiskLevel == RiskLevelMedium || v.RiskLevel == RiskLevelHigh
}
