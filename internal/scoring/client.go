package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kestrelsec/pagewarden/internal/config"
	"github.com/kestrelsec/pagewarden/internal/httpclient"
	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/rs/zerolog"
)

// Client scores URLs and page snapshots against the external oracle,
// degrading per failure class instead of returning errors:
//
//	2xx well-formed  -> oracle verdict
//	2xx malformed    -> fixed neutral-caution verdict (warn, not silence)
//	transport error  -> heuristic fallback (snapshot path) or UNKNOWN
//	                    (URL-only path, which deliberately has no fallback)
type Client struct {
	httpClient *httpclient.Client
	cfg        config.OracleConfig
	heuristic  *HeuristicScorer
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a scoring client backed by the shared HTTP client.
func NewClient(cfg config.OracleConfig, hc *httpclient.Client, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: hc,
		cfg:        cfg,
		heuristic:  NewHeuristicScorer(),
		logger:     logger.With().Str("component", "ScoringClient").Logger(),
		now:        time.Now,
	}
}

// SetClock replaces the client's time source. Test hook.
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// ScoreURL runs the lightweight URL-only scan. On transport failure the
// verdict is UNKNOWN: this path has no local fallback, accepting
// degraded coverage in exchange for staying cheap on every navigation.
func (c *Client) ScoreURL(ctx context.Context, url string) models.RiskVerdict {
	result := c.callScan(ctx, url)
	switch result.Status {
	case OracleOK:
		return result.Verdict
	case OracleMalformed:
		c.logger.Warn().Err(result.Err).Str("url", url).Msg("Oracle returned malformed scan response")
		return c.neutralCautionVerdict(url)
	default:
		c.logger.Warn().Err(result.Err).Str("url", url).Msg("Oracle unreachable for URL scan, verdict UNKNOWN")
		return models.NewUnknownVerdict(url, c.now())
	}
}

// ScoreSnapshot runs the deep phishing scan. On transport failure the
// local heuristic scorer takes over.
func (c *Client) ScoreSnapshot(ctx context.Context, snapshot *models.PageSnapshot) models.RiskVerdict {
	result := c.callPhishingDetect(ctx, snapshot)
	switch result.Status {
	case OracleOK:
		return result.Verdict
	case OracleMalformed:
		c.logger.Warn().Err(result.Err).Str("url", snapshot.URL).Msg("Oracle returned malformed phishing response")
		return c.neutralCautionVerdict(snapshot.URL)
	default:
		c.logger.Warn().Err(result.Err).Str("url", snapshot.URL).Msg("Oracle unreachable, falling back to local heuristic")
		verdict := c.heuristic.Score(snapshot)
		verdict.Timestamp = c.now()
		return verdict
	}
}

// scanResponse is the URL-only oracle response shape. Pointer fields
// distinguish absent from zero during shape validation.
type scanResponse struct {
	RiskLevel  *string  `json:"riskLevel"`
	Score      *int     `json:"score"`
	Confidence *int     `json:"confidence"`
	Reason     string   `json:"reason,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// phishingResponse is the deep-scan oracle response shape.
type phishingResponse struct {
	Success         *bool           `json:"success"`
	RiskLevel       *string         `json:"riskLevel"`
	Score           *int            `json:"score"`
	Confidence      *int            `json:"confidence"`
	ThreatsDetected []models.Threat `json:"threatsDetected,omitempty"`
	Recommendation  string          `json:"recommendation,omitempty"`
	DetectionType   string          `json:"detectionType,omitempty"`
	URL             string          `json:"url,omitempty"`
}

func (c *Client) callScan(ctx context.Context, url string) OracleResult {
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return malformedResult(fmt.Errorf("failed to encode scan request: %w", err))
	}

	respBody, result := c.post(ctx, c.cfg.ScanPath, body)
	if result != nil {
		return *result
	}

	var resp scanResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return malformedResult(fmt.Errorf("failed to decode scan response: %w", err))
	}
	riskLevel, ok := parseRiskLevel(resp.RiskLevel)
	if !ok {
		return malformedResult(fmt.Errorf("scan response missing riskLevel"))
	}

	verdict := models.RiskVerdict{
		URL:            url,
		RiskLevel:      riskLevel,
		Score:          intOrZero(resp.Score),
		Confidence:     intOrZero(resp.Confidence),
		Recommendation: recommendationFor(riskLevel),
		DetectionType:  models.DetectionTypeOracle,
		Timestamp:      c.now(),
	}
	if resp.Reason != "" {
		verdict.ThreatsDetected = append(verdict.ThreatsDetected, models.Threat{
			Type:        "oracle_reason",
			Severity:    severityFor(riskLevel),
			Description: resp.Reason,
			Score:       verdict.Score,
		})
	}
	for _, category := range resp.Categories {
		verdict.ThreatsDetected = append(verdict.ThreatsDetected, models.Threat{
			Type:        category,
			Severity:    severityFor(riskLevel),
			Description: "Oracle category: " + category,
		})
	}
	return okResult(verdict)
}

func (c *Client) callPhishingDetect(ctx context.Context, snapshot *models.PageSnapshot) OracleResult {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return malformedResult(fmt.Errorf("failed to encode snapshot: %w", err))
	}

	respBody, result := c.post(ctx, c.cfg.PhishingPath, body)
	if result != nil {
		return *result
	}

	var resp phishingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return malformedResult(fmt.Errorf("failed to decode phishing response: %w", err))
	}
	riskLevel, ok := parseRiskLevel(resp.RiskLevel)
	if !ok {
		return malformedResult(fmt.Errorf("phishing response missing riskLevel"))
	}

	verdict := models.RiskVerdict{
		URL:             snapshot.URL,
		RiskLevel:       riskLevel,
		Score:           intOrZero(resp.Score),
		Confidence:      intOrZero(resp.Confidence),
		ThreatsDetected: resp.ThreatsDetected,
		Recommendation:  recommendationFor(riskLevel),
		DetectionType:   models.DetectionTypeOracle,
		Timestamp:       c.now(),
	}
	if rec := models.Recommendation(resp.Recommendation); rec == models.RecommendationAllow ||
		rec == models.RecommendationWarn || rec == models.RecommendationBlock {
		verdict.Recommendation = rec
	}
	return okResult(verdict)
}

// post issues the oracle call. A nil OracleResult means the caller got a
// 2xx body to decode; otherwise the tagged failure is final.
func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, *OracleResult) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	req := &httpclient.Request{
		Method: http.MethodPost,
		URL:    strings.TrimRight(c.cfg.BaseURL, "/") + path,
		Headers: map[string]string{
			"Content-Type":              "application/json",
			config.DefaultClientVersionHeader: c.cfg.ClientVersion,
		},
		Body:    body,
		Context: ctx,
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result := transportResult(err)
		return nil, &result
	}
	if !resp.IsSuccess() {
		result := transportResult(fmt.Errorf("oracle returned status %d", resp.StatusCode))
		return nil, &result
	}
	return resp.Body, nil
}

// neutralCautionVerdict is the fixed degraded verdict for malformed
// oracle responses: fail toward caution, not toward silence.
func (c *Client) neutralCautionVerdict(url string) models.RiskVerdict {
	return models.RiskVerdict{
		URL:        url,
		RiskLevel:  models.RiskLevelMedium,
		Score:      65,
		Confidence: 50,
		ThreatsDetected: []models.Threat{{
			Type:        "analysis_error",
			Severity:    models.ThreatSeverityMedium,
			Description: "Scoring service returned an unreadable result; treating the page with caution",
			Score:       65,
		}},
		Recommendation: models.RecommendationWarn,
		DetectionType:  models.DetectionTypeAnalysisError,
		Timestamp:      c.now(),
	}
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func parseRiskLevel(raw *string) (models.RiskLevel, bool) {
	if raw == nil {
		return "", false
	}
	switch models.RiskLevel(strings.ToUpper(*raw)) {
	case models.RiskLevelLow:
		return models.RiskLevelLow, true
	case models.RiskLevelMedium:
		return models.RiskLevelMedium, true
	case models.RiskLevelHigh:
		return models.RiskLevelHigh, true
	case models.RiskLevelUnknown:
		return models.RiskLevelUnknown, true
	default:
		return "", false
	}
}

func recommendationFor(level models.RiskLevel) models.Recommendation {
	switch level {
	case models.RiskLevelHigh:
		return models.RecommendationBlock
	case models.RiskLevelMedium:
		return models.RecommendationWarn
	default:
		return models.RecommendationAllow
	}
}

func severityFor(level models.RiskLevel) models.ThreatSeverity {
	switch level {
	case models.RiskLevelHigh:
		return models.ThreatSeverityHigh
	case models.RiskLevelMedium:
		return models.ThreatSeverityMedium
	default:
		return models.ThreatSeverityLow
	}
}
