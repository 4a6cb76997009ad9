package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kestrelsec/pagewarden/internal/config"
	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/kestrelsec/pagewarden/internal/urlhandler"
	"github.com/rs/zerolog"
)

// Extractor produces bounded PageSnapshots from raw page HTML. It never
// performs network calls; the HTML arrives from the browser client.
type Extractor struct {
	cfg    config.ExtractorConfig
	logger zerolog.Logger
}

// NewExtractor creates a signal extractor with the given bounds.
func NewExtractor(cfg config.ExtractorConfig, logger zerolog.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		logger: logger.With().Str("component", "Extractor").Logger(),
	}
}

// Extract parses the page and assembles its snapshot. Extraction is
// idempotent for a given (url, html) pair and tolerates partially broken
// markup; individual signal failures degrade to a partial snapshot
// rather than an error.
func (e *Extractor) Extract(pageURL string, htmlBody string) (*models.PageSnapshot, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid page URL '%s': %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	snapshot := &models.PageSnapshot{
		URL:         pageURL,
		HTMLExcerpt: truncate(htmlBody, e.cfg.MaxHTMLExcerptChars),
		TLSInfo: models.TLSInfo{
			IsSecureTransport: strings.EqualFold(parsedURL.Scheme, "https"),
		},
	}

	domainInfo, err := urlhandler.AnalyzeHost(parsedURL.Hostname())
	if err != nil {
		e.logger.Debug().Err(err).Str("url", pageURL).Msg("Domain analysis failed, continuing with partial snapshot")
	} else {
		snapshot.DomainInfo = domainInfo
	}

	snapshot.VisibleText = e.collectVisibleText(doc)
	snapshot.FormFields = e.collectFormFields(doc)
	snapshot.SuspiciousPatterns = e.detectPatterns(doc, snapshot)

	e.logger.Debug().
		Str("url", pageURL).
		Int("visible_text_chars", len(snapshot.VisibleText)).
		Int("form_fields", len(snapshot.FormFields)).
		Int("patterns", len(snapshot.SuspiciousPatterns)).
		Msg("Page snapshot extracted")

	return snapshot, nil
}

// truncate caps s at max characters. Non-positive max means unbounded.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
