package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/kestrelsec/pagewarden/internal/urlhandler"
)

// brandNames are impersonation targets checked for the fake-branding
// tag. A brand mention is only suspicious when the page is not hosted on
// that brand's own primary domain.
var brandNames = []string{
	"paypal", "apple", "microsoft", "google", "amazon",
	"netflix", "facebook", "instagram", "coinbase", "binance",
}

// detectPatterns tags the snapshot with suspicious DOM constructs from
// the fixed vocabulary. Each check is independent; a failing check
// contributes nothing rather than aborting detection.
func (e *Extractor) detectPatterns(doc *goquery.Document, snapshot *models.PageSnapshot) []models.SuspiciousPattern {
	var tags []models.SuspiciousPattern
	add := func(p models.SuspiciousPattern) {
		for _, existing := range tags {
			if existing == p {
				return
			}
		}
		tags = append(tags, p)
	}

	if hasHiddenPasswordInput(doc) {
		add(models.PatternHiddenPassword)
	}
	if brand := impersonatedBrand(snapshot); brand != "" {
		add(models.PatternFakeBranding)
	}
	if hasRedirectionScript(doc) {
		add(models.PatternRedirectionScript)
	}
	if hasOffOriginIframe(doc, snapshot.DomainInfo.PrimaryDomain) {
		add(models.PatternIframeInjection)
	}
	if hasWebcamAccessRequest(doc) {
		add(models.PatternWebcamAccessRequest)
	}
	return tags
}

// hasHiddenPasswordInput finds password fields tucked into invisible
// containers, a staple of credential-replay overlays.
func hasHiddenPasswordInput(doc *goquery.Document) bool {
	found := false
	doc.Find(`input[type="password"]`).EachWithBreak(func(_ int, input *goquery.Selection) bool {
		for _, node := range input.Nodes {
			if isHiddenElement(node) {
				found = true
				return false
			}
		}
		hiddenAncestor := false
		input.Parents().EachWithBreak(func(_ int, parent *goquery.Selection) bool {
			for _, node := range parent.Nodes {
				if isHiddenElement(node) {
					hiddenAncestor = true
					return false
				}
			}
			return true
		})
		if hiddenAncestor {
			found = true
			return false
		}
		return true
	})
	return found
}

// impersonatedBrand returns the first brand mentioned prominently on a
// page not hosted by that brand, or "" when none.
func impersonatedBrand(snapshot *models.PageSnapshot) string {
	text := strings.ToLower(snapshot.VisibleText)
	primary := strings.ToLower(snapshot.DomainInfo.PrimaryDomain)
	for _, brand := range brandNames {
		if strings.Contains(text, brand) && !strings.Contains(primary, brand) {
			return brand
		}
	}
	return ""
}

func hasRedirectionScript(doc *goquery.Document) bool {
	if doc.Find(`meta[http-equiv="refresh"]`).Length() > 0 {
		return true
	}
	suspicious := false
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		src := script.Text()
		if strings.Contains(src, "window.location") ||
			strings.Contains(src, "location.href") ||
			strings.Contains(src, "location.replace") {
			suspicious = true
			return false
		}
		return true
	})
	return suspicious
}

// hasOffOriginIframe reports iframes sourced from a different primary
// domain than the hosting page.
func hasOffOriginIframe(doc *goquery.Document, pagePrimaryDomain string) bool {
	if pagePrimaryDomain == "" {
		return false
	}
	found := false
	doc.Find("iframe[src]").EachWithBreak(func(_ int, iframe *goquery.Selection) bool {
		src, _ := iframe.Attr("src")
		host, err := urlhandler.HostnameOf(src)
		if err != nil {
			return true // relative or malformed src, same-origin by definition
		}
		info, err := urlhandler.AnalyzeHost(host)
		if err != nil {
			return true
		}
		if !strings.EqualFold(info.PrimaryDomain, pagePrimaryDomain) {
			found = true
			return false
		}
		return true
	})
	return found
}

func hasWebcamAccessRequest(doc *goquery.Document) bool {
	found := false
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		if strings.Contains(script.Text(), "getUserMedia") {
			found = true
			return false
		}
		return true
	})
	return found
}
