package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"title":    false, // titles are shown in the tab and count as visible
}

// collectVisibleText walks the document and gathers text the user can
// actually see, skipping elements whose markup indicates invisibility.
func (e *Extractor) collectVisibleText(doc *goquery.Document) string {
	var builder strings.Builder
	limit := e.cfg.MaxVisibleTextChars

	doc.Find("title").Each(func(_ int, s *goquery.Selection) {
		appendText(&builder, s.Text(), limit)
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		return strings.TrimSpace(builder.String())
	}
	for _, node := range body.Nodes {
		walkVisible(node, &builder, limit)
	}
	return strings.TrimSpace(builder.String())
}

func walkVisible(node *html.Node, builder *strings.Builder, limit int) {
	if limit > 0 && builder.Len() >= limit {
		return
	}
	switch node.Type {
	case html.TextNode:
		appendText(builder, node.Data, limit)
		return
	case html.ElementNode:
		if skippedElements[node.Data] || isHiddenElement(node) {
			return
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walkVisible(child, builder, limit)
	}
}

// isHiddenElement checks the markup-level invisibility signals available
// without a layout engine: the hidden attribute, aria-hidden, and inline
// display/visibility/opacity styles.
func isHiddenElement(node *html.Node) bool {
	for _, attr := range node.Attr {
		switch attr.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		case "type":
			if node.Data == "input" && attr.Val == "hidden" {
				return true
			}
		case "style":
			if styleIndicatesHidden(attr.Val) {
				return true
			}
		}
	}
	return false
}

func styleIndicatesHidden(style string) bool {
	compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(compact, "display:none") ||
		strings.Contains(compact, "visibility:hidden") ||
		strings.Contains(compact, "opacity:0;") ||
		strings.HasSuffix(compact, "opacity:0")
}

func appendText(builder *strings.Builder, text string, limit int) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	if limit > 0 {
		remaining := limit - builder.Len()
		if remaining <= 0 {
			return
		}
		if len(trimmed) > remaining {
			trimmed = trimmed[:remaining]
		}
	}
	if builder.Len() > 0 {
		builder.WriteByte(' ')
	}
	builder.WriteString(trimmed)
}
