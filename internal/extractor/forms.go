package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kestrelsec/pagewarden/internal/models"
)

// collectFormFields inventories the page's input fields. Field values
// are never captured; password fields in particular are reduced to their
// shape (name/type/placeholder) so raw credentials cannot leave the page.
func (e *Extractor) collectFormFields(doc *goquery.Document) []models.FormField {
	var fields []models.FormField
	max := e.cfg.MaxFormFields

	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		action, _ := form.Attr("action")
		form.Find("input, select, textarea").Each(func(_ int, input *goquery.Selection) {
			if max > 0 && len(fields) >= max {
				return
			}
			fields = append(fields, fieldFromSelection(input, action))
		})
	})

	// Inputs outside any form still matter: credential harvesters often
	// submit them from script instead of a form action.
	doc.Find("input, select, textarea").Each(func(_ int, input *goquery.Selection) {
		if max > 0 && len(fields) >= max {
			return
		}
		if input.Closest("form").Length() > 0 {
			return
		}
		fields = append(fields, fieldFromSelection(input, ""))
	})

	return fields
}

func fieldFromSelection(input *goquery.Selection, formAction string) models.FormField {
	name, _ := input.Attr("name")
	placeholder, _ := input.Attr("placeholder")
	_, required := input.Attr("required")

	fieldType, _ := input.Attr("type")
	switch goquery.NodeName(input) {
	case "select":
		fieldType = "select"
	case "textarea":
		fieldType = "textarea"
	default:
		if fieldType == "" {
			fieldType = "text"
		}
	}

	return models.FormField{
		Name:        name,
		Type:        strings.ToLower(fieldType),
		Placeholder: placeholder,
		IsRequired:  required,
		Action:      formAction,
	}
}
