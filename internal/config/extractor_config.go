package config

// ExtractorConfig bounds the page snapshot produced by signal extraction.
// The ceilings keep outbound oracle request bodies at a predictable size.
type ExtractorConfig struct {
	MaxHTMLExcerptChars int `json:"max_html_excerpt_chars,omitempty" yaml:"max_html_excerpt_chars,omitempty" validate:"omitempty,gt=0"`
	MaxVisibleTextChars int `json:"max_visible_text_chars,omitempty" yaml:"max_visible_text_chars,omitempty" validate:"omitempty,gt=0"`
	MaxFormFields       int `json:"max_form_fields,omitempty" yaml:"max_form_fields,omitempty" validate:"omitempty,gt=0"`
}

// NewDefaultExtractorConfig creates default extractor configuration.
func NewDefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxHTMLExcerptChars: DefaultMaxHTMLExcerptChars,
		MaxVisibleTextChars: DefaultMaxVisibleTextChars,
		MaxFormFields:       DefaultMaxFormFields,
	}
}
