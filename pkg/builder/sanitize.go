package builder

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Sanitizer cleans organizer-provided display strings before they are stored
// in a schema. Labels, placeholders and option labels are reduced to plain
// text; help text and form descriptions keep a small set of inline markup.
type Sanitizer struct {
	plain *bluemonday.Policy
	rich  *bluemonday.Policy
}

var (
	defaultSanitizerOnce sync.Once
	defaultSanitizer     *Sanitizer
)

// DefaultSanitizer returns the shared sanitizer used by New.
func DefaultSanitizer() *Sanitizer {
	defaultSanitizerOnce.Do(func() {
		rich := bluemonday.NewPolicy()
		rich.AllowElements("b", "strong", "i", "em", "u", "br", "p", "ul", "ol", "li", "code", "a")
		rich.AllowAttrs("href").OnElements("a")
		rich.AllowStandardURLs()
		rich.RequireNoFollowOnLinks(true)
		rich.AddTargetBlankToFullyQualifiedLinks(true)

		defaultSanitizer = &Sanitizer{
			plain: bluemonday.StrictPolicy(),
			rich:  rich,
		}
	})
	return defaultSanitizer
}

// Plain strips all markup and returns unescaped text.
func (s *Sanitizer) Plain(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if s == nil || s.plain == nil || trimmed == "" {
		return trimmed
	}
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(trimmed)))
}

// Rich keeps the allowed inline markup and drops everything else.
func (s *Sanitizer) Rich(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if s == nil || s.rich == nil || trimmed == "" {
		return trimmed
	}
	return strings.TrimSpace(s.rich.Sanitize(trimmed))
}

// Field cleans every display string of field in place. Option labels left
// empty fall back to the option value.
func (s *Sanitizer) Field(field *model.FieldDefinition) {
	field.Label = s.Plain(field.Label)
	field.Placeholder = s.Plain(field.Placeholder)
	field.HelpText = s.Rich(field.HelpText)
	for i := range field.Options {
		field.Options[i].Label = s.Plain(field.Options[i].Label)
		if field.Options[i].Label == "" {
			field.Options[i].Label = field.Options[i].Value
		}
	}
}
