package validation

import "strings"

// Catalog maps error kinds to message templates. Templates reference params
// with {name} placeholders.
type Catalog map[Kind]string

// DefaultCatalog holds the built-in English messages.
var DefaultCatalog = Catalog{
	KindRequired:        "This field is required.",
	KindInvalidFormat:   "{reason}",
	KindTooShort:        "Must be at least {min} {unit}.",
	KindTooLong:         "Must be at most {max} {unit}.",
	KindOutOfRange:      "Must be {bound} {limit}.",
	KindPatternMismatch: "Does not match the expected format.",
	KindFileTooLarge:    "File must be {max} bytes or smaller.",
	KindInvalidType:     "File type must be one of: {types}.",
}

// Message renders the template for kind. Missing templates fall back to
// DefaultCatalog, then to the kind itself.
func (c Catalog) Message(kind Kind, params map[string]string) string {
	tmpl, ok := c[kind]
	if !ok {
		tmpl, ok = DefaultCatalog[kind]
	}
	if !ok {
		return string(kind)
	}
	if len(params) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(params)*2)
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
