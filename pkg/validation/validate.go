package validation

import (
	"errors"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/visibility"
)

// Option configures a validation run.
type Option func(*options)

type options struct {
	catalog   Catalog
	evaluator visibility.Evaluator
}

// WithCatalog overrides the message templates. Kinds missing from c keep
// their default message.
func WithCatalog(c Catalog) Option {
	return func(o *options) {
		if c != nil {
			o.catalog = c
		}
	}
}

// WithEvaluator replaces the visibility evaluator.
func WithEvaluator(e visibility.Evaluator) Option {
	return func(o *options) {
		if e != nil {
			o.evaluator = e
		}
	}
}

func buildOptions(opts []Option) options {
	cfg := options{catalog: DefaultCatalog, evaluator: visibility.Default}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Evaluator returns the visibility evaluator selected by opts.
func Evaluator(opts ...Option) visibility.Evaluator {
	return buildOptions(opts).evaluator
}

// Validate checks every visible field of schema against answers.
func Validate(schema model.FormSchema, answers model.Answers, opts ...Option) Report {
	cfg := buildOptions(opts)
	vis := cfg.evaluator.Evaluate(schema, answers)
	return validateVisible(schema, answers, vis, cfg)
}

// ValidateWith is like Validate but reuses a visibility result computed by
// the caller.
func ValidateWith(schema model.FormSchema, answers model.Answers, vis visibility.Result, opts ...Option) Report {
	return validateVisible(schema, answers, vis, buildOptions(opts))
}

func validateVisible(schema model.FormSchema, answers model.Answers, vis visibility.Result, cfg options) Report {
	report := Report{Errors: map[string][]FieldError{}}
	for _, field := range schema.Ordered() {
		if !vis.Visible(field.ID) {
			continue
		}
		for _, fe := range checkField(field, answers[field.ID], cfg.catalog) {
			report.add(field.ID, fe)
		}
	}
	return report
}

// ValidateField checks a single raw answer as if the field were visible.
// Interactive renderers use it to re-prompt before the whole form is
// submitted.
func ValidateField(field model.FieldDefinition, raw any, opts ...Option) []FieldError {
	return checkField(field, raw, buildOptions(opts).catalog)
}

func checkField(field model.FieldDefinition, raw any, catalog Catalog) []FieldError {
	newError := func(kind Kind, params map[string]string) FieldError {
		return FieldError{Kind: kind, Message: catalog.Message(kind, params), Params: params}
	}

	if fieldtype.Empty(raw) {
		if field.Required {
			return []FieldError{newError(KindRequired, nil)}
		}
		return nil
	}

	desc, ok := fieldtype.Describe(field.Type)
	if !ok {
		return []FieldError{newError(KindInvalidFormat, map[string]string{"reason": "unsupported field type"})}
	}
	value, err := desc.Coerce(raw, field.OptionValues())
	if err != nil {
		reason := err.Error()
		var coercion *fieldtype.CoercionError
		if errors.As(err, &coercion) && coercion.Reason != "" {
			reason = capitalize(coercion.Reason) + "."
		}
		return []FieldError{newError(KindInvalidFormat, map[string]string{"reason": reason})}
	}

	if field.Required && (fieldtype.Empty(value) || value == false) {
		return []FieldError{newError(KindRequired, nil)}
	}

	var out []FieldError
	for _, rule := range field.CompileRules() {
		if kind, params, failed := applyRule(rule, value); failed {
			out = append(out, newError(kind, params))
		}
	}
	return out
}

// applyRule evaluates one compiled rule against a canonical value.
func applyRule(rule model.CompiledRule, value any) (Kind, map[string]string, bool) {
	limit := strconv.FormatFloat(rule.Number, 'f', -1, 64)

	switch rule.Kind {
	case fieldtype.RuleMinLength:
		if text, ok := value.(string); ok && float64(utf8.RuneCountInString(text)) < rule.Number {
			return KindTooShort, map[string]string{"min": limit, "unit": "characters"}, true
		}
	case fieldtype.RuleMaxLength:
		if text, ok := value.(string); ok && float64(utf8.RuneCountInString(text)) > rule.Number {
			return KindTooLong, map[string]string{"max": limit, "unit": "characters"}, true
		}
	case fieldtype.RulePattern:
		if text, ok := value.(string); ok && rule.Pattern != nil && !rule.Pattern.MatchString(text) {
			return KindPatternMismatch, map[string]string{"pattern": rule.Pattern.String()}, true
		}
	case fieldtype.RuleMin:
		if n, ok := value.(float64); ok && (n < rule.Number || (rule.Exclusive && n == rule.Number)) {
			return KindOutOfRange, rangeParams(rule, "min", limit), true
		}
	case fieldtype.RuleMax:
		if n, ok := value.(float64); ok && (n > rule.Number || (rule.Exclusive && n == rule.Number)) {
			return KindOutOfRange, rangeParams(rule, "max", limit), true
		}
	case fieldtype.RuleMinSelected:
		if selected, ok := value.([]string); ok && float64(len(selected)) < rule.Number {
			return KindTooShort, map[string]string{"min": limit, "unit": "selections"}, true
		}
	case fieldtype.RuleMaxSelected:
		if selected, ok := value.([]string); ok && float64(len(selected)) > rule.Number {
			return KindTooLong, map[string]string{"max": limit, "unit": "selections"}, true
		}
	case fieldtype.RuleMinDate:
		if day, ok := canonicalDate(value); ok && day.Before(rule.Date) {
			date := rule.Date.Format(fieldtype.DateLayout)
			return KindOutOfRange, map[string]string{"min": date, "bound": "on or after", "limit": date}, true
		}
	case fieldtype.RuleMaxDate:
		if day, ok := canonicalDate(value); ok && day.After(rule.Date) {
			date := rule.Date.Format(fieldtype.DateLayout)
			return KindOutOfRange, map[string]string{"max": date, "bound": "on or before", "limit": date}, true
		}
	case fieldtype.RuleMaxFileSize:
		if file, ok := value.(fieldtype.File); ok && float64(file.Size) > rule.Number {
			return KindFileTooLarge, map[string]string{"max": limit}, true
		}
	case fieldtype.RuleAllowedTypes:
		if file, ok := value.(fieldtype.File); ok && !allowedType(file, rule.Types) {
			return KindInvalidType, map[string]string{"types": strings.Join(rule.Types, ", ")}, true
		}
	}
	return "", nil, false
}

func rangeParams(rule model.CompiledRule, key, limit string) map[string]string {
	bound := "at least"
	if key == "max" {
		bound = "at most"
	}
	if rule.Exclusive {
		bound = "greater than"
		if key == "max" {
			bound = "less than"
		}
	}
	return map[string]string{key: limit, "bound": bound, "limit": limit}
}

func canonicalDate(value any) (time.Time, bool) {
	text, ok := value.(string)
	if !ok {
		return time.Time{}, false
	}
	day, err := time.Parse(fieldtype.DateLayout, text)
	return day, err == nil
}

// allowedType matches a file against content types ("application/pdf"),
// wildcards ("image/*") and extensions (".pdf").
func allowedType(file fieldtype.File, allowed []string) bool {
	contentType := strings.ToLower(strings.TrimSpace(file.ContentType))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	ext := strings.ToLower(path.Ext(file.Name))

	for _, candidate := range allowed {
		switch {
		case strings.HasPrefix(candidate, "."):
			if ext == candidate {
				return true
			}
		case strings.HasSuffix(candidate, "/*"):
			if contentType != "" && strings.HasPrefix(contentType, strings.TrimSuffix(candidate, "*")) {
				return true
			}
		case contentType == candidate:
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
