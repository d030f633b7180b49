package model

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
)

// CompiledRule is a ValidationRule with its string parameters parsed.
type CompiledRule struct {
	Kind      fieldtype.RuleKind
	Number    float64
	Exclusive bool
	Pattern   *regexp.Regexp
	Date      time.Time
	Types     []string
}

var patternCache sync.Map

// CompileRule parses the rule parameters. It does not check the rule against
// a field type; see CheckField for that.
func CompileRule(rule ValidationRule) (CompiledRule, error) {
	compiled := CompiledRule{Kind: rule.Kind}
	value := strings.TrimSpace(rule.Params["value"])

	switch rule.Kind {
	case fieldtype.RuleMinLength, fieldtype.RuleMaxLength,
		fieldtype.RuleMinSelected, fieldtype.RuleMaxSelected,
		fieldtype.RuleMaxFileSize:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return CompiledRule{}, NewSchemaError(KindInvalidRule, "", "%s expects a non-negative integer, got %q", rule.Kind, value)
		}
		compiled.Number = float64(n)
	case fieldtype.RuleMin, fieldtype.RuleMax:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return CompiledRule{}, NewSchemaError(KindInvalidRule, "", "%s expects a number, got %q", rule.Kind, value)
		}
		compiled.Number = n
		compiled.Exclusive = strings.EqualFold(strings.TrimSpace(rule.Params["exclusive"]), "true")
	case fieldtype.RulePattern:
		expr := rule.Params["pattern"]
		if expr == "" {
			expr = rule.Params["value"]
		}
		re, err := compilePattern(expr)
		if err != nil {
			return CompiledRule{}, NewSchemaError(KindInvalidRule, "", "pattern %q does not compile: %v", expr, err)
		}
		compiled.Pattern = re
	case fieldtype.RuleMinDate, fieldtype.RuleMaxDate:
		ts, err := fieldtype.ParseDate(value)
		if err != nil {
			return CompiledRule{}, NewSchemaError(KindInvalidRule, "", "%s expects a YYYY-MM-DD date, got %q", rule.Kind, value)
		}
		compiled.Date = ts
	case fieldtype.RuleAllowedTypes:
		raw := rule.Params["types"]
		if raw == "" {
			raw = value
		}
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
				compiled.Types = append(compiled.Types, trimmed)
			}
		}
		if len(compiled.Types) == 0 {
			return CompiledRule{}, NewSchemaError(KindInvalidRule, "", "allowedTypes needs at least one content type")
		}
	default:
		return CompiledRule{}, NewSchemaError(KindInvalidRule, "", "unknown rule kind %q", rule.Kind)
	}
	return compiled, nil
}

func compilePattern(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, strconv.ErrSyntax
	}
	if cached, ok := patternCache.Load(expr); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patternCache.Store(expr, re)
	return re, nil
}

// CompileRules compiles every rule of the field in declaration order.
// Invalid rules are skipped; CheckField reports them at definition time.
func (f FieldDefinition) CompileRules() []CompiledRule {
	out := make([]CompiledRule, 0, len(f.ValidationRules))
	for _, rule := range f.ValidationRules {
		compiled, err := CompileRule(rule)
		if err != nil {
			continue
		}
		out = append(out, compiled)
	}
	return out
}
