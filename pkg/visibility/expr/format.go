package expr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Format renders a rule in the syntax accepted by Parse. A nil or empty rule
// formats as the empty string.
func Format(rule *model.VisibilityRule) string {
	if rule == nil || len(rule.Conditions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(rule.Conditions))
	for _, cond := range rule.Conditions {
		parts = append(parts, formatCondition(cond))
	}
	return strings.Join(parts, " && ")
}

func formatCondition(cond model.Condition) string {
	switch cond.Operator {
	case model.OpEquals:
		return cond.FieldID + " == " + formatLiteral(cond.Value)
	case model.OpNotEquals:
		return cond.FieldID + " != " + formatLiteral(cond.Value)
	case model.OpIn, model.OpNotIn:
		return cond.FieldID + " " + string(cond.Operator) + " " + formatList(cond.Value)
	}
	return cond.FieldID + " " + string(cond.Operator)
}

func formatList(value any) string {
	var items []string
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			items = append(items, formatLiteral(item))
		}
	case []string:
		for _, item := range v {
			items = append(items, strconv.Quote(item))
		}
	default:
		items = append(items, formatLiteral(v))
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func formatLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return strconv.Quote(v.String())
	}
	return strconv.Quote(fmt.Sprint(value))
}
