package visibility

import (
	"reflect"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
)

// Evaluator decides which fields of a schema are visible for a set of raw
// answers.
type Evaluator interface {
	Evaluate(schema model.FormSchema, answers model.Answers) Result
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(schema model.FormSchema, answers model.Answers) Result

// Evaluate delegates to the underlying function.
func (fn EvaluatorFunc) Evaluate(schema model.FormSchema, answers model.Answers) Result {
	return fn(schema, answers)
}

// Default is the conjunctive rule evaluator used across the module.
var Default Evaluator = EvaluatorFunc(Evaluate)

// State is the derived status of one field.
type State struct {
	Visible  bool `json:"visible"`
	Required bool `json:"required"`
}

// Result holds the per-field states plus the canonical values of every
// visible field whose raw answer is present and coercible.
type Result struct {
	States map[string]State
	Values map[string]any
}

// Visible reports whether the field is shown. Unknown ids are hidden.
func (r Result) Visible(id string) bool {
	return r.States[id].Visible
}

// Required reports whether the field is shown and must be answered.
func (r Result) Required(id string) bool {
	return r.States[id].Required
}

// Value returns the canonical value of a visible, answered field.
func (r Result) Value(id string) (any, bool) {
	value, ok := r.Values[id]
	return value, ok
}

// Clear returns a copy of answers without hidden or unknown fields.
func (r Result) Clear(answers model.Answers) model.Answers {
	out := make(model.Answers, len(answers))
	for id, raw := range answers {
		if r.Visible(id) {
			out[id] = raw
		}
	}
	return out
}

// Evaluate walks the fields in ascending order. A field without a rule is
// visible; otherwise every condition must hold against the canonical values
// of the earlier fields. Hidden fields count as unanswered for everything
// that follows, whatever raw value they still hold.
func Evaluate(schema model.FormSchema, answers model.Answers) Result {
	result := Result{
		States: make(map[string]State, len(schema.Fields)),
		Values: make(map[string]any, len(schema.Fields)),
	}

	ordered := schema.Ordered()
	byID := make(map[string]model.FieldDefinition, len(ordered))
	for _, field := range ordered {
		byID[field.ID] = field
	}

	for _, field := range ordered {
		visible := true
		if field.VisibilityRule != nil {
			for _, cond := range field.VisibilityRule.Conditions {
				if !holds(byID, cond, result) {
					visible = false
					break
				}
			}
		}
		result.States[field.ID] = State{Visible: visible, Required: visible && field.Required}
		if !visible {
			continue
		}

		raw, ok := answers[field.ID]
		if !ok || fieldtype.Empty(raw) {
			continue
		}
		desc, ok := fieldtype.Describe(field.Type)
		if !ok {
			continue
		}
		if value, err := desc.Coerce(raw, field.OptionValues()); err == nil && !fieldtype.Empty(value) {
			result.Values[field.ID] = value
		}
	}
	return result
}

func holds(fields map[string]model.FieldDefinition, cond model.Condition, result Result) bool {
	target, ok := fields[cond.FieldID]
	if !ok {
		return false
	}
	value, set := result.Values[cond.FieldID]

	switch cond.Operator {
	case model.OpIsSet:
		return set
	case model.OpIsNotSet:
		return !set
	}

	comparands, err := model.Comparands(target, cond)
	if err != nil {
		return false
	}

	switch cond.Operator {
	case model.OpEquals:
		return set && matchesAny(value, comparands[:1])
	case model.OpNotEquals:
		return !set || !matchesAny(value, comparands[:1])
	case model.OpIn:
		return set && matchesAny(value, comparands)
	case model.OpNotIn:
		return !set || !matchesAny(value, comparands)
	}
	return false
}

// matchesAny compares a canonical value with a set of comparands. A list
// value (multiple choice) matches when any selected entry matches.
func matchesAny(value any, comparands []any) bool {
	if selected, ok := value.([]string); ok {
		for _, item := range selected {
			if matchesAny(item, comparands) {
				return true
			}
		}
		return false
	}
	for _, comparand := range comparands {
		if equal(value, comparand) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}
