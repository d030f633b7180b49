package model

import (
	"sort"
	"time"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
)

// Option is a selectable value of a choice field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ValidationRule represents a single validation constraint applied to a
// field. Bounds encode their threshold in Params["value"], patterns keep the
// expression in Params["pattern"] and allowedTypes lists content types in
// Params["types"] (comma separated). Params["exclusive"] = "true" makes
// min/max bounds exclusive.
type ValidationRule struct {
	Kind   fieldtype.RuleKind `json:"kind"`
	Params map[string]string  `json:"params,omitempty"`
}

// Operator is the comparison applied by a visibility condition.
type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "notEquals"
	OpIn        Operator = "in"
	OpNotIn     Operator = "notIn"
	OpIsSet     Operator = "isSet"
	OpIsNotSet  Operator = "isNotSet"
)

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpIn, OpNotIn, OpIsSet, OpIsNotSet:
		return true
	}
	return false
}

// TakesList reports whether the operator compares against a list.
func (op Operator) TakesList() bool {
	return op == OpIn || op == OpNotIn
}

// TakesValue reports whether the operator needs a comparand at all.
func (op Operator) TakesValue() bool {
	return op != OpIsSet && op != OpIsNotSet
}

// Condition is one atomic predicate of a visibility rule.
type Condition struct {
	FieldID  string   `json:"fieldId"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// VisibilityRule shows a field only when every condition holds.
type VisibilityRule struct {
	Conditions []Condition `json:"conditions"`
}

// References returns the field ids the rule depends on, without duplicates.
func (r *VisibilityRule) References() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Conditions))
	out := make([]string, 0, len(r.Conditions))
	for _, cond := range r.Conditions {
		if _, ok := seen[cond.FieldID]; ok {
			continue
		}
		seen[cond.FieldID] = struct{}{}
		out = append(out, cond.FieldID)
	}
	return out
}

// DependsOn reports whether the rule references fieldID.
func (r *VisibilityRule) DependsOn(fieldID string) bool {
	if r == nil {
		return false
	}
	for _, cond := range r.Conditions {
		if cond.FieldID == fieldID {
			return true
		}
	}
	return false
}

// ReservedPrefix marks names used by inputs that rendered forms add next to
// the fields. Field ids cannot start with it.
const ReservedPrefix = "_formkit_"

// FieldDefinition is one question of a form.
type FieldDefinition struct {
	ID              string           `json:"id"`
	Type            fieldtype.Type   `json:"type"`
	Label           string           `json:"label"`
	HelpText        string           `json:"helpText,omitempty"`
	Placeholder     string           `json:"placeholder,omitempty"`
	Options         []Option         `json:"options,omitempty"`
	Required        bool             `json:"required"`
	ValidationRules []ValidationRule `json:"validationRules,omitempty"`
	VisibilityRule  *VisibilityRule  `json:"visibilityRule,omitempty"`
	Order           int              `json:"order"`
}

// OptionValues returns the option values of a choice field, or nil for any
// other type.
func (f FieldDefinition) OptionValues() []string {
	desc, ok := fieldtype.Describe(f.Type)
	if !ok || !desc.Choices {
		return nil
	}
	values := make([]string, 0, len(f.Options))
	for _, opt := range f.Options {
		values = append(values, opt.Value)
	}
	return values
}

// FormSchema is the persisted, versioned definition of a form.
type FormSchema struct {
	ID          string            `json:"id"`
	Version     int               `json:"version"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Fields      []FieldDefinition `json:"fields"`
	CreatedAt   *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`
}

// Answers maps field ids to raw respondent input.
type Answers map[string]any

// Clone returns a copy of the answers map. Values are shared.
func (a Answers) Clone() Answers {
	if a == nil {
		return Answers{}
	}
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Field looks a field up by id.
func (s FormSchema) Field(id string) (FieldDefinition, bool) {
	if idx := s.Index(id); idx >= 0 {
		return s.Fields[idx], true
	}
	return FieldDefinition{}, false
}

// Index returns the slice position of the field, or -1.
func (s FormSchema) Index(id string) int {
	for idx, field := range s.Fields {
		if field.ID == id {
			return idx
		}
	}
	return -1
}

// Ordered returns the fields sorted by ascending order.
func (s FormSchema) Ordered() []FieldDefinition {
	out := append([]FieldDefinition(nil), s.Fields...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// Dependents returns the ids of fields whose visibility rule references id.
func (s FormSchema) Dependents(id string) []string {
	var out []string
	for _, field := range s.Fields {
		if field.VisibilityRule.DependsOn(id) {
			out = append(out, field.ID)
		}
	}
	return out
}

// Clone deep-copies the schema so mutations never leak into the original.
func (s FormSchema) Clone() FormSchema {
	out := s
	out.CreatedAt = cloneTime(s.CreatedAt)
	out.UpdatedAt = cloneTime(s.UpdatedAt)
	if s.Fields != nil {
		out.Fields = make([]FieldDefinition, len(s.Fields))
		for idx, field := range s.Fields {
			out.Fields[idx] = field.Clone()
		}
	}
	return out
}

// Clone deep-copies the field definition.
func (f FieldDefinition) Clone() FieldDefinition {
	out := f
	if f.Options != nil {
		out.Options = append([]Option(nil), f.Options...)
	}
	if f.ValidationRules != nil {
		out.ValidationRules = make([]ValidationRule, len(f.ValidationRules))
		for idx, rule := range f.ValidationRules {
			out.ValidationRules[idx] = rule.Clone()
		}
	}
	out.VisibilityRule = f.VisibilityRule.Clone()
	return out
}

// Clone deep-copies the rule parameters.
func (r ValidationRule) Clone() ValidationRule {
	out := r
	if r.Params != nil {
		out.Params = make(map[string]string, len(r.Params))
		for k, v := range r.Params {
			out.Params[k] = v
		}
	}
	return out
}

// Clone deep-copies the rule, including list comparands.
func (r *VisibilityRule) Clone() *VisibilityRule {
	if r == nil {
		return nil
	}
	out := &VisibilityRule{Conditions: make([]Condition, len(r.Conditions))}
	for idx, cond := range r.Conditions {
		switch list := cond.Value.(type) {
		case []any:
			cond.Value = append([]any(nil), list...)
		case []string:
			cond.Value = append([]string(nil), list...)
		}
		out.Conditions[idx] = cond
	}
	return out
}

// Stamp returns a pointer to t in UTC, for the timestamp fields.
func Stamp(t time.Time) *time.Time {
	t = t.UTC()
	return &t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
