package model

import (
	"strings"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
)

// CheckField validates a definition in isolation: its type, options and the
// compatibility of every validation rule with that type.
func CheckField(f FieldDefinition) error {
	if strings.HasPrefix(f.ID, ReservedPrefix) {
		return NewSchemaError(KindReservedID, f.ID, "field ids cannot start with %q", ReservedPrefix)
	}
	desc, ok := fieldtype.Describe(f.Type)
	if !ok {
		return NewSchemaError(KindInvalidType, f.ID, "unsupported field type %q", f.Type)
	}

	if desc.Choices {
		if len(f.Options) == 0 {
			return NewSchemaError(KindInvalidOptions, f.ID, "%s fields need at least one option", f.Type)
		}
		seen := make(map[string]struct{}, len(f.Options))
		for _, opt := range f.Options {
			value := strings.TrimSpace(opt.Value)
			if value == "" {
				return NewSchemaError(KindInvalidOptions, f.ID, "option values cannot be empty")
			}
			if value != opt.Value {
				return NewSchemaError(KindInvalidOptions, f.ID, "option value %q has surrounding whitespace", opt.Value)
			}
			if _, dup := seen[value]; dup {
				return NewSchemaError(KindInvalidOptions, f.ID, "duplicate option value %q", value)
			}
			seen[value] = struct{}{}
		}
	} else if len(f.Options) > 0 {
		return NewSchemaError(KindInvalidOptions, f.ID, "%s fields do not take options", f.Type)
	}

	for _, rule := range f.ValidationRules {
		if !desc.Supports(rule.Kind) {
			return NewSchemaError(KindIncompatibleRule, f.ID, "rule %q does not apply to %s fields", rule.Kind, f.Type)
		}
		if _, err := CompileRule(rule); err != nil {
			if schemaErr, ok := err.(*SchemaError); ok {
				schemaErr.FieldID = f.ID
			}
			return err
		}
	}
	return nil
}

// CheckVisibility validates the visibility rule of f against the other
// fields of s. Every condition must reference an existing field whose order
// is strictly smaller than f's, and carry a comparand matching its operator.
func CheckVisibility(s FormSchema, f FieldDefinition) error {
	if f.VisibilityRule == nil {
		return nil
	}
	for _, cond := range f.VisibilityRule.Conditions {
		if !cond.Operator.Valid() {
			return NewSchemaError(KindInvalidCondition, f.ID, "unsupported operator %q", cond.Operator)
		}
		if cond.FieldID == f.ID {
			return NewSchemaError(KindInvalidReference, f.ID, "a field cannot depend on itself")
		}
		target, ok := s.Field(cond.FieldID)
		if !ok {
			return NewSchemaError(KindInvalidReference, f.ID, "condition references unknown field %q", cond.FieldID)
		}
		if target.Order >= f.Order {
			return NewSchemaError(KindInvalidReference, f.ID, "condition references %q which is not placed before this field", cond.FieldID)
		}
		if _, err := Comparands(target, cond); err != nil {
			if schemaErr, ok := err.(*SchemaError); ok {
				schemaErr.FieldID = f.ID
			}
			return err
		}
	}
	return nil
}

// Comparands coerces the comparand of cond into the canonical shape of the
// referenced field. Conditions on multiple_choice fields compare single
// option values.
func Comparands(target FieldDefinition, cond Condition) ([]any, error) {
	if !cond.Operator.TakesValue() {
		if cond.Value != nil {
			return nil, NewSchemaError(KindInvalidCondition, "", "%s takes no value", cond.Operator)
		}
		return nil, nil
	}

	var raw []any
	switch v := cond.Value.(type) {
	case nil:
		return nil, NewSchemaError(KindInvalidCondition, "", "%s needs a value", cond.Operator)
	case []any:
		raw = v
	case []string:
		raw = make([]any, len(v))
		for idx, item := range v {
			raw[idx] = item
		}
	default:
		raw = []any{v}
		if cond.Operator.TakesList() {
			return nil, NewSchemaError(KindInvalidCondition, "", "%s needs a list of values", cond.Operator)
		}
	}
	if cond.Operator.TakesList() && len(raw) == 0 {
		return nil, NewSchemaError(KindInvalidCondition, "", "%s needs at least one value", cond.Operator)
	}
	if !cond.Operator.TakesList() && len(raw) != 1 {
		return nil, NewSchemaError(KindInvalidCondition, "", "%s compares a single value", cond.Operator)
	}

	elemType := target.Type
	if elemType == fieldtype.MultipleChoice {
		elemType = fieldtype.SingleChoice
	}
	desc, ok := fieldtype.Describe(elemType)
	if !ok {
		return nil, NewSchemaError(KindInvalidType, target.ID, "unsupported field type %q", target.Type)
	}

	out := make([]any, 0, len(raw))
	for _, item := range raw {
		value, err := desc.Coerce(item, target.OptionValues())
		if err != nil {
			return nil, NewSchemaError(KindInvalidCondition, "", "comparand for %q: %v", target.ID, err)
		}
		out = append(out, value)
	}
	return out, nil
}

// Check verifies every invariant of s: unique ids, dense order, valid
// definitions, visibility rules that only look backwards and an acyclic
// dependency graph.
func Check(s FormSchema) error {
	ids := make(map[string]struct{}, len(s.Fields))
	orders := make([]bool, len(s.Fields))
	for _, field := range s.Fields {
		if strings.TrimSpace(field.ID) == "" {
			return NewSchemaError(KindUnknownField, "", "field id is required")
		}
		if _, dup := ids[field.ID]; dup {
			return NewSchemaError(KindDuplicateField, field.ID, "field id is used more than once")
		}
		ids[field.ID] = struct{}{}

		if field.Order < 0 || field.Order >= len(s.Fields) || orders[field.Order] {
			return NewSchemaError(KindInvalidOrder, field.ID, "order %d breaks the 0..%d sequence", field.Order, len(s.Fields)-1)
		}
		orders[field.Order] = true
	}

	for _, field := range s.Fields {
		if err := CheckField(field); err != nil {
			return err
		}
	}
	for _, field := range s.Fields {
		if err := CheckVisibility(s, field); err != nil {
			return err
		}
	}
	return checkAcyclic(s)
}

func checkAcyclic(s FormSchema) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.Fields))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return NewSchemaError(KindCycleDetected, id, "visibility rules form a cycle")
		case done:
			return nil
		}
		state[id] = visiting
		if field, ok := s.Field(id); ok {
			for _, ref := range field.VisibilityRule.References() {
				if err := visit(ref); err != nil {
					return err
				}
			}
		}
		state[id] = done
		return nil
	}
	for _, field := range s.Fields {
		if err := visit(field.ID); err != nil {
			return err
		}
	}
	return nil
}
