package model_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
)

func yesNoSchema() model.FormSchema {
	return model.FormSchema{
		ID:      "registration",
		Version: 2,
		Fields: []model.FieldDefinition{
			{
				ID:      "attending",
				Type:    fieldtype.SingleChoice,
				Label:   "Attending?",
				Options: []model.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
				Order:   0,
			},
			{
				ID:       "diet",
				Type:     fieldtype.ShortText,
				Label:    "Dietary needs",
				Required: true,
				VisibilityRule: &model.VisibilityRule{Conditions: []model.Condition{
					{FieldID: "attending", Operator: model.OpEquals, Value: "yes"},
				}},
				Order: 1,
			},
		},
	}
}

func TestCheckAcceptsValidSchema(t *testing.T) {
	t.Parallel()

	if err := model.Check(yesNoSchema()); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestCheckRejectsInvariantViolations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*model.FormSchema)
		want   error
	}{
		{
			name:   "duplicate id",
			mutate: func(s *model.FormSchema) { s.Fields[1].ID = "attending" },
			want:   model.ErrDuplicateField,
		},
		{
			name:   "order gap",
			mutate: func(s *model.FormSchema) { s.Fields[1].Order = 5 },
			want:   model.ErrInvalidOrder,
		},
		{
			name: "forward reference",
			mutate: func(s *model.FormSchema) {
				s.Fields[0].Order, s.Fields[1].Order = 1, 0
			},
			want: model.ErrInvalidReference,
		},
		{
			name:   "options on text",
			mutate: func(s *model.FormSchema) { s.Fields[1].Options = []model.Option{{Value: "x"}} },
			want:   model.ErrInvalidOptions,
		},
		{
			name:   "choice without options",
			mutate: func(s *model.FormSchema) { s.Fields[0].Options = nil },
			want:   model.ErrInvalidOptions,
		},
		{
			name: "incompatible rule",
			mutate: func(s *model.FormSchema) {
				s.Fields[1].ValidationRules = []model.ValidationRule{{Kind: fieldtype.RuleMaxFileSize, Params: map[string]string{"value": "10"}}}
			},
			want: model.ErrIncompatibleRule,
		},
		{
			name: "bad pattern",
			mutate: func(s *model.FormSchema) {
				s.Fields[1].ValidationRules = []model.ValidationRule{{Kind: fieldtype.RulePattern, Params: map[string]string{"pattern": "("}}}
			},
			want: model.ErrInvalidRule,
		},
		{
			name: "comparand not an option",
			mutate: func(s *model.FormSchema) {
				s.Fields[1].VisibilityRule.Conditions[0].Value = "perhaps"
			},
			want: model.ErrInvalidCondition,
		},
		{
			name: "in without list",
			mutate: func(s *model.FormSchema) {
				s.Fields[1].VisibilityRule.Conditions[0].Operator = model.OpIn
			},
			want: model.ErrInvalidCondition,
		},
		{
			name:   "unknown type",
			mutate: func(s *model.FormSchema) { s.Fields[1].Type = "signature" },
			want:   model.ErrInvalidType,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			schema := yesNoSchema().Clone()
			tc.mutate(&schema)
			err := model.Check(schema)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	original := yesNoSchema()
	clone := original.Clone()
	clone.Fields[0].Options[0].Label = "Changed"
	clone.Fields[1].VisibilityRule.Conditions[0].Value = "no"

	if original.Fields[0].Options[0].Label != "Yes" {
		t.Fatalf("option label leaked into original")
	}
	if original.Fields[1].VisibilityRule.Conditions[0].Value != "yes" {
		t.Fatalf("condition leaked into original")
	}
}

func TestComparandsCoerceToTargetType(t *testing.T) {
	t.Parallel()

	target := model.FieldDefinition{ID: "seats", Type: fieldtype.Number}
	got, err := model.Comparands(target, model.Condition{FieldID: "seats", Operator: model.OpIn, Value: []any{"1", 2}})
	if err != nil {
		t.Fatalf("Comparands: %v", err)
	}
	if diff := cmp.Diff([]any{float64(1), float64(2)}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := model.Comparands(target, model.Condition{FieldID: "seats", Operator: model.OpIsSet, Value: 3}); !errors.Is(err, model.ErrInvalidCondition) {
		t.Fatalf("expected invalid condition for isSet with value, got %v", err)
	}
}

func TestSchemaErrorKind(t *testing.T) {
	t.Parallel()

	err := model.NewSchemaError(model.KindStaleVersion, "", "expected %d, have %d", 1, 2)
	kind, ok := model.KindOf(err)
	if !ok || kind != model.KindStaleVersion {
		t.Fatalf("unexpected kind %q", kind)
	}
	if errors.Is(err, model.ErrCycleDetected) {
		t.Fatalf("kinds should not cross-match")
	}
	if got := err.Error(); got != "schema: staleVersion: expected 1, have 2" {
		t.Fatalf("unexpected message %q", got)
	}
}
