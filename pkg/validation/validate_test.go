package validation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

func abSchema() model.FormSchema {
	return model.FormSchema{
		ID: "ab",
		Fields: []model.FieldDefinition{
			{ID: "a", Type: fieldtype.SingleChoice, Options: []model.Option{{Value: "yes"}, {Value: "no"}}, Order: 0},
			{
				ID:       "b",
				Type:     fieldtype.ShortText,
				Required: true,
				VisibilityRule: &model.VisibilityRule{Conditions: []model.Condition{
					{FieldID: "a", Operator: model.OpEquals, Value: "yes"},
				}},
				Order: 1,
			},
		},
	}
}

func kinds(errs []validation.FieldError) []validation.Kind {
	out := make([]validation.Kind, 0, len(errs))
	for _, fe := range errs {
		out = append(out, fe.Kind)
	}
	return out
}

func rule(kind fieldtype.RuleKind, params ...string) model.ValidationRule {
	out := model.ValidationRule{Kind: kind, Params: map[string]string{}}
	for i := 0; i+1 < len(params); i += 2 {
		out.Params[params[i]] = params[i+1]
	}
	return out
}

func TestValidateDependentRequiredField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		answers model.Answers
		want    map[string][]validation.Kind
	}{
		{name: "hidden", answers: model.Answers{"a": "no"}, want: map[string][]validation.Kind{}},
		{name: "hidden with stale value", answers: model.Answers{"a": "no", "b": ""}, want: map[string][]validation.Kind{}},
		{name: "missing", answers: model.Answers{"a": "yes"}, want: map[string][]validation.Kind{"b": {validation.KindRequired}}},
		{name: "blank", answers: model.Answers{"a": "yes", "b": "   "}, want: map[string][]validation.Kind{"b": {validation.KindRequired}}},
		{name: "answered", answers: model.Answers{"a": "yes", "b": "ok"}, want: map[string][]validation.Kind{}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			report := validation.Validate(abSchema(), tc.answers)
			got := map[string][]validation.Kind{}
			for _, id := range report.Fields() {
				got[id] = kinds(report.Field(id))
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
			if report.Valid() != (len(tc.want) == 0) {
				t.Fatalf("Valid() = %v", report.Valid())
			}
		})
	}
}

func TestValidateInvalidFormatShortCircuits(t *testing.T) {
	t.Parallel()

	schema := model.FormSchema{
		ID: "n",
		Fields: []model.FieldDefinition{
			{ID: "age", Type: fieldtype.Number, ValidationRules: []model.ValidationRule{rule(fieldtype.RuleMin, "value", "18")}},
		},
	}

	report := validation.Validate(schema, model.Answers{"age": "abc"})
	errs := report.Field("age")
	if diff := cmp.Diff([]validation.Kind{validation.KindInvalidFormat}, kinds(errs)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if errs[0].Message != "Not a number." {
		t.Fatalf("unexpected message %q", errs[0].Message)
	}
}

func TestValidateRulesAccumulate(t *testing.T) {
	t.Parallel()

	schema := model.FormSchema{
		ID: "rules",
		Fields: []model.FieldDefinition{
			{
				ID:   "code",
				Type: fieldtype.ShortText,
				ValidationRules: []model.ValidationRule{
					rule(fieldtype.RuleMinLength, "value", "5"),
					rule(fieldtype.RulePattern, "pattern", `^[A-Z]+$`),
					rule(fieldtype.RuleMaxLength, "value", "10"),
				},
				Order: 0,
			},
		},
	}

	report := validation.Validate(schema, model.Answers{"code": "ab"})
	want := []validation.FieldError{
		{Kind: validation.KindTooShort, Message: "Must be at least 5 characters.", Params: map[string]string{"min": "5", "unit": "characters"}},
		{Kind: validation.KindPatternMismatch, Message: "Does not match the expected format.", Params: map[string]string{"pattern": "^[A-Z]+$"}},
	}
	if diff := cmp.Diff(want, report.Field("code")); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRuleKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		field model.FieldDefinition
		raw   any
		want  []validation.Kind
	}{
		{
			name:  "too long counts runes",
			field: model.FieldDefinition{ID: "f", Type: fieldtype.LongText, ValidationRules: []model.ValidationRule{rule(fieldtype.RuleMaxLength, "value", "3")}},
			raw:   "héé",
			want:  nil,
		},
		{
			name:  "max exceeded",
			field: model.FieldDefinition{ID: "f", Type: fieldtype.Number, ValidationRules: []model.ValidationRule{rule(fieldtype.RuleMax, "value", "10")}},
			raw:   11,
			want:  []validation.Kind{validation.KindOutOfRange},
		},
		{
			name:  "exclusive min",
			field: model.FieldDefinition{ID: "f", Type: fieldtype.Number, ValidationRules: []model.ValidationRule{rule(fieldtype.RuleMin, "value", "0", "exclusive", "true")}},
			raw:   "0",
			want:  []validation.Kind{validation.KindOutOfRange},
		},
		{
			name: "selections",
			field: model.FieldDefinition{
				ID:              "f",
				Type:            fieldtype.MultipleChoice,
				Options:         []model.Option{{Value: "a"}, {Value: "b"}, {Value: "c"}},
				ValidationRules: []model.ValidationRule{rule(fieldtype.RuleMaxSelected, "value", "2")},
			},
			raw:  []any{"a", "b", "c"},
			want: []validation.Kind{validation.KindTooLong},
		},
		{
			name:  "date before min",
			field: model.FieldDefinition{ID: "f", Type: fieldtype.Date, ValidationRules: []model.ValidationRule{rule(fieldtype.RuleMinDate, "value", "2024-01-01")}},
			raw:   "2023-12-31",
			want:  []validation.Kind{validation.KindOutOfRange},
		},
		{
			name: "file too large and wrong type",
			field: model.FieldDefinition{ID: "f", Type: fieldtype.FileUpload, ValidationRules: []model.ValidationRule{
				rule(fieldtype.RuleMaxFileSize, "value", "1024"),
				rule(fieldtype.RuleAllowedTypes, "types", "image/*, .pdf"),
			}},
			raw:  map[string]any{"name": "notes.txt", "size": 2048, "contentType": "text/plain"},
			want: []validation.Kind{validation.KindFileTooLarge, validation.KindInvalidType},
		},
		{
			name: "file allowed by extension",
			field: model.FieldDefinition{ID: "f", Type: fieldtype.FileUpload, ValidationRules: []model.ValidationRule{
				rule(fieldtype.RuleAllowedTypes, "types", "image/*, .pdf"),
			}},
			raw:  fieldtype.File{Name: "cv.PDF", Size: 10},
			want: nil,
		},
		{
			name:  "choice outside options",
			field: model.FieldDefinition{ID: "f", Type: fieldtype.SingleChoice, Options: []model.Option{{Value: "a"}}},
			raw:   "z",
			want:  []validation.Kind{validation.KindInvalidFormat},
		},
		{
			name:  "required checkbox unchecked",
			field: model.FieldDefinition{ID: "f", Type: fieldtype.Checkbox, Required: true},
			raw:   false,
			want:  []validation.Kind{validation.KindRequired},
		},
		{
			name:  "optional checkbox unchecked",
			field: model.FieldDefinition{ID: "f", Type: fieldtype.Checkbox},
			raw:   "off",
			want:  nil,
		},
		{
			name: "required multiple choice with empty selection",
			field: model.FieldDefinition{
				ID:       "f",
				Type:     fieldtype.MultipleChoice,
				Required: true,
				Options:  []model.Option{{Value: "a"}},
			},
			raw:  ",",
			want: []validation.Kind{validation.KindRequired},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := kinds(validation.ValidateField(tc.field, tc.raw))
			if len(tc.want) == 0 && len(got) == 0 {
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateCustomCatalog(t *testing.T) {
	t.Parallel()

	catalog := validation.Catalog{validation.KindRequired: "Obligatorio"}
	report := validation.Validate(abSchema(), model.Answers{"a": "yes"}, validation.WithCatalog(catalog))
	if got := report.Messages()["b"]; !cmp.Equal(got, []string{"Obligatorio"}) {
		t.Fatalf("unexpected messages %v", got)
	}

	if got := catalog.Message(validation.KindTooLong, map[string]string{"max": "4", "unit": "characters"}); got != "Must be at most 4 characters." {
		t.Fatalf("fallback message = %q", got)
	}
}
