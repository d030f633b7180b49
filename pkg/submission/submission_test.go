package submission_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/submission"
	"github.com/goliatone/go-formkit/pkg/validation"
	"github.com/goliatone/go-formkit/pkg/visibility"
)

func abSchema() model.FormSchema {
	return model.FormSchema{
		ID:      "ab",
		Version: 3,
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

func richSchema() model.FormSchema {
	return model.FormSchema{
		ID:      "rich",
		Version: 1,
		Fields: []model.FieldDefinition{
			{ID: "name", Type: fieldtype.ShortText, Order: 0},
			{ID: "seats", Type: fieldtype.Number, Order: 1},
			{ID: "topics", Type: fieldtype.MultipleChoice, Options: []model.Option{{Value: "go"}, {Value: "zig"}}, Order: 2},
			{ID: "day", Type: fieldtype.Date, Order: 3},
			{ID: "agree", Type: fieldtype.Checkbox, Order: 4},
			{ID: "cv", Type: fieldtype.FileUpload, Order: 5},
			{ID: "notes", Type: fieldtype.LongText, Order: 6},
		},
	}
}

func TestSerializeDependentField(t *testing.T) {
	t.Parallel()

	got := submission.Serialize(abSchema(), model.Answers{"a": "no", "b": "stale"})
	if diff := cmp.Diff(map[string]any{"a": "no"}, got.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if got.SchemaID != "ab" || got.Version != 3 {
		t.Fatalf("unexpected header %+v", got)
	}

	got = submission.Serialize(abSchema(), model.Answers{"a": "yes", "b": " ok "})
	if diff := cmp.Diff(map[string]any{"a": "yes", "b": "ok"}, got.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepare(t *testing.T) {
	t.Parallel()

	_, report, err := submission.Prepare(abSchema(), model.Answers{"a": "yes", "b": ""})
	if !errors.Is(err, submission.ErrInvalidSubmission) {
		t.Fatalf("expected ErrInvalidSubmission, got %v", err)
	}
	if errs := report.Field("b"); len(errs) != 1 || errs[0].Kind != validation.KindRequired {
		t.Fatalf("expected required error on b, got %+v", errs)
	}

	sub, report, err := submission.Prepare(abSchema(), model.Answers{"a": "yes", "b": "ok"})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !report.Valid() {
		t.Fatalf("expected a valid report")
	}
	if diff := cmp.Diff(map[string]any{"a": "yes", "b": "ok"}, sub.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepareUsesTheConfiguredEvaluator(t *testing.T) {
	t.Parallel()

	hideA := visibility.EvaluatorFunc(func(schema model.FormSchema, answers model.Answers) visibility.Result {
		res := visibility.Evaluate(schema, answers)
		res.States["a"] = visibility.State{}
		delete(res.Values, "a")
		return res
	})

	sub, report, err := submission.Prepare(abSchema(), model.Answers{"a": "no"}, validation.WithEvaluator(hideA))
	if err != nil {
		t.Fatalf("Prepare: %v (%v)", err, report.Errors)
	}
	if len(sub.Values) != 0 {
		t.Fatalf("a field hidden by the evaluator must not be serialized, got %v", sub.Values)
	}
}

func TestSerializeOmitsUnsetTimestamp(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(submission.Serialize(abSchema(), model.Answers{"a": "no"}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := fields["submittedAt"]; ok {
		t.Fatalf("an unsent submission should carry no submittedAt: %s", data)
	}
}

func TestHydrateSerializeIdempotent(t *testing.T) {
	t.Parallel()

	schema := richSchema()
	answers := model.Answers{
		"name":   "  Ada ",
		"seats":  "2",
		"topics": "go, zig",
		"day":    "2024-05-01T10:00:00Z",
		"agree":  "on",
		"cv":     map[string]any{"name": "cv.pdf", "size": 1200.0, "contentType": "application/pdf"},
	}

	first := submission.Serialize(schema, answers)
	hydrated, warnings := submission.Hydrate(schema, first)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	second := submission.Serialize(schema, hydrated)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("serialize(hydrate(s)) mismatch (-want +got):\n%s", diff)
	}

	want := map[string]any{
		"name":   "Ada",
		"seats":  float64(2),
		"topics": []string{"go", "zig"},
		"day":    "2024-05-01",
		"agree":  true,
		"cv":     fieldtype.File{Name: "cv.pdf", Size: 1200, ContentType: "application/pdf"},
	}
	if diff := cmp.Diff(want, first.Values); diff != "" {
		t.Fatalf("canonical values mismatch (-want +got):\n%s", diff)
	}
}

func TestHydrateFromJSON(t *testing.T) {
	t.Parallel()

	schema := richSchema()
	original := submission.Serialize(schema, model.Answers{
		"topics": []string{"zig"},
		"cv":     fieldtype.File{Name: "a.png", Size: 9},
	})

	payload, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded submission.Submission
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	answers, warnings := submission.Hydrate(schema, decoded)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if diff := cmp.Diff(original.Values, submission.Serialize(schema, answers).Values); diff != "" {
		t.Fatalf("json round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHydrateWarnings(t *testing.T) {
	t.Parallel()

	sub := submission.Submission{
		SchemaID: "rich",
		Version:  0,
		Values: map[string]any{
			"name":    "Ada",
			"removed": "gone",
			"topics":  []any{"go", "cobol"},
		},
	}

	answers, warnings := submission.Hydrate(richSchema(), sub)
	if diff := cmp.Diff(model.Answers{"name": "Ada"}, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	wantKinds := map[string]submission.WarningKind{
		"removed": submission.WarningUnknownField,
		"topics":  submission.WarningInvalidValue,
	}
	if len(warnings) != len(wantKinds) {
		t.Fatalf("expected %d warnings, got %v", len(wantKinds), warnings)
	}
	for _, w := range warnings {
		if wantKinds[w.FieldID] != w.Kind {
			t.Fatalf("unexpected warning %v", w)
		}
	}
}
