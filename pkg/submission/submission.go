// Package submission turns validated answers into the payload handed to the
// backend collaborator and back.
package submission

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
	"github.com/goliatone/go-formkit/pkg/visibility"
)

// ErrInvalidSubmission is returned by Prepare when the answers do not pass
// validation.
var ErrInvalidSubmission = errors.New("submission: answers are invalid")

// Submission is the canonical record of a completed form. Values only holds
// visible fields with a present answer.
type Submission struct {
	SchemaID    string         `json:"schemaId"`
	Version     int            `json:"version"`
	Values      map[string]any `json:"values"`
	SubmittedAt *time.Time     `json:"submittedAt,omitempty"`
}

// WarningKind classifies a non-fatal hydration problem.
type WarningKind string

const (
	WarningUnknownField WarningKind = "unknownField"
	WarningInvalidValue WarningKind = "invalidValue"
)

// Warning records a value dropped while hydrating an older submission.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	FieldID string      `json:"fieldId"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %q: %s", w.Kind, w.FieldID, w.Message)
}

// Serialize emits the canonical value of every visible field that has one.
// Hidden fields and unanswered optional fields are omitted.
func Serialize(schema model.FormSchema, answers model.Answers) Submission {
	return serialize(schema, visibility.Default.Evaluate(schema, answers))
}

func serialize(schema model.FormSchema, vis visibility.Result) Submission {
	values := make(map[string]any, len(vis.Values))
	for _, field := range schema.Ordered() {
		if value, ok := vis.Value(field.ID); ok {
			values[field.ID] = value
		}
	}
	return Submission{
		SchemaID: schema.ID,
		Version:  schema.Version,
		Values:   values,
	}
}

// Prepare validates answers and, when they are valid, serializes them. The
// report is returned in both cases so callers can surface field errors. An
// evaluator passed with validation.WithEvaluator decides visibility for both
// steps.
func Prepare(schema model.FormSchema, answers model.Answers, opts ...validation.Option) (Submission, validation.Report, error) {
	vis := validation.Evaluator(opts...).Evaluate(schema, answers)
	report := validation.ValidateWith(schema, answers, vis, opts...)
	if !report.Valid() {
		return Submission{}, report, ErrInvalidSubmission
	}
	return serialize(schema, vis), report, nil
}

// Hydrate rebuilds answers from a stored submission so a completed form can
// be rendered again. Values for fields the schema no longer has, or that no
// longer coerce to their field type, are dropped with a warning.
func Hydrate(schema model.FormSchema, sub Submission) (model.Answers, []Warning) {
	answers := make(model.Answers, len(sub.Values))
	var warnings []Warning

	ids := make([]string, 0, len(sub.Values))
	for id := range sub.Values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		raw := sub.Values[id]
		field, ok := schema.Field(id)
		if !ok {
			warnings = append(warnings, Warning{Kind: WarningUnknownField, FieldID: id, Message: "field no longer exists"})
			continue
		}
		desc, ok := fieldtype.Describe(field.Type)
		if !ok {
			warnings = append(warnings, Warning{Kind: WarningInvalidValue, FieldID: id, Message: "unsupported field type"})
			continue
		}
		value, err := desc.Coerce(raw, field.OptionValues())
		if err != nil {
			warnings = append(warnings, Warning{Kind: WarningInvalidValue, FieldID: id, Message: err.Error()})
			continue
		}
		answers[id] = value
	}
	return answers, warnings
}
