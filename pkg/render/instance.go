package render

import (
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/submission"
	"github.com/goliatone/go-formkit/pkg/validation"
	"github.com/goliatone/go-formkit/pkg/visibility"
)

// Instance holds the answers of one respondent filling one schema version.
// It is owned by a single session and is not safe for concurrent use.
type Instance struct {
	schema  model.FormSchema
	answers model.Answers
	report  *validation.Report
	opts    []validation.Option
}

// NewInstance starts a session. answers may be nil or pre-filled, for
// example from submission.Hydrate.
func NewInstance(schema model.FormSchema, answers model.Answers, opts ...validation.Option) *Instance {
	if answers == nil {
		answers = model.Answers{}
	}
	return &Instance{schema: schema, answers: answers.Clone(), opts: opts}
}

// Schema returns the schema the session was started with.
func (i *Instance) Schema() model.FormSchema {
	return i.schema
}

// Answers returns a copy of the raw answers, including hidden ones.
func (i *Instance) Answers() model.Answers {
	return i.answers.Clone()
}

// Set records a raw answer. Errors previously reported for the field are
// discarded until the next Validate or Submit.
func (i *Instance) Set(id string, raw any) error {
	if _, ok := i.schema.Field(id); !ok {
		return model.NewSchemaError(model.KindUnknownField, id, "no such field")
	}
	i.answers[id] = raw
	i.forget(id)
	return nil
}

// Clear removes the answer for id.
func (i *Instance) Clear(id string) {
	delete(i.answers, id)
	i.forget(id)
}

func (i *Instance) forget(id string) {
	if i.report != nil {
		delete(i.report.Errors, id)
	}
}

// Visibility evaluates the current answers.
func (i *Instance) Visibility() visibility.Result {
	return validation.Evaluator(i.opts...).Evaluate(i.schema, i.answers)
}

// Next returns the first visible field, in order, without an answer. ok is
// false once every visible field has been answered or skipped.
func (i *Instance) Next() (model.FieldDefinition, bool) {
	vis := i.Visibility()
	for _, field := range i.schema.Ordered() {
		if !vis.Visible(field.ID) {
			continue
		}
		if _, seen := i.answers[field.ID]; !seen {
			return field, true
		}
	}
	return model.FieldDefinition{}, false
}

// Validate checks the current answers and remembers the report for View.
func (i *Instance) Validate() validation.Report {
	report := validation.Validate(i.schema, i.answers, i.opts...)
	i.report = &report
	return report
}

// View renders the session, attaching the last validation report.
func (i *Instance) View(opts ...Option) FormView {
	if i.report != nil {
		opts = append([]Option{WithReport(*i.report)}, opts...)
	}
	return Model(i.schema, i.answers, opts...)
}

// Submit validates and, when valid, serializes the answers.
func (i *Instance) Submit() (submission.Submission, validation.Report, error) {
	sub, report, err := submission.Prepare(i.schema, i.answers, i.opts...)
	i.report = &report
	return sub, report, err
}
