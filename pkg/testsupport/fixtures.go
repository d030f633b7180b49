package testsupport

import (
	"bytes"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/visibility/expr"
)

// EventSchema returns a small registration form exercising choice, number,
// text, date, checkbox and file fields plus a two-step visibility chain.
func EventSchema() model.FormSchema {
	return model.FormSchema{
		ID:          "event-registration",
		Version:     1,
		Title:       "Event registration",
		Description: "Tell us if you can make it.",
		Fields: []model.FieldDefinition{
			{
				ID:       "attending",
				Type:     fieldtype.SingleChoice,
				Label:    "Will you attend?",
				Options:  []model.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
				Required: true,
				Order:    0,
			},
			{
				ID:    "guests",
				Type:  fieldtype.Number,
				Label: "Number of guests",
				ValidationRules: []model.ValidationRule{
					{Kind: fieldtype.RuleMin, Params: map[string]string{"value": "0"}},
					{Kind: fieldtype.RuleMax, Params: map[string]string{"value": "4"}},
				},
				VisibilityRule: expr.MustParse(`attending == "yes"`),
				Order:          1,
			},
			{
				ID:             "guest_names",
				Type:           fieldtype.LongText,
				Label:          "Guest names",
				Required:       true,
				VisibilityRule: expr.MustParse(`attending == "yes" && guests in [1, 2, 3, 4]`),
				Order:          2,
			},
			{
				ID:    "arrival",
				Type:  fieldtype.Date,
				Label: "Arrival date",
				ValidationRules: []model.ValidationRule{
					{Kind: fieldtype.RuleMinDate, Params: map[string]string{"value": "2024-06-01"}},
				},
				VisibilityRule: expr.MustParse(`attending == "yes"`),
				Order:          3,
			},
			{
				ID:          "reason",
				Type:        fieldtype.ShortText,
				Label:       "Why not?",
				Placeholder: "Optional",
				ValidationRules: []model.ValidationRule{
					{Kind: fieldtype.RuleMaxLength, Params: map[string]string{"value": "80"}},
				},
				VisibilityRule: expr.MustParse(`attending == "no"`),
				Order:          4,
			},
			{
				ID:       "terms",
				Type:     fieldtype.Checkbox,
				Label:    "I accept the terms",
				Required: true,
				Order:    5,
			},
			{
				ID:    "badge",
				Type:  fieldtype.FileUpload,
				Label: "Badge photo",
				ValidationRules: []model.ValidationRule{
					{Kind: fieldtype.RuleMaxFileSize, Params: map[string]string{"value": "1048576"}},
					{Kind: fieldtype.RuleAllowedTypes, Params: map[string]string{"types": "image/*"}},
				},
				Order: 6,
			},
		},
	}
}

// FixedClock returns a clock frozen at 2024-05-01T12:00:00Z.
func FixedClock() func() time.Time {
	ts := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
