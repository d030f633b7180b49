package render

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
	"github.com/goliatone/go-formkit/pkg/visibility"
	"github.com/goliatone/go-formkit/pkg/visibility/expr"
)

// FormView is the renderer-facing snapshot of a form session.
type FormView struct {
	SchemaID    string        `json:"schemaId"`
	Version     int           `json:"version"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Action      string        `json:"action,omitempty"`
	Method      string        `json:"method,omitempty"`
	Fields      []FieldView   `json:"fields"`
	Hidden      []HiddenField `json:"hidden,omitempty"`
	Valid       bool          `json:"valid"`
}

// FieldView describes one field as it should be displayed right now.
type FieldView struct {
	ID          string                  `json:"id"`
	Type        fieldtype.Type          `json:"type"`
	Label       string                  `json:"label"`
	HelpText    string                  `json:"helpText,omitempty"`
	Placeholder string                  `json:"placeholder,omitempty"`
	Options     []OptionView            `json:"options,omitempty"`
	Required    bool                    `json:"required"`
	Visible     bool                    `json:"visible"`
	Value       any                     `json:"value,omitempty"`
	Display     string                  `json:"display,omitempty"`
	VisibleWhen string                  `json:"visibleWhen,omitempty"`
	DependsOn   []string                `json:"dependsOn,omitempty"`
	Rules       []model.ValidationRule  `json:"rules,omitempty"`
	Errors      []validation.FieldError `json:"errors,omitempty"`
}

// OptionView is a choice option with its selection state.
type OptionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Option customises Model.
type Option func(*viewConfig)

type viewConfig struct {
	action    string
	method    string
	report    *validation.Report
	hidden    []HiddenField
	evaluator visibility.Evaluator
}

// WithAction sets the submission target of the form.
func WithAction(action string) Option {
	return func(cfg *viewConfig) {
		cfg.action = strings.TrimSpace(action)
	}
}

// WithMethod overrides the HTTP method (POST by default).
func WithMethod(method string) Option {
	return func(cfg *viewConfig) {
		if trimmed := strings.TrimSpace(method); trimmed != "" {
			cfg.method = strings.ToUpper(trimmed)
		}
	}
}

// WithReport attaches validation errors to the matching fields.
func WithReport(report validation.Report) Option {
	return func(cfg *viewConfig) {
		cfg.report = &report
	}
}

// WithHiddenFields adds extra hidden inputs such as CSRF tokens.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(cfg *viewConfig) {
		cfg.hidden = append(cfg.hidden, fields...)
	}
}

// WithEvaluator replaces the visibility evaluator.
func WithEvaluator(e visibility.Evaluator) Option {
	return func(cfg *viewConfig) {
		if e != nil {
			cfg.evaluator = e
		}
	}
}

// Model builds the view for schema and answers. Every field is listed in
// order; hidden ones carry Visible=false and no value so renderers can
// either skip them or toggle them client side.
func Model(schema model.FormSchema, answers model.Answers, opts ...Option) FormView {
	cfg := viewConfig{method: "POST", evaluator: visibility.Default}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	vis := cfg.evaluator.Evaluate(schema, answers)
	view := FormView{
		SchemaID:    schema.ID,
		Version:     schema.Version,
		Title:       schema.Title,
		Description: schema.Description,
		Action:      cfg.action,
		Method:      cfg.method,
		Fields:      make([]FieldView, 0, len(schema.Fields)),
		Valid:       cfg.report == nil || cfg.report.Valid(),
	}

	hidden := MergeHiddenFields(nil, append([]HiddenField{SchemaField(schema.ID), VersionField(schema.Version)}, cfg.hidden...)...)
	view.Hidden = SortedHiddenFields(hidden)

	for _, field := range schema.Ordered() {
		fv := FieldView{
			ID:          field.ID,
			Type:        field.Type,
			Label:       field.Label,
			HelpText:    field.HelpText,
			Placeholder: field.Placeholder,
			Required:    vis.Required(field.ID),
			Visible:     vis.Visible(field.ID),
			VisibleWhen: expr.Format(field.VisibilityRule),
			DependsOn:   field.VisibilityRule.References(),
			Rules:       field.ValidationRules,
		}
		raw, hasRaw := answers[field.ID]
		if fv.Visible && hasRaw && !fieldtype.Empty(raw) {
			fv.Value = raw
			if canonical, ok := vis.Value(field.ID); ok {
				fv.Value = canonical
			}
			fv.Display = displayValue(fv.Value)
		}
		fv.Options = optionViews(field, fv.Value)
		if cfg.report != nil && fv.Visible {
			fv.Errors = cfg.report.Field(field.ID)
		}
		view.Fields = append(view.Fields, fv)
	}
	return view
}

// VisibleFields returns the visible subset of view.Fields.
func (v FormView) VisibleFields() []FieldView {
	out := make([]FieldView, 0, len(v.Fields))
	for _, field := range v.Fields {
		if field.Visible {
			out = append(out, field)
		}
	}
	return out
}

// Field looks a field up by id.
func (v FormView) Field(id string) (FieldView, bool) {
	for _, field := range v.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FieldView{}, false
}

func optionViews(field model.FieldDefinition, value any) []OptionView {
	if len(field.Options) == 0 {
		return nil
	}
	selected := map[string]bool{}
	switch v := value.(type) {
	case string:
		selected[v] = true
	case []string:
		for _, item := range v {
			selected[item] = true
		}
	}
	out := make([]OptionView, 0, len(field.Options))
	for _, opt := range field.Options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		out = append(out, OptionView{Value: opt.Value, Label: label, Selected: selected[opt.Value]})
	}
	return out
}

// displayValue renders a value for text inputs.
func displayValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, ", ")
	case fieldtype.File:
		return v.Name
	}
	if s, ok := value.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}
