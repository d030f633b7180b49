package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/builder"
	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/submission"
	"github.com/goliatone/go-formkit/pkg/validation"
)

const skipLabel = "(skip)"

// Filler walks a render.Instance field by field in the terminal. Visibility
// is re-evaluated after every answer, so dependent questions appear as soon
// as their conditions hold.
type Filler struct {
	driver     PromptDriver
	format     OutputFormat
	theme      Theme
	maxRounds  int
	validation []validation.Option
}

// New constructs a Filler with defaults (survey driver, JSON output, three
// review rounds).
func New(options ...Option) *Filler {
	f := &Filler{
		format:    OutputFormatJSON,
		theme:     Theme{ErrorPrefix: "! "},
		maxRounds: 3,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(nil)
	}
	return f
}

// Format reports the configured output format.
func (f *Filler) Format() OutputFormat {
	return f.format
}

// Fill prompts for every visible unanswered field, then submits. When the
// submit fails, each failing field is cleared and asked again with its
// previous answer as default.
func (f *Filler) Fill(ctx context.Context, inst *render.Instance) (submission.Submission, error) {
	if ctx == nil {
		return submission.Submission{}, errors.New("tui: context is required")
	}
	if inst == nil {
		return submission.Submission{}, errors.New("tui: instance is required")
	}

	schema := inst.Schema()
	if schema.Title != "" {
		if err := f.driver.Info(ctx, f.theme.InfoPrefix+schema.Title); err != nil {
			return submission.Submission{}, err
		}
	}

	if err := f.answerRemaining(ctx, inst, nil); err != nil {
		return submission.Submission{}, err
	}

	for round := 1; ; round++ {
		sub, report, err := inst.Submit()
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, submission.ErrInvalidSubmission) {
			return submission.Submission{}, err
		}
		if round >= f.maxRounds {
			return submission.Submission{}, fmt.Errorf("%w: %s", ErrTooManyAttempts, strings.Join(report.Fields(), ", "))
		}

		previous := inst.Answers()
		for _, id := range report.Fields() {
			for _, fe := range report.Field(id) {
				if err := f.driver.Info(ctx, f.theme.ErrorPrefix+id+": "+fe.Message); err != nil {
					return submission.Submission{}, err
				}
			}
			inst.Clear(id)
		}
		if err := f.answerRemaining(ctx, inst, previous); err != nil {
			return submission.Submission{}, err
		}
	}
}

// Encode serializes sub in the filler's output format.
func (f *Filler) Encode(sub submission.Submission) ([]byte, error) {
	return Encode(sub, f.format)
}

func (f *Filler) answerRemaining(ctx context.Context, inst *render.Instance, defaults model.Answers) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		field, ok := inst.Next()
		if !ok {
			return nil
		}
		raw, err := f.ask(ctx, field, defaults[field.ID])
		if err != nil {
			return fmt.Errorf("tui: field %q: %w", field.ID, err)
		}
		if err := inst.Set(field.ID, raw); err != nil {
			return err
		}
	}
}

// ask repeats the prompt until the answer passes the field's own checks.
func (f *Filler) ask(ctx context.Context, field model.FieldDefinition, previous any) (any, error) {
	for {
		raw, err := f.prompt(ctx, field, previous)
		if err != nil {
			return nil, err
		}
		errs := validation.ValidateField(field, raw, f.validation...)
		if len(errs) == 0 {
			return raw, nil
		}
		for _, fe := range errs {
			if err := f.driver.Info(ctx, f.theme.ErrorPrefix+fe.Message); err != nil {
				return nil, err
			}
		}
		previous = raw
	}
}

func (f *Filler) prompt(ctx context.Context, field model.FieldDefinition, previous any) (any, error) {
	message := displayLabel(field)
	help := builder.DefaultSanitizer().Plain(field.HelpText)

	switch field.Type {
	case fieldtype.LongText:
		return f.driver.TextArea(ctx, TextAreaConfig{Message: message, Help: help, Default: stringValue(previous)})
	case fieldtype.Checkbox:
		def, _ := previous.(bool)
		return f.driver.Confirm(ctx, ConfirmConfig{Message: message, Help: help, Default: def})
	case fieldtype.SingleChoice:
		return f.promptChoice(ctx, field, message, help, previous)
	case fieldtype.MultipleChoice:
		return f.promptMulti(ctx, field, message, help, previous)
	case fieldtype.FileUpload:
		path, err := f.driver.Input(ctx, InputConfig{
			Message:   message,
			Help:      joinHelp(help, "Path to a local file."),
			Default:   fileDefault(previous),
			Validator: checkFilePath,
		})
		if err != nil {
			return nil, err
		}
		return fileFromPath(path)
	default:
		if field.Type == fieldtype.Date {
			help = joinHelp(help, "Format: YYYY-MM-DD.")
		}
		return f.driver.Input(ctx, InputConfig{
			Message: message,
			Help:    help,
			Default: stringValue(previous),
			Validator: func(ans string) error {
				if errs := validation.ValidateField(field, ans, f.validation...); len(errs) > 0 {
					return errors.New(errs[0].Message)
				}
				return nil
			},
		})
	}
}

func (f *Filler) promptChoice(ctx context.Context, field model.FieldDefinition, message, help string, previous any) (any, error) {
	labels, values := optionLabels(field)
	if !field.Required {
		labels = append(labels, skipLabel)
	}
	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:      message,
		Help:         help,
		Options:      labels,
		DefaultIndex: slices.Index(values, stringValue(previous)),
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(values) {
		return "", nil
	}
	return values[idx], nil
}

func (f *Filler) promptMulti(ctx context.Context, field model.FieldDefinition, message, help string, previous any) (any, error) {
	labels, values := optionLabels(field)
	var defaults []int
	if selected, ok := previous.([]string); ok {
		defaults = positions(values, selected)
	}
	indices, err := f.driver.MultiSelect(ctx, SelectConfig{
		Message:  message,
		Help:     help,
		Options:  labels,
		Defaults: defaults,
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(values) {
			out = append(out, values[idx])
		}
	}
	return out, nil
}

// Encode serializes a submission as JSON, form-urlencoded pairs or a short
// text summary.
func Encode(sub submission.Submission, format OutputFormat) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		form := url.Values{}
		form.Set(render.SchemaIDField, sub.SchemaID)
		form.Set(render.VersionName, strconv.Itoa(sub.Version))
		for id, value := range sub.Values {
			if list, ok := value.([]string); ok {
				for _, item := range list {
					form.Add(id, item)
				}
				continue
			}
			form.Set(id, formatValue(value))
		}
		return []byte(form.Encode()), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		fmt.Fprintf(&b, "%s (version %d)\n", sub.SchemaID, sub.Version)
		ids := make([]string, 0, len(sub.Values))
		for id := range sub.Values {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&b, "  %s: %s\n", id, formatValue(sub.Values[id]))
		}
		return []byte(b.String()), nil
	case OutputFormatJSON, "":
		return json.MarshalIndent(sub, "", "  ")
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", format)
	}
}

func displayLabel(field model.FieldDefinition) string {
	label := field.Label
	if label == "" {
		label = field.ID
	}
	if field.Required {
		label += " *"
	}
	return label
}

func joinHelp(parts ...string) string {
	var out []string
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, " ")
}

func optionLabels(field model.FieldDefinition) (labels, values []string) {
	for _, opt := range field.Options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		labels = append(labels, label)
		values = append(values, opt.Value)
	}
	return labels, values
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return formatValue(v)
	}
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, ", ")
	case fieldtype.File:
		return v.Name
	default:
		return fmt.Sprint(v)
	}
}

func fileDefault(value any) string {
	if file, ok := value.(fieldtype.File); ok {
		return file.URL
	}
	return stringValue(value)
}

func checkFilePath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// fileFromPath records the metadata of a local file. The URL keeps the path
// so a later review round can offer it as default. Unreadable paths are
// returned as typed so validation reports them.
func fileFromPath(path string) (any, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if checkFilePath(path) != nil {
		return path, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return path, nil
	}
	return fieldtype.File{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		URL:         path,
	}, nil
}
