package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// InputConfig configures a single line prompt.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig configures a choice prompt. DefaultIndex applies to Select,
// Defaults to MultiSelect; both index into Options.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Defaults     []int
	Help         string
}

// TextAreaConfig configures a multi-line prompt.
type TextAreaConfig struct {
	Message string
	Default string
	Help    string
}

// PromptDriver is the terminal as the Filler sees it. Choice prompts answer
// with indexes into the options they were given.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	TextArea(ctx context.Context, cfg TextAreaConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out   io.Writer
	stdio []survey.AskOpt
}

// NewSurveyDriver returns a PromptDriver backed by survey/v2. Info lines go
// to out (stdout when nil). When out is a terminal file the prompts are drawn
// there too, which keeps stdout free for the submission document.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	d := &surveyDriver{out: out}
	if f, ok := out.(*os.File); ok {
		d.stdio = []survey.AskOpt{survey.WithStdio(os.Stdin, f, os.Stderr)}
	}
	return d
}

// ask runs one survey prompt. A canceled ctx wins over the prompt and Ctrl+C
// surfaces as ErrAborted.
func ask[T any](ctx context.Context, d *surveyDriver, prompt survey.Prompt, opts ...survey.AskOpt) (T, error) {
	var answer T
	if err := ctx.Err(); err != nil {
		return answer, err
	}
	err := survey.AskOne(prompt, &answer, append(slices.Clone(d.stdio), opts...)...)
	if errors.Is(err, terminal.InterruptErr) {
		return answer, ErrAborted
	}
	return answer, err
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var opts []survey.AskOpt
	if check := cfg.Validator; check != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			text, _ := ans.(string)
			return check(text)
		}))
	}
	return ask[string](ctx, d, &survey.Input{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, opts...)
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	return ask[bool](ctx, d, &survey.Confirm{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default})
}

func (d *surveyDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	return ask[string](ctx, d, &survey.Multiline{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default})
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	prompt := &survey.Select{Message: cfg.Message, Help: cfg.Help, Options: cfg.Options}
	if picked := pick(cfg.Options, cfg.DefaultIndex); len(picked) == 1 {
		prompt.Default = picked[0]
	}
	choice, err := ask[string](ctx, d, prompt)
	if err != nil {
		return 0, err
	}
	return slices.Index(cfg.Options, choice), nil
}

func (d *surveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	prompt := &survey.MultiSelect{Message: cfg.Message, Help: cfg.Help, Options: cfg.Options}
	if picked := pick(cfg.Options, cfg.Defaults...); len(picked) > 0 {
		prompt.Default = picked
	}
	choices, err := ask[[]string](ctx, d, prompt)
	if err != nil {
		return nil, err
	}
	return positions(cfg.Options, choices), nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// pick returns the options at the in-range indexes.
func pick(options []string, indexes ...int) []string {
	var out []string
	for _, i := range indexes {
		if i >= 0 && i < len(options) {
			out = append(out, options[i])
		}
	}
	return out
}

// positions returns the indexes in options of every value in values, in
// option order.
func positions(options, values []string) []int {
	var out []int
	for i, option := range options {
		if slices.Contains(values, option) {
			out = append(out, i)
		}
	}
	return out
}
