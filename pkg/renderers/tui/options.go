package tui

import "github.com/goliatone/go-formkit/pkg/validation"

// OutputFormat controls how a finished submission is encoded.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// ContentType reports the media type of the format.
func (f OutputFormat) ContentType() string {
	switch f {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Theme captures optional prefixes the filler puts in front of messages.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithOutputFormat selects the format used by Encode.
func WithOutputFormat(format OutputFormat) Option {
	return func(f *Filler) {
		if format != "" {
			f.format = format
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(f *Filler) {
		f.theme = theme
	}
}

// WithMaxRounds bounds how many times invalid answers are asked again after
// a failed submit. Values below one are ignored.
func WithMaxRounds(n int) Option {
	return func(f *Filler) {
		if n > 0 {
			f.maxRounds = n
		}
	}
}

// WithValidationOptions forwards options such as a message catalog to the
// per-answer checks.
func WithValidationOptions(opts ...validation.Option) Option {
	return func(f *Filler) {
		f.validation = append(f.validation, opts...)
	}
}
