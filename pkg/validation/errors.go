package validation

import (
	"sort"
	"strings"
)

// Kind classifies a field-level validation failure.
type Kind string

const (
	KindRequired        Kind = "required"
	KindInvalidFormat   Kind = "invalidFormat"
	KindTooShort        Kind = "tooShort"
	KindTooLong         Kind = "tooLong"
	KindOutOfRange      Kind = "outOfRange"
	KindPatternMismatch Kind = "patternMismatch"
	KindFileTooLarge    Kind = "fileTooLarge"
	KindInvalidType     Kind = "invalidType"
)

// FieldError describes one problem with one answer. Params carries the rule
// arguments used to build Message so clients can localize it themselves.
type FieldError struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Params  map[string]string `json:"params,omitempty"`
}

// Report maps field ids to their errors. Fields without errors are absent.
type Report struct {
	Errors map[string][]FieldError `json:"errors"`
}

// Valid reports whether no field has errors.
func (r Report) Valid() bool {
	for _, errs := range r.Errors {
		if len(errs) > 0 {
			return false
		}
	}
	return true
}

// Field returns the errors recorded for id.
func (r Report) Field(id string) []FieldError {
	return r.Errors[id]
}

// Fields lists the ids with errors in lexical order.
func (r Report) Fields() []string {
	ids := make([]string, 0, len(r.Errors))
	for id, errs := range r.Errors {
		if len(errs) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Messages flattens the report into field id -> messages, the shape used by
// HTTP error payloads and template renderers.
func (r Report) Messages() map[string][]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string][]string, len(r.Errors))
	for id, errs := range r.Errors {
		for _, fe := range errs {
			if msg := strings.TrimSpace(fe.Message); msg != "" {
				out[id] = append(out[id], msg)
			}
		}
	}
	return out
}

func (r *Report) add(id string, fe FieldError) {
	if r.Errors == nil {
		r.Errors = make(map[string][]FieldError)
	}
	r.Errors[id] = append(r.Errors[id], fe)
}
