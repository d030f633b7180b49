package document

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/form.schema.json
var schemaFS embed.FS

const schemaFile = "schemas/form.schema.json"

// ErrInvalidDocument matches every *Error.
var ErrInvalidDocument = errors.New("document: invalid schema document")

// ErrSyntax is returned when a document is empty or is neither JSON nor YAML.
var ErrSyntax = errors.New("document: malformed document")

// Issue is one structural problem found in a document.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	switch {
	case i.Field != "":
		return fmt.Sprintf("%s (field %q): %s", i.Path, i.Field, i.Message)
	case i.Path != "":
		return fmt.Sprintf("%s: %s", i.Path, i.Message)
	default:
		return i.Message
	}
}

// Error lists the structural issues of a document.
type Error struct {
	Source string  `json:"source"`
	Issues []Issue `json:"issues"`
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("document: %s: %s", e.Source, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error {
	return ErrInvalidDocument
}

type validator struct {
	schema *jsonschema.Schema
}

var (
	validatorOnce sync.Once
	validatorInst *validator
)

// defaultValidator compiles the embedded schema once. The schema ships with
// the binary, so a compile failure is a programming error.
func defaultValidator() *validator {
	validatorOnce.Do(func() {
		v, err := newValidator()
		if err != nil {
			panic(err)
		}
		validatorInst = v
	})
	return validatorInst
}

func newValidator() (*validator, error) {
	data, err := schemaFS.ReadFile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("document: read embedded schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document: parse embedded schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("form.schema.json", doc); err != nil {
		return nil, fmt.Errorf("document: add schema resource: %w", err)
	}
	schema, err := c.Compile("form.schema.json")
	if err != nil {
		return nil, fmt.Errorf("document: compile schema: %w", err)
	}
	return &validator{schema: schema}, nil
}

func (v *validator) validate(doc any) []Issue {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Issue{{Message: err.Error()}}
	}
	return collectIssues(ve)
}

// collectIssues flattens the leaves of a validation error tree.
func collectIssues(ve *jsonschema.ValidationError) []Issue {
	if len(ve.Causes) > 0 {
		var out []Issue
		for _, cause := range ve.Causes {
			out = append(out, collectIssues(cause)...)
		}
		return out
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	msg := strings.TrimSpace(ve.Error())
	if strings.HasPrefix(msg, "at '") {
		if idx := strings.Index(msg, "': "); idx >= 0 {
			msg = msg[idx+3:]
		}
	}
	if msg == "" {
		return nil
	}
	return []Issue{{Path: path, Message: msg}}
}

// annotate fills Issue.Field with the id of the field a /fields/N path
// points into, when the document provides one.
func annotate(doc any, issues []Issue) []Issue {
	root, _ := doc.(map[string]any)
	fields, _ := root["fields"].([]any)
	for i, issue := range issues {
		rest, ok := strings.CutPrefix(issue.Path, "/fields/")
		if !ok {
			continue
		}
		idxText, _, _ := strings.Cut(rest, "/")
		idx, err := strconv.Atoi(idxText)
		if err != nil || idx < 0 || idx >= len(fields) {
			continue
		}
		if field, ok := fields[idx].(map[string]any); ok {
			if id, ok := field["id"].(string); ok {
				issues[i].Field = id
			}
		}
	}
	return issues
}
