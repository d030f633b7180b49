package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/pkg/builder"
	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/visibility/expr"
)

// Format selects the encoding produced by Encode.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

type documentFile struct {
	ID          string      `json:"id" yaml:"id"`
	Version     int         `json:"version,omitempty" yaml:"version,omitempty"`
	Title       string      `json:"title,omitempty" yaml:"title,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	ID             string       `json:"id" yaml:"id"`
	Type           string       `json:"type" yaml:"type"`
	Label          string       `json:"label,omitempty" yaml:"label,omitempty"`
	HelpText       string       `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Placeholder    string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required       bool         `json:"required,omitempty" yaml:"required,omitempty"`
	Options        []optionFile `json:"options,omitempty" yaml:"options,omitempty"`
	Rules          []ruleFile   `json:"rules,omitempty" yaml:"rules,omitempty"`
	VisibleWhen    string       `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
	VisibilityRule *ruleSetFile `json:"visibilityRule,omitempty" yaml:"visibilityRule,omitempty"`
}

type optionFile struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// UnmarshalJSON accepts the "- yes" shorthand where value and label match.
func (o *optionFile) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err == nil {
		*o = optionFile{Value: value}
		return nil
	}
	type plain optionFile
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*o = optionFile(out)
	return nil
}

type ruleFile struct {
	Kind      string            `json:"kind" yaml:"kind"`
	Value     any               `json:"value,omitempty" yaml:"value,omitempty"`
	Pattern   string            `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Types     any               `json:"types,omitempty" yaml:"types,omitempty"`
	Exclusive bool              `json:"exclusive,omitempty" yaml:"exclusive,omitempty"`
	Params    map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

type ruleSetFile struct {
	Conditions []conditionFile `json:"conditions" yaml:"conditions"`
}

type conditionFile struct {
	FieldID  string `json:"fieldId" yaml:"fieldId"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Parse decodes a JSON or YAML document, checks it against the document
// JSON Schema, sanitizes display strings and verifies every schema
// invariant. source only labels errors.
func Parse(data []byte, source string) (model.FormSchema, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return model.FormSchema{}, fmt.Errorf("%w: %s is empty", ErrSyntax, source)
	}

	raw, err := decode(data)
	if err != nil {
		return model.FormSchema{}, fmt.Errorf("%w: %s: %w", ErrSyntax, source, err)
	}
	if issues := defaultValidator().validate(raw); len(issues) > 0 {
		return model.FormSchema{}, &Error{Source: source, Issues: annotate(raw, issues)}
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return model.FormSchema{}, fmt.Errorf("document: parse %s: %w", source, err)
	}
	var doc documentFile
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return model.FormSchema{}, fmt.Errorf("document: parse %s: %w", source, err)
	}

	schema, err := toSchema(doc)
	if err != nil {
		return model.FormSchema{}, fmt.Errorf("document: %s: %w", source, err)
	}
	return schema, nil
}

// Load reads and parses the document at path.
func Load(path string) (model.FormSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormSchema{}, fmt.Errorf("document: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS walks fsys and parses every JSON/YAML file it finds. Schemas are
// returned sorted by id; two documents declaring the same id is an error.
func LoadFS(fsys fs.FS) ([]model.FormSchema, error) {
	if fsys == nil {
		return nil, nil
	}
	seen := map[string]string{}
	var out []model.FormSchema
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDocumentFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("document: read %s: %w", path, err)
		}
		schema, err := Parse(data, path)
		if err != nil {
			return err
		}
		if prev, dup := seen[schema.ID]; dup {
			return fmt.Errorf("document: duplicate form %q (files %s and %s)", schema.ID, prev, path)
		}
		seen[schema.ID] = path
		out = append(out, schema)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Encode writes schema as a document. Visibility rules are written as
// visibleWhen expressions whenever the text form parses back to the same
// rule.
func Encode(schema model.FormSchema, format Format) ([]byte, error) {
	doc := fromSchema(schema)
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("document: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("document: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("document: unknown format %q", format)
	}
}

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// decode accepts JSON first, then YAML, and returns a value shaped the way
// the JSON Schema validator expects.
func decode(data []byte) (any, error) {
	if doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data)); err == nil {
		return doc, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New("invalid JSON or YAML")
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("unsupported YAML content: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(normalized))
}

func toSchema(doc documentFile) (model.FormSchema, error) {
	sanitizer := builder.DefaultSanitizer()
	schema := model.FormSchema{
		ID:          strings.TrimSpace(doc.ID),
		Version:     doc.Version,
		Title:       sanitizer.Plain(doc.Title),
		Description: sanitizer.Rich(doc.Description),
		Fields:      make([]model.FieldDefinition, 0, len(doc.Fields)),
	}

	for idx, raw := range doc.Fields {
		field := model.FieldDefinition{
			ID:          strings.TrimSpace(raw.ID),
			Type:        fieldtype.Type(raw.Type),
			Label:       raw.Label,
			HelpText:    raw.HelpText,
			Placeholder: raw.Placeholder,
			Required:    raw.Required,
			Order:       idx,
		}
		for _, opt := range raw.Options {
			field.Options = append(field.Options, model.Option{Value: strings.TrimSpace(opt.Value), Label: opt.Label})
		}
		for _, rule := range raw.Rules {
			field.ValidationRules = append(field.ValidationRules, toRule(rule))
		}

		switch {
		case strings.TrimSpace(raw.VisibleWhen) != "":
			rule, err := expr.Parse(raw.VisibleWhen)
			if err != nil {
				var schemaErr *model.SchemaError
				if errors.As(err, &schemaErr) {
					schemaErr.FieldID = field.ID
				}
				return model.FormSchema{}, err
			}
			field.VisibilityRule = rule
		case raw.VisibilityRule != nil && len(raw.VisibilityRule.Conditions) > 0:
			rule := &model.VisibilityRule{}
			for _, cond := range raw.VisibilityRule.Conditions {
				rule.Conditions = append(rule.Conditions, model.Condition{
					FieldID:  strings.TrimSpace(cond.FieldID),
					Operator: model.Operator(cond.Operator),
					Value:    cond.Value,
				})
			}
			field.VisibilityRule = rule
		}

		sanitizer.Field(&field)
		schema.Fields = append(schema.Fields, field)
	}

	if err := model.Check(schema); err != nil {
		return model.FormSchema{}, err
	}
	return schema, nil
}

func toRule(raw ruleFile) model.ValidationRule {
	params := make(map[string]string, len(raw.Params)+2)
	for k, v := range raw.Params {
		params[k] = v
	}
	switch v := raw.Value.(type) {
	case string:
		params["value"] = v
	case float64:
		params["value"] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if raw.Pattern != "" {
		params["pattern"] = raw.Pattern
	}
	switch v := raw.Types.(type) {
	case string:
		params["types"] = v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		params["types"] = strings.Join(parts, ",")
	}
	if raw.Exclusive {
		params["exclusive"] = "true"
	}
	if len(params) == 0 {
		params = nil
	}
	return model.ValidationRule{Kind: fieldtype.RuleKind(raw.Kind), Params: params}
}

func fromSchema(schema model.FormSchema) documentFile {
	doc := documentFile{
		ID:          schema.ID,
		Version:     schema.Version,
		Title:       schema.Title,
		Description: schema.Description,
		Fields:      make([]fieldFile, 0, len(schema.Fields)),
	}
	for _, field := range schema.Ordered() {
		out := fieldFile{
			ID:          field.ID,
			Type:        string(field.Type),
			Label:       field.Label,
			HelpText:    field.HelpText,
			Placeholder: field.Placeholder,
			Required:    field.Required,
		}
		for _, opt := range field.Options {
			label := opt.Label
			if label == opt.Value {
				label = ""
			}
			out.Options = append(out.Options, optionFile{Value: opt.Value, Label: label})
		}
		for _, rule := range field.ValidationRules {
			out.Rules = append(out.Rules, ruleFile{Kind: string(rule.Kind), Params: rule.Params})
		}
		if field.VisibilityRule != nil && len(field.VisibilityRule.Conditions) > 0 {
			text := expr.Format(field.VisibilityRule)
			if parsed, err := expr.Parse(text); err == nil && reflect.DeepEqual(parsed, field.VisibilityRule) {
				out.VisibleWhen = text
			} else {
				set := &ruleSetFile{}
				for _, cond := range field.VisibilityRule.Conditions {
					set.Conditions = append(set.Conditions, conditionFile{
						FieldID:  cond.FieldID,
						Operator: string(cond.Operator),
						Value:    cond.Value,
					})
				}
				out.VisibilityRule = set
			}
		}
		doc.Fields = append(doc.Fields, out)
	}
	return doc
}

func isDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
