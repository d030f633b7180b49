package fieldtype

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is the closed set of field kinds a schema can declare.
type Type string

const (
	ShortText      Type = "short_text"
	LongText       Type = "long_text"
	Number         Type = "number"
	SingleChoice   Type = "single_choice"
	MultipleChoice Type = "multiple_choice"
	Date           Type = "date"
	Checkbox       Type = "checkbox"
	FileUpload     Type = "file"
)

// Shape names the canonical value representation of a field type.
type Shape string

const (
	ShapeString     Shape = "string"
	ShapeNumber     Shape = "number"
	ShapeStringList Shape = "string[]"
	ShapeBoolean    Shape = "boolean"
	ShapeDate       Shape = "date"
	ShapeFile       Shape = "file"
)

// RuleKind identifies a validation rule. Each field type accepts a fixed
// subset, see Descriptor.RuleKinds.
type RuleKind string

const (
	RuleMinLength    RuleKind = "minLength"
	RuleMaxLength    RuleKind = "maxLength"
	RulePattern      RuleKind = "pattern"
	RuleMin          RuleKind = "min"
	RuleMax          RuleKind = "max"
	RuleMinSelected  RuleKind = "minSelected"
	RuleMaxSelected  RuleKind = "maxSelected"
	RuleMinDate      RuleKind = "minDate"
	RuleMaxDate      RuleKind = "maxDate"
	RuleMaxFileSize  RuleKind = "maxFileSize"
	RuleAllowedTypes RuleKind = "allowedTypes"
)

// DateLayout is the canonical layout of date values.
const DateLayout = "2006-01-02"

// File is the canonical value of a file field. The upload itself is handled
// by the hosting application; the form only records its metadata.
type File struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Descriptor captures the value semantics of a single field type.
type Descriptor struct {
	Type      Type
	Shape     Shape
	RuleKinds []RuleKind
	// Choices reports whether the type requires a non-empty options list.
	Choices bool

	coerce func(raw any, choices []string) (any, error)
	zero   func() any
}

// Coerce converts raw input into the canonical value for the type. choices
// restricts the accepted values of choice types; a nil slice disables the
// membership check.
func (d Descriptor) Coerce(raw any, choices []string) (any, error) {
	if d.coerce == nil {
		return nil, &CoercionError{Type: d.Type, Raw: raw, Reason: "unknown field type"}
	}
	return d.coerce(raw, choices)
}

// Default returns the value an unanswered field of this type starts with.
func (d Descriptor) Default() any {
	if d.zero == nil {
		return nil
	}
	return d.zero()
}

// Supports reports whether kind is applicable to the type.
func (d Descriptor) Supports(kind RuleKind) bool {
	for _, candidate := range d.RuleKinds {
		if candidate == kind {
			return true
		}
	}
	return false
}

var textRules = []RuleKind{RuleMinLength, RuleMaxLength, RulePattern}

var registry = map[Type]Descriptor{
	ShortText: {
		Type:      ShortText,
		Shape:     ShapeString,
		RuleKinds: textRules,
		coerce:    coerceText(ShortText),
		zero:      func() any { return "" },
	},
	LongText: {
		Type:      LongText,
		Shape:     ShapeString,
		RuleKinds: textRules,
		coerce:    coerceText(LongText),
		zero:      func() any { return "" },
	},
	Number: {
		Type:      Number,
		Shape:     ShapeNumber,
		RuleKinds: []RuleKind{RuleMin, RuleMax},
		coerce:    coerceNumber,
		zero:      func() any { return nil },
	},
	SingleChoice: {
		Type:    SingleChoice,
		Shape:   ShapeString,
		Choices: true,
		coerce:  coerceSingleChoice,
		zero:    func() any { return "" },
	},
	MultipleChoice: {
		Type:      MultipleChoice,
		Shape:     ShapeStringList,
		RuleKinds: []RuleKind{RuleMinSelected, RuleMaxSelected},
		Choices:   true,
		coerce:    coerceMultipleChoice,
		zero:      func() any { return []string(nil) },
	},
	Date: {
		Type:      Date,
		Shape:     ShapeDate,
		RuleKinds: []RuleKind{RuleMinDate, RuleMaxDate},
		coerce:    coerceDate,
		zero:      func() any { return "" },
	},
	Checkbox: {
		Type:   Checkbox,
		Shape:  ShapeBoolean,
		coerce: coerceCheckbox,
		zero:   func() any { return false },
	},
	FileUpload: {
		Type:      FileUpload,
		Shape:     ShapeFile,
		RuleKinds: []RuleKind{RuleMaxFileSize, RuleAllowedTypes},
		coerce:    coerceFile,
		zero:      func() any { return nil },
	},
}

var ordered = []Type{ShortText, LongText, Number, SingleChoice, MultipleChoice, Date, Checkbox, FileUpload}

// Describe returns the descriptor registered for t.
func Describe(t Type) (Descriptor, bool) {
	desc, ok := registry[t]
	return desc, ok
}

// Types lists every supported type in a stable order.
func Types() []Type {
	return append([]Type(nil), ordered...)
}

// Valid reports whether t is part of the registry.
func (t Type) Valid() bool {
	_, ok := registry[t]
	return ok
}

// Empty reports whether raw counts as "no answer": nil, a whitespace-only
// string, an empty list or a file without a name.
func Empty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case File:
		return strings.TrimSpace(v.Name) == ""
	case *File:
		return v == nil || strings.TrimSpace(v.Name) == ""
	}
	return false
}

func coerceText(t Type) func(any, []string) (any, error) {
	return func(raw any, _ []string) (any, error) {
		switch v := raw.(type) {
		case string:
			return strings.TrimSpace(v), nil
		case json.Number:
			return v.String(), nil
		}
		return nil, &CoercionError{Type: t, Raw: raw, Reason: "expected text"}
	}
}

func coerceNumber(raw any, _ []string) (any, error) {
	var (
		out float64
		err error
	)
	switch v := raw.(type) {
	case float64:
		out = v
	case float32:
		out = float64(v)
	case int:
		out = float64(v)
	case int8:
		out = float64(v)
	case int16:
		out = float64(v)
	case int32:
		out = float64(v)
	case int64:
		out = float64(v)
	case uint:
		out = float64(v)
	case uint8:
		out = float64(v)
	case uint16:
		out = float64(v)
	case uint32:
		out = float64(v)
	case uint64:
		out = float64(v)
	case json.Number:
		out, err = v.Float64()
	case string:
		out, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return nil, &CoercionError{Type: Number, Raw: raw, Reason: "expected a number"}
	}
	if err != nil {
		return nil, &CoercionError{Type: Number, Raw: raw, Reason: "not a number"}
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil, &CoercionError{Type: Number, Raw: raw, Reason: "number must be finite"}
	}
	return out, nil
}

func choiceString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

func containsChoice(choices []string, value string) bool {
	if choices == nil {
		return true
	}
	for _, choice := range choices {
		if choice == value {
			return true
		}
	}
	return false
}

func coerceSingleChoice(raw any, choices []string) (any, error) {
	value, ok := choiceString(raw)
	if !ok {
		return nil, &CoercionError{Type: SingleChoice, Raw: raw, Reason: "expected a single option value"}
	}
	if !containsChoice(choices, value) {
		return nil, &CoercionError{Type: SingleChoice, Raw: raw, Reason: fmt.Sprintf("%q is not an option", value)}
	}
	return value, nil
}

func coerceMultipleChoice(raw any, choices []string) (any, error) {
	var items []string
	switch v := raw.(type) {
	case []string:
		items = v
	case []any:
		items = make([]string, 0, len(v))
		for _, entry := range v {
			value, ok := choiceString(entry)
			if !ok {
				return nil, &CoercionError{Type: MultipleChoice, Raw: raw, Reason: "expected a list of option values"}
			}
			items = append(items, value)
		}
	case string:
		items = strings.Split(v, ",")
	default:
		return nil, &CoercionError{Type: MultipleChoice, Raw: raw, Reason: "expected a list of option values"}
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		if !containsChoice(choices, value) {
			return nil, &CoercionError{Type: MultipleChoice, Raw: raw, Reason: fmt.Sprintf("%q is not an option", value)}
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out, nil
}

// ParseDate parses a canonical date or an RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if ts, err := time.Parse(DateLayout, trimmed); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

func coerceDate(raw any, _ []string) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.Format(DateLayout), nil
	case *time.Time:
		if v != nil {
			return v.Format(DateLayout), nil
		}
	case string:
		ts, err := ParseDate(v)
		if err != nil {
			return nil, &CoercionError{Type: Date, Raw: raw, Reason: "expected a YYYY-MM-DD date"}
		}
		return ts.Format(DateLayout), nil
	}
	return nil, &CoercionError{Type: Date, Raw: raw, Reason: "expected a date"}
}

func coerceCheckbox(raw any, _ []string) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case float64:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	case int:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1", "checked":
			return true, nil
		case "false", "no", "off", "0", "":
			return false, nil
		}
	}
	return nil, &CoercionError{Type: Checkbox, Raw: raw, Reason: "expected true or false"}
}

func coerceFile(raw any, _ []string) (any, error) {
	var file File
	switch v := raw.(type) {
	case File:
		file = v
	case *File:
		if v == nil {
			return nil, &CoercionError{Type: FileUpload, Raw: raw, Reason: "missing file"}
		}
		file = *v
	case map[string]any:
		name, _ := v["name"].(string)
		file.Name = name
		file.ContentType, _ = v["contentType"].(string)
		file.URL, _ = v["url"].(string)
		size, err := coerceNumber(v["size"], nil)
		if v["size"] != nil && err != nil {
			return nil, &CoercionError{Type: FileUpload, Raw: raw, Reason: "file size must be a number"}
		}
		if size != nil {
			file.Size = int64(size.(float64))
		}
	default:
		return nil, &CoercionError{Type: FileUpload, Raw: raw, Reason: "expected file metadata"}
	}
	file.Name = strings.TrimSpace(file.Name)
	if file.Name == "" {
		return nil, &CoercionError{Type: FileUpload, Raw: raw, Reason: "file name is required"}
	}
	if file.Size < 0 {
		return nil, &CoercionError{Type: FileUpload, Raw: raw, Reason: "file size cannot be negative"}
	}
	return file, nil
}
