package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Names of the hidden inputs that pin a rendered form to the schema version
// it was generated from. They carry the reserved prefix so no field id can
// shadow them in a posted form.
const (
	SchemaIDField = model.ReservedPrefix + "schema_id"
	VersionName   = model.ReservedPrefix + "version"
)

// HiddenField is a hidden form input emitted alongside the visible fields.
type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken constructs a hidden field carrying the provided token. Callers
// supply the input name to match their backend expectations.
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// VersionField carries the schema version a submission was filled against,
// so the server can reject answers to an outdated form.
func VersionField(version int) HiddenField {
	return Hidden(VersionName, version)
}

// SchemaField carries the schema id.
func SchemaField(id string) HiddenField {
	return Hidden(SchemaIDField, id)
}

// MergeHiddenFields returns a copy of base with the provided fields applied.
// Empty names are ignored; later fields win on name collisions.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	if len(base) == 0 && len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		out[name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields sorts hidden fields by name for deterministic output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	result := make([]HiddenField, 0, len(names))
	for _, name := range names {
		result = append(result, HiddenField{Name: strings.TrimSpace(name), Value: fields[name]})
	}
	return result
}
