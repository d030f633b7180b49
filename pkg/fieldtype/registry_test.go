package fieldtype_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
)

func TestDescribeCoversEveryType(t *testing.T) {
	t.Parallel()

	for _, typ := range fieldtype.Types() {
		desc, ok := fieldtype.Describe(typ)
		if !ok {
			t.Fatalf("expected descriptor for %s", typ)
		}
		if desc.Type != typ {
			t.Fatalf("descriptor type mismatch: %s != %s", desc.Type, typ)
		}
		if desc.Shape == "" {
			t.Fatalf("expected shape for %s", typ)
		}
	}
	if fieldtype.Type("signature").Valid() {
		t.Fatalf("unexpected type reported as valid")
	}
}

func TestCoerce(t *testing.T) {
	t.Parallel()

	choices := []string{"yes", "no", "maybe"}
	cases := []struct {
		name string
		typ  fieldtype.Type
		raw  any
		want any
	}{
		{name: "text trimmed", typ: fieldtype.ShortText, raw: "  hello ", want: "hello"},
		{name: "long text", typ: fieldtype.LongText, raw: "line one\nline two\n", want: "line one\nline two"},
		{name: "number from string", typ: fieldtype.Number, raw: " 42.5 ", want: 42.5},
		{name: "number from int", typ: fieldtype.Number, raw: 7, want: float64(7)},
		{name: "single choice", typ: fieldtype.SingleChoice, raw: "yes", want: "yes"},
		{name: "multiple choice list", typ: fieldtype.MultipleChoice, raw: []any{"yes", "no", "yes"}, want: []string{"yes", "no"}},
		{name: "multiple choice csv", typ: fieldtype.MultipleChoice, raw: "maybe, no", want: []string{"maybe", "no"}},
		{name: "date", typ: fieldtype.Date, raw: "2024-03-09", want: "2024-03-09"},
		{name: "date from timestamp", typ: fieldtype.Date, raw: "2024-03-09T10:00:00Z", want: "2024-03-09"},
		{name: "date from time", typ: fieldtype.Date, raw: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), want: "2025-01-02"},
		{name: "checkbox string", typ: fieldtype.Checkbox, raw: "on", want: true},
		{name: "checkbox bool", typ: fieldtype.Checkbox, raw: false, want: false},
		{
			name: "file from map",
			typ:  fieldtype.FileUpload,
			raw:  map[string]any{"name": "cv.pdf", "size": float64(2048), "contentType": "application/pdf"},
			want: fieldtype.File{Name: "cv.pdf", Size: 2048, ContentType: "application/pdf"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			desc, _ := fieldtype.Describe(tc.typ)
			got, err := desc.Coerce(tc.raw, choices)
			if err != nil {
				t.Fatalf("coerce: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoerceFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		typ  fieldtype.Type
		raw  any
	}{
		{name: "number from letters", typ: fieldtype.Number, raw: "abc"},
		{name: "number from bool", typ: fieldtype.Number, raw: true},
		{name: "unknown option", typ: fieldtype.SingleChoice, raw: "other"},
		{name: "unknown option in list", typ: fieldtype.MultipleChoice, raw: []string{"yes", "other"}},
		{name: "bad date", typ: fieldtype.Date, raw: "09/03/2024"},
		{name: "checkbox text", typ: fieldtype.Checkbox, raw: "perhaps"},
		{name: "file without name", typ: fieldtype.FileUpload, raw: map[string]any{"size": 10}},
		{name: "text from number", typ: fieldtype.ShortText, raw: 12},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			desc, _ := fieldtype.Describe(tc.typ)
			_, err := desc.Coerce(tc.raw, []string{"yes", "no"})
			if err == nil {
				t.Fatalf("expected coercion error")
			}
			if !errors.Is(err, fieldtype.ErrCoercion) {
				t.Fatalf("expected ErrCoercion, got %v", err)
			}
			var coercionErr *fieldtype.CoercionError
			if !errors.As(err, &coercionErr) || coercionErr.Type != tc.typ {
				t.Fatalf("expected CoercionError for %s, got %#v", tc.typ, err)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	empties := []any{nil, "", "   ", []string{}, []any{}, fieldtype.File{}}
	for _, raw := range empties {
		if !fieldtype.Empty(raw) {
			t.Fatalf("expected %#v to be empty", raw)
		}
	}
	present := []any{"x", false, 0, []string{"a"}, fieldtype.File{Name: "a.txt"}}
	for _, raw := range present {
		if fieldtype.Empty(raw) {
			t.Fatalf("expected %#v to be present", raw)
		}
	}
}

func TestSupports(t *testing.T) {
	t.Parallel()

	text, _ := fieldtype.Describe(fieldtype.ShortText)
	if !text.Supports(fieldtype.RulePattern) {
		t.Fatalf("text should support pattern")
	}
	if text.Supports(fieldtype.RuleMaxFileSize) {
		t.Fatalf("text should not support maxFileSize")
	}
	checkbox, _ := fieldtype.Describe(fieldtype.Checkbox)
	if len(checkbox.RuleKinds) != 0 {
		t.Fatalf("checkbox accepts no rules")
	}
	if checkbox.Default() != false {
		t.Fatalf("checkbox default should be false")
	}
}
