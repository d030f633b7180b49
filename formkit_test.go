package formkit

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/submission"
	"github.com/goliatone/go-formkit/pkg/testsupport"
)

func TestEmbeddedTemplatesContainForm(t *testing.T) {
	if _, err := fs.ReadFile(EmbeddedTemplates(), "form.tpl"); err != nil {
		t.Fatalf("expected form template to be readable: %v", err)
	}
}

func TestGenerateHTML(t *testing.T) {
	out, err := GenerateHTML(context.Background(), testsupport.EventSchema(), Answers{"attending": "no"})
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, `data-field-id="reason"`) || !strings.Contains(html, `name="_formkit_version" value="1"`) {
		t.Fatalf("unexpected output:\n%s", html)
	}
}

func TestSubmit(t *testing.T) {
	schema := testsupport.EventSchema()

	sub, _, err := Submit(schema, Answers{"attending": "no", "terms": "yes"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"attending": "no", "terms": true}, sub.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	_, report, err := Submit(schema, Answers{"attending": "no"})
	if !errors.Is(err, submission.ErrInvalidSubmission) {
		t.Fatalf("expected ErrInvalidSubmission, got %v", err)
	}
	if diff := cmp.Diff([]string{"terms"}, report.Fields()); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}
