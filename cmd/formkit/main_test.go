package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const (
	eventDoc   = "../../pkg/document/testdata/event.yaml"
	invalidDoc = "../../pkg/document/testdata/invalid.yaml"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheckCommand(t *testing.T) {
	out, _, err := run(t, "check", eventDoc)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "ok (event-registration, version 1, 7 fields)") {
		t.Fatalf("unexpected output %q", out)
	}

	_, errOut, err := run(t, "check", eventDoc, invalidDoc)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 documents are invalid") {
		t.Fatalf("expected a failure for the invalid document, got %v", err)
	}
	if !strings.Contains(errOut, "invalid.yaml: /fields/") {
		t.Fatalf("expected issues on stderr, got %q", errOut)
	}
}

func TestCheckNormalize(t *testing.T) {
	out, _, err := run(t, "check", "--normalize", eventDoc)
	if err != nil {
		t.Fatalf("check --normalize: %v", err)
	}
	if !strings.Contains(out, "id: event-registration") {
		t.Fatalf("expected the canonical YAML document, got:\n%s", out)
	}
}

func TestRenderCommandJSON(t *testing.T) {
	out, _, err := run(t, "render", "--renderer", "json", "--action", "/submit", eventDoc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var view map[string]any
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode view: %v\n%s", err, out)
	}
	if view["schemaId"] != "event-registration" || view["action"] != "/submit" {
		t.Fatalf("unexpected view %v", view)
	}
}

func TestOpenAPICommand(t *testing.T) {
	out, _, err := run(t, "openapi", eventDoc)
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	paths := doc["paths"].(map[string]any)
	if _, ok := paths["/api/forms/event-registration/submissions"]; !ok {
		t.Fatalf("unexpected paths %v", paths)
	}

	out, _, err = run(t, "openapi", "--schema-only", eventDoc)
	if err != nil {
		t.Fatalf("openapi --schema-only: %v", err)
	}
	if !strings.Contains(out, `"values"`) || strings.Contains(out, `"paths"`) {
		t.Fatalf("expected only the body schema, got:\n%s", out)
	}
}

func TestUnknownLogLevel(t *testing.T) {
	if _, _, err := run(t, "--log-level", "loud", "check", eventDoc); err == nil {
		t.Fatalf("expected an error for an unknown log level")
	}
}
