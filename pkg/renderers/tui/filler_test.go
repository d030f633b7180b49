package tui

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/submission"
	"github.com/goliatone/go-formkit/pkg/testsupport"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	inputDefault []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
	err          error
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.inputDefault = append(s.inputDefault, cfg.Default)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.err != nil {
		return -1, s.err
	}
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func TestFillFollowsVisibility(t *testing.T) {
	photo := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(photo, []byte("png!"), 0o600); err != nil {
		t.Fatalf("write photo: %v", err)
	}

	driver := &stubDriver{
		selectIdx: []int{0},
		inputs:    []string{"abc", "2", "2024-06-03", photo},
		textAreas: []string{"Ana, Bo"},
		confirm:   []bool{true},
	}
	filler := New(WithPromptDriver(driver))

	sub, err := filler.Fill(context.Background(), render.NewInstance(testsupport.EventSchema(), nil))
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}

	want := map[string]any{
		"attending":   "yes",
		"guests":      float64(2),
		"guest_names": "Ana, Bo",
		"arrival":     "2024-06-03",
		"terms":       true,
		"badge":       fieldtype.File{Name: "photo.png", Size: 4, ContentType: "image/png", URL: photo},
	}
	if diff := cmp.Diff(want, sub.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	wantInfo := []string{"Event registration", "! Not a number."}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFillSkipsHiddenBranch(t *testing.T) {
	driver := &stubDriver{
		selectIdx: []int{1},
		inputs:    []string{" busy ", ""},
		confirm:   []bool{true},
	}

	sub, err := New(WithPromptDriver(driver)).Fill(context.Background(), render.NewInstance(testsupport.EventSchema(), nil))
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	want := map[string]any{"attending": "no", "reason": "busy", "terms": true}
	if diff := cmp.Diff(want, sub.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFillReviewsFailingFields(t *testing.T) {
	inst := render.NewInstance(testsupport.EventSchema(), model.Answers{
		"attending": "yes",
		"guests":    "0",
		"arrival":   "2024-05-01",
		"terms":     true,
		"badge":     "",
	})
	driver := &stubDriver{inputs: []string{"2024-06-10"}}

	sub, err := New(WithPromptDriver(driver)).Fill(context.Background(), inst)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if diff := cmp.Diff([]string{"2024-05-01"}, driver.inputDefault); diff != "" {
		t.Fatalf("the previous answer should be offered again (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Event registration", "! arrival: Must be on or after 2024-06-01."}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{"attending": "yes", "guests": float64(0), "arrival": "2024-06-10", "terms": true}
	if diff := cmp.Diff(want, sub.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFillGivesUpAfterMaxRounds(t *testing.T) {
	inst := render.NewInstance(testsupport.EventSchema(), model.Answers{
		"attending": "no",
		"reason":    "",
		"terms":     false,
		"badge":     "",
	})
	_, err := New(WithPromptDriver(&stubDriver{}), WithMaxRounds(1)).Fill(context.Background(), inst)
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestFillAborted(t *testing.T) {
	driver := &stubDriver{err: ErrAborted}
	_, err := New(WithPromptDriver(driver)).Fill(context.Background(), render.NewInstance(testsupport.EventSchema(), nil))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestFillHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(WithPromptDriver(&stubDriver{})).Fill(ctx, render.NewInstance(testsupport.EventSchema(), nil))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEncode(t *testing.T) {
	sub := submission.Submission{
		SchemaID: "survey",
		Version:  4,
		Values: map[string]any{
			"topics": []string{"go", "zig"},
			"seats":  float64(2),
			"agree":  true,
		},
	}

	form, err := Encode(sub, OutputFormatFormURLEncoded)
	if err != nil {
		t.Fatalf("Encode form: %v", err)
	}
	parsed, err := url.ParseQuery(string(form))
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	want := url.Values{
		"_formkit_schema_id": {"survey"},
		"_formkit_version":   {"4"},
		"topics":             {"go", "zig"},
		"seats":              {"2"},
		"agree":              {"true"},
	}
	if diff := cmp.Diff(want, parsed); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}

	pretty, err := Encode(sub, OutputFormatPrettyText)
	if err != nil {
		t.Fatalf("Encode pretty: %v", err)
	}
	wantPretty := "survey (version 4)\n  agree: true\n  seats: 2\n  topics: go, zig\n"
	if string(pretty) != wantPretty {
		t.Fatalf("pretty mismatch:\n%s", pretty)
	}

	if _, err := Encode(sub, OutputFormat("xml")); err == nil {
		t.Fatalf("expected unknown format error")
	}
	if OutputFormatJSON.ContentType() != "application/json" {
		t.Fatalf("unexpected content type")
	}
}
