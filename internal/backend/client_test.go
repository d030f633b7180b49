package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/submission"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSubmission() submission.Submission {
	return submission.Submission{
		SchemaID: "event-registration",
		Version:  3,
		Values:   map[string]any{"attending": "no", "terms": true},
	}
}

func TestForwardSendsBearerTokenAndPayload(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"sub-1"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, WithLogger(quietLogger()))
	receipt, err := client.Forward(context.Background(), sampleSubmission(), "user-token")
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if diff := cmp.Diff(Receipt{ID: "sub-1", Status: http.StatusCreated}, receipt); diff != "" {
		t.Fatalf("receipt mismatch (-want +got):\n%s", diff)
	}
	if gotAuth != "Bearer user-token" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotBody["schemaId"] != "event-registration" {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestForwardFallsBackToServiceToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New(srv.URL, WithLogger(quietLogger()), WithServiceToken("svc"))
	if _, err := client.Forward(context.Background(), sampleSubmission(), ""); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if gotAuth != "Bearer svc" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
}

func TestForwardRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := New(srv.URL,
		WithLogger(quietLogger()),
		WithRetries(3),
		WithBackoff(time.Millisecond, 5*time.Millisecond),
	)
	receipt, err := client.Forward(context.Background(), sampleSubmission(), "t")
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if receipt.Status != http.StatusAccepted || calls.Load() != 3 {
		t.Fatalf("expected success on the third call, got status %d after %d calls", receipt.Status, calls.Load())
	}
}

func TestForwardDoesNotRetryRejections(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	client := New(srv.URL, WithLogger(quietLogger()), WithRetries(3), WithBackoff(time.Millisecond, time.Millisecond))
	receipt, err := client.Forward(context.Background(), sampleSubmission(), "t")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if receipt.Status != http.StatusForbidden || calls.Load() != 1 {
		t.Fatalf("expected a single 403, got %d after %d calls", receipt.Status, calls.Load())
	}
}

func TestDiscardAccepts(t *testing.T) {
	receipt, err := Discard{Logger: quietLogger()}.Forward(context.Background(), sampleSubmission(), "")
	if err != nil || receipt.Status != http.StatusAccepted {
		t.Fatalf("unexpected result %+v, %v", receipt, err)
	}
}
