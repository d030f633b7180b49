// Package backend forwards accepted submissions to the collaborating service
// that stores them. Transient failures are retried with backoff.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/goliatone/go-formkit/pkg/submission"
)

// ErrRejected is returned when the backend answers with a 4xx status.
var ErrRejected = errors.New("backend: submission rejected")

// Receipt is what the backend reports for a stored submission.
type Receipt struct {
	ID     string `json:"id,omitempty"`
	Status int    `json:"-"`
}

// Forwarder delivers a submission on behalf of the caller identified by
// token.
type Forwarder interface {
	Forward(ctx context.Context, sub submission.Submission, token string) (Receipt, error)
}

// Option configures a Client.
type Option func(*Client)

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.http.RetryMax = n
		}
	}
}

// WithBackoff bounds the wait between retries.
func WithBackoff(min, max time.Duration) Option {
	return func(c *Client) {
		c.http.RetryWaitMin = min
		c.http.RetryWaitMax = max
	}
}

// WithLogger routes request and retry logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
			c.http.Logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http.HTTPClient = hc
		}
	}
}

// WithServiceToken is sent when the caller did not supply a token.
func WithServiceToken(token string) Option {
	return func(c *Client) {
		c.serviceToken = token
	}
}

// Client posts submissions as JSON to a fixed endpoint.
type Client struct {
	endpoint     string
	serviceToken string
	http         *retryablehttp.Client
	logger       *slog.Logger
}

// New returns a client for endpoint.
func New(endpoint string, options ...Option) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = 3
	hc.RetryWaitMin = 500 * time.Millisecond
	hc.RetryWaitMax = 5 * time.Second
	hc.Logger = slog.Default()

	c := &Client{
		endpoint: endpoint,
		http:     hc,
		logger:   slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Forward sends sub. A 4xx answer wraps ErrRejected and is not retried.
func (c *Client) Forward(ctx context.Context, sub submission.Submission, token string) (Receipt, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return Receipt{}, fmt.Errorf("backend: encode submission: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token == "" {
		token = c.serviceToken
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("backend: forward %s: %w", sub.SchemaID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Receipt{}, fmt.Errorf("backend: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Receipt{Status: resp.StatusCode}, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, bytes.TrimSpace(body))
	}

	receipt := Receipt{Status: resp.StatusCode}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &receipt); err != nil {
			c.logger.Warn("backend response is not JSON", "schema_id", sub.SchemaID, "err", err)
		}
	}
	c.logger.Info("submission forwarded",
		"schema_id", sub.SchemaID,
		"version", sub.Version,
		"status", resp.StatusCode,
		"receipt", receipt.ID,
	)
	return receipt, nil
}

// Discard accepts every submission without sending it anywhere. It is used
// when no backend is configured.
type Discard struct {
	Logger *slog.Logger
}

func (d Discard) Forward(_ context.Context, sub submission.Submission, _ string) (Receipt, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("submission accepted without a backend", "schema_id", sub.SchemaID, "version", sub.Version)
	return Receipt{Status: http.StatusAccepted}, nil
}
