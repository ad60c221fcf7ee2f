// Package chat calls the chat endpoint used by ai nodes.
//
// The wire contract is a POST of {"prompt": "..."} answered by
// {"reply": "..."}. Any transport failure or non-2xx status is returned as
// an error; callers decide how to degrade. MockReply gives the canned
// reply used when they do.
package chat

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

	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
)

// Client produces a reply for a prompt.
type Client interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

// Reply calls f.
func (f ClientFunc) Reply(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Request is the JSON body sent to the endpoint.
type Request struct {
	Prompt string `json:"prompt"`
}

// Response is the JSON body expected back. A missing reply decodes as "".
type Response struct {
	Reply string `json:"reply"`
}

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// HTTPClient posts prompts to a chat endpoint.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	retry    fcerrors.RetryConfig
	logger   *slog.Logger
}

// Option configures HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		if c != nil {
			h.client = c
		}
	}
}

// WithTimeout bounds each attempt. Zero disables the per-attempt limit.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) { h.timeout = d }
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg fcerrors.RetryConfig) Option {
	return func(h *HTTPClient) { h.retry = cfg }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(h *HTTPClient) { h.logger = l }
}

// NewHTTPClient creates a client for endpoint. By default it makes a single
// attempt with a 10s timeout.
func NewHTTPClient(endpoint string, opts ...Option) *HTTPClient {
	h := &HTTPClient{
		endpoint: endpoint,
		client:   http.DefaultClient,
		timeout:  10 * time.Second,
		retry:    fcerrors.NoRetry,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Endpoint returns the URL prompts are posted to.
func (h *HTTPClient) Endpoint() string {
	return h.endpoint
}

// Reply implements Client.
func (h *HTTPClient) Reply(ctx context.Context, prompt string) (string, error) {
	cfg := h.retry
	if h.logger != nil && cfg.OnRetry == nil {
		cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
			h.logger.Debug("chat attempt failed, retrying",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
				slog.Duration("wait", wait),
			)
		}
	}

	res := fcerrors.WithRetryContext(ctx, cfg, func(ctx context.Context) (string, error) {
		return h.post(ctx, prompt)
	})
	if res.Err != nil {
		return "", res.Err
	}
	return res.Value, nil
}

func (h *HTTPClient) post(ctx context.Context, prompt string) (string, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	body, err := json.Marshal(Request{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		if h.timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &fcerrors.TimeoutError{Operation: "chat " + h.endpoint, Duration: h.timeout.String()}
		}
		return "", fcerrors.Transport(err, "chat request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &fcerrors.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(msg)),
			Endpoint:   h.endpoint,
		}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &fcerrors.DecodeError{Endpoint: h.endpoint, Err: err}
	}
	return out.Reply, nil
}

// mockPromptLimit is how many characters of the prompt the mock echoes.
const mockPromptLimit = 80

// MockReply returns the deterministic reply used when the endpoint cannot
// be reached.
func MockReply(prompt string) string {
	r := []rune(prompt)
	if len(r) > mockPromptLimit {
		r = r[:mockPromptLimit]
	}
	return "(mock) Model response to: " + string(r)
}
