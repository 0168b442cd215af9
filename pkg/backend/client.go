package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultRequestTimeout       = 15 * time.Second
	responseBodyReadLimit int64 = 1 << 20
	idempotencyHeader           = "Idempotency-Key"
)

var errBaseURLRequired = errors.New("backend base url is required")

// Client talks to the marketplace REST API. Every call passes through a circuit breaker.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[[]byte]
	settings   gobreaker.Settings
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBreakerSettings replaces the breaker thresholds.
func WithBreakerSettings(maxFailures uint32, interval, openTimeout time.Duration) Option {
	return func(c *Client) {
		if maxFailures > 0 {
			c.settings.ReadyToTrip = tripAfter(maxFailures)
		}
		c.settings.Interval = interval
		if openTimeout > 0 {
			c.settings.Timeout = openTimeout
		}
	}
}

// WithStateChangeHook observes breaker transitions.
func WithStateChangeHook(fn func(name string, from, to gobreaker.State)) Option {
	return func(c *Client) {
		c.settings.OnStateChange = fn
	}
}

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		settings: gobreaker.Settings{
			Name:         "marketplace-backend",
			Timeout:      30 * time.Second,
			ReadyToTrip:  tripAfter(5),
			IsSuccessful: countsAsSuccess,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	client.breaker = gobreaker.NewCircuitBreaker[[]byte](client.settings)
	return client, nil
}

// NewFromConfig wires the client from the backend config section.
func NewFromConfig(cfg config.BackendConfig, opts ...Option) (*Client, error) {
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		WithBreakerSettings(cfg.BreakerMaxFailures, cfg.BreakerInterval, cfg.BreakerOpenTimeout),
	}
	return NewClient(cfg.BaseURL, append(base, opts...)...)
}

// BreakerState reports the current breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func tripAfter(n uint32) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= n
	}
}

// A 4xx answer means the backend is healthy and rejected the request.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Status < http.StatusInternalServerError
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return false
}

type requestOptions struct {
	idempotencyKey string
	bearer         string
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any, opts requestOptions) error {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = encoded
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, body, opts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &TransportError{Op: method + " " + path, Err: err}
		}
		return err
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Op: method + " " + path, Body: raw, Err: err}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, opts requestOptions) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, opts.idempotencyKey)
	}
	if opts.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+opts.bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRemoteError(resp.StatusCode, raw)
	}
	return raw, nil
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}

// RemoteError is a non-2xx answer from the backend.
type RemoteError struct {
	Status  int
	Message string
	Body    string
}

func newRemoteError(status int, raw []byte) *RemoteError {
	re := &RemoteError{Status: status, Body: strings.TrimSpace(string(raw))}
	var envelope struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		re.Message = strings.TrimSpace(envelope.Message)
		if re.Message == "" {
			re.Message = strings.TrimSpace(envelope.Error.Message)
		}
	}
	return re
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend status %d", e.Status)
}

func (e *RemoteError) StatusCode() int { return e.Status }

func (e *RemoteError) RemoteMessage() string { return e.Message }

var _ pkgerrors.RemoteFailure = (*RemoteError)(nil)

// TransportError means the request never produced a backend answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means the backend accepted the request (2xx) but its body did not decode.
type DecodeError struct {
	Op   string
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ServerMessage returns the displayable message carried by a backend rejection, if any.
func ServerMessage(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Message
	}
	return ""
}
