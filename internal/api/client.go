package api

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// maxBodySize bounds how much of a response body is read
const maxBodySize = 16 << 20

// TokenSource supplies the bearer token of the current session
type TokenSource interface {
	Token(ctx context.Context) string
}

// Client issues one HTTP request per remote operation
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	tokens     TokenSource
	log        zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. It applies to a copy of the
// HTTP client, never to one passed in with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTokenSource attaches bearer tokens to requests
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l.With().Str("component", "api").Logger() }
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the configured API base
func (c *Client) BaseURL() string {
	return c.baseURL
}

// send performs a single attempt and returns the body of a 2xx response
func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Str("request_id", requestID).Msg("Request failed")
		return nil, fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(op, resp.StatusCode, data, requestID)
	}
	return data, nil
}

// doJSON sends in (if non-nil) as a JSON body
func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, in any) ([]byte, error) {
	if in == nil {
		return c.send(ctx, op, method, path, query, nil, "")
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
	}
	return c.send(ctx, op, method, path, query, bytes.NewReader(payload), "application/json")
}

type validator interface {
	Validate() error
}

func isEmptyBody(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// isFalsyBody extends isEmptyBody with the JSON scalars false, 0 and "".
// An empty object is not falsy.
func isFalsyBody(raw []byte) bool {
	if isEmptyBody(raw) {
		return true
	}
	switch string(bytes.TrimSpace(raw)) {
	case "false", "0", `""`:
		return true
	}
	return false
}

func validate(op string, v any) error {
	if val, ok := v.(validator); ok {
		if err := val.Validate(); err != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrInvalidResponse, err)
		}
	}
	return nil
}

func decodeOne[T any](op string, raw []byte) (*T, error) {
	if isEmptyBody(raw) {
		return nil, fmt.Errorf("%s: %w: empty body", op, ErrInvalidResponse)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidResponse, err)
	}
	if err := validate(op, v); err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeList[T any](op string, raw []byte) ([]T, error) {
	items := []T{}
	if isEmptyBody(raw) {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidResponse, err)
	}
	for _, item := range items {
		if err := validate(op, item); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// getOne fetches a singular resource; 404 surfaces as ErrNotFound
func getOne[T any](ctx context.Context, c *Client, op, path string, query url.Values) (*T, error) {
	raw, err := c.doJSON(ctx, op, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[T](op, raw)
}

// getList fetches a collection; 404 is an empty result
func getList[T any](ctx context.Context, c *Client, op, path string, query url.Values) ([]T, error) {
	raw, err := c.doJSON(ctx, op, http.MethodGet, path, query, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []T{}, nil
		}
		return nil, err
	}
	return decodeList[T](op, raw)
}

// writeOne sends in and decodes the returned resource
func writeOne[T any](ctx context.Context, c *Client, op, method, path string, in any) (*T, error) {
	raw, err := c.doJSON(ctx, op, method, path, nil, in)
	if err != nil {
		return nil, err
	}
	return decodeOne[T](op, raw)
}

// writeNoContent sends in and ignores any body
func (c *Client) writeNoContent(ctx context.Context, op, method, path string, in any) error {
	_, err := c.doJSON(ctx, op, method, path, nil, in)
	return err
}

func idPath(format string, ids ...int64) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, args...)
}
