// Package hrapi is the client for the HR records REST API. Every call maps
// to one request and returns the backend's {success, data, message} answer
// normalized into a Result. Errors are returned only for transport failures
// and non-2xx responses; callers still have to check Result.Success.
package hrapi

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

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// RequestIDHeader carries a per-request id for correlating logs.
const RequestIDHeader = "X-Request-ID"

// Result is the normalized backend answer.
type Result[T any] struct {
	Success bool
	Data    T
	Message string
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("hrapi: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// ServerMessage extracts the backend-provided message from err, if any.
func ServerMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return ""
}

// Client talks to one API base URL.
type Client struct {
	baseURL    string
	uploadsURL string
	token      string
	http       *http.Client
	logger     zerolog.Logger
	requestID  func() string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithUploadsURL overrides where uploaded files are served from.
func WithUploadsURL(raw string) Option {
	return func(c *Client) {
		if raw = strings.TrimSpace(raw); raw != "" {
			c.uploadsURL = strings.TrimRight(raw, "/")
		}
	}
}

// WithLogger routes request logs to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDs overrides the request id generator; tests use it to get
// stable ids.
func WithRequestIDs(gen func() string) Option {
	return func(c *Client) {
		if gen != nil {
			c.requestID = gen
		}
	}
}

// New builds a client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("hrapi: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("hrapi: base url %q must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    baseURL,
		uploadsURL: defaultUploadsURL(parsed),
		http:       &http.Client{},
		logger:     zerolog.Nop(),
		requestID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func defaultUploadsURL(base *url.URL) string {
	root := *base
	root.Path = strings.TrimSuffix(strings.TrimRight(root.Path, "/"), "/api")
	root.RawQuery = ""
	return strings.TrimRight(root.String(), "/") + "/uploads"
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Error) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(e.Error, &text); err == nil {
		return text
	}
	var detail struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Error, &detail); err == nil {
		return detail.Message
	}
	return ""
}

// call performs one request and decodes the envelope's data into T.
func call[T any](ctx context.Context, c *Client, method, path string, payload Payload) (Result[T], error) {
	var result Result[T]
	raw, status, err := c.send(ctx, method, path, payload)
	if err != nil {
		return result, err
	}
	env, plain := decodeEnvelope(raw)
	if status < 200 || status > 299 {
		return result, &StatusError{Method: method, Path: path, StatusCode: status, Message: env.message()}
	}
	data := env.Data
	if plain {
		data = raw
	}
	result.Success = plain || env.Success == nil || *env.Success
	result.Message = env.message()
	if len(bytes.TrimSpace(data)) > 0 && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		if err := json.Unmarshal(data, &result.Data); err != nil {
			if !result.Success {
				return result, nil
			}
			return result, fmt.Errorf("hrapi: %s %s: decode data: %w", method, path, err)
		}
	}
	return result, nil
}

// decodeEnvelope reports plain=true when the body is not an object carrying
// a success flag, in which case the whole body is the data.
func decodeEnvelope(raw []byte) (envelope, bool) {
	var env envelope
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return env, false
	}
	if trimmed[0] != '{' {
		return env, true
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, false
	}
	if env.Success == nil && len(env.Data) == 0 && env.Message == "" && len(env.Error) == 0 {
		return env, true
	}
	return env, false
}

func (c *Client) send(ctx context.Context, method, path string, payload Payload) ([]byte, int, error) {
	var (
		body        io.Reader
		contentType string
	)
	if payload != nil {
		var err error
		body, contentType, err = payload.encode()
		if err != nil {
			return nil, 0, fmt.Errorf("hrapi: %s %s: encode payload: %w", method, path, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("hrapi: %s %s: build request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	requestID := c.requestID()
	req.Header.Set(RequestIDHeader, requestID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("request failed")
		return nil, 0, fmt.Errorf("hrapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("hrapi: %s %s: read body: %w", method, path, err)
	}
	c.logger.Info().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(started)).
		Msg("request")
	return raw, resp.StatusCode, nil
}
