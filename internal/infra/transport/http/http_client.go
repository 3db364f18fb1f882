package http

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

	context_ "github.com/teacherlink/webfront/internal/infra/context"
)

// AuthorizationHeader carries the bearer token on backend calls.
const AuthorizationHeader = "Authorization"

const (
	maxErrorBody    = 4 << 10
	maxResponseBody = 8 << 20
)

// ErrRequestFailed is returned when a request never produced an HTTP response.
var ErrRequestFailed = errors.New("request failed")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}

	return msg
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}

	return 0
}

// JSONClientConfig configures a client of the external backend.
type JSONClientConfig struct {
	// BaseURL is the backend's root, e.g. https://api.teacherlink.example
	BaseURL string `env:"BASE_URL" default:"http://localhost:9000"`
	// Timeout bounds every backend call
	Timeout time.Duration `env:"TIMEOUT" default:"10s"`
}

// JSONClient sends JSON requests to the backend and decodes JSON responses.
// It forwards the request's trace id and an optional bearer token.
type JSONClient struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewJSONClient creates a JSONClient. If httpClient is nil a client with cfg.Timeout is used.
func NewJSONClient(cfg JSONClientConfig, httpClient *http.Client) (*JSONClient, error) {
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not absolute", cfg.BaseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout} //nolint:exhaustruct
	}

	return &JSONClient{baseURL: baseURL, httpClient: httpClient}, nil
}

// URL resolves path against the base URL.
func (c *JSONClient) URL(path string) string {
	return c.baseURL.JoinPath(path).String()
}

// Do sends in (if non-nil) as JSON and decodes the response into out (if non-nil).
// Non-2xx responses yield a *StatusError, transport failures wrap ErrRequestFailed.
func (c *JSONClient) Do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}

		body = bytes.NewReader(payload)
	}

	target := c.URL(path)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set(AuthorizationHeader, "Bearer "+token)
	}

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(TraceIDHeader, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Join(ErrRequestFailed, fmt.Errorf("%s %s: %w", method, target, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// errorMessage extracts {"error": "..."} or {"message": "..."} from an error body.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}

		return payload.Message
	}

	return strings.TrimSpace(string(raw))
}
