// Package api is the HTTP gateway to the planner backend. Every call is a
// thin wrapper around one endpoint; any non-2xx response is translated into
// an *Error carrying a human-readable detail message. There are no retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// DefaultBaseURL points at the hosted backend; override via config or the
// PLANPILOT_API_URL environment variable.
const DefaultBaseURL = "https://planner-api.fly.dev"

// Client is a planner backend API client. It is not safe for concurrent
// token mutation; the UI runs on a single event loop and the CLI sets the
// token once before issuing calls.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the given base URL. A zero timeout disables the
// client-side deadline.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetToken installs the auth token sent on subsequent authenticated calls.
// An empty token clears it.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the currently installed auth token.
func (c *Client) Token() string { return c.token }

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed: %s", http.StatusText(e.StatusCode))
}

// IsAuthError reports whether err is (or wraps) a 401/403 response, i.e.
// the stored token was rejected.
func IsAuthError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

// do issues one request. body (if non-nil) is JSON-encoded; out (if non-nil)
// receives the decoded response body. withAuth attaches the token header in
// the backend's "Token <key>" scheme.
func (c *Client) do(ctx context.Context, method, path string, body any, withAuth bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth && c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Detail: extractDetail(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// extractDetail pulls a human-readable message out of an error body. The
// backend answers either {"detail": "..."} or a field-error map like
// {"username": ["taken"], "password": ["too short"]}; anything else is
// surfaced as raw text.
func extractDetail(body []byte) string {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(body, &generic); err != nil {
		return strings.TrimSpace(string(body))
	}

	if raw, ok := generic["detail"]; ok {
		var detail string
		if json.Unmarshal(raw, &detail) == nil && detail != "" {
			return detail
		}
	}
	if raw, ok := generic["message"]; ok {
		var msg string
		if json.Unmarshal(raw, &msg) == nil && msg != "" {
			return msg
		}
	}

	// Field-error map: concatenate every field's messages into one line so
	// registration failures read as a single notice.
	fields := make([]string, 0, len(generic))
	for field := range generic {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var parts []string
	for _, field := range fields {
		var msgs []string
		if json.Unmarshal(generic[field], &msgs) == nil {
			parts = append(parts, field+": "+strings.Join(msgs, " "))
			continue
		}
		var single string
		if json.Unmarshal(generic[field], &single) == nil {
			parts = append(parts, field+": "+single)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	return strings.TrimSpace(string(body))
}

// Health checks the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health/", nil, false, nil)
}
