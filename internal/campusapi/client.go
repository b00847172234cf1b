// Package campusapi talks to the CampusPass REST endpoints the admin
// dashboard consumes.
package campusapi

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
	"sync"
	"time"
)

// Endpoint paths.
const (
	NotificationsPath      = "/api/admin-notifications/"
	DeleteNotificationPath = "/api/admin-notifications/delete/"
	ClearNotificationsPath = "/api/admin-notifications/clear/"
	ActivitiesPath         = "/api/admin-recent-activities/"
	DefaultVisitsExport    = "/visit-records/export/"
	DashboardPath          = "/admin-dashboard/"
)

var (
	// ErrNotConfigured is returned when no base URL is set.
	ErrNotConfigured = errors.New("campusapi: base url not configured")
	// ErrRejected is returned when a mutation answers without success.
	ErrRejected = errors.New("campusapi: request rejected")
	// ErrNoCSRFToken is returned when a mutation has no token to send.
	ErrNoCSRFToken = errors.New("campusapi: csrf token unavailable")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("campusapi: %s returned %d: %s", e.Path, e.Status, e.Body)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSession sends the given session cookie value.
func WithSession(sessionID string) Option {
	return func(c *Client) { c.session = strings.TrimSpace(sessionID) }
}

// WithCSRFToken fixes the token instead of discovering it.
func WithCSRFToken(token string) Option {
	return func(c *Client) { c.csrf = strings.TrimSpace(token) }
}

// WithVisitsExportPath sets the screen-provided visit export URL.
func WithVisitsExportPath(path string) Option {
	return func(c *Client) {
		if strings.TrimSpace(path) != "" {
			c.exportPath = path
		}
	}
}

// Client calls the CampusPass API on behalf of one admin session.
type Client struct {
	baseURL    string
	http       *http.Client
	session    string
	exportPath string

	mu   sync.Mutex
	csrf string
}

// NewClient builds a client against baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:       &http.Client{Timeout: 15 * time.Second},
		exportPath: DefaultVisitsExport,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool { return c != nil && c.baseURL != "" }

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	target := c.baseURL + path
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		target = path
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target, err := c.endpoint(path, query)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("campusapi: encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("campusapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.session})
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("campusapi: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Path: req.URL.Path, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("campusapi: decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

type successResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) mutate(ctx context.Context, path string, body any) error {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-CSRFToken", token)
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: token})
	var out successResponse
	if err := c.do(req, &out); err != nil {
		return err
	}
	if !out.Success {
		if out.Error != "" {
			return fmt.Errorf("%w: %s", ErrRejected, out.Error)
		}
		return ErrRejected
	}
	return nil
}
