package campusapi

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
)

var metaToken = regexp.MustCompile(`(?is)<meta\s+[^>]*name=["']csrf-token["'][^>]*>`)
var metaContent = regexp.MustCompile(`(?is)content=["']([^"']*)["']`)

// ExtractCSRFToken reads the csrf-token meta tag from a page.
func ExtractCSRFToken(page []byte) (string, bool) {
	tag := metaToken.Find(page)
	if tag == nil {
		return "", false
	}
	m := metaContent.FindSubmatch(tag)
	if m == nil || len(m[1]) == 0 {
		return "", false
	}
	return html.UnescapeString(string(m[1])), true
}

// CSRFToken returns the token attached to mutations. Without a configured
// token it is scraped once from the dashboard page and cached.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrf
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	token, err := c.discoverCSRF(ctx)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	if c.csrf == "" {
		c.csrf = token
	}
	token = c.csrf
	c.mu.Unlock()
	return token, nil
}

func (c *Client) discoverCSRF(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, DashboardPath, nil, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("campusapi: fetch dashboard: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Path: DashboardPath, Status: resp.StatusCode}
	}
	page, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("campusapi: read dashboard: %w", err)
	}
	token, ok := ExtractCSRFToken(page)
	if !ok {
		return "", ErrNoCSRFToken
	}
	return token, nil
}
