// Package cms is a thin client for an external headless CMS. The CMS owns
// marketing/content data; this service only reads it.
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"apibase/internal/platform/config"
	"apibase/pkg/sentinel"
)

// Client issues authenticated JSON requests against the CMS API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a CMS client from configuration.
func New(cfg config.CMSConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Get fetches path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build cms request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cms request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("cms %s: %w", path, sentinel.ErrNotFound)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("cms %s returned %d: %w", path, resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("cms %s returned %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode cms response: %w", err)
	}
	return nil
}
