// Package origin fetches manifests and segments from the upstream DASH origin.
package origin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is an HTTP client for origin fetches with per-request forwarded
// headers.
type Client struct {
	hc *http.Client
}

func New(timeout time.Duration) *Client {
	return &Client{hc: &http.Client{Timeout: timeout}}
}

// Fetch downloads rawURL and returns the body. headers are set on the
// request, typically forwarded from h_-prefixed query parameters of the
// client request. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: origin status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", rawURL, err)
	}
	return data, nil
}
