// Package snapshot captures page screenshots through a remote
// headless-browser rendering service. The flight and hotel search
// tools feed the captured images to a vision model for analysis,
// since those results pages are rendered entirely client-side.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gulguluu/travel-agent/internal/httpkit"
)

// Client talks to the rendering service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a snapshot client. baseURL is the root URL of the
// rendering service; token may be empty for unauthenticated instances.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		// Rendering a travel results page takes tens of seconds; the
		// service itself enforces an upper bound.
		http: httpkit.NewClient(httpkit.WithTimeout(90 * time.Second)),
	}
}

// Configured reports whether a rendering service URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Request describes a capture job.
type Request struct {
	// URL is the page to render.
	URL string `json:"url"`

	// WaitMillis is extra settle time after the page reports idle.
	// Flight results keep streaming in well past network idle.
	WaitMillis int `json:"wait_ms,omitempty"`

	// FullPage captures the whole scroll height rather than the viewport.
	FullPage bool `json:"full_page,omitempty"`
}

// Capture is the rendered result.
type Capture struct {
	// ImageBase64 is the PNG screenshot, base64-encoded.
	ImageBase64 string `json:"image_base64"`

	// URL is the final URL after redirects.
	URL string `json:"url"`
}

type renderResponse struct {
	Image string `json:"image"`
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// Render captures a screenshot of the given page.
func (c *Client) Render(ctx context.Context, req Request) (*Capture, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("snapshot service not configured")
	}
	if req.URL == "" {
		return nil, fmt.Errorf("snapshot: url is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("snapshot: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("snapshot: render %s: %w", req.URL, err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot: render %s: HTTP %d: %s",
			req.URL, resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 512))
	}

	var rr renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("snapshot: decode response: %w", err)
	}
	if rr.Error != "" {
		return nil, fmt.Errorf("snapshot: render %s: %s", req.URL, rr.Error)
	}
	if rr.Image == "" {
		return nil, fmt.Errorf("snapshot: render %s: empty image", req.URL)
	}

	finalURL := rr.URL
	if finalURL == "" {
		finalURL = req.URL
	}
	return &Capture{ImageBase64: rr.Image, URL: finalURL}, nil
}
