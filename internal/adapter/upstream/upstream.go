// Package upstream holds the HTTP plumbing shared by the basemap, radar and
// alert adapters.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // registers the gif decoder
	_ "image/jpeg" // registers the jpeg decoder
	_ "image/png"  // registers the png decoder
	"io"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
)

// maxErrorBody bounds how much of a non-200 response ends up in an error.
const maxErrorBody = 512

// maxBody bounds successful responses; radar mosaics and static maps stay well below it.
const maxBody = 32 << 20

// Client performs GET requests against one upstream source and reports
// failures as domain errors tagged with that source.
type Client struct {
	Source     string
	HTTPClient *http.Client
	Header     http.Header
}

// New returns a Client for source with the given per-request timeout.
func New(source string, timeout time.Duration) *Client {
	return &Client{
		Source:     source,
		HTTPClient: &http.Client{Timeout: timeout},
		Header:     http.Header{},
	}
}

// Get fetches fullURL and returns the response body.
func (c *Client) Get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &domain.FetchError{Source: c.Source, Err: fmt.Errorf("create request: %w", err)}
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Source: c.Source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.FetchError{
			Source:     c.Source,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", bytes.TrimSpace(body)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &domain.FetchError{Source: c.Source, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// GetImage fetches fullURL and decodes the body as a PNG, JPEG or GIF image.
func (c *Client) GetImage(ctx context.Context, fullURL string) (image.Image, error) {
	body, err := c.Get(ctx, fullURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.DecodeError{Source: c.Source, Err: err}
	}
	return img, nil
}
