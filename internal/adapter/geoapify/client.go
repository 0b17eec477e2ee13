package geoapify

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-radar-display/internal/adapter/upstream"
)

const source = "geoapify"

// Client fetches basemaps from the Geoapify Static Maps API.
type Client struct {
	key     string
	style   string
	http    *upstream.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a Geoapify static map client.
func NewClient(key, style string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		key:     key,
		style:   style,
		http:    upstream.New(source, timeout),
		baseURL: "https://maps.geoapify.com/v1/staticmap",
		logger:  logger,
	}
}

// FetchStaticMap returns a width×height basemap centered on lat, lon. Geoapify
// accepts fractional zoom levels.
func (c *Client) FetchStaticMap(ctx context.Context, lat, lon, zoom float64, width, height int) (image.Image, error) {
	// Geoapify uses lon,lat order.
	params := url.Values{
		"style":  {c.style},
		"width":  {strconv.Itoa(width)},
		"height": {strconv.Itoa(height)},
		"center": {fmt.Sprintf("lonlat:%.6f,%.6f", lon, lat)},
		"zoom":   {strconv.FormatFloat(zoom, 'f', -1, 64)},
		"format": {"png"},
		"apiKey": {c.key},
	}

	start := time.Now()
	img, err := c.http.GetImage(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	c.logger.Debug("basemap fetched",
		"style", c.style,
		"zoom", zoom,
		"size", img.Bounds().Size().String(),
		"duration", time.Since(start),
	)
	return img, nil
}
