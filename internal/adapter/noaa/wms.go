// Package noaa fetches composite reflectivity from the NOAA/NCEP GeoServer WMS.
package noaa

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-radar-display/internal/adapter/upstream"
	"github.com/couchcryptid/storm-radar-display/internal/domain"
)

const source = "noaa"

// WMSClient requests radar rasters with WMS 1.3.0 GetMap in EPSG:4326, so the
// returned image is equirectangular over the requested bounds.
type WMSClient struct {
	http    *upstream.Client
	baseURL string
	layer   string
	logger  *slog.Logger
}

// NewWMSClient creates a WMS client for layer at baseURL.
func NewWMSClient(baseURL, layer string, timeout time.Duration, logger *slog.Logger) *WMSClient {
	return &WMSClient{
		http:    upstream.New(source, timeout),
		baseURL: baseURL,
		layer:   layer,
		logger:  logger,
	}
}

// FetchRadar returns a transparent width×height PNG covering bounds.
func (c *WMSClient) FetchRadar(ctx context.Context, bounds domain.GeoBounds, width, height int) (image.Image, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	// WMS 1.3.0 with EPSG:4326 uses lat,lon axis order in BBOX.
	params := url.Values{
		"service":     {"WMS"},
		"version":     {"1.3.0"},
		"request":     {"GetMap"},
		"layers":      {c.layer},
		"styles":      {""},
		"bbox":        {fmt.Sprintf("%g,%g,%g,%g", bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon)},
		"crs":         {"EPSG:4326"},
		"width":       {strconv.Itoa(width)},
		"height":      {strconv.Itoa(height)},
		"format":      {"image/png"},
		"transparent": {"true"},
	}

	start := time.Now()
	img, err := c.http.GetImage(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	c.logger.Debug("radar fetched", "source", source, "layer", c.layer, "bounds", bounds.String(), "duration", time.Since(start))
	return img, nil
}
