// Package nws reads active weather alerts from the National Weather Service API.
package nws

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/couchcryptid/storm-radar-display/internal/adapter/upstream"
	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"github.com/paulmach/orb/geojson"
)

const source = "nws"

// Client queries api.weather.gov. The API rejects requests without a
// User-Agent identifying the application.
type Client struct {
	http    *upstream.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates an alerts client that identifies itself as userAgent.
func NewClient(userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	h := upstream.New(source, timeout)
	h.Header.Set("User-Agent", userAgent)
	h.Header.Set("Accept", "application/geo+json")
	return &Client{
		http:    h,
		baseURL: "https://api.weather.gov",
		logger:  logger,
	}
}

// FetchActiveAlerts returns the alerts currently in effect at lat, lon.
// Geometry is decoded but not validated; classification happens downstream.
func (c *Client) FetchActiveAlerts(ctx context.Context, lat, lon float64) ([]domain.RawAlert, error) {
	params := url.Values{"point": {fmt.Sprintf("%.4f,%.4f", lat, lon)}}
	body, err := c.http.Get(ctx, c.baseURL+"/alerts/active?"+params.Encode())
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, &domain.DecodeError{Source: source, Err: err}
	}

	alerts := make([]domain.RawAlert, 0, len(fc.Features))
	for _, f := range fc.Features {
		alerts = append(alerts, toRawAlert(f))
	}
	c.logger.Debug("alerts fetched", "source", source, "count", len(alerts))
	return alerts, nil
}

func toRawAlert(f *geojson.Feature) domain.RawAlert {
	id := f.Properties.MustString("id", "")
	if id == "" && f.ID != nil {
		id = fmt.Sprint(f.ID)
	}
	return domain.RawAlert{
		ID:       id,
		Event:    f.Properties.MustString("event", ""),
		Severity: f.Properties.MustString("severity", ""),
		Geometry: f.Geometry,
	}
}
