package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"github.com/couchcryptid/storm-radar-display/internal/geo"
	"github.com/couchcryptid/storm-radar-display/internal/observability"
	"github.com/couchcryptid/storm-radar-display/internal/quantize"
	"github.com/couchcryptid/storm-radar-display/internal/raster"
)

// BasemapFetcher returns a static map centered on a coordinate.
type BasemapFetcher interface {
	FetchStaticMap(ctx context.Context, lat, lon, zoom float64, width, height int) (image.Image, error)
}

// RadarFetcher returns a radar layer covering bounds.
type RadarFetcher interface {
	FetchRadar(ctx context.Context, bounds domain.GeoBounds, width, height int) (image.Image, error)
}

// AlertFetcher returns the alerts active at a coordinate.
type AlertFetcher interface {
	FetchActiveAlerts(ctx context.Context, lat, lon float64) ([]domain.RawAlert, error)
}

// Display is the panel lifecycle driven once per frame.
type Display interface {
	Init(ctx context.Context) error
	Clear(ctx context.Context) error
	Render(ctx context.Context, frame *image.Paletted) error
	Sleep(ctx context.Context) error
}

// Sources groups the upstream fetchers. Radar and Alerts may be nil, in which
// case their layers are left out of the frame.
type Sources struct {
	Basemap BasemapFetcher
	Radar   RadarFetcher
	Alerts  AlertFetcher
}

// Pipeline renders radar frames and hands them to the display.
type Pipeline struct {
	sources   Sources
	display   Display
	opts      Options
	quantizer *quantize.Quantizer
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given sources, display and observability.
func New(sources Sources, display Display, opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Pipeline, error) {
	if sources.Basemap == nil {
		return nil, errors.New("basemap source is required")
	}
	if display == nil {
		return nil, errors.New("display is required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		sources:   sources,
		display:   display,
		opts:      opts,
		quantizer: quantize.New(opts.Palette, opts.Quantize...),
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// CheckReadiness returns nil once a frame has reached the display.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no frame has been displayed yet")
	}
	return nil
}

// RenderFrame fetches every layer, composites them in the configured order
// and quantizes the result. Nothing is sent to the display.
func (p *Pipeline) RenderFrame(ctx context.Context) (*image.Paletted, error) {
	o := p.opts
	bounds, err := o.Bounds.Bounds(o.Lat, o.Lon, o.Zoom, o.Size.X, o.Size.Y)
	if err != nil {
		return nil, fmt.Errorf("bounds: %w", err)
	}

	layers := make(map[Layer]*image.NRGBA, len(o.LayerOrder))
	for _, l := range o.LayerOrder {
		var img *image.NRGBA
		switch l {
		case LayerBasemap:
			img, err = p.basemapLayer(ctx)
		case LayerRadar:
			img, err = p.radarLayer(ctx, bounds)
		case LayerAlerts:
			img, err = p.alertLayer(ctx, bounds)
		case LayerAnnotations:
			img, err = p.annotationLayer(bounds)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l, err)
		}
		if img != nil {
			layers[l] = img
		}
	}

	start := time.Now()
	stack := make([]*image.NRGBA, 0, len(layers))
	for _, l := range o.LayerOrder {
		if img, ok := layers[l]; ok {
			stack = append(stack, img)
		}
	}
	combined, err := raster.Flatten(stack...)
	if err != nil {
		return nil, fmt.Errorf("composite: %w", err)
	}
	p.observe("composite", start)

	start = time.Now()
	frame := p.quantizer.Quantize(combined)
	p.observe("quantize", start)

	p.logger.Debug("frame rendered", "bounds", bounds.String(), "layers", len(stack))
	return frame, nil
}

func (p *Pipeline) basemapLayer(ctx context.Context) (*image.NRGBA, error) {
	o := p.opts
	start := time.Now()
	img, err := p.sources.Basemap.FetchStaticMap(ctx, o.Lat, o.Lon, o.Zoom, o.Size.X, o.Size.Y)
	if err != nil {
		return nil, err
	}
	p.observe("basemap", start)
	return raster.Align(img, 1, 0, 0, o.Size)
}

func (p *Pipeline) radarLayer(ctx context.Context, bounds domain.GeoBounds) (*image.NRGBA, error) {
	if p.sources.Radar == nil {
		return nil, nil
	}
	o := p.opts
	start := time.Now()
	img, err := p.sources.Radar.FetchRadar(ctx, bounds, o.Size.X, o.Size.Y)
	if err != nil {
		return nil, err
	}
	p.observe("radar", start)

	aligned, err := raster.Align(img, o.RadarScale, o.RadarOffset.X, o.RadarOffset.Y, o.Size)
	if err != nil {
		return nil, err
	}
	return raster.ReduceOpacity(aligned, o.RadarOpacity), nil
}

func (p *Pipeline) alertLayer(ctx context.Context, bounds domain.GeoBounds) (*image.NRGBA, error) {
	if p.sources.Alerts == nil {
		return nil, nil
	}
	o := p.opts
	start := time.Now()
	raw, err := p.sources.Alerts.FetchActiveAlerts(ctx, o.Lat, o.Lon)
	if err != nil {
		return nil, err
	}
	alerts, err := domain.ClassifyAlerts(raw)
	if err != nil {
		return nil, err
	}
	layer, err := raster.RasterizeAlerts(alerts, bounds, o.Size)
	if err != nil {
		return nil, err
	}
	p.observe("alerts", start)
	p.metrics.AlertsRendered.Add(float64(len(alerts)))
	if len(raw) != len(alerts) {
		p.logger.Debug("alerts skipped", "fetched", len(raw), "drawn", len(alerts))
	}
	return raster.ReduceOpacity(layer, o.AlertOpacity), nil
}

func (p *Pipeline) annotationLayer(bounds domain.GeoBounds) (*image.NRGBA, error) {
	o := p.opts
	marker, err := geo.Project(o.Lat, o.Lon, bounds, o.Size)
	if err != nil {
		return nil, err
	}

	metrics := raster.BasicFontMetrics()
	if o.FontSize > 0 {
		if m, err := raster.NewFontMetrics(o.FontSize); err != nil {
			p.logger.Warn("label font unavailable, using bitmap face", "error", err)
		} else {
			metrics = m
		}
	}

	var label string
	if o.TimestampFormat != "" {
		label = o.Clock.Now().Format(o.TimestampFormat)
	}
	a := raster.Annotation{Marker: marker, Label: label, Anchor: o.LabelAnchor}
	return raster.NewOverlay(o.Size, a, o.CrosshairSize, o.CrosshairWidth, o.MarkerColor, metrics), nil
}

// RunOnce renders a frame and drives the display through Init, Clear, Render
// and Sleep. It is the single place render failures are logged and counted;
// a failed render never touches the display.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	frame, err := p.RenderFrame(ctx)
	if err != nil {
		return p.fail(err)
	}

	start := time.Now()
	if err := p.show(ctx, frame); err != nil {
		return p.fail(fmt.Errorf("display: %w", err))
	}
	p.observe("display", start)

	p.ready.Store(true)
	p.metrics.FramesRendered.Inc()
	p.metrics.LastSuccess.Set(float64(p.opts.Clock.Now().Unix()))
	p.logger.Info("frame displayed", "size", frame.Bounds().Size().String())
	return nil
}

func (p *Pipeline) show(ctx context.Context, frame *image.Paletted) error {
	if err := p.display.Init(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := p.display.Clear(ctx); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := p.display.Render(ctx, frame); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := p.display.Sleep(ctx); err != nil {
		return fmt.Errorf("sleep: %w", err)
	}
	return nil
}

func (p *Pipeline) fail(err error) error {
	kind := domain.ErrorKind(err)
	p.metrics.RenderFailures.WithLabelValues(kind).Inc()
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		p.metrics.FetchErrors.WithLabelValues(fe.Source).Inc()
	}
	p.logger.Error("render failed", "error", err, "kind", kind)
	return err
}

// Run renders a frame immediately and then once per interval until the
// context is cancelled. Failed runs are logged and the loop continues; the
// display keeps the previous frame.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", interval)
	}
	p.logger.Info("pipeline started", "interval", interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.opts.Clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
		_ = p.RunOnce(ctx) //nolint:errcheck // logged and counted by RunOnce

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.RenderDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
