// Command radar renders a weather radar frame for a fixed-palette e-paper
// panel. With REFRESH_INTERVAL unset it renders once and exits; otherwise it
// keeps refreshing and serves health, metrics and a frame preview over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-radar-display/internal/adapter/display"
	"github.com/couchcryptid/storm-radar-display/internal/adapter/geoapify"
	httpadapter "github.com/couchcryptid/storm-radar-display/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-radar-display/internal/adapter/kafka"
	"github.com/couchcryptid/storm-radar-display/internal/adapter/mesonet"
	"github.com/couchcryptid/storm-radar-display/internal/adapter/noaa"
	"github.com/couchcryptid/storm-radar-display/internal/adapter/nws"
	"github.com/couchcryptid/storm-radar-display/internal/config"
	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"github.com/couchcryptid/storm-radar-display/internal/geo"
	"github.com/couchcryptid/storm-radar-display/internal/observability"
	"github.com/couchcryptid/storm-radar-display/internal/pipeline"
	"github.com/couchcryptid/storm-radar-display/internal/quantize"
	"github.com/couchcryptid/storm-radar-display/internal/raster"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	opts, err := buildOptions(cfg, clock)
	if err != nil {
		logger.Error("invalid render options", "error", err)
		os.Exit(1)
	}

	sources := buildSources(cfg, logger, metrics)
	memory := display.NewMemory()
	sinks := display.Multi{memory}
	var frameWriter *kafkaadapter.FrameWriter
	for _, name := range cfg.DisplaySinks {
		switch name {
		case config.SinkPNG:
			sinks = append(sinks, display.NewPNGFile(cfg.DisplayPath))
		case config.SinkKafka:
			frameWriter = kafkaadapter.NewFrameWriter(cfg.KafkaBrokers, cfg.KafkaFrameTopic, "radar", clock, metrics, logger)
			sinks = append(sinks, frameWriter)
		}
	}

	p, err := pipeline.New(sources, sinks, opts, logger, metrics)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Daemon() {
		err := p.RunOnce(ctx)
		closeWriter(frameWriter, logger)
		if err != nil {
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, memory, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	go func() {
		if err := p.Run(ctx, cfg.RefreshInterval); err != nil {
			logger.Error("pipeline error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeWriter(frameWriter, logger)

	logger.Info("shutdown complete")
}

func buildOptions(cfg *config.Config, clock clockwork.Clock) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	opts.Lat, opts.Lon, opts.Zoom = cfg.Lat, cfg.Lon, cfg.Zoom
	opts.Size = image.Pt(cfg.Width, cfg.Height)
	opts.RadarOpacity = cfg.RadarOpacity
	opts.AlertOpacity = cfg.AlertOpacity
	opts.RadarScale = cfg.RadarScale
	opts.RadarOffset = image.Pt(cfg.RadarOffsetX, cfg.RadarOffsetY)
	opts.CrosshairSize = cfg.CrosshairSize
	opts.CrosshairWidth = cfg.CrosshairWidth
	opts.TimestampFormat = cfg.TimestampFormat
	opts.Clock = clock
	opts.LayerOrder = cfg.LayerOrder

	var err error
	if opts.Bounds, err = geo.NewBoundsStrategy(cfg.BoundsStrategy, cfg.BoundsDelta); err != nil {
		return opts, err
	}
	if opts.LabelAnchor, err = raster.ParseAnchor(cfg.LabelAnchor); err != nil {
		return opts, fmt.Errorf("LABEL_ANCHOR: %w", err)
	}
	if cfg.Palette != "" {
		if opts.Palette, err = domain.ParsePalette(cfg.Palette); err != nil {
			return opts, fmt.Errorf("PALETTE: %w", err)
		}
	}
	if cfg.QuantizeLUT {
		opts.Quantize = append(opts.Quantize, quantize.WithLookupTable())
	}
	if cfg.QuantizeDither {
		opts.Quantize = append(opts.Quantize, quantize.WithDither())
	}
	return opts, nil
}

func buildSources(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) pipeline.Sources {
	basemap := geoapify.NewClient(cfg.GeoapifyKey, cfg.GeoapifyStyle, cfg.HTTPTimeout, logger)
	sources := pipeline.Sources{
		Basemap: geoapify.NewCachedBasemap(basemap, cfg.BasemapCacheSize, metrics),
	}

	switch cfg.RadarSource {
	case config.RadarSourceWMS:
		sources.Radar = noaa.NewWMSClient(cfg.WMSURL, cfg.WMSLayer, cfg.HTTPTimeout, logger)
	case config.RadarSourceTiles:
		sources.Radar = mesonet.NewTileClient(cfg.TileURLTemplate, cfg.HTTPTimeout, logger)
	default:
		logger.Info("radar layer disabled")
	}

	if cfg.AlertsEnabled {
		sources.Alerts = nws.NewClient(cfg.NWSUserAgent, cfg.HTTPTimeout, logger)
	} else {
		logger.Info("alert layer disabled")
	}
	return sources
}

func closeWriter(w *kafkaadapter.FrameWriter, logger *slog.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
