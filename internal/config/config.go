package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/storm-radar-display/internal/pipeline"
	"github.com/joho/godotenv"
)

// Radar source selections.
const (
	RadarSourceWMS   = "wms"
	RadarSourceTiles = "tiles"
	RadarSourceNone  = "none"
)

// Display sink names accepted in DISPLAY_SINK.
const (
	SinkPNG    = "png"
	SinkKafka  = "kafka"
	SinkMemory = "memory"
)

const (
	defaultWMSURL       = "https://opengeo.ncep.noaa.gov/geoserver/conus/conus_bref_qcd/ows"
	defaultWMSLayer     = "conus:conus_bref_qcd"
	defaultTileTemplate = "https://mesonet.agron.iastate.edu/cache/tile.py/1.0.0/nexrad-n0q-900913/{z}/{x}/{y}.png"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Lat, Lon      float64
	Zoom          float64
	Width, Height int

	BoundsStrategy string
	BoundsDelta    float64

	GeoapifyKey      string
	GeoapifyStyle    string
	BasemapCacheSize int
	HTTPTimeout      time.Duration

	RadarSource     string
	WMSURL          string
	WMSLayer        string
	TileURLTemplate string

	AlertsEnabled bool
	NWSUserAgent  string

	RadarOpacity float64
	AlertOpacity float64
	RadarScale   float64
	RadarOffsetX int
	RadarOffsetY int
	LayerOrder   []pipeline.Layer

	Palette        string
	QuantizeLUT    bool
	QuantizeDither bool

	CrosshairSize   int
	CrosshairWidth  int
	TimestampFormat string
	LabelAnchor     string

	DisplaySinks    []string
	DisplayPath     string
	KafkaBrokers    []string
	KafkaFrameTopic string

	RefreshInterval time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Daemon reports whether the process should keep refreshing instead of
// rendering a single frame.
func (c *Config) Daemon() bool { return c.RefreshInterval > 0 }

// HasSink reports whether name is one of the configured display sinks.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.DisplaySinks {
		if s == name {
			return true
		}
	}
	return false
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	layerOrder, err := pipeline.ParseLayerOrder(splitList(sharedcfg.EnvOrDefault("LAYER_ORDER", "basemap,radar,alerts,annotations")))
	if err != nil {
		return nil, fmt.Errorf("LAYER_ORDER: %w", err)
	}

	p := &parser{}
	cfg := &Config{
		Lat:    p.float("RADAR_LAT", 29.6165),
		Lon:    p.float("RADAR_LON", -95.1696),
		Zoom:   p.float("RADAR_ZOOM", 6.5),
		Width:  p.int("RADAR_WIDTH", 800),
		Height: p.int("RADAR_HEIGHT", 480),

		BoundsStrategy: strings.ToLower(sharedcfg.EnvOrDefault("BOUNDS_STRATEGY", "fixed")),
		BoundsDelta:    p.float("BOUNDS_DELTA", 5.0),

		GeoapifyKey:      os.Getenv("GEOAPIFY_KEY"),
		GeoapifyStyle:    sharedcfg.EnvOrDefault("GEOAPIFY_STYLE", "toner-grey"),
		BasemapCacheSize: p.int("BASEMAP_CACHE_SIZE", 16),
		HTTPTimeout:      p.duration("HTTP_TIMEOUT", 10*time.Second),

		RadarSource:     strings.ToLower(sharedcfg.EnvOrDefault("RADAR_SOURCE", RadarSourceWMS)),
		WMSURL:          sharedcfg.EnvOrDefault("WMS_URL", defaultWMSURL),
		WMSLayer:        sharedcfg.EnvOrDefault("WMS_LAYER", defaultWMSLayer),
		TileURLTemplate: sharedcfg.EnvOrDefault("TILE_URL_TEMPLATE", defaultTileTemplate),

		AlertsEnabled: p.bool("ALERTS_ENABLED", false),
		NWSUserAgent:  sharedcfg.EnvOrDefault("NWS_USER_AGENT", "storm-radar-display/1.0"),

		RadarOpacity: p.float("RADAR_OPACITY", 0.3),
		AlertOpacity: p.float("ALERT_OPACITY", 1.0),
		RadarScale:   p.float("RADAR_SCALE", 1.0),
		RadarOffsetX: p.int("RADAR_OFFSET_X", 0),
		RadarOffsetY: p.int("RADAR_OFFSET_Y", 0),
		LayerOrder:   layerOrder,

		Palette:        os.Getenv("PALETTE"),
		QuantizeLUT:    p.bool("QUANTIZE_LUT", false),
		QuantizeDither: p.bool("QUANTIZE_DITHER", false),

		CrosshairSize:   p.int("CROSSHAIR_SIZE", 10),
		CrosshairWidth:  p.int("CROSSHAIR_WIDTH", 2),
		TimestampFormat: sharedcfg.EnvOrDefault("TIMESTAMP_FORMAT", "Last updated: 2006-01-02 15:04"),
		LabelAnchor:     sharedcfg.EnvOrDefault("LABEL_ANCHOR", "bottom-left"),

		DisplaySinks:    splitList(sharedcfg.EnvOrDefault("DISPLAY_SINK", SinkPNG)),
		DisplayPath:     sharedcfg.EnvOrDefault("DISPLAY_PATH", "radar.png"),
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaFrameTopic: sharedcfg.EnvOrDefault("KAFKA_FRAME_TOPIC", "radar-frames"),

		RefreshInterval: p.duration("REFRESH_INTERVAL", 0),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Lat < -90 || c.Lat > 90:
		return errors.New("RADAR_LAT must be within [-90, 90]")
	case c.Lon < -180 || c.Lon > 180:
		return errors.New("RADAR_LON must be within [-180, 180]")
	case c.Zoom < 0 || c.Zoom > 20:
		return errors.New("RADAR_ZOOM must be within [0, 20]")
	case c.Width <= 0 || c.Height <= 0:
		return errors.New("RADAR_WIDTH and RADAR_HEIGHT must be positive")
	case c.GeoapifyKey == "":
		return errors.New("GEOAPIFY_KEY is required")
	case c.BasemapCacheSize <= 0:
		return errors.New("BASEMAP_CACHE_SIZE must be positive")
	case c.HTTPTimeout <= 0:
		return errors.New("HTTP_TIMEOUT must be positive")
	case c.RadarOpacity < 0 || c.RadarOpacity > 1:
		return errors.New("RADAR_OPACITY must be within [0, 1]")
	case c.AlertOpacity < 0 || c.AlertOpacity > 1:
		return errors.New("ALERT_OPACITY must be within [0, 1]")
	case c.RadarScale <= 0:
		return errors.New("RADAR_SCALE must be positive")
	case c.CrosshairSize < 0 || c.CrosshairWidth <= 0:
		return errors.New("CROSSHAIR_SIZE must be non-negative and CROSSHAIR_WIDTH positive")
	case c.RefreshInterval < 0:
		return errors.New("REFRESH_INTERVAL must not be negative")
	}

	switch c.BoundsStrategy {
	case "fixed", "mercator", "zoom-delta":
	default:
		return fmt.Errorf("BOUNDS_STRATEGY %q is not one of fixed, mercator, zoom-delta", c.BoundsStrategy)
	}
	switch c.RadarSource {
	case RadarSourceWMS, RadarSourceTiles, RadarSourceNone:
	default:
		return fmt.Errorf("RADAR_SOURCE %q is not one of wms, tiles, none", c.RadarSource)
	}
	if c.RadarSource == RadarSourceTiles && !strings.Contains(c.TileURLTemplate, "{z}") {
		return errors.New("TILE_URL_TEMPLATE must contain {z}, {x} and {y}")
	}

	if len(c.DisplaySinks) == 0 {
		return errors.New("DISPLAY_SINK is required")
	}
	for _, s := range c.DisplaySinks {
		switch s {
		case SinkPNG, SinkKafka, SinkMemory:
		default:
			return fmt.Errorf("DISPLAY_SINK contains unknown sink %q", s)
		}
	}
	if c.HasSink(SinkPNG) && c.DisplayPath == "" {
		return errors.New("DISPLAY_PATH is required for the png sink")
	}
	if c.HasSink(SinkKafka) {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka sink")
		}
		if c.KafkaFrameTopic == "" {
			return errors.New("KAFKA_FRAME_TOPIC is required for the kafka sink")
		}
	}
	return nil
}

// parser records the first malformed variable so Load can report it after
// building the whole struct.
type parser struct {
	err error
}

func (p *parser) lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" || p.err != nil {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (p *parser) float(name string, def float64) float64 {
	v, ok := p.lookup(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", name, err)
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		p.err = fmt.Errorf("invalid %s: %q is not a finite number", name, v)
		return def
	}
	return f
}

func (p *parser) int(name string, def int) int {
	v, ok := p.lookup(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", name, err)
		return def
	}
	return n
}

func (p *parser) bool(name string, def bool) bool {
	v, ok := p.lookup(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", name, err)
		return def
	}
	return b
}

func (p *parser) duration(name string, def time.Duration) time.Duration {
	v, ok := p.lookup(name)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", name, err)
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
