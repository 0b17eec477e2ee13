// Package mesonet builds radar layers from Web-Mercator XYZ tiles such as the
// Iowa Environmental Mesonet NEXRAD composites.
package mesonet

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-radar-display/internal/adapter/upstream"
	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"github.com/couchcryptid/storm-radar-display/internal/geo"
	"github.com/paulmach/orb/maptile"
	"golang.org/x/image/draw"
)

const source = "mesonet"

// maxLat is the Web-Mercator latitude limit.
const maxLat = 85.05112878

const (
	defaultMaxZoom  = 12
	defaultMaxTiles = 36
)

// TileClient fetches tiles from an {z}/{x}/{y} URL template and mosaics them
// into equirectangular radar layers.
type TileClient struct {
	http     *upstream.Client
	template string
	maxZoom  maptile.Zoom
	maxTiles int
	logger   *slog.Logger
}

// NewTileClient creates a tile client for template.
func NewTileClient(template string, timeout time.Duration, logger *slog.Logger) *TileClient {
	return &TileClient{
		http:     upstream.New(source, timeout),
		template: template,
		maxZoom:  defaultMaxZoom,
		maxTiles: defaultMaxTiles,
		logger:   logger,
	}
}

// TileURL expands the template for t.
func (c *TileClient) TileURL(t maptile.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(int(t.Z)),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
	).Replace(c.template)
}

// FetchTile downloads and decodes a single tile.
func (c *TileClient) FetchTile(ctx context.Context, t maptile.Tile) (image.Image, error) {
	return c.http.GetImage(ctx, c.TileURL(t))
}

// FetchRadar returns a width×height layer covering bounds with rows spaced
// evenly in latitude, matching a WMS EPSG:4326 response. Tiles the server
// reports as missing (404) are left transparent.
func (c *TileClient) FetchRadar(ctx context.Context, bounds domain.GeoBounds, width, height int) (image.Image, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, &domain.GeometryError{Reason: "radar layer has no area"}
	}
	bounds.MinLat = math.Max(bounds.MinLat, -maxLat)
	bounds.MaxLat = math.Min(bounds.MaxLat, maxLat)

	z := c.zoomFor(bounds, width)
	tiles := tileRange(bounds, z)

	start := time.Now()
	cols, rows := tiles.Dx(), tiles.Dy()
	mosaic := image.NewNRGBA(image.Rect(0, 0, cols*geo.TileSize, rows*geo.TileSize))
	for ty := tiles.Min.Y; ty < tiles.Max.Y; ty++ {
		for tx := tiles.Min.X; tx < tiles.Max.X; tx++ {
			t := maptile.New(uint32(tx), uint32(ty), z)
			img, err := c.FetchTile(ctx, t)
			if err != nil {
				var fe *domain.FetchError
				if errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound {
					continue
				}
				return nil, err
			}
			at := image.Pt((tx-tiles.Min.X)*geo.TileSize, (ty-tiles.Min.Y)*geo.TileSize)
			draw.Draw(mosaic, image.Rectangle{Min: at, Max: at.Add(img.Bounds().Size())}, img, img.Bounds().Min, draw.Src)
		}
	}

	out := resample(mosaic, bounds, z, tiles.Min.Mul(geo.TileSize), width, height)
	c.logger.Debug("radar fetched",
		"source", source,
		"zoom", int(z),
		"tiles", cols*rows,
		"bounds", bounds.String(),
		"duration", time.Since(start),
	)
	return out, nil
}

// zoomFor picks the smallest tile zoom whose resolution meets width across
// the longitude span, then steps down until the mosaic fits maxTiles.
func (c *TileClient) zoomFor(b domain.GeoBounds, width int) maptile.Zoom {
	ideal := math.Log2(float64(width) * 360 / (geo.TileSize * b.LonSpan()))
	z := maptile.Zoom(0)
	if ideal > 0 {
		z = maptile.Zoom(math.Ceil(ideal))
	}
	if z > c.maxZoom {
		z = c.maxZoom
	}
	for z > 0 {
		r := tileRange(b, z)
		if r.Dx()*r.Dy() <= c.maxTiles {
			break
		}
		z--
	}
	return z
}

// tileRange returns the half-open range of tile indexes covering b at z.
func tileRange(b domain.GeoBounds, z maptile.Zoom) image.Rectangle {
	minX, minY := geo.MercatorForward(b.MaxLat, b.MinLon, float64(z))
	maxX, maxY := geo.MercatorForward(b.MinLat, b.MaxLon, float64(z))
	last := int(1<<z) - 1
	tile := func(px float64) int {
		return max(0, min(last, int(math.Floor(px/geo.TileSize))))
	}
	// The far edge is exclusive: a bound that lands exactly on a tile seam
	// does not pull in the next tile.
	const eps = 1e-9
	return image.Rect(tile(minX), tile(minY), tile(maxX-eps)+1, tile(maxY-eps)+1)
}

// resample samples the mosaic at each output pixel center (nearest neighbour),
// reprojecting Mercator rows onto an equirectangular grid.
func resample(mosaic *image.NRGBA, b domain.GeoBounds, z maptile.Zoom, origin image.Point, width, height int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	mb := mosaic.Bounds()

	cols := make([]int, width)
	for x := range cols {
		lon := b.MinLon + (float64(x)+0.5)/float64(width)*b.LonSpan()
		mx, _ := geo.MercatorForward(0, lon, float64(z))
		cols[x] = int(math.Floor(mx)) - origin.X
	}

	for y := 0; y < height; y++ {
		lat := b.MaxLat - (float64(y)+0.5)/float64(height)*b.LatSpan()
		_, my := geo.MercatorForward(lat, 0, float64(z))
		sy := int(math.Floor(my)) - origin.Y
		if sy < mb.Min.Y || sy >= mb.Max.Y {
			continue
		}
		row := out.Pix[y*out.Stride : y*out.Stride+4*width]
		for x, sx := range cols {
			if sx < mb.Min.X || sx >= mb.Max.X {
				continue
			}
			si := mosaic.PixOffset(sx, sy)
			copy(row[4*x:4*x+4], mosaic.Pix[si:si+4])
		}
	}
	return out
}
