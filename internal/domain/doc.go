// Package domain models the data a radar frame is built from: geographic
// bounds, alert geometries, severities, palettes, and the typed errors that
// abort a render.
//
// # Coordinates
//
// All geographic coordinates are WGS-84 degrees. Points inside alert rings
// follow GeoJSON order:
//
//	orb.Point{lon, lat}
//
// Pixel coordinates are integers with the origin at the top-left corner of
// the canvas; y grows downward.
//
// # Rasters
//
// A raster layer is an *image.NRGBA: 8-bit straight (non-premultiplied)
// RGBA, row-major, bounds starting at (0, 0). Every stage returns a new
// image. The annotation overlay is the only image mutated in place, and only
// by the stage that created it.
//
// # Alert Severity
//
// NWS Common Alerting Protocol severities map to fixed half-transparent fills:
//
//	Minor    → green  (0, 255, 0, 128)
//	Moderate → yellow (255, 255, 0, 128)
//	Severe   → red    (255, 0, 0, 128)
//	Extreme  → blue   (0, 0, 255, 128)
//
// "Unknown", empty, or any other value is not an error; the feature is
// dropped before rasterization. See [SeverityColor].
//
// # Errors
//
// A run fails with exactly one of [FetchError], [DecodeError],
// [GeometryError], or [UnsupportedGeometryError], possibly wrapped with the
// stage that produced it. Use errors.As to recover the kind.
package domain
