package domain

import (
	"errors"
	"fmt"
)

// FetchError is a network or HTTP failure reported by an upstream provider.
type FetchError struct {
	Source     string // provider name, e.g. "geoapify", "noaa-wms"
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError is a malformed image or document payload.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// GeometryError is a degenerate or invalid geometric input such as a
// zero-width bounds span or a non-positive scale factor.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "geometry: " + e.Reason
}

// UnsupportedGeometryError is an alert geometry type other than Polygon or
// MultiPolygon.
type UnsupportedGeometryError struct {
	Type string
}

func (e *UnsupportedGeometryError) Error() string {
	return fmt.Sprintf("unsupported alert geometry type %q", e.Type)
}

// ErrorKind names the kind of a pipeline error for logs and metric labels.
// Errors that are none of the typed kinds report "internal".
func ErrorKind(err error) string {
	var (
		fetchErr       *FetchError
		decodeErr      *DecodeError
		geometryErr    *GeometryError
		unsupportedErr *UnsupportedGeometryError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &geometryErr):
		return "geometry"
	case errors.As(err, &unsupportedErr):
		return "unsupported_geometry"
	default:
		return "internal"
	}
}
