// Package raster holds the per-pixel stages of a radar frame: registering
// fetched layers onto the canvas, alpha compositing, alert polygon fills,
// and the crosshair/timestamp annotation overlay.
//
// All functions operate on *image.NRGBA (straight alpha) and return new
// images; only the Draw* annotation functions mutate their argument.
package raster
