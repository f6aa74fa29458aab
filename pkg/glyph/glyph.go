// Package glyph compiles glyph outlines into net solids and composes
// cross-shapes from them.
//
// A glyph is centred horizontally, placed into model space by an
// orientation, compiled contour by contour into kernel faces, extruded and
// folded with XOR so that nested contours become holes.
package glyph

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'alphasq.glyph'
func tracer() tracing.Trace {
	return tracing.Select("alphasq.glyph")
}

var (
	// ErrEmptyGlyph is returned when no contour of a glyph produced a face.
	ErrEmptyGlyph = errors.New("glyph: no usable contours")

	// ErrUnsupportedTopology is returned when two contours of a glyph
	// partially overlap, which the XOR fold cannot resolve.
	ErrUnsupportedTopology = errors.New("glyph: contours overlap without nesting")

	// ErrUnknownOrientation is returned for orientation names outside the
	// registry.
	ErrUnknownOrientation = errors.New("glyph: unknown orientation")
)
