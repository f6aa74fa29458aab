// Package outline turns font glyphs into closed contours of typed curves.
// It covers outline extraction from an sfnt font, contour closure and
// horizontal centering. Nothing in here knows about solids.
package outline

import (
	"fmt"
	"math"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'alphasq.outline'
func tracer() tracing.Trace {
	return tracing.Select("alphasq.outline")
}

// Point is a 2-D coordinate in millimetres (font units scaled by size/em),
// with Y pointing up.
type Point struct {
	X, Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// CurveKind enumerates the closed set of curve kinds found in outline formats.
type CurveKind int

const (
	Line      CurveKind = iota // straight segment, P[0..1]
	Quadratic                  // quadratic Bézier, P[0..2]
	Cubic                      // cubic Bézier, P[0..3]
)

func (k CurveKind) String() string {
	switch k {
	case Line:
		return "line"
	case Quadratic:
		return "quadratic"
	case Cubic:
		return "cubic"
	default:
		return fmt.Sprintf("CurveKind(%d)", int(k))
	}
}

// Curve is one typed segment of a contour. P[0] is always the start point.
type Curve struct {
	Kind CurveKind
	P    [4]Point
}

// NewLine returns a straight segment.
func NewLine(p0, p1 Point) Curve {
	return Curve{Kind: Line, P: [4]Point{p0, p1}}
}

// NewQuadratic returns a quadratic Bézier with control point p1.
func NewQuadratic(p0, p1, p2 Point) Curve {
	return Curve{Kind: Quadratic, P: [4]Point{p0, p1, p2}}
}

// NewCubic returns a cubic Bézier with control points p1 and p2.
func NewCubic(p0, p1, p2, p3 Point) Curve {
	return Curve{Kind: Cubic, P: [4]Point{p0, p1, p2, p3}}
}

// Start returns the first point of the curve.
func (c Curve) Start() Point {
	return c.P[0]
}

// End returns the last point of the curve.
func (c Curve) End() Point {
	switch c.Kind {
	case Line:
		return c.P[1]
	case Quadratic:
		return c.P[2]
	case Cubic:
		return c.P[3]
	}
	panic(fmt.Sprintf("outline: unknown curve kind %d", int(c.Kind)))
}

// Points returns the defining points of the curve, start to end.
func (c Curve) Points() []Point {
	switch c.Kind {
	case Line:
		return c.P[:2]
	case Quadratic:
		return c.P[:3]
	case Cubic:
		return c.P[:4]
	}
	panic(fmt.Sprintf("outline: unknown curve kind %d", int(c.Kind)))
}

// Degenerate reports whether the curve starts where it ends. Coordinates
// are compared exactly; see Equal.
func (c Curve) Degenerate() bool {
	return Equal(c.Start(), c.End())
}

// Equal is the single point-equality policy of the pipeline: exact
// coordinate equality. It decides both contour closure and degeneracy.
func Equal(a, b Point) bool {
	return a.X == b.X && a.Y == b.Y
}

// Contour is an ordered, cyclic sequence of curves.
type Contour struct {
	Curves []Curve
}

// Closed reports whether the last curve ends where the first one starts.
func (c Contour) Closed() bool {
	if len(c.Curves) == 0 {
		return false
	}
	return Equal(c.Curves[len(c.Curves)-1].End(), c.Curves[0].Start())
}

// Bounds returns the box around every defining point, control points
// included.
func (c Contour) Bounds() Rect {
	r := EmptyRect()
	for _, cv := range c.Curves {
		for _, p := range cv.Points() {
			r = r.Add(p)
		}
	}
	return r
}

// Outline is the ordered set of contours of one character at one size.
// It is not modified after extraction.
type Outline struct {
	Rune     rune
	Contours []Contour
	Bounds   Rect
}

// CurveCount returns the number of curves across all contours.
func (o *Outline) CurveCount() int {
	n := 0
	for _, c := range o.Contours {
		n += len(c.Curves)
	}
	return n
}

// Rect is an axis-aligned 2-D box.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyRect returns a box that contains nothing; Add grows it.
func EmptyRect() Rect {
	return Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

// Empty reports whether the box contains no point.
func (r Rect) Empty() bool {
	return r.MinX > r.MaxX || r.MinY > r.MaxY
}

// Add returns the box grown to contain p.
func (r Rect) Add(p Point) Rect {
	r.MinX = math.Min(r.MinX, p.X)
	r.MinY = math.Min(r.MinY, p.Y)
	r.MaxX = math.Max(r.MaxX, p.X)
	r.MaxY = math.Max(r.MaxY, p.Y)
	return r
}

// Union returns the smallest box containing r and s.
func (r Rect) Union(s Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, s.MinX),
		MinY: math.Min(r.MinY, s.MinY),
		MaxX: math.Max(r.MaxX, s.MaxX),
		MaxY: math.Max(r.MaxY, s.MaxY),
	}
}

// HorizontalCenter returns the X midpoint of the box.
func (r Rect) HorizontalCenter() float64 {
	return (r.MinX + r.MaxX) / 2
}

// Width returns MaxX - MinX.
func (r Rect) Width() float64 {
	return r.MaxX - r.MinX
}

// Height returns MaxY - MinY.
func (r Rect) Height() float64 {
	return r.MaxY - r.MinY
}
