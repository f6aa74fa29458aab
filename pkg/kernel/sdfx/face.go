package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/gogpu/gg/text/msdf"
)

// wire is a validated closed loop of edges.
type wire struct {
	edges []kernel.Edge
}

func (w *wire) Edges() []kernel.Edge {
	return w.edges
}

// face is a planar region bounded by a wire, expressed as a 2-D signed
// distance field in the coordinates of its plane frame.
type face struct {
	w     *wire
	frame kernel.Frame
	sdf2  *regionSDF2
}

func (f *face) Normal() kernel.Vec3 { return f.frame.N }
func (f *face) Wire() kernel.Wire   { return f.w }

// regionSDF2 is the signed distance to a region bounded by line and
// Bézier curves. Distances come from the msdf edge solvers; inside is
// decided by the even-odd rule.
type regionSDF2 struct {
	curves []curve2
	bb     sdf.Box2
}

// Compile-time interface check.
var _ sdf.SDF2 = (*regionSDF2)(nil)

func newRegionSDF2(curves []curve2) *regionSDF2 {
	r := &regionSDF2{curves: curves}
	box := curves[0].box
	for _, c := range curves[1:] {
		box = box.Union(c.box)
	}
	r.bb = sdf.Box2{Min: v2.Vec{X: box.MinX, Y: box.MinY}, Max: v2.Vec{X: box.MaxX, Y: box.MaxY}}
	return r
}

// Evaluate returns the signed distance from p to the region boundary,
// negative inside.
func (r *regionSDF2) Evaluate(p v2.Vec) float64 {
	q := msdf.Point{X: p.X, Y: p.Y}
	d := math.Inf(1)
	n := 0
	for i := range r.curves {
		c := &r.curves[i]
		n += c.crossings(q)
		if c.boxDistance(q) < d {
			d = math.Min(d, c.distance(q))
		}
	}
	if n%2 == 1 {
		return -d
	}
	return d
}

// BoundingBox returns the bounding box of the region.
func (r *regionSDF2) BoundingBox() sdf.Box2 {
	return r.bb
}

// Wire validates that edges form a closed, non-degenerate loop.
func (k *SdfxKernel) Wire(edges []kernel.Edge) (kernel.Wire, error) {
	for i, e := range edges {
		if e.Start().Equal(e.End()) {
			return nil, fmt.Errorf("%w: edge %d has zero length", kernel.ErrDegenerateBoundary, i)
		}
	}
	if err := kernel.CheckLoop(edges); err != nil {
		return nil, err
	}
	return &wire{edges: append([]kernel.Edge(nil), edges...)}, nil
}

// Face builds a planar face bounded by w. The loop must be planar and must
// not cross itself.
func (k *SdfxKernel) Face(w kernel.Wire) (kernel.Face, error) {
	ww, ok := w.(*wire)
	if !ok {
		return nil, fmt.Errorf("%w: foreign wire %T", kernel.ErrUnsupported, w)
	}
	frame, err := kernel.PlaneOf(ww.edges)
	if err != nil {
		return nil, err
	}

	loop := frame.PlanarLoop(ww.edges)
	if kernel.LoopSelfIntersects(loop) {
		return nil, fmt.Errorf("%w: loop crosses itself", kernel.ErrDegenerateBoundary)
	}
	curves := make([]curve2, len(loop))
	for i, e := range loop {
		curves[i] = newCurve2(e)
	}

	return &face{w: ww, frame: frame, sdf2: newRegionSDF2(curves)}, nil
}
