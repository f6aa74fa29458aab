package kernel

import (
	"fmt"
	"math"
)

// PlanarTolerance is the largest distance (mm) a defining point of a
// boundary may lie off its plane.
const PlanarTolerance = 1e-6

// flattenSteps is the number of samples per curved edge used for plane
// fitting. Faces themselves stay exact.
const flattenSteps = 16

// Frame is an orthonormal coordinate system whose U/V axes span a face
// plane and whose N axis is the face normal.
type Frame struct {
	Origin  Vec3
	U, V, N Vec3
}

// Local maps a model-space point into frame coordinates.
func (f Frame) Local(p Vec3) Vec3 {
	d := p.Sub(f.Origin)
	return Vec3{d.Dot(f.U), d.Dot(f.V), d.Dot(f.N)}
}

// PlaneOf fits the plane of a closed loop with Newell's method and
// returns a frame on it. The loop must be planar within PlanarTolerance.
func PlaneOf(edges []Edge) (Frame, error) {
	poly := Flatten(edges)
	if len(poly) < 3 {
		return Frame{}, fmt.Errorf("%w: loop has %d distinct samples", ErrDegenerateBoundary, len(poly))
	}
	var n Vec3
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	if n.Length() < 1e-12 {
		return Frame{}, fmt.Errorf("%w: loop encloses no area", ErrDegenerateBoundary)
	}
	n = n.Normalize()

	origin := edges[0].Start()
	for _, e := range edges {
		for _, p := range e.Points() {
			if d := math.Abs(p.Sub(origin).Dot(n)); d > PlanarTolerance {
				return Frame{}, fmt.Errorf("%w: point %s is %.3g off the loop plane", ErrDegenerateBoundary, p, d)
			}
		}
	}

	// Prefer the model X axis for U so that upright glyph faces keep their
	// reading direction; fall back to Z for faces facing along X.
	axis := Vec3{X: 1}
	if math.Abs(n.X) > 0.9 {
		axis = Vec3{Z: 1}
	}
	u := axis.Sub(n.Scale(axis.Dot(n))).Normalize()
	v := n.Cross(u)
	return Frame{Origin: origin, U: u, V: v, N: n}, nil
}

// Flatten samples a loop into a polygon (first vertex not repeated).
func Flatten(edges []Edge) []Vec3 {
	var poly []Vec3
	for _, e := range edges {
		steps := flattenSteps
		if e.Kind == EdgeLine {
			steps = 1
		}
		for i := 0; i < steps; i++ {
			p := e.At(float64(i) / float64(steps))
			if len(poly) > 0 && poly[len(poly)-1].Equal(p) {
				continue
			}
			poly = append(poly, p)
		}
	}
	return poly
}
