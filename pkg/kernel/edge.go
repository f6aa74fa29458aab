package kernel

import "fmt"

// EdgeKind is the geometric type of an edge.
type EdgeKind int

const (
	EdgeLine      EdgeKind = iota // straight segment, P[0..1]
	EdgeQuadratic                 // quadratic Bézier, P[0..2]
	EdgeCubic                     // cubic Bézier, P[0..3]
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeLine:
		return "line"
	case EdgeQuadratic:
		return "quadratic"
	case EdgeCubic:
		return "cubic"
	default:
		return "unknown"
	}
}

// Edge is a kernel-level curve segment. Curved kinds are exact Bézier
// curves, never polyline approximations.
type Edge struct {
	Kind EdgeKind
	P    [4]Vec3
}

// LineEdge returns a straight edge from p0 to p1.
func LineEdge(p0, p1 Vec3) (Edge, error) {
	return newEdge(EdgeLine, p0, p1)
}

// QuadraticEdge returns a quadratic Bézier edge with control point p1.
func QuadraticEdge(p0, p1, p2 Vec3) (Edge, error) {
	return newEdge(EdgeQuadratic, p0, p1, p2)
}

// CubicEdge returns a cubic Bézier edge with control points p1 and p2.
func CubicEdge(p0, p1, p2, p3 Vec3) (Edge, error) {
	return newEdge(EdgeCubic, p0, p1, p2, p3)
}

func newEdge(kind EdgeKind, pts ...Vec3) (Edge, error) {
	e := Edge{Kind: kind}
	copy(e.P[:], pts)
	if e.Start().Equal(e.End()) {
		return Edge{}, fmt.Errorf("%w: zero-length %s edge at %s", ErrDegenerateBoundary, kind, e.Start())
	}
	return e, nil
}

// Start returns the first point of the edge.
func (e Edge) Start() Vec3 {
	return e.P[0]
}

// End returns the last point of the edge.
func (e Edge) End() Vec3 {
	return e.P[e.order()]
}

// Points returns the defining points of the edge, start to end.
func (e Edge) Points() []Vec3 {
	return e.P[:e.order()+1]
}

func (e Edge) order() int {
	switch e.Kind {
	case EdgeQuadratic:
		return 2
	case EdgeCubic:
		return 3
	default:
		return 1
	}
}

// At evaluates the edge at parameter t in [0, 1].
func (e Edge) At(t float64) Vec3 {
	u := 1 - t
	p := e.P
	switch e.Kind {
	case EdgeQuadratic:
		return p[0].Scale(u * u).Add(p[1].Scale(2 * u * t)).Add(p[2].Scale(t * t))
	case EdgeCubic:
		return p[0].Scale(u * u * u).Add(p[1].Scale(3 * u * u * t)).
			Add(p[2].Scale(3 * u * t * t)).Add(p[3].Scale(t * t * t))
	default:
		return p[0].Scale(u).Add(p[1].Scale(t))
	}
}

// CheckLoop verifies that edges form one closed chain: each edge starts
// exactly where its predecessor ends and the last ends at the first.
func CheckLoop(edges []Edge) error {
	if len(edges) == 0 {
		return fmt.Errorf("%w: no edges", ErrDegenerateBoundary)
	}
	for i := range edges {
		next := edges[(i+1)%len(edges)]
		if !edges[i].End().Equal(next.Start()) {
			return fmt.Errorf("%w: edge %d ends at %s but edge %d starts at %s",
				ErrDegenerateBoundary, i, edges[i].End(), (i+1)%len(edges), next.Start())
		}
	}
	return nil
}
