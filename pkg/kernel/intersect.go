package kernel

import (
	"math"

	"github.com/gogpu/gg/text/msdf"
)

// Contact tolerances of the curve intersection test, in millimetres. Two
// curves meet when pieces of them no larger than meetTolerance have
// overlapping bounds.
const (
	meetTolerance = 1e-7
	meetMaxDepth  = 96
)

// PlanarEdge returns e in the U/V coordinates of f as an msdf edge. The
// projection is affine, so curved edges stay exact Bézier curves.
func (f Frame) PlanarEdge(e Edge) msdf.Edge {
	pt := func(i int) msdf.Point {
		l := f.Local(e.P[i])
		return msdf.Point{X: l.X, Y: l.Y}
	}
	switch e.Kind {
	case EdgeQuadratic:
		return msdf.NewQuadraticEdge(pt(0), pt(1), pt(2))
	case EdgeCubic:
		return msdf.NewCubicEdge(pt(0), pt(1), pt(2), pt(3))
	default:
		return msdf.NewLinearEdge(pt(0), pt(1))
	}
}

// PlanarLoop projects a closed loop into the plane of f.
func (f Frame) PlanarLoop(edges []Edge) []msdf.Edge {
	loop := make([]msdf.Edge, len(edges))
	for i, e := range edges {
		loop[i] = f.PlanarEdge(e)
	}
	return loop
}

// EdgesMeet reports whether two planar curves cross or touch. The test
// runs on the curves themselves: pieces are split until their tight
// bounds are either disjoint or below meetTolerance.
func EdgesMeet(a, b msdf.Edge) bool {
	return meet(a, b, 0, nil)
}

// LoopsMeet reports whether any curve of loop a crosses or touches any
// curve of loop b.
func LoopsMeet(a, b []msdf.Edge) bool {
	for i := range a {
		ba := a[i].Bounds()
		for j := range b {
			if overlaps(ba, b[j].Bounds()) && EdgesMeet(a[i], b[j]) {
				return true
			}
		}
	}
	return false
}

// LoopSelfIntersects reports whether a closed loop crosses or touches
// itself anywhere other than at the joints between consecutive curves.
// Contacts closer than jointRadius to a shared joint are not counted.
func LoopSelfIntersects(loop []msdf.Edge) bool {
	n := len(loop)
	for i := 0; i < n; i++ {
		if cubicLoops(loop[i]) {
			return true
		}
		bi := loop[i].Bounds()
		for j := i + 1; j < n; j++ {
			if !overlaps(bi, loop[j].Bounds()) {
				continue
			}
			var joints []msdf.Point
			if j == i+1 {
				joints = append(joints, loop[i].EndPoint())
			}
			if i == 0 && j == n-1 {
				joints = append(joints, loop[j].EndPoint())
			}
			if meet(loop[i], loop[j], 0, joints) {
				return true
			}
		}
	}
	return false
}

// jointRadius is the half-width of the square around a shared joint in
// which neighbouring curves may touch.
const jointRadius = 1e-5

// meet searches a and b for a contact. Pairs of pieces that both lie
// within jointRadius of one of joints are skipped.
func meet(a, b msdf.Edge, depth int, joints []msdf.Point) bool {
	ra, rb := a.Bounds(), b.Bounds()
	if !overlaps(ra, rb) {
		return false
	}
	for _, j := range joints {
		if nearJoint(ra, j) && nearJoint(rb, j) {
			return false
		}
	}
	sa, sb := extent(ra), extent(rb)
	if depth >= meetMaxDepth || (sa <= meetTolerance && sb <= meetTolerance) {
		return true
	}
	if sa >= sb {
		l, r := splitEdge(a)
		return meet(l, b, depth+1, joints) || meet(r, b, depth+1, joints)
	}
	l, r := splitEdge(b)
	return meet(a, l, depth+1, joints) || meet(a, r, depth+1, joints)
}

func nearJoint(r msdf.Rect, j msdf.Point) bool {
	return r.MinX >= j.X-jointRadius && r.MaxX <= j.X+jointRadius &&
		r.MinY >= j.Y-jointRadius && r.MaxY <= j.Y+jointRadius
}

// cubicLoops reports whether a cubic curve crosses itself. Writing the
// curve as a*t^3 + b*t^2 + c*t + d, B(t) = B(s) with t != s is linear in
// t+s and ts, so the crossing parameters come out in closed form.
func cubicLoops(e msdf.Edge) bool {
	if e.Type != msdf.EdgeCubic {
		return false
	}
	p := e.Points
	a := p[3].Sub(p[0]).Add(p[1].Sub(p[2]).Mul(3))
	b := p[0].Add(p[2]).Sub(p[1].Mul(2)).Mul(3)
	c := p[1].Sub(p[0]).Mul(3)
	ab := a.Cross(b)
	if math.Abs(ab) < 1e-12 {
		return false
	}
	sum := -a.Cross(c) / ab
	var prod float64
	if math.Abs(a.X) >= math.Abs(a.Y) {
		prod = sum*sum + (b.X*sum+c.X)/a.X
	} else {
		prod = sum*sum + (b.Y*sum+c.Y)/a.Y
	}
	disc := sum*sum - 4*prod
	if disc <= 0 {
		return false
	}
	r := math.Sqrt(disc)
	return (sum-r)/2 >= 0 && (sum+r)/2 <= 1
}

// splitEdge cuts a curve at t = 1/2 by de Casteljau subdivision.
func splitEdge(e msdf.Edge) (msdf.Edge, msdf.Edge) {
	p := e.Points
	switch e.Type {
	case msdf.EdgeQuadratic:
		p01, p12 := p[0].Lerp(p[1], 0.5), p[1].Lerp(p[2], 0.5)
		m := p01.Lerp(p12, 0.5)
		return msdf.NewQuadraticEdge(p[0], p01, m), msdf.NewQuadraticEdge(m, p12, p[2])
	case msdf.EdgeCubic:
		p01, p12, p23 := p[0].Lerp(p[1], 0.5), p[1].Lerp(p[2], 0.5), p[2].Lerp(p[3], 0.5)
		a, b := p01.Lerp(p12, 0.5), p12.Lerp(p23, 0.5)
		m := a.Lerp(b, 0.5)
		return msdf.NewCubicEdge(p[0], p01, a, m), msdf.NewCubicEdge(m, b, p23, p[3])
	default:
		m := p[0].Lerp(p[1], 0.5)
		return msdf.NewLinearEdge(p[0], m), msdf.NewLinearEdge(m, p[1])
	}
}

// overlaps reports whether two closed boxes share a point.
func overlaps(a, b msdf.Rect) bool {
	return a.MinX <= b.MaxX && b.MinX <= a.MaxX && a.MinY <= b.MaxY && b.MinY <= a.MaxY
}

func extent(r msdf.Rect) float64 {
	return math.Max(r.Width(), r.Height())
}
