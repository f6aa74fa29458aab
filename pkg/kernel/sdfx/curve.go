package sdfx

import (
	"math"
	"sort"

	"github.com/gogpu/gg/text/msdf"
)

// curve2 is an edge projected into its face plane, split into y-monotone
// pieces for the inside test. Distance queries go to the msdf edge.
type curve2 struct {
	edge msdf.Edge
	box  msdf.Rect

	// y-monotone pieces: breaks[i]..breaks[i+1] with exact y at each break.
	breaks []float64
	ys     []float64
}

func newCurve2(e msdf.Edge) curve2 {
	c := curve2{edge: e, box: e.Bounds()}
	c.breaks = []float64{0}
	extrema := c.yExtrema()
	sort.Float64s(extrema)
	for _, t := range extrema {
		if t > 0 && t < 1 && t > c.breaks[len(c.breaks)-1] {
			c.breaks = append(c.breaks, t)
		}
	}
	c.breaks = append(c.breaks, 1)
	c.ys = make([]float64, len(c.breaks))
	for i, t := range c.breaks {
		c.ys[i] = c.edge.PointAt(t).Y
	}
	// Endpoints are taken verbatim so adjacent curves agree exactly.
	c.ys[0] = c.edge.StartPoint().Y
	c.ys[len(c.ys)-1] = c.edge.EndPoint().Y
	return c
}

// yExtrema returns the parameters where dy/dt vanishes.
func (c *curve2) yExtrema() []float64 {
	p := c.edge.Points
	y := [4]float64{p[0].Y, p[1].Y, p[2].Y, p[3].Y}
	switch c.edge.Type {
	case msdf.EdgeQuadratic:
		return solveQuadratic(0, 2*(y[0]-2*y[1]+y[2]), 2*(y[1]-y[0]))
	case msdf.EdgeCubic:
		a := 3 * (-y[0] + 3*y[1] - 3*y[2] + y[3])
		b := 6 * (y[0] - 2*y[1] + y[2])
		cc := 3 * (y[1] - y[0])
		return solveQuadratic(a, b, cc)
	default:
		return nil
	}
}

// boxDistance is a lower bound of the distance from q to the curve.
func (c *curve2) boxDistance(q msdf.Point) float64 {
	dx := math.Max(0, math.Max(c.box.MinX-q.X, q.X-c.box.MaxX))
	dy := math.Max(0, math.Max(c.box.MinY-q.Y, q.Y-c.box.MaxY))
	return math.Hypot(dx, dy)
}

// distance returns the unsigned distance from q to the curve.
func (c *curve2) distance(q msdf.Point) float64 {
	return math.Abs(c.edge.SignedDistance(q).Distance)
}

// crossings counts how often the ray from q towards +x crosses the curve.
// Each y-monotone piece uses the half-open rule, so a ray through a shared
// endpoint is counted exactly once.
func (c *curve2) crossings(q msdf.Point) int {
	if q.Y < c.box.MinY || q.Y > c.box.MaxY || q.X > c.box.MaxX {
		return 0
	}
	n := 0
	for i := 0; i+1 < len(c.breaks); i++ {
		y0, y1 := c.ys[i], c.ys[i+1]
		if (y0 <= q.Y) == (y1 <= q.Y) {
			continue
		}
		if q.X < c.box.MinX {
			n++
			continue
		}
		p := c.edge.Points
		if c.edge.Type == msdf.EdgeLinear {
			x := p[0].X + (q.Y-y0)*(p[1].X-p[0].X)/(y1-y0)
			if x > q.X {
				n++
			}
			continue
		}
		// Bisect the monotone piece for the parameter at height q.Y.
		lo, hi := c.breaks[i], c.breaks[i+1]
		rising := y1 > y0
		for k := 0; k < 52 && hi-lo > 1e-15; k++ {
			mid := (lo + hi) / 2
			if (c.edge.PointAt(mid).Y <= q.Y) == rising {
				lo = mid
			} else {
				hi = mid
			}
		}
		if c.edge.PointAt((lo+hi)/2).X > q.X {
			n++
		}
	}
	return n
}
