package glyph

import (
	"fmt"

	"github.com/gogpu/gg/text/msdf"

	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/chazu/alphasquared/pkg/outline"
)

// CheckTopology verifies that every pair of contours is either disjoint or
// strictly nested. Closed boundaries that never meet satisfy exactly that,
// so any contact between two boundaries is rejected. The curves are
// intersected exactly, not sampled.
func CheckTopology(contours []outline.Contour) error {
	loops := make([][]msdf.Edge, len(contours))
	bounds := make([]msdf.Rect, len(contours))
	for i, c := range contours {
		loops[i] = planarLoop(c)
		for k := range loops[i] {
			if k == 0 {
				bounds[i] = loops[i][k].Bounds()
				continue
			}
			bounds[i] = bounds[i].Union(loops[i][k].Bounds())
		}
	}
	for i := range loops {
		for j := i + 1; j < len(loops); j++ {
			if !rectsTouch(bounds[i], bounds[j]) {
				continue
			}
			if kernel.LoopsMeet(loops[i], loops[j]) {
				return fmt.Errorf("%w: contours %d and %d", ErrUnsupportedTopology, i, j)
			}
		}
	}
	return nil
}

func rectsTouch(a, b msdf.Rect) bool {
	return a.MinX <= b.MaxX && b.MinX <= a.MaxX && a.MinY <= b.MaxY && b.MinY <= a.MaxY
}

func planarLoop(c outline.Contour) []msdf.Edge {
	pt := func(p outline.Point) msdf.Point { return msdf.Point{X: p.X, Y: p.Y} }
	loop := make([]msdf.Edge, 0, len(c.Curves))
	for _, cv := range c.Curves {
		p := cv.P
		switch cv.Kind {
		case outline.Quadratic:
			loop = append(loop, msdf.NewQuadraticEdge(pt(p[0]), pt(p[1]), pt(p[2])))
		case outline.Cubic:
			loop = append(loop, msdf.NewCubicEdge(pt(p[0]), pt(p[1]), pt(p[2]), pt(p[3])))
		default:
			loop = append(loop, msdf.NewLinearEdge(pt(p[0]), pt(p[1])))
		}
	}
	return loop
}
