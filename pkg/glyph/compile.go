package glyph

import (
	"fmt"

	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/chazu/alphasquared/pkg/outline"
)

// CompileContour turns the curves of one centred contour into kernel
// edges on the plane z, transformed by m. Degenerate curves are dropped
// here and only here; dropped reports how many.
func CompileContour(c outline.Contour, m kernel.Mat3, z float64) (edges []kernel.Edge, dropped int, err error) {
	edges = make([]kernel.Edge, 0, len(c.Curves))
	for i, cv := range c.Curves {
		if cv.Degenerate() {
			dropped++
			continue
		}
		e, err := compileCurve(cv, m, z)
		if err != nil {
			return nil, dropped, fmt.Errorf("curve %d: %w", i, err)
		}
		edges = append(edges, e)
	}
	return edges, dropped, nil
}

func compileCurve(cv outline.Curve, m kernel.Mat3, z float64) (kernel.Edge, error) {
	p := func(i int) kernel.Vec3 { return Place(cv.P[i], m, z) }
	switch cv.Kind {
	case outline.Line:
		return kernel.LineEdge(p(0), p(1))
	case outline.Quadratic:
		return kernel.QuadraticEdge(p(0), p(1), p(2))
	case outline.Cubic:
		return kernel.CubicEdge(p(0), p(1), p(2), p(3))
	default:
		return kernel.Edge{}, fmt.Errorf("%w: curve kind %v", kernel.ErrUnsupported, cv.Kind)
	}
}

// AssembleFace closes edges into a wire and bounds a face with it.
func AssembleFace(k kernel.Kernel, edges []kernel.Edge) (kernel.Face, error) {
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: no usable edges", kernel.ErrDegenerateBoundary)
	}
	w, err := k.Wire(edges)
	if err != nil {
		return nil, err
	}
	return k.Face(w)
}
