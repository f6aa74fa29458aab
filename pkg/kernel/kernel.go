// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx, manifold) turn closed loops of curved edges into
// planar faces, extrude them into solids and combine solids with boolean
// operations. The kernel abstraction allows swapping backends without
// changing the glyph pipeline.
package kernel

import "errors"

// Kernel error kinds. Implementations wrap these with context.
var (
	// ErrDegenerateBoundary is returned when a loop of edges cannot bound a
	// face: no usable edges, an open loop, a non-planar loop or a
	// self-intersecting one.
	ErrDegenerateBoundary = errors.New("kernel: degenerate boundary")

	// ErrBooleanFailure is returned when an extrusion or boolean operation
	// is rejected or produces an empty or non-manifold result.
	ErrBooleanFailure = errors.New("kernel: boolean failure")

	// ErrUnsupported is returned for operations a backend cannot express.
	ErrUnsupported = errors.New("kernel: unsupported operation")
)

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Wire is a closed, ordered loop of edges.
type Wire interface {
	Edges() []Edge
}

// Face is a planar region bounded by one wire.
type Face interface {
	// Normal returns the unit normal of the face plane.
	Normal() Vec3
	Wire() Wire
}

// Kernel is the abstract geometry kernel interface.
// Implementations (sdfx, manifold) provide solid modeling behind this interface.
type Kernel interface {
	// Boundary construction
	Wire(edges []Edge) (Wire, error)
	Face(w Wire) (Face, error)

	// Extrude sweeps a face along depth. depth must be parallel to the
	// face normal.
	Extrude(f Face, depth Vec3) (Solid, error)

	// Boolean operations
	Union(a, b Solid) (Solid, error)
	Difference(a, b Solid) (Solid, error)
	Intersection(a, b Solid) (Solid, error)

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Prober is implemented by kernels that can tell whether a solid holds
// any material without meshing it.
type Prober interface {
	Empty(s Solid) (bool, error)
}

// BoxEmpty reports whether a bounding box has no volume.
func BoxEmpty(min, max [3]float64) bool {
	for i := 0; i < 3; i++ {
		if !(max[i] > min[i]) {
			return true
		}
	}
	return false
}
