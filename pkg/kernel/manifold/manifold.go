//go:build manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library (https://github.com/elalish/manifold). Manifold provides
// guaranteed-manifold mesh boolean operations, which makes it a robust
// alternative to the SDF kernel for letter solids.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
//
// See the Makefile in this directory for instructions on building manifoldc
// from source.
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/chazu/alphasquared/pkg/kernel"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*ManifoldKernel)(nil)
var _ kernel.Solid = (*manifoldSolid)(nil)

// manifoldSolid wraps a C ManifoldManifold pointer and implements kernel.Solid.
type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

// BoundingBox returns the axis-aligned bounding box of the solid.
func (s *manifoldSolid) BoundingBox() (min, max [3]float64) {
	alloc := C.manifold_alloc_box()
	bbox := C.manifold_bounding_box(alloc, s.ptr)
	defer C.manifold_delete_box(bbox)

	min[0] = float64(C.manifold_box_min_x(bbox))
	min[1] = float64(C.manifold_box_min_y(bbox))
	min[2] = float64(C.manifold_box_min_z(bbox))
	max[0] = float64(C.manifold_box_max_x(bbox))
	max[1] = float64(C.manifold_box_max_y(bbox))
	max[2] = float64(C.manifold_box_max_z(bbox))
	return min, max
}

// newSolid wraps a C ManifoldManifold pointer with Go-side finalizer
// for automatic memory management.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
// Curved edges are flattened to polylines before extrusion, so faces are
// approximations controlled by the segment count.
type ManifoldKernel struct {
	segments int
}

// New creates a new ManifoldKernel. Returns an error if the Manifold
// C library cannot be initialized.
func New() (kernel.Kernel, error) {
	return &ManifoldKernel{segments: 32}, nil
}

type wire struct {
	edges []kernel.Edge
}

func (w *wire) Edges() []kernel.Edge { return w.edges }

type face struct {
	w     *wire
	frame kernel.Frame
	poly  []C.ManifoldVec2
}

func (f *face) Normal() kernel.Vec3 { return f.frame.N }
func (f *face) Wire() kernel.Wire   { return f.w }

// Wire validates that edges form a closed loop.
func (k *ManifoldKernel) Wire(edges []kernel.Edge) (kernel.Wire, error) {
	if err := kernel.CheckLoop(edges); err != nil {
		return nil, err
	}
	return &wire{edges: append([]kernel.Edge(nil), edges...)}, nil
}

// Face flattens the loop into a polygon in its own plane.
func (k *ManifoldKernel) Face(w kernel.Wire) (kernel.Face, error) {
	ww, ok := w.(*wire)
	if !ok {
		return nil, fmt.Errorf("%w: foreign wire %T", kernel.ErrUnsupported, w)
	}
	frame, err := kernel.PlaneOf(ww.edges)
	if err != nil {
		return nil, err
	}
	if kernel.LoopSelfIntersects(frame.PlanarLoop(ww.edges)) {
		return nil, fmt.Errorf("%w: loop crosses itself", kernel.ErrDegenerateBoundary)
	}
	f := &face{w: ww, frame: frame}
	for _, e := range ww.edges {
		steps := k.segments
		if e.Kind == kernel.EdgeLine {
			steps = 1
		}
		for i := 0; i < steps; i++ {
			l := frame.Local(e.At(float64(i) / float64(steps)))
			f.poly = append(f.poly, C.ManifoldVec2{x: C.double(l.X), y: C.double(l.Y)})
		}
	}
	return f, nil
}

// Extrude sweeps the face polygon along depth, which must be parallel to
// the face normal.
func (k *ManifoldKernel) Extrude(f kernel.Face, depth kernel.Vec3) (kernel.Solid, error) {
	ff, ok := f.(*face)
	if !ok {
		return nil, fmt.Errorf("%w: foreign face %T", kernel.ErrUnsupported, f)
	}
	h := depth.Dot(ff.frame.N)
	if h == 0 {
		return nil, fmt.Errorf("%w: zero extrusion depth", kernel.ErrBooleanFailure)
	}
	if depth.Cross(ff.frame.N).Length() > 1e-9*depth.Length() {
		return nil, fmt.Errorf("%w: oblique extrusion along %s", kernel.ErrUnsupported, depth)
	}

	simple := C.manifold_simple_polygon(C.manifold_alloc_simple_polygon(),
		&ff.poly[0], C.size_t(len(ff.poly)))
	defer C.manifold_delete_simple_polygon(simple)
	polys := C.manifold_polygons(C.manifold_alloc_polygons(),
		&simple, C.size_t(1))
	defer C.manifold_delete_polygons(polys)

	// Extrusions start at local z = 0; a negative depth is an extrusion of
	// |h| shifted down by |h|.
	prism := C.manifold_extrude(C.manifold_alloc_manifold(), polys,
		C.double(math.Abs(h)), C.int(0), C.double(0), C.double(1), C.double(1))
	defer C.manifold_delete_manifold(prism)

	fr := ff.frame
	if h < 0 {
		fr.Origin = fr.Origin.Add(fr.N.Scale(h))
	}
	// Column-major 4x3 affine map from frame coordinates to model space.
	ptr := C.manifold_transform(C.manifold_alloc_manifold(), prism,
		C.double(fr.U.X), C.double(fr.U.Y), C.double(fr.U.Z),
		C.double(fr.V.X), C.double(fr.V.Y), C.double(fr.V.Z),
		C.double(fr.N.X), C.double(fr.N.Y), C.double(fr.N.Z),
		C.double(fr.Origin.X), C.double(fr.Origin.Y), C.double(fr.Origin.Z))
	return checked(ptr)
}

// checked wraps a boolean result, rejecting empty or failed manifolds.
func checked(ptr *C.ManifoldManifold) (kernel.Solid, error) {
	if status := C.manifold_status(ptr); status != C.MANIFOLD_NO_ERROR {
		C.manifold_delete_manifold(ptr)
		return nil, fmt.Errorf("%w: manifold status %d", kernel.ErrBooleanFailure, int(status))
	}
	if C.manifold_is_empty(ptr) != 0 {
		C.manifold_delete_manifold(ptr)
		return nil, fmt.Errorf("%w: empty result", kernel.ErrBooleanFailure)
	}
	return newSolid(ptr), nil
}

func unwrapPair(a, b kernel.Solid) (*manifoldSolid, *manifoldSolid, error) {
	sa, ok := a.(*manifoldSolid)
	if !ok {
		return nil, nil, fmt.Errorf("%w: foreign solid %T", kernel.ErrUnsupported, a)
	}
	sb, ok := b.(*manifoldSolid)
	if !ok {
		return nil, nil, fmt.Errorf("%w: foreign solid %T", kernel.ErrUnsupported, b)
	}
	return sa, sb, nil
}

// Union returns the boolean union of two solids.
func (k *ManifoldKernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	sa, sb, err := unwrapPair(a, b)
	if err != nil {
		return nil, err
	}
	return checked(C.manifold_union(C.manifold_alloc_manifold(), sa.ptr, sb.ptr))
}

// Difference returns the boolean difference (a minus b).
func (k *ManifoldKernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	sa, sb, err := unwrapPair(a, b)
	if err != nil {
		return nil, err
	}
	return checked(C.manifold_difference(C.manifold_alloc_manifold(), sa.ptr, sb.ptr))
}

// Intersection returns the boolean intersection of two solids.
func (k *ManifoldKernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	sa, sb, err := unwrapPair(a, b)
	if err != nil {
		return nil, err
	}
	return checked(C.manifold_intersection(C.manifold_alloc_manifold(), sa.ptr, sb.ptr))
}

// ToMesh extracts a triangle mesh from the solid using Manifold's MeshGL
// format. Vertex positions and normals are interleaved in MeshGL; this
// method separates them into the kernel.Mesh flat-array layout.
func (k *ManifoldKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ms, ok := s.(*manifoldSolid)
	if !ok {
		return nil, fmt.Errorf("%w: foreign solid %T", kernel.ErrUnsupported, s)
	}

	// Get MeshGL from the manifold.
	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_get_meshgl(meshAlloc, ms.ptr)
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))

	if numVert == 0 || numTri == 0 {
		return nil, fmt.Errorf("%w: solid has no surface", kernel.ErrBooleanFailure)
	}

	// MeshGL stores vertex properties in a flat float array.
	// The default layout has numProp properties per vertex.
	// The first 3 are always position (x, y, z).
	// If normals are present, they follow at indices 3, 4, 5.
	numProp := int(C.manifold_meshgl_num_prop(meshGL))

	// Extract the vertex property data.
	propLen := numVert * numProp
	propData := make([]float32, propLen)
	C.manifold_meshgl_vert_properties(
		(*C.float)(unsafe.Pointer(&propData[0])),
		meshGL,
	)

	// Extract triangle indices.
	triLen := numTri * 3
	indices := make([]uint32, triLen)
	C.manifold_meshgl_tri_verts(
		(*C.uint32_t)(unsafe.Pointer(&indices[0])),
		meshGL,
	)

	// Separate positions and normals from the interleaved property array.
	vertices := make([]float32, numVert*3)
	var normals []float32
	hasNormals := numProp >= 6
	if hasNormals {
		normals = make([]float32, numVert*3)
	}

	for i := 0; i < numVert; i++ {
		base := i * numProp
		// Positions are always at indices 0, 1, 2.
		vertices[i*3+0] = propData[base+0]
		vertices[i*3+1] = propData[base+1]
		vertices[i*3+2] = propData[base+2]
		// Normals at indices 3, 4, 5 if present.
		if hasNormals {
			normals[i*3+0] = propData[base+3]
			normals[i*3+1] = propData[base+4]
			normals[i*3+2] = propData[base+5]
		}
	}

	if !hasNormals {
		// Compute flat normals from triangle faces as a fallback.
		normals = computeFlatNormals(vertices, indices)
	}

	mesh := &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}

	if mesh.VertexCount() != numVert {
		return nil, fmt.Errorf("manifold: vertex count mismatch: got %d, expected %d",
			mesh.VertexCount(), numVert)
	}

	return mesh, nil
}

// computeFlatNormals generates per-vertex normals by averaging the face normals
// of all triangles incident on each vertex. This is a fallback when MeshGL
// does not include normals in the vertex properties.
func computeFlatNormals(vertices []float32, indices []uint32) []float32 {
	numVerts := len(vertices) / 3
	normals := make([]float32, numVerts*3)

	numTris := len(indices) / 3
	for t := 0; t < numTris; t++ {
		i0 := indices[t*3+0]
		i1 := indices[t*3+1]
		i2 := indices[t*3+2]

		// Triangle vertex positions.
		ax, ay, az := float64(vertices[i0*3]), float64(vertices[i0*3+1]), float64(vertices[i0*3+2])
		bx, by, bz := float64(vertices[i1*3]), float64(vertices[i1*3+1]), float64(vertices[i1*3+2])
		cx, cy, cz := float64(vertices[i2*3]), float64(vertices[i2*3+1]), float64(vertices[i2*3+2])

		// Edge vectors.
		e1x, e1y, e1z := bx-ax, by-ay, bz-az
		e2x, e2y, e2z := cx-ax, cy-ay, cz-az

		// Cross product (unnormalized face normal).
		nx := float32(e1y*e2z - e1z*e2y)
		ny := float32(e1z*e2x - e1x*e2z)
		nz := float32(e1x*e2y - e1y*e2x)

		// Accumulate into each vertex of this triangle.
		for _, idx := range []uint32{i0, i1, i2} {
			normals[idx*3+0] += nx
			normals[idx*3+1] += ny
			normals[idx*3+2] += nz
		}
	}

	// Normalize.
	for i := 0; i < numVerts; i++ {
		nx := float64(normals[i*3+0])
		ny := float64(normals[i*3+1])
		nz := float64(normals[i*3+2])
		length := math.Sqrt(nx*nx + ny*ny + nz*nz)
		if length > 1e-12 {
			normals[i*3+0] = float32(nx / length)
			normals[i*3+1] = float32(ny / length)
			normals[i*3+2] = float32(nz / length)
		}
	}

	return normals
}
