// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Faces are signed distance fields over their line and Bézier boundaries,
// measured with the msdf edge solvers of github.com/gogpu/gg; solids are
// sdfx SDF3 values and are only approximated when ToMesh runs marching
// cubes.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("alphasq.kernel")
}

// Compile-time interface checks.
var (
	_ kernel.Kernel = (*SdfxKernel)(nil)
	_ kernel.Prober = (*SdfxKernel)(nil)
)

// emptySamples is the lattice resolution of Empty along each axis.
const emptySamples = 16

// DefaultMeshCells controls marching cubes tessellation resolution along
// the longest axis of a solid.
const DefaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	return boxArrays(s.s.BoundingBox())
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	meshCells int
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution used by ToMesh.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n > 0 {
			k.meshCells = n
		}
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{meshCells: DefaultMeshCells}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// MeshCells returns the marching cubes resolution.
func (k *SdfxKernel) MeshCells() int {
	return k.meshCells
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) (sdf.SDF3, error) {
	ss, ok := s.(*sdfxSolid)
	if !ok || ss == nil || ss.s == nil {
		return nil, fmt.Errorf("%w: foreign solid %T", kernel.ErrUnsupported, s)
	}
	return ss.s, nil
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) (kernel.Solid, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: sdfx returned no solid", kernel.ErrBooleanFailure)
	}
	min, max := boxArrays(s.BoundingBox())
	if kernel.BoxEmpty(min, max) {
		return nil, fmt.Errorf("%w: empty result", kernel.ErrBooleanFailure)
	}
	return &sdfxSolid{s: s}, nil
}

// Extrude sweeps f along depth, which must be parallel to the face normal.
// The solid spans from the face plane to the plane offset by depth.
func (k *SdfxKernel) Extrude(f kernel.Face, depth kernel.Vec3) (kernel.Solid, error) {
	ff, ok := f.(*face)
	if !ok {
		return nil, fmt.Errorf("%w: foreign face %T", kernel.ErrUnsupported, f)
	}
	h := depth.Dot(ff.frame.N)
	if h == 0 || math.IsNaN(h) {
		return nil, fmt.Errorf("%w: zero extrusion depth", kernel.ErrBooleanFailure)
	}
	if depth.Cross(ff.frame.N).Length() > 1e-9*depth.Length() {
		return nil, fmt.Errorf("%w: oblique extrusion along %s", kernel.ErrUnsupported, depth)
	}

	// sdf.Extrude3D centres the prism on the plane; shift its frame by half
	// the signed depth.
	frame := ff.frame
	frame.Origin = frame.Origin.Add(frame.N.Scale(h / 2))
	prism := sdf.Extrude3D(ff.sdf2, math.Abs(h))
	return wrap(sdf.Transform3D(prism, placement(frame)))
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	sa, sb, err := unwrapPair(a, b)
	if err != nil {
		return nil, err
	}
	return wrap(sdf.Union3D(sa, sb))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	sa, sb, err := unwrapPair(a, b)
	if err != nil {
		return nil, err
	}
	return wrap(sdf.Difference3D(sa, sb))
}

// Intersection returns the intersection of two solids. Solids whose boxes
// do not overlap have an empty intersection, which is a failure.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	sa, sb, err := unwrapPair(a, b)
	if err != nil {
		return nil, err
	}
	bb, ok := intersectBoxes(sa.BoundingBox(), sb.BoundingBox())
	if !ok {
		return nil, fmt.Errorf("%w: disjoint operands", kernel.ErrBooleanFailure)
	}
	s := sdf.Intersect3D(sa, sb)
	if s == nil {
		return nil, fmt.Errorf("%w: sdfx returned no solid", kernel.ErrBooleanFailure)
	}
	return wrap(&boundedSDF3{SDF3: s, bb: bb})
}

func unwrapPair(a, b kernel.Solid) (sdf.SDF3, sdf.SDF3, error) {
	sa, err := unwrap(a)
	if err != nil {
		return nil, nil, err
	}
	sb, err := unwrap(b)
	if err != nil {
		return nil, nil, err
	}
	return sa, sb, nil
}

// Empty reports whether s holds no material. The field is sampled at the
// cell centres of a coarse lattice over the bounding box. No sdfx field
// exceeds the true distance to its surface, so if every sample lies
// farther outside than half a cell diagonal the solid is empty.
func (k *SdfxKernel) Empty(s kernel.Solid) (bool, error) {
	s3, err := unwrap(s)
	if err != nil {
		return false, err
	}
	bb := s3.BoundingBox()
	size := bb.Size()
	step := v3.Vec{X: size.X / emptySamples, Y: size.Y / emptySamples, Z: size.Z / emptySamples}
	reach := step.Length() / 2
	for i := 0; i < emptySamples; i++ {
		for j := 0; j < emptySamples; j++ {
			for l := 0; l < emptySamples; l++ {
				p := v3.Vec{
					X: bb.Min.X + (float64(i)+0.5)*step.X,
					Y: bb.Min.Y + (float64(j)+0.5)*step.Y,
					Z: bb.Min.Z + (float64(l)+0.5)*step.Z,
				}
				if s3.Evaluate(p) <= reach {
					return false, nil
				}
			}
		}
	}
	tracer().Debugf("solid is empty: no sample within %.3g of its surface", reach)
	return true, nil
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
// A solid that meshes to nothing is reported as a boolean failure.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3, err := unwrap(s)
	if err != nil {
		return nil, err
	}

	renderer := render.NewMarchingCubesUniform(k.meshCells)
	triangles := render.ToTriangles(sdf3, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("%w: solid has no surface", kernel.ErrBooleanFailure)
	}

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}
	tracer().Debugf("meshed solid with %d cells: %d triangles", k.meshCells, numTri)

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
