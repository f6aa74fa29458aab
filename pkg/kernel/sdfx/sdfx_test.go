package sdfx

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/alphasquared/pkg/kernel"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/gogpu/gg/text/msdf"
)

const testCells = 48

func loop(t *testing.T, pts ...kernel.Vec3) []kernel.Edge {
	t.Helper()
	var edges []kernel.Edge
	for i := range pts {
		e, err := kernel.LineEdge(pts[i], pts[(i+1)%len(pts)])
		if err != nil {
			t.Fatalf("LineEdge: %v", err)
		}
		edges = append(edges, e)
	}
	return edges
}

func prism(t *testing.T, k *SdfxKernel, edges []kernel.Edge, depth kernel.Vec3) kernel.Solid {
	t.Helper()
	w, err := k.Wire(edges)
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	f, err := k.Face(w)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	s, err := k.Extrude(f, depth)
	if err != nil {
		t.Fatalf("Extrude: %v", err)
	}
	return s
}

// box returns the solid [x0,x1]×[y0,y1]×[z0,z0+d].
func box(t *testing.T, k *SdfxKernel, x0, y0, x1, y1, z0, d float64) kernel.Solid {
	t.Helper()
	edges := loop(t,
		kernel.Vec3{X: x0, Y: y0, Z: z0}, kernel.Vec3{X: x1, Y: y0, Z: z0},
		kernel.Vec3{X: x1, Y: y1, Z: z0}, kernel.Vec3{X: x0, Y: y1, Z: z0})
	return prism(t, k, edges, kernel.Vec3{Z: d})
}

func assertBox(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], wantMax[i])
		}
	}
}

func meshVolume(t *testing.T, k *SdfxKernel, s kernel.Solid) float64 {
	t.Helper()
	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
	return math.Abs(mesh.Volume())
}

func within(got, want, rel float64) bool {
	return math.Abs(got-want) <= rel*want
}

func TestExtrudeBox(t *testing.T) {
	k := New(WithMeshCells(testCells))
	s := box(t, k, 0, 0, 10, 20, 0, 5)
	assertBox(t, s, [3]float64{0, 0, 0}, [3]float64{10, 20, 5}, 1e-9)
	if v := meshVolume(t, k, s); !within(v, 1000, 0.05) {
		t.Errorf("volume = %f, want ~1000", v)
	}
}

func TestExtrudeAgainstNormal(t *testing.T) {
	k := New(WithMeshCells(testCells))
	s := box(t, k, 0, 0, 10, 10, 0, -4)
	assertBox(t, s, [3]float64{0, 0, -4}, [3]float64{10, 10, 0}, 1e-9)
}

func TestExtrudeVerticalFace(t *testing.T) {
	// A face in the plane x = 2 swept along +X.
	k := New(WithMeshCells(testCells))
	edges := loop(t,
		kernel.Vec3{X: 2, Y: 0, Z: 0}, kernel.Vec3{X: 2, Y: 6, Z: 0},
		kernel.Vec3{X: 2, Y: 6, Z: 4}, kernel.Vec3{X: 2, Y: 0, Z: 4})
	s := prism(t, k, edges, kernel.Vec3{X: 3})
	assertBox(t, s, [3]float64{2, 0, 0}, [3]float64{5, 6, 4}, 1e-9)
}

func TestCurvedFace(t *testing.T) {
	// A disc of radius 5 built from four cubic quarter arcs.
	k := New(WithMeshCells(testCells))
	const r = 5.0
	const c = 0.5522847498 * r
	pt := func(x, y float64) kernel.Vec3 { return kernel.Vec3{X: x, Y: y} }
	var edges []kernel.Edge
	for _, q := range [][4]kernel.Vec3{
		{pt(r, 0), pt(r, c), pt(c, r), pt(0, r)},
		{pt(0, r), pt(-c, r), pt(-r, c), pt(-r, 0)},
		{pt(-r, 0), pt(-r, -c), pt(-c, -r), pt(0, -r)},
		{pt(0, -r), pt(c, -r), pt(r, -c), pt(r, 0)},
	} {
		e, err := kernel.CubicEdge(q[0], q[1], q[2], q[3])
		if err != nil {
			t.Fatalf("CubicEdge: %v", err)
		}
		edges = append(edges, e)
	}
	w, err := k.Wire(edges)
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	f, err := k.Face(w)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	region := f.(*face).sdf2
	for _, tt := range []struct {
		x, y, want float64
	}{
		{0, 0, -r},
		{10, 0, 5},
		{0, -8, 3},
		{3, 0, -2},
	} {
		got := region.Evaluate(v2.Vec{X: tt.x, Y: tt.y})
		if math.Abs(got-tt.want) > 1e-3 {
			t.Errorf("Evaluate(%g,%g) = %f, want %f", tt.x, tt.y, got, tt.want)
		}
	}

	s, err := k.Extrude(f, kernel.Vec3{Z: 2})
	if err != nil {
		t.Fatalf("Extrude: %v", err)
	}
	if v := meshVolume(t, k, s); !within(v, math.Pi*r*r*2, 0.08) {
		t.Errorf("volume = %f, want ~%f", v, math.Pi*r*r*2)
	}
}

func TestQuadraticDistanceIsExact(t *testing.T) {
	c := newCurve2(msdf.NewQuadraticEdge(
		msdf.Point{X: -1, Y: 1}, msdf.Point{X: 0, Y: -1}, msdf.Point{X: 1, Y: 1}))
	// The curve is the parabola y = x^2 for x in [-1, 1]; its vertex is the
	// closest point to any point straight below the origin.
	if d := c.distance(msdf.Point{X: 0, Y: -2}); math.Abs(d-2) > 1e-12 {
		t.Errorf("distance = %.15f, want 2", d)
	}
	if n := c.crossings(msdf.Point{X: -2, Y: 0.25}); n != 2 {
		t.Errorf("crossings = %d, want 2", n)
	}
	if n := c.crossings(msdf.Point{X: 0, Y: 0.25}); n != 1 {
		t.Errorf("crossings = %d, want 1", n)
	}
}

func TestDifference(t *testing.T) {
	k := New(WithMeshCells(testCells))
	outer := box(t, k, 0, 0, 10, 10, 0, 10)
	inner := box(t, k, 3, 3, 7, 7, -1, 12)
	diff, err := k.Difference(outer, inner)
	if err != nil {
		t.Fatalf("Difference: %v", err)
	}
	if v := meshVolume(t, k, diff); !within(v, 1000-160, 0.06) {
		t.Errorf("difference volume = %f, want ~840", v)
	}
}

func TestUnion(t *testing.T) {
	k := New(WithMeshCells(testCells))
	a := box(t, k, 0, 0, 10, 10, 0, 10)
	b := box(t, k, 5, 0, 15, 10, 0, 10)
	u, err := k.Union(a, b)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	assertBox(t, u, [3]float64{0, 0, 0}, [3]float64{15, 10, 10}, 1e-9)
	if v := meshVolume(t, k, u); !within(v, 1500, 0.05) {
		t.Errorf("union volume = %f, want ~1500", v)
	}
}

func TestIntersection(t *testing.T) {
	k := New(WithMeshCells(testCells))
	a := box(t, k, 0, 0, 10, 10, 0, 10)
	b := box(t, k, 5, 0, 15, 10, 0, 10)
	inter, err := k.Intersection(a, b)
	if err != nil {
		t.Fatalf("Intersection: %v", err)
	}
	assertBox(t, inter, [3]float64{5, 0, 0}, [3]float64{10, 10, 10}, 1e-9)
	if v := meshVolume(t, k, inter); !within(v, 500, 0.06) {
		t.Errorf("intersection volume = %f, want ~500", v)
	}
}

func TestIntersectionDisjoint(t *testing.T) {
	k := New(WithMeshCells(testCells))
	a := box(t, k, 0, 0, 1, 1, 0, 1)
	b := box(t, k, 5, 5, 6, 6, 0, 1)
	if _, err := k.Intersection(a, b); !errors.Is(err, kernel.ErrBooleanFailure) {
		t.Fatalf("Intersection(disjoint) error = %v, want ErrBooleanFailure", err)
	}
}

func TestEmptyDifferenceFailsToMesh(t *testing.T) {
	k := New(WithMeshCells(testCells))
	a := box(t, k, 0, 0, 1, 1, 0, 1)
	b := box(t, k, -1, -1, 2, 2, -1, 3)
	diff, err := k.Difference(a, b)
	if err != nil {
		t.Fatalf("Difference: %v", err)
	}
	if _, err := k.ToMesh(diff); !errors.Is(err, kernel.ErrBooleanFailure) {
		t.Fatalf("ToMesh(empty) error = %v, want ErrBooleanFailure", err)
	}
}

func TestEmpty(t *testing.T) {
	k := New(WithMeshCells(testCells))
	a := box(t, k, 0, 0, 1, 1, 0, 1)
	empty, err := k.Empty(a)
	if err != nil {
		t.Fatalf("Empty(box): %v", err)
	}
	if empty {
		t.Error("Empty(box) = true, want false")
	}

	diff, err := k.Difference(a, box(t, k, -1, -1, 2, 2, -1, 3))
	if err != nil {
		t.Fatalf("Difference: %v", err)
	}
	empty, err = k.Empty(diff)
	if err != nil {
		t.Fatalf("Empty(diff): %v", err)
	}
	if !empty {
		t.Error("Empty(swallowed box) = false, want true")
	}

	// A thin wall survives when only part of the box is removed.
	wall, err := k.Difference(box(t, k, 0, 0, 10, 10, 0, 10), box(t, k, -1, -1, 9.5, 11, -1, 12))
	if err != nil {
		t.Fatalf("Difference: %v", err)
	}
	if empty, _ := k.Empty(wall); empty {
		t.Error("Empty(wall) = true, want false")
	}
}

func TestFaceRejectsSelfIntersection(t *testing.T) {
	k := New()
	w, err := k.Wire(loop(t,
		kernel.Vec3{X: 0, Y: 0}, kernel.Vec3{X: 4, Y: 4},
		kernel.Vec3{X: 4, Y: 0}, kernel.Vec3{X: 0, Y: 4}))
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	if _, err := k.Face(w); !errors.Is(err, kernel.ErrDegenerateBoundary) {
		t.Fatalf("Face(bowtie) error = %v, want ErrDegenerateBoundary", err)
	}
}

func TestWireRejectsOpenLoop(t *testing.T) {
	k := New()
	edges := loop(t, kernel.Vec3{}, kernel.Vec3{X: 1}, kernel.Vec3{X: 1, Y: 1})
	if _, err := k.Wire(edges[:2]); !errors.Is(err, kernel.ErrDegenerateBoundary) {
		t.Fatalf("Wire(open) error = %v, want ErrDegenerateBoundary", err)
	}
}

func TestExtrudeRejectsObliqueDepth(t *testing.T) {
	k := New()
	w, err := k.Wire(loop(t, kernel.Vec3{}, kernel.Vec3{X: 1}, kernel.Vec3{X: 1, Y: 1}))
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	f, err := k.Face(w)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	if _, err := k.Extrude(f, kernel.Vec3{X: 1, Z: 1}); !errors.Is(err, kernel.ErrUnsupported) {
		t.Errorf("Extrude(oblique) error = %v, want ErrUnsupported", err)
	}
	if _, err := k.Extrude(f, kernel.Vec3{}); !errors.Is(err, kernel.ErrBooleanFailure) {
		t.Errorf("Extrude(zero) error = %v, want ErrBooleanFailure", err)
	}
}

func TestNewDefaults(t *testing.T) {
	if got := New().MeshCells(); got != DefaultMeshCells {
		t.Errorf("MeshCells() = %d, want %d", got, DefaultMeshCells)
	}
	if got := New(WithMeshCells(0)).MeshCells(); got != DefaultMeshCells {
		t.Errorf("WithMeshCells(0) changed resolution to %d", got)
	}
}
