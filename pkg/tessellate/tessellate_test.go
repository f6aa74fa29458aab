package tessellate_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/chazu/alphasquared/pkg/kernel/sdfx"
	"github.com/chazu/alphasquared/pkg/tessellate"
)

// newKernel returns a fresh sdfx kernel for testing.
func newKernel() *sdfx.SdfxKernel {
	return sdfx.New(sdfx.WithMeshCells(40))
}

// makeBox extrudes the rectangle [x0,x1]×[y0,y1] by d along Z.
func makeBox(t *testing.T, k kernel.Kernel, x0, y0, x1, y1, d float64) kernel.Solid {
	t.Helper()
	pts := []kernel.Vec3{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
	var edges []kernel.Edge
	for i := range pts {
		e, err := kernel.LineEdge(pts[i], pts[(i+1)%len(pts)])
		if err != nil {
			t.Fatalf("LineEdge: %v", err)
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
	s, err := k.Extrude(f, kernel.Vec3{Z: d})
	if err != nil {
		t.Fatalf("Extrude: %v", err)
	}
	return s
}

func TestSingleBox(t *testing.T) {
	k := newKernel()
	meshes, err := tessellate.Tessellate(k, tessellate.Part{Name: "A", Solid: makeBox(t, k, 0, 0, 100, 50, 25)})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.PartName != "A" {
		t.Errorf("expected part name %q, got %q", "A", m.PartName)
	}
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}

	// Mesh bounds should approximately match the box dimensions.
	min, max := m.Bounds()
	want := [3]float64{100, 50, 25}
	for i := 0; i < 3; i++ {
		if d := max[i] - min[i]; abs(d-want[i]) > 1.5 {
			t.Errorf("extent[%d] = %f, want ~%f", i, d, want[i])
		}
	}
}

func TestTwoParts(t *testing.T) {
	k := newKernel()
	meshes, err := tessellate.Tessellate(k,
		tessellate.Part{Name: "A0", Solid: makeBox(t, k, 0, 0, 10, 10, 10)},
		tessellate.Part{Name: "A1", Solid: makeBox(t, k, 20, 0, 30, 10, 10)},
	)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	names := map[string]bool{}
	for _, m := range meshes {
		names[m.PartName] = true
	}
	if !names["A0"] || !names["A1"] {
		t.Errorf("expected parts A0 and A1, got %v", names)
	}
}

func TestEmptyResultIsBooleanFailure(t *testing.T) {
	k := newKernel()
	small := makeBox(t, k, 2, 2, 4, 4, 1)
	big := makeBox(t, k, 0, 0, 10, 10, 1)
	// Subtracting a covering solid leaves nothing.
	diff, err := k.Difference(small, big)
	if err != nil {
		t.Fatalf("Difference: %v", err)
	}
	_, err = tessellate.Mesh(k, "empty", diff)
	if !errors.Is(err, kernel.ErrBooleanFailure) {
		t.Fatalf("Mesh(empty) error = %v, want ErrBooleanFailure", err)
	}
}

func TestNilSolid(t *testing.T) {
	_, err := tessellate.Mesh(newKernel(), "nil", nil)
	if !errors.Is(err, kernel.ErrBooleanFailure) {
		t.Fatalf("Mesh(nil) error = %v, want ErrBooleanFailure", err)
	}
}

func TestNoParts(t *testing.T) {
	meshes, err := tessellate.Tessellate(newKernel())
	if err != nil {
		t.Fatalf("Tessellate with no parts: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected no meshes, got %d", len(meshes))
	}
}

// fakeKernel returns canned meshes from ToMesh.
type fakeKernel struct {
	kernel.Kernel
	mesh *kernel.Mesh
}

func (k fakeKernel) ToMesh(kernel.Solid) (*kernel.Mesh, error) { return k.mesh, nil }

type fakeSolid struct{}

func (fakeSolid) BoundingBox() (min, max [3]float64) { return }

func TestMalformedMeshRejected(t *testing.T) {
	tests := []struct {
		name string
		mesh *kernel.Mesh
	}{
		{"nil", nil},
		{"no normals", &kernel.Mesh{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1, 2}}},
		{"bad index", &kernel.Mesh{Vertices: make([]float32, 9), Normals: make([]float32, 9), Indices: []uint32{0, 1, 3}}},
		{"flat", &kernel.Mesh{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Normals: make([]float32, 9), Indices: []uint32{0, 1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tessellate.Mesh(fakeKernel{mesh: tt.mesh}, tt.name, fakeSolid{})
			if !errors.Is(err, kernel.ErrBooleanFailure) {
				t.Errorf("error = %v, want ErrBooleanFailure", err)
			}
		})
	}
}

func abs(x float64) float64 {
	return math.Abs(x)
}
