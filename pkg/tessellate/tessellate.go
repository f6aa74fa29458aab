// Package tessellate turns named solids into triangle meshes using a
// geometry kernel. One mesh is produced per part; a part that meshes to
// nothing is a boolean failure.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'alphasq.tessellate'
func tracer() tracing.Trace {
	return tracing.Select("alphasq.tessellate")
}

// MinVolume is the smallest mesh volume (mm³) accepted as a solid.
// Tangential intersections mesh to slivers below it.
const MinVolume = 1e-6

// Part is a named solid, e.g. a glyph ("A") or a cross-shape ("A0").
type Part struct {
	Name  string
	Solid kernel.Solid
}

// Tessellate produces one triangle mesh per part using the provided
// geometry kernel. Parts are meshed in order; the first failure stops the
// walk. The tessellator never mutates the solids.
func Tessellate(k kernel.Kernel, parts ...Part) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		m, err := Mesh(k, p.Name, p.Solid)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// Mesh converts one solid and names the mesh after the part.
func Mesh(k kernel.Kernel, name string, s kernel.Solid) (*kernel.Mesh, error) {
	if s == nil {
		return nil, fmt.Errorf("tessellate: part %s: %w: no solid", name, kernel.ErrBooleanFailure)
	}
	mesh, err := k.ToMesh(s)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for part %s: %w", name, err)
	}
	if err := check(mesh); err != nil {
		return nil, fmt.Errorf("tessellate: part %s: %w", name, err)
	}
	mesh.PartName = name
	tracer().Debugf("part %s: %d triangles", name, mesh.TriangleCount())
	return mesh, nil
}

func check(m *kernel.Mesh) error {
	if m == nil || m.IsEmpty() {
		return fmt.Errorf("%w: empty mesh", kernel.ErrBooleanFailure)
	}
	if len(m.Vertices) != len(m.Normals) || len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: malformed mesh (%d vertices, %d normals, %d indices)",
			kernel.ErrBooleanFailure, len(m.Vertices), len(m.Normals), len(m.Indices))
	}
	for _, i := range m.Indices {
		if int(i) >= m.VertexCount() {
			return fmt.Errorf("%w: index %d out of range", kernel.ErrBooleanFailure, i)
		}
	}
	if v := math.Abs(m.Volume()); v < MinVolume {
		return fmt.Errorf("%w: zero-volume mesh", kernel.ErrBooleanFailure)
	}
	return nil
}
