package kernel

// Mesh is a triangle mesh suitable for export or rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which glyph or pair this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i uint32) Vec3 {
	j := int(i) * 3
	return Vec3{float64(m.Vertices[j]), float64(m.Vertices[j+1]), float64(m.Vertices[j+2])}
}

// Volume returns the enclosed volume of a closed, outward-oriented mesh
// (divergence theorem over its triangles).
func (m *Mesh) Volume() float64 {
	var v float64
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := m.Vertex(m.Indices[i])
		b := m.Vertex(m.Indices[i+1])
		c := m.Vertex(m.Indices[i+2])
		v += a.Dot(b.Cross(c))
	}
	return v / 6
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	first := m.Vertex(0).Array()
	min, max = first, first
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Vertex(uint32(i)).Array()
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return min, max
}
