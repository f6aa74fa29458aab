// Package export writes meshes to files named after their part.
//
// Every file is written to a temporary path in the target directory and
// renamed into place once complete, so an interrupted batch never leaves
// a partial artifact behind.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'alphasq.export'
func tracer() tracing.Trace {
	return tracing.Select("alphasq.export")
}

// ErrUnsupportedFormat is returned for output formats no writer exists for.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// Format is an output file format, used as the file extension.
type Format string

const (
	STL  Format = "stl"
	JSON Format = "json"
	// STEP needs boundary-representation geometry, which mesh-based
	// kernels cannot provide. It is recognised so that it can be refused
	// with a clear error.
	STEP Format = "step"
)

// ParseFormat maps a user-supplied name (case-insensitive, optional
// leading dot or colon) to a supported format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimLeft(s, ".:")))
	switch f {
	case STL, JSON:
		return f, nil
	case STEP:
		return "", fmt.Errorf("%w: %s (no B-rep kernel available)", ErrUnsupportedFormat, f)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Exporter hands finished meshes to the outside world.
type Exporter interface {
	// Export writes m under name and returns where it went.
	Export(name string, m *kernel.Mesh) (string, error)
}

// FileExporter writes one file per mesh into a directory.
type FileExporter struct {
	dir    string
	format Format
}

// Compile-time interface check.
var _ Exporter = (*FileExporter)(nil)

// NewFileExporter creates dir if needed and returns an exporter writing
// files of the given format into it.
func NewFileExporter(dir string, format Format) (*FileExporter, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create output directory: %w", err)
	}
	return &FileExporter{dir: dir, format: format}, nil
}

// Dir returns the output directory.
func (e *FileExporter) Dir() string {
	return e.dir
}

// Path returns the file path used for name.
func (e *FileExporter) Path(name string) string {
	return filepath.Join(e.dir, name+"."+string(e.format))
}

// Export writes m to <dir>/<name>.<format> atomically.
func (e *FileExporter) Export(name string, m *kernel.Mesh) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("export: invalid part name %q", name)
	}
	if m == nil || m.IsEmpty() {
		return "", fmt.Errorf("export: %s: %w: empty mesh", name, kernel.ErrBooleanFailure)
	}

	tmp, err := os.CreateTemp(e.dir, "."+name+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("export: %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath) // no-op after a successful rename

	switch e.format {
	case STL:
		err = writeSTL(tmpPath, m)
	case JSON:
		err = writeJSON(tmpPath, m)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, e.format)
	}
	if err != nil {
		return "", fmt.Errorf("export: %s: %w", name, err)
	}

	path := e.Path(name)
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("export: %s: %w", name, err)
	}
	tracer().Debugf("wrote %s (%d triangles)", path, m.TriangleCount())
	return path, nil
}

// writeSTL writes a binary STL through the sdfx STL writer.
func writeSTL(path string, m *kernel.Mesh) error {
	tris := make([]*sdf.Triangle3, 0, m.TriangleCount())
	vec := func(i uint32) v3.Vec {
		p := m.Vertex(i)
		return v3.Vec{X: p.X, Y: p.Y, Z: p.Z}
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		tris = append(tris, &sdf.Triangle3{vec(m.Indices[i]), vec(m.Indices[i+1]), vec(m.Indices[i+2])})
	}
	return render.SaveSTL(path, tris)
}

// writeJSON writes the mesh in its JSON wire format.
func writeJSON(path string, m *kernel.Mesh) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
