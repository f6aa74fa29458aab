package glyph

import (
	"fmt"
	"sort"

	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/chazu/alphasquared/pkg/outline"
)

// Orientation is a named linear transform applied to a centred glyph
// before extrusion.
type Orientation struct {
	Name string
	M    kernel.Mat3
}

// Registered orientations. Quarter turns about the vertical axis make a
// glyph read along the X axis instead of the Z axis.
var (
	Identity   = Orientation{Name: "identity", M: kernel.Identity()}
	RotateY90  = Orientation{Name: "rotate-y-90", M: kernel.RotateY(90)}
	RotateY270 = Orientation{Name: "rotate-y-270", M: kernel.RotateY(270)}
)

var registry = map[string]Orientation{
	Identity.Name:   Identity,
	RotateY90.Name:  RotateY90,
	RotateY270.Name: RotateY270,
}

// LookupOrientation returns the registered orientation called name.
func LookupOrientation(name string) (Orientation, error) {
	o, ok := registry[name]
	if !ok {
		return Orientation{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownOrientation, name, OrientationNames())
	}
	return o, nil
}

// OrientationNames returns the registered names in sorted order.
func OrientationNames() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Place maps a centred glyph point to model space at extrusion height z:
// m · (x, y, z).
func Place(p outline.Point, m kernel.Mat3, z float64) kernel.Vec3 {
	return m.Apply(kernel.Vec3{X: p.X, Y: p.Y, Z: z})
}

// Depth returns the extrusion vector of a glyph of the given thickness.
func Depth(m kernel.Mat3, thickness float64) kernel.Vec3 {
	return m.Apply(kernel.Vec3{Z: thickness})
}
