package glyph

import (
	"errors"
	"fmt"

	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/chazu/alphasquared/pkg/outline"
)

// ContourError records a contour that was left out of a glyph.
type ContourError struct {
	Index int
	Err   error
}

func (e ContourError) Error() string {
	return fmt.Sprintf("contour %d: %v", e.Index, e.Err)
}

func (e ContourError) Unwrap() error {
	return e.Err
}

// BuildReport describes how a net solid was assembled.
type BuildReport struct {
	Rune          rune
	Orientation   string
	Contours      int
	Faces         int
	DroppedCurves int
	Skipped       []ContourError
}

// Builder turns outlines into net solids of a fixed thickness.
type Builder struct {
	k         kernel.Kernel
	thickness float64
}

// NewBuilder returns a builder extruding glyphs by thickness millimetres.
func NewBuilder(k kernel.Kernel, thickness float64) *Builder {
	return &Builder{k: k, thickness: thickness}
}

// Thickness returns the extrusion thickness.
func (b *Builder) Thickness() float64 {
	return b.thickness
}

// Build centres o, places it by orient and returns its net solid.
//
// Each contour becomes its own prism between z = -thickness/2 and
// z = +thickness/2 (before orientation). Prisms are folded with
// xor(a, b) = (a ∪ b) − (a ∩ b), which turns nested contours into holes
// without looking at winding. Contours that cannot bound a face are
// skipped and listed in the report.
func (b *Builder) Build(o *outline.Outline, orient Orientation) (kernel.Solid, *BuildReport, error) {
	centred := outline.Center(o)
	report := &BuildReport{
		Rune:        o.Rune,
		Orientation: orient.Name,
		Contours:    len(centred.Contours),
	}

	var faces []kernel.Face
	var kept []outline.Contour
	for i, c := range centred.Contours {
		edges, dropped, err := CompileContour(c, orient.M, -b.thickness/2)
		report.DroppedCurves += dropped
		if err == nil {
			var f kernel.Face
			if f, err = AssembleFace(b.k, edges); err == nil {
				faces = append(faces, f)
				kept = append(kept, c)
				continue
			}
		}
		report.Skipped = append(report.Skipped, ContourError{Index: i, Err: err})
		tracer().Infof("%q/%s: skipping contour %d: %v", o.Rune, orient.Name, i, err)
	}
	report.Faces = len(faces)
	if len(faces) == 0 {
		return nil, report, fmt.Errorf("%w: %q", ErrEmptyGlyph, o.Rune)
	}
	if err := CheckTopology(kept); err != nil {
		return nil, report, fmt.Errorf("%q: %w", o.Rune, err)
	}

	depth := Depth(orient.M, b.thickness)
	var net kernel.Solid
	for i, f := range faces {
		prism, err := b.k.Extrude(f, depth)
		if err != nil {
			return nil, report, foldError(o.Rune, i, err)
		}
		if net == nil {
			net = prism
			continue
		}
		if net, err = xor(b.k, net, prism); err != nil {
			return nil, report, foldError(o.Rune, i, err)
		}
	}
	if err := checkMaterial(b.k, net); err != nil {
		return nil, report, fmt.Errorf("%q: %w", o.Rune, err)
	}
	tracer().Debugf("%q/%s: %d faces, %d dropped curves", o.Rune, orient.Name, report.Faces, report.DroppedCurves)
	return net, report, nil
}

// checkMaterial fails with ErrBooleanFailure when the kernel can tell that
// s holds nothing. Kernels that cannot tell pass every solid.
func checkMaterial(k kernel.Kernel, s kernel.Solid) error {
	p, ok := k.(kernel.Prober)
	if !ok {
		return nil
	}
	empty, err := p.Empty(s)
	if err != nil {
		return err
	}
	if empty {
		return fmt.Errorf("%w: result holds no material", kernel.ErrBooleanFailure)
	}
	return nil
}

func foldError(r rune, step int, err error) error {
	if errors.Is(err, kernel.ErrBooleanFailure) {
		return fmt.Errorf("%q: fold step %d: %w", r, step, err)
	}
	return fmt.Errorf("%w: %q: fold step %d: %w", kernel.ErrBooleanFailure, r, step, err)
}

// xor returns (a ∪ b) − (a ∩ b). Solids with disjoint boxes do not
// intersect, so their XOR is their union.
func xor(k kernel.Kernel, a, b kernel.Solid) (kernel.Solid, error) {
	u, err := k.Union(a, b)
	if err != nil {
		return nil, err
	}
	if !boxesOverlap(a, b) {
		return u, nil
	}
	i, err := k.Intersection(a, b)
	if err != nil {
		return nil, err
	}
	return k.Difference(u, i)
}

func boxesOverlap(a, b kernel.Solid) bool {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	for i := 0; i < 3; i++ {
		if amax[i] <= bmin[i] || bmax[i] <= amin[i] {
			return false
		}
	}
	return true
}

// Cross returns the cross-shape a ∩ b of two net solids. Neither input is
// modified, so both stay usable for further pairs.
func Cross(k kernel.Kernel, a, b kernel.Solid) (kernel.Solid, error) {
	s, err := k.Intersection(a, b)
	if err == nil {
		err = checkMaterial(k, s)
	}
	if err == nil {
		return s, nil
	}
	if errors.Is(err, kernel.ErrBooleanFailure) {
		return nil, fmt.Errorf("cross: %w", err)
	}
	return nil, fmt.Errorf("%w: cross: %w", kernel.ErrBooleanFailure, err)
}
