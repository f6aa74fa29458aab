package sdfx

import (
	"math"

	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// placement returns the rigid transform taking frame coordinates to
// model space: the frame axes are its columns, the origin its translation.
func placement(f kernel.Frame) sdf.M44 {
	return sdf.M44{
		f.U.X, f.V.X, f.N.X, f.Origin.X,
		f.U.Y, f.V.Y, f.N.Y, f.Origin.Y,
		f.U.Z, f.V.Z, f.N.Z, f.Origin.Z,
		0, 0, 0, 1,
	}
}

// boundedSDF3 overrides the bounding box of an SDF3. sdf.Intersect3D
// reports the box of its first operand, which is loose.
type boundedSDF3 struct {
	sdf.SDF3
	bb sdf.Box3
}

func (s *boundedSDF3) BoundingBox() sdf.Box3 {
	return s.bb
}

func box3(min, max [3]float64) sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{X: min[0], Y: min[1], Z: min[2]},
		Max: v3.Vec{X: max[0], Y: max[1], Z: max[2]},
	}
}

func boxArrays(bb sdf.Box3) (min, max [3]float64) {
	return [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}, [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
}

// intersectBoxes returns the overlap of two boxes; ok is false when they
// do not overlap with positive volume.
func intersectBoxes(a, b sdf.Box3) (sdf.Box3, bool) {
	amin, amax := boxArrays(a)
	bmin, bmax := boxArrays(b)
	var min, max [3]float64
	for k := 0; k < 3; k++ {
		min[k] = math.Max(amin[k], bmin[k])
		max[k] = math.Min(amax[k], bmax[k])
	}
	return box3(min, max), !kernel.BoxEmpty(min, max)
}
