package kernel

import (
	"fmt"
	"math"
)

// Vec3 is a point or direction in model space (millimetres).
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3      { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3      { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) float64   { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Length() float64      { return math.Sqrt(a.Dot(a)) }
func (a Vec3) Array() [3]float64    { return [3]float64{a.X, a.Y, a.Z} }
func (a Vec3) Equal(b Vec3) bool    { return a.X == b.X && a.Y == b.Y && a.Z == b.Z }
func (a Vec3) String() string       { return fmt.Sprintf("(%g,%g,%g)", a.X, a.Y, a.Z) }
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Normalize returns a unit vector along a, or the zero vector.
func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

// Mat3 is a linear map, row major.
type Mat3 [3][3]float64

// Identity returns the identity map.
func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// RotateY returns a rotation by deg degrees about the Y (vertical) axis.
// Quarter turns are exact.
func RotateY(deg float64) Mat3 {
	rad := deg * math.Pi / 180
	c, s := snap(math.Cos(rad)), snap(math.Sin(rad))
	return Mat3{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
}

// snap removes the rounding noise of sin/cos at quarter turns.
func snap(v float64) float64 {
	for _, exact := range []float64{-1, 0, 1} {
		if math.Abs(v-exact) < 1e-15 {
			return exact
		}
	}
	return v
}

// Apply returns m · v.
func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Det returns the determinant of m.
func (m Mat3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}
