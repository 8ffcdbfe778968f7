// Package geom holds the small vector, box and transform helpers shared by
// the shape, broad-phase and narrow-phase packages.
package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const Epsilon = 1e-8

var (
	AxisX = mgl32.Vec3{1, 0, 0}
	AxisY = mgl32.Vec3{0, 1, 0}
	AxisZ = mgl32.Vec3{0, 0, 1}
)

// Normalize returns the unit vector along v, or the zero vector when v is
// too short to have a direction.
func Normalize(v mgl32.Vec3) mgl32.Vec3 {
	l2 := v.LenSqr()
	if l2 < Epsilon*Epsilon {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / math32.Sqrt(l2))
}

func MinVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Min(a[0], b[0]), math32.Min(a[1], b[1]), math32.Min(a[2], b[2])}
}

func MaxVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Max(a[0], b[0]), math32.Max(a[1], b[1]), math32.Max(a[2], b[2])}
}

// MulVec multiplies component-wise.
func MulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func IsFinite(v mgl32.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Parallel reports whether a and b have a zero cross product.
func Parallel(a, b mgl32.Vec3) bool {
	return a.Cross(b).LenSqr() == 0
}
