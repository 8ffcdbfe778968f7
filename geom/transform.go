package geom

import "github.com/go-gl/mathgl/mgl32"

// Transform places a body in world space.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

func IdentityTransform() Transform {
	return Transform{Rotation: mgl32.QuatIdent()}
}

func NewTransform(pos mgl32.Vec3, rot mgl32.Quat) Transform {
	return Transform{Position: pos, Rotation: rot}
}

// Apply maps a local point to world space.
func (t Transform) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Position)
}

// ApplyVector rotates a local direction into world space.
func (t Transform) ApplyVector(v mgl32.Vec3) mgl32.Vec3 {
	return t.Rotation.Rotate(v)
}

// InverseApply maps a world point into local space.
func (t Transform) InverseApply(p mgl32.Vec3) mgl32.Vec3 {
	return t.Rotation.Conjugate().Rotate(p.Sub(t.Position))
}

func (t Transform) RotationMatrix() mgl32.Mat3 {
	return t.Rotation.Mat4().Mat3()
}

func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).Mul4(t.Rotation.Mat4())
}
