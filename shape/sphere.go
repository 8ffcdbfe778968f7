package shape

import (
	"fmt"

	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
)

type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

func NewSphere(radius float32) Sphere {
	return Sphere{Radius: radius}
}

func (Sphere) Kind() Kind                { return KindSphere }
func (Sphere) ChildCount() int           { return 1 }
func (Sphere) shape()                    {}
func (s Sphere) LocalCenter() mgl32.Vec3 { return s.Center }

func (s Sphere) Validate() error {
	if s.Radius <= 0 {
		return fmt.Errorf("%w: sphere radius %v must be positive", ErrInvalidShape, s.Radius)
	}
	return nil
}

func (s Sphere) ComputeAABB(xf geom.Transform) geom.AABB {
	c := xf.Apply(s.Center)
	r := mgl32.Vec3{s.Radius, s.Radius, s.Radius}
	return geom.AABB{Lower: c.Sub(r), Upper: c.Add(r)}
}

func (s Sphere) ConvexInfo(xf geom.Transform, _ *arena.BlockAllocator[mgl32.Vec3]) ConvexInfo {
	return ConvexInfo{
		Kind:   KindSphere,
		Center: xf.Apply(s.Center),
		Radius: s.Radius,
	}
}

func (s Sphere) Inertia(mass float32) mgl32.Mat3 {
	v := 0.4 * mass * s.Radius * s.Radius
	return mgl32.Diag3(mgl32.Vec3{v, v, v})
}
