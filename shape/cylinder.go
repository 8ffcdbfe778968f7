package shape

import (
	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// Cylinder is Y-aligned with flat caps at ±Height/2.
type Cylinder struct {
	Center mgl32.Vec3
	Radius float32
	Height float32
}

func NewCylinder(radius, height float32) Cylinder {
	return Cylinder{Radius: radius, Height: height}
}

func (Cylinder) Kind() Kind                { return KindCylinder }
func (Cylinder) ChildCount() int           { return 1 }
func (Cylinder) shape()                    {}
func (c Cylinder) LocalCenter() mgl32.Vec3 { return c.Center }

func (c Cylinder) Validate() error {
	return validateRound("cylinder", c.Radius, c.Height)
}

func (c Cylinder) ComputeAABB(xf geom.Transform) geom.AABB {
	return obbBounds(xf, c.Center, mgl32.Vec3{c.Radius, 0.5 * c.Height, c.Radius})
}

func (c Cylinder) ConvexInfo(xf geom.Transform, alloc *arena.BlockAllocator[mgl32.Vec3]) ConvexInfo {
	return ringInfo(KindCylinder, xf, c.Center, c.Radius, c.Height, alloc)
}

func (c Cylinder) Inertia(mass float32) mgl32.Mat3 {
	r, h := c.Radius, c.Height
	ix := mass * (3*r*r + h*h) / 12
	return mgl32.Diag3(mgl32.Vec3{ix, mass * r * r / 2, ix})
}
