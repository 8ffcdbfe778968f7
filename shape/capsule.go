package shape

import (
	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// Capsule is a Y-aligned cylinder of the given Height capped by two
// hemispheres. Its total extent along Y is Height + 2*Radius.
type Capsule struct {
	Center mgl32.Vec3
	Radius float32
	Height float32
}

func NewCapsule(radius, height float32) Capsule {
	return Capsule{Radius: radius, Height: height}
}

func (Capsule) Kind() Kind                { return KindCapsule }
func (Capsule) ChildCount() int           { return 1 }
func (Capsule) shape()                    {}
func (c Capsule) LocalCenter() mgl32.Vec3 { return c.Center }

func (c Capsule) Validate() error {
	return validateRound("capsule", c.Radius, c.Height)
}

func (c Capsule) ComputeAABB(xf geom.Transform) geom.AABB {
	return obbBounds(xf, c.Center, mgl32.Vec3{c.Radius, 0.5*c.Height + c.Radius, c.Radius})
}

func (c Capsule) ConvexInfo(xf geom.Transform, alloc *arena.BlockAllocator[mgl32.Vec3]) ConvexInfo {
	return ringInfo(KindCapsule, xf, c.Center, c.Radius, c.Height, alloc)
}

// Inertia splits the mass 3:1 between the cylinder and the two caps and
// shifts each hemisphere to its centroid.
func (c Capsule) Inertia(mass float32) mgl32.Mat3 {
	r, h := c.Radius, c.Height
	mc := 0.75 * mass
	mh := 0.125 * mass
	iy := mc*r*r/2 + 2*(0.4*mh*r*r)
	ix := mc*(3*r*r+h*h)/12 + 2*mh*(0.4*r*r+h*h/4+3*h*r/8)
	return mgl32.Diag3(mgl32.Vec3{ix, iy, ix})
}
