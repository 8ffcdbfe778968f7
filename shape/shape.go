// Package shape defines the convex primitives a fixture can carry and the
// per-query ConvexInfo snapshot the narrow phase works on.
package shape

import (
	"errors"
	"fmt"

	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// Kind is a bit flag so kind pairs can be ordered and combined.
type Kind uint8

const (
	KindSphere Kind = 1 << iota
	KindBox
	KindCylinder
	KindCapsule
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindBox:
		return "box"
	case KindCylinder:
		return "cylinder"
	case KindCapsule:
		return "capsule"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Segments is the angular tessellation of capsules and cylinders.
const Segments = 20

var ErrInvalidShape = errors.New("invalid shape")

// Shape is implemented only by Box, Sphere, Capsule and Cylinder.
type Shape interface {
	Kind() Kind
	// ChildCount is the number of broad-phase proxies the shape needs.
	ChildCount() int
	LocalCenter() mgl32.Vec3
	ComputeAABB(xf geom.Transform) geom.AABB
	// ConvexInfo snapshots the shape in world space. The caller owns the
	// returned arrays and must Release them into the same allocator.
	ConvexInfo(xf geom.Transform, alloc *arena.BlockAllocator[mgl32.Vec3]) ConvexInfo
	// Inertia is the local inertia tensor about LocalCenter for the given mass.
	Inertia(mass float32) mgl32.Mat3
	Validate() error
	shape()
}

// obbBounds returns the world AABB of a local box centered at c with the given
// half extents.
func obbBounds(xf geom.Transform, c, half mgl32.Vec3) geom.AABB {
	out := geom.EmptyAABB()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{half.X(), half.Y(), half.Z()}
		if i&1 == 0 {
			corner[0] = -corner[0]
		}
		if i&2 == 0 {
			corner[1] = -corner[1]
		}
		if i&4 == 0 {
			corner[2] = -corner[2]
		}
		out = out.Include(xf.Apply(c.Add(corner)))
	}
	return out
}
