package shape

import (
	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
)

const hemisphereEpsilon = 1e-4

// ConvexInfo is a world-space snapshot of a shape for one narrow-phase query.
//
// Box: 8 corner points, 3 unit axes, HalfSize.
// Capsule and cylinder: Segments points on the top ring followed by Segments
// on the bottom ring; Axes[0] is the long axis and Axes[1:] are the side face
// normals, Axes[i] lying between Points[i-1] and Points[i%Segments].
// Sphere: Center and Radius only.
type ConvexInfo struct {
	Kind     Kind
	Center   mgl32.Vec3
	Points   []mgl32.Vec3
	Axes     []mgl32.Vec3
	HalfSize mgl32.Vec3
	Radius   float32
	Height   float32
}

// Release returns the point and axis arrays to alloc. Calling it twice is a no-op.
func (c *ConvexInfo) Release(alloc *arena.BlockAllocator[mgl32.Vec3]) {
	if c.Points != nil {
		alloc.Free(c.Points)
		c.Points = nil
	}
	if c.Axes != nil {
		alloc.Free(c.Axes)
		c.Axes = nil
	}
}

// Axis is the long axis of a capsule or cylinder.
func (c *ConvexInfo) Axis() mgl32.Vec3 {
	return c.Axes[0]
}

// Support returns the point of the shape furthest along dir.
func (c *ConvexInfo) Support(dir mgl32.Vec3) mgl32.Vec3 {
	switch c.Kind {
	case KindSphere:
		return c.Center.Add(geom.Normalize(dir).Mul(c.Radius))
	case KindBox:
		p := c.Center
		for i := 0; i < 3; i++ {
			s := float32(-1)
			if c.Axes[i].Dot(dir) > 0 {
				s = 1
			}
			p = p.Add(c.Axes[i].Mul(s * c.HalfSize[i]))
		}
		return p
	case KindCapsule:
		axis := c.Axes[0]
		tip := axis.Mul(0.5 * c.Height)
		if dir.Dot(axis) < 0 {
			tip = tip.Mul(-1)
		}
		return c.Center.Add(tip).Add(geom.Normalize(dir).Mul(c.Radius))
	case KindCylinder:
		axis := c.Axes[0]
		along := dir.Dot(axis)
		radial := dir.Sub(axis.Mul(along))
		if radial.LenSqr() > geom.Epsilon*dir.LenSqr() {
			best, bestDot := 0, c.Points[0].Dot(dir)
			for i := 1; i < Segments; i++ {
				if d := c.Points[i].Dot(dir); d > bestDot {
					best, bestDot = i, d
				}
			}
			if along < 0 {
				best += Segments
			}
			return c.Points[best]
		}
		if along < 0 {
			return c.Center.Sub(axis.Mul(0.5 * c.Height))
		}
		return c.Center.Add(axis.Mul(0.5 * c.Height))
	}
	return c.Center
}

// HemisphereFacing reports whether dir reaches a capsule's rounded cap rather
// than exactly its cylindrical side.
func (c *ConvexInfo) HemisphereFacing(dir mgl32.Vec3) bool {
	d := c.Axes[0].Dot(dir)
	return d > hemisphereEpsilon || d < -hemisphereEpsilon
}
