package shape

import (
	"fmt"

	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
)

type Box struct {
	Center      mgl32.Vec3
	HalfExtents mgl32.Vec3
}

func NewBox(halfExtents mgl32.Vec3) Box {
	return Box{HalfExtents: halfExtents}
}

func (Box) Kind() Kind                { return KindBox }
func (Box) ChildCount() int           { return 1 }
func (Box) shape()                    {}
func (b Box) LocalCenter() mgl32.Vec3 { return b.Center }

func (b Box) Validate() error {
	h := b.HalfExtents
	if h.X() <= 0 || h.Y() <= 0 || h.Z() <= 0 {
		return fmt.Errorf("%w: box half extents %v must be positive", ErrInvalidShape, h)
	}
	return nil
}

func (b Box) ComputeAABB(xf geom.Transform) geom.AABB {
	return obbBounds(xf, b.Center, b.HalfExtents)
}

// boxCorners lists the local corners in the order the face finder relies on:
// the min corner, its three neighbours, the three far-face corners, the max corner.
var boxCorners = [8]mgl32.Vec3{
	{-1, -1, -1},
	{1, -1, -1},
	{-1, 1, -1},
	{-1, -1, 1},
	{1, 1, -1},
	{1, -1, 1},
	{-1, 1, 1},
	{1, 1, 1},
}

func (b Box) ConvexInfo(xf geom.Transform, alloc *arena.BlockAllocator[mgl32.Vec3]) ConvexInfo {
	info := ConvexInfo{
		Kind:     KindBox,
		Center:   xf.Apply(b.Center),
		HalfSize: b.HalfExtents,
		Points:   alloc.MustAllocate(8),
		Axes:     alloc.MustAllocate(3),
	}
	for i, c := range boxCorners {
		info.Points[i] = xf.Apply(b.Center.Add(geom.MulVec(c, b.HalfExtents)))
	}
	info.Axes[0] = xf.ApplyVector(geom.AxisX)
	info.Axes[1] = xf.ApplyVector(geom.AxisY)
	info.Axes[2] = xf.ApplyVector(geom.AxisZ)
	return info
}

func (b Box) Inertia(mass float32) mgl32.Mat3 {
	w, h, d := 2*b.HalfExtents.X(), 2*b.HalfExtents.Y(), 2*b.HalfExtents.Z()
	return mgl32.Diag3(mgl32.Vec3{
		mass * (h*h + d*d) / 12,
		mass * (w*w + d*d) / 12,
		mass * (w*w + h*h) / 12,
	})
}
