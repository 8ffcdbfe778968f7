package shape

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// ringInfo tessellates the side of a Y-aligned round shape. Points hold the
// top ring then the bottom ring; Axes[0] is the long axis and Axes[i+1] is the
// outward normal of the side face spanning ring points i and i+1.
func ringInfo(kind Kind, xf geom.Transform, center mgl32.Vec3, radius, height float32, alloc *arena.BlockAllocator[mgl32.Vec3]) ConvexInfo {
	info := ConvexInfo{
		Kind:   kind,
		Center: xf.Apply(center),
		Radius: radius,
		Height: height,
		Points: alloc.MustAllocate(2 * Segments),
		Axes:   alloc.MustAllocate(Segments + 1),
	}
	step := 2 * math32.Pi / Segments
	half := 0.5 * height
	for i := 0; i < Segments; i++ {
		theta := float32(i) * step
		dir := mgl32.Vec3{math32.Cos(theta), 0, -math32.Sin(theta)}.Mul(radius)
		info.Points[i] = xf.Apply(center.Add(mgl32.Vec3{0, half, 0}).Add(dir))
		info.Points[i+Segments] = xf.Apply(center.Add(mgl32.Vec3{0, -half, 0}).Add(dir))

		mid := theta + 0.5*step
		info.Axes[i+1] = xf.ApplyVector(mgl32.Vec3{math32.Cos(mid), 0, -math32.Sin(mid)})
	}
	info.Axes[0] = xf.ApplyVector(geom.AxisY)
	return info
}

func validateRound(name string, radius, height float32) error {
	if radius <= 0 || height <= 0 {
		return fmt.Errorf("%w: %s radius %v and height %v must be positive", ErrInvalidShape, name, radius, height)
	}
	return nil
}
