package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type AABB struct {
	Lower mgl32.Vec3
	Upper mgl32.Vec3
}

// EmptyAABB is inverted so that combining it with any box yields that box.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Lower: mgl32.Vec3{inf, inf, inf},
		Upper: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (a AABB) IsValid() bool {
	d := a.Upper.Sub(a.Lower)
	return d.X() >= 0 && d.Y() >= 0 && d.Z() >= 0
}

func (a AABB) Center() mgl32.Vec3 {
	return a.Lower.Add(a.Upper).Mul(0.5)
}

func (a AABB) Extents() mgl32.Vec3 {
	return a.Upper.Sub(a.Lower).Mul(0.5)
}

// Surface is the box surface area, used as the insertion cost metric.
func (a AABB) Surface() float32 {
	d := a.Upper.Sub(a.Lower)
	return 2 * (d.X()*d.Y() + d.Y()*d.Z() + d.Z()*d.X())
}

func (a AABB) Combine(b AABB) AABB {
	return AABB{
		Lower: MinVec(a.Lower, b.Lower),
		Upper: MaxVec(a.Upper, b.Upper),
	}
}

// Contains reports whether b lies entirely inside a.
func (a AABB) Contains(b AABB) bool {
	for i := 0; i < 3; i++ {
		if a.Lower[i] > b.Lower[i] || b.Upper[i] > a.Upper[i] {
			return false
		}
	}
	return true
}

func (a AABB) Overlaps(b AABB) bool {
	d1 := b.Lower.Sub(a.Upper)
	d2 := a.Lower.Sub(b.Upper)
	for i := 0; i < 3; i++ {
		if d1[i] > 0 || d2[i] > 0 {
			return false
		}
	}
	return true
}

func (a AABB) Expand(margin float32) AABB {
	r := mgl32.Vec3{margin, margin, margin}
	return AABB{Lower: a.Lower.Sub(r), Upper: a.Upper.Add(r)}
}

// Extend stretches the box along d on each axis, leaving the opposite face fixed.
func (a AABB) Extend(d mgl32.Vec3) AABB {
	out := a
	for i := 0; i < 3; i++ {
		if d[i] < 0 {
			out.Lower[i] += d[i]
		} else {
			out.Upper[i] += d[i]
		}
	}
	return out
}

// Include grows the box to contain p.
func (a AABB) Include(p mgl32.Vec3) AABB {
	return AABB{Lower: MinVec(a.Lower, p), Upper: MaxVec(a.Upper, p)}
}
