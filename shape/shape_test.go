package shape

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allShapes() []Shape {
	return []Shape{
		NewSphere(0.75),
		NewBox(mgl32.Vec3{0.5, 1, 1.5}),
		NewCapsule(0.4, 1.2),
		NewCylinder(0.6, 2),
		Box{Center: mgl32.Vec3{0.2, 0, -0.3}, HalfExtents: mgl32.Vec3{1, 1, 1}},
	}
}

func testDirections() []mgl32.Vec3 {
	dirs := []mgl32.Vec3{geom.AxisX, geom.AxisY, geom.AxisZ, geom.AxisX.Mul(-1), geom.AxisY.Mul(-1), geom.AxisZ.Mul(-1)}
	for i := 0; i < 24; i++ {
		a := float32(i) * 0.7
		dirs = append(dirs, mgl32.Vec3{math32.Cos(a), math32.Sin(1.3 * a), math32.Sin(a)})
	}
	return dirs
}

func TestSupportInsideAABB(t *testing.T) {
	alloc := arena.NewBlockAllocator[mgl32.Vec3]()
	xf := geom.NewTransform(mgl32.Vec3{1, -2, 3}, mgl32.QuatRotate(0.6, geom.Normalize(mgl32.Vec3{1, 1, 0})))

	for _, s := range allShapes() {
		box := s.ComputeAABB(xf).Expand(1e-4)
		info := s.ConvexInfo(xf, alloc)
		for _, d := range testDirections() {
			p := info.Support(d)
			assert.True(t, box.Contains(geom.AABB{Lower: p, Upper: p}), "%s support %v outside %v", s.Kind(), p, box)
		}
		info.Release(alloc)
	}
	assert.Equal(t, 0, alloc.Live())
}

func TestSupportIsExtremal(t *testing.T) {
	alloc := arena.NewBlockAllocator[mgl32.Vec3]()
	xf := geom.NewTransform(mgl32.Vec3{0, 1, 0}, mgl32.QuatRotate(0.3, geom.AxisZ))

	for _, s := range []Shape{NewBox(mgl32.Vec3{1, 2, 3}), NewCylinder(1, 2)} {
		info := s.ConvexInfo(xf, alloc)
		for _, d := range testDirections() {
			best := info.Support(d).Dot(d)
			for _, p := range info.Points {
				assert.LessOrEqual(t, p.Dot(d), best+1e-4, "%s direction %v", s.Kind(), d)
			}
		}
		info.Release(alloc)
	}
}

func TestSphereSupport(t *testing.T) {
	info := NewSphere(2).ConvexInfo(geom.NewTransform(mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent()), nil)
	p := info.Support(mgl32.Vec3{0, 5, 0})
	assert.True(t, p.ApproxEqualThreshold(mgl32.Vec3{1, 2, 0}, 1e-6))
	assert.Nil(t, info.Points)
}

func TestCapsuleSupportAndAABB(t *testing.T) {
	alloc := arena.NewBlockAllocator[mgl32.Vec3]()
	c := NewCapsule(0.5, 2)
	info := c.ConvexInfo(geom.IdentityTransform(), alloc)
	defer info.Release(alloc)

	top := info.Support(geom.AxisY)
	assert.InDelta(t, 1.5, top.Y(), 1e-5)
	bottom := info.Support(geom.AxisY.Mul(-1))
	assert.InDelta(t, -1.5, bottom.Y(), 1e-5)

	box := c.ComputeAABB(geom.IdentityTransform())
	assert.InDelta(t, 1.5, box.Upper.Y(), 1e-5)
	assert.InDelta(t, -0.5, box.Lower.X(), 1e-5)

	assert.True(t, info.HemisphereFacing(mgl32.Vec3{0.3, 0.1, 0}))
	assert.False(t, info.HemisphereFacing(geom.AxisX))
}

func TestRingLayout(t *testing.T) {
	alloc := arena.NewBlockAllocator[mgl32.Vec3]()
	info := NewCylinder(1, 2).ConvexInfo(geom.IdentityTransform(), alloc)
	defer info.Release(alloc)

	require.Len(t, info.Points, 2*Segments)
	require.Len(t, info.Axes, Segments+1)
	assert.True(t, info.Points[0].ApproxEqualThreshold(mgl32.Vec3{1, 1, 0}, 1e-6))
	assert.True(t, info.Points[Segments].ApproxEqualThreshold(mgl32.Vec3{1, -1, 0}, 1e-6))
	assert.Equal(t, geom.AxisY, info.Axis())

	for i := 1; i <= Segments; i++ {
		a, b := info.Points[i-1], info.Points[i%Segments]
		mid := a.Add(b).Mul(0.5)
		n := info.Axes[i]
		assert.InDelta(t, 1, n.Len(), 1e-5)
		assert.Greater(t, n.Dot(mid), float32(0.9), "side normal %d points outward", i)
		assert.InDelta(t, 0, n.Dot(b.Sub(a)), 1e-5)
	}
}

func TestInertia(t *testing.T) {
	box := NewBox(mgl32.Vec3{0.5, 1, 1.5}).Inertia(12)
	assert.InDelta(t, 2*2+3*3, box.At(0, 0), 1e-5)
	assert.InDelta(t, 1+3*3, box.At(1, 1), 1e-5)
	assert.InDelta(t, 1+2*2, box.At(2, 2), 1e-5)
	assert.Equal(t, float32(0), box.At(0, 1))

	sphere := NewSphere(2).Inertia(5)
	assert.InDelta(t, 8, sphere.At(2, 2), 1e-5)

	cyl := NewCylinder(1, 2).Inertia(12)
	assert.InDelta(t, 3+4, cyl.At(0, 0), 1e-5)
	assert.InDelta(t, 6, cyl.At(1, 1), 1e-5)

	// A capsule must be harder to spin about X than its bare cylinder.
	ci := NewCapsule(1, 2).Inertia(12)
	assert.Greater(t, ci.At(0, 0), float32(0.75*7))
	assert.InDelta(t, ci.At(0, 0), ci.At(2, 2), 1e-6)
}

func TestValidate(t *testing.T) {
	for _, s := range allShapes() {
		assert.NoError(t, s.Validate(), s.Kind().String())
	}
	bad := []Shape{
		NewSphere(0),
		NewBox(mgl32.Vec3{1, 0, 1}),
		NewCapsule(-1, 1),
		NewCylinder(1, 0),
	}
	for _, s := range bad {
		err := s.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidShape))
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "capsule", KindCapsule.String())
	assert.Equal(t, "kind(3)", Kind(3).String())
}
