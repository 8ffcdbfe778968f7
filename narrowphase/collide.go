package narrowphase

import (
	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/gekko3d/rigid/shape"
	"github.com/go-gl/mathgl/mgl32"
)

type pairKey uint16

func keyOf(a, b shape.Kind) pairKey {
	return pairKey(a)<<8 | pairKey(b)
}

const (
	sphereSphere     = pairKey(shape.KindSphere)<<8 | pairKey(shape.KindSphere)
	sphereBox        = pairKey(shape.KindSphere)<<8 | pairKey(shape.KindBox)
	sphereCylinder   = pairKey(shape.KindSphere)<<8 | pairKey(shape.KindCylinder)
	sphereCapsule    = pairKey(shape.KindSphere)<<8 | pairKey(shape.KindCapsule)
	boxBox           = pairKey(shape.KindBox)<<8 | pairKey(shape.KindBox)
	boxCylinder      = pairKey(shape.KindBox)<<8 | pairKey(shape.KindCylinder)
	boxCapsule       = pairKey(shape.KindBox)<<8 | pairKey(shape.KindCapsule)
	cylinderCylinder = pairKey(shape.KindCylinder)<<8 | pairKey(shape.KindCylinder)
	cylinderCapsule  = pairKey(shape.KindCylinder)<<8 | pairKey(shape.KindCapsule)
	capsuleCapsule   = pairKey(shape.KindCapsule)<<8 | pairKey(shape.KindCapsule)
)

// Evaluate fills m with the contacts between shape a at xfA and shape b at xfB.
// A sensor pair only learns whether the shapes overlap and gets a single empty
// point. Shapes may be passed in any kind order; the manifold always refers to
// a as A.
func Evaluate(m *Manifold, a, b shape.Shape, xfA, xfB geom.Transform, sensor bool, ar *arena.Arena) {
	m.Reset()
	if a.Kind() > b.Kind() {
		Evaluate(m, b, a, xfB, xfA, sensor, ar)
		m.flip()
		return
	}

	infoA := a.ConvexInfo(xfA, ar.Points)
	infoB := b.ConvexInfo(xfB, ar.Points)
	defer infoA.Release(ar.Points)
	defer infoB.Release(ar.Points)

	var s Simplex
	if !GJK(&infoA, &infoB, &s) {
		return
	}
	if sensor {
		m.Add(ManifoldPoint{})
		return
	}
	pen, ok := EPA(&infoA, &infoB, &s, ar)
	if !ok {
		return
	}
	buildManifold(m, &infoA, &infoB, pen)
}

func buildManifold(m *Manifold, a, b *shape.ConvexInfo, pen Penetration) {
	switch keyOf(a.Kind, b.Kind) {
	case sphereSphere, sphereBox, sphereCylinder, sphereCapsule:
		surfacePointA(m, a.Center, a.Radius, pen)
	case boxBox:
		clipFaces(m, a, b, boxFace, boxFace, pen)
	case boxCylinder:
		clipFaces(m, a, b, boxFace, cylinderFace, pen)
	case cylinderCylinder:
		clipFaces(m, a, b, cylinderFace, cylinderFace, pen)
	case boxCapsule:
		capsuleAgainst(m, a, b, boxFace, pen)
	case cylinderCapsule:
		capsuleAgainst(m, a, b, cylinderFace, pen)
	case capsuleCapsule:
		if a.HemisphereFacing(pen.Normal) {
			hc := hemisphereCenter(a, a.Axis().Dot(pen.Normal) > 0)
			surfacePointA(m, hc, a.Radius, pen)
			return
		}
		capsuleAgainst(m, a, b, capsuleFace, pen)
	default:
		panic("narrowphase: unhandled shape pair " + a.Kind.String() + "/" + b.Kind.String())
	}
}

type faceFunc func(f *face, info *shape.ConvexInfo, normal mgl32.Vec3)

// surfacePointA places a single contact on a sphere of radius r around c,
// the rounded part of shape A.
func surfacePointA(m *Manifold, c mgl32.Vec3, r float32, pen Penetration) {
	pa := c.Add(pen.Normal.Mul(r))
	m.Add(ManifoldPoint{
		PointA:     pa,
		PointB:     pa.Sub(pen.Normal.Mul(pen.Depth)),
		Normal:     pen.Normal,
		Separation: pen.Depth,
	})
}

// surfacePointB is surfacePointA for a rounded shape B.
func surfacePointB(m *Manifold, c mgl32.Vec3, r float32, pen Penetration) {
	pb := c.Sub(pen.Normal.Mul(r))
	m.Add(ManifoldPoint{
		PointA:     pb.Add(pen.Normal.Mul(pen.Depth)),
		PointB:     pb,
		Normal:     pen.Normal,
		Separation: pen.Depth,
	})
}

// hemisphereCenter is the center of the capsule cap on the positive axis side
// when top is set, otherwise of the opposite cap.
func hemisphereCenter(capsule *shape.ConvexInfo, top bool) mgl32.Vec3 {
	off := capsule.Axis().Mul(0.5 * capsule.Height)
	if top {
		return capsule.Center.Add(off)
	}
	return capsule.Center.Sub(off)
}

// capsuleAgainst handles a capsule B touching A: a cap contact when B's
// rounded end faces A, otherwise clipping against the capsule side.
func capsuleAgainst(m *Manifold, a, b *shape.ConvexInfo, refFace faceFunc, pen Penetration) {
	back := pen.Normal.Mul(-1)
	if b.HemisphereFacing(back) {
		hc := hemisphereCenter(b, b.Axis().Dot(pen.Normal) < 0)
		surfacePointB(m, hc, b.Radius, pen)
		return
	}
	clipFaces(m, a, b, refFace, capsuleFace, pen)
}

func clipFaces(m *Manifold, a, b *shape.ConvexInfo, refFace, incFace faceFunc, pen Penetration) {
	var ref, inc face
	var poly polygon
	refFace(&ref, a, pen.Normal)
	incFace(&inc, b, pen.Normal.Mul(-1))
	contactPolygon(&poly, &ref, &inc)
	pointsFromPolygon(m, &ref, &poly, pen)
}
