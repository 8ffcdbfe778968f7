package narrowphase

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/geom"
	"github.com/gekko3d/rigid/shape"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/slices"
)

const maxPolygonPoints = 2*shape.Segments + 8

// face is a planar feature of a shape: its vertices sorted clockwise around
// normal and the plane offset along normal.
type face struct {
	vertices [shape.Segments]mgl32.Vec3
	count    int
	normal   mgl32.Vec3
	distance float32
}

func (f *face) slice() []mgl32.Vec3 {
	return f.vertices[:f.count]
}

// polygon is the contact region being clipped, with a scratch buffer for the
// clipper's output.
type polygon struct {
	points [maxPolygonPoints]mgl32.Vec3
	buffer [maxPolygonPoints]mgl32.Vec3
	count  int
}

func (p *polygon) slice() []mgl32.Vec3 {
	return p.points[:p.count]
}

// sortClockwise orders vertices by descending angle around center, measured in
// a plane basis (u, v) with u × v = normal.
func sortClockwise(vertices []mgl32.Vec3, center, normal mgl32.Vec3) {
	u := normal.Cross(geom.AxisX)
	if u.Len() < 1e-6 {
		u = normal.Cross(geom.AxisY)
	}
	u = geom.Normalize(u)
	v := geom.Normalize(normal.Cross(u))

	angle := func(p mgl32.Vec3) float32 {
		d := p.Sub(center)
		return math32.Atan2(d.Dot(v), d.Dot(u))
	}
	slices.SortFunc(vertices, func(a, b mgl32.Vec3) int {
		aa, ab := angle(a), angle(b)
		switch {
		case aa > ab:
			return -1
		case aa < ab:
			return 1
		}
		return 0
	})
}

// boxFace picks the box face whose outward axis is closest to normal.
func boxFace(f *face, box *shape.ConvexInfo, normal mgl32.Vec3) {
	best, bestDot := mgl32.Vec3{}, math32.Inf(-1)
	for i := 0; i < 3; i++ {
		for _, axis := range [2]mgl32.Vec3{box.Axes[i].Mul(-1), box.Axes[i]} {
			if d := axis.Dot(normal); d > bestDot {
				best, bestDot = axis, d
			}
		}
	}

	centerDot := box.Center.Dot(best)
	var center mgl32.Vec3
	f.count = 0
	for _, p := range box.Points {
		if p.Dot(best) > centerDot {
			f.vertices[f.count] = p
			f.count++
			center = center.Add(p)
		}
	}
	center = center.Mul(1 / float32(f.count))
	f.normal = best
	f.distance = best.Dot(f.vertices[0])
	sortClockwise(f.slice(), center, f.normal)
}

// cylinderFace picks a cap when normal is steeper than the rim, otherwise the
// side quad facing normal.
func cylinderFace(f *face, cyl *shape.ConvexInfo, normal mgl32.Vec3) {
	axis := cyl.Axis()
	along := normal.Dot(axis)
	limit := axis.Dot(geom.Normalize(cyl.Points[0].Sub(cyl.Center)))

	var center mgl32.Vec3
	switch {
	case along > limit:
		f.count = copy(f.vertices[:], cyl.Points[:shape.Segments])
		center = cyl.Center.Add(axis.Mul(0.5 * cyl.Height))
		f.normal = axis
	case along < -limit:
		f.count = copy(f.vertices[:], cyl.Points[shape.Segments:])
		center = cyl.Center.Sub(axis.Mul(0.5 * cyl.Height))
		f.normal = axis.Mul(-1)
	default:
		center = sideFace(f, cyl, normal)
	}
	f.distance = f.normal.Dot(f.vertices[0])
	sortClockwise(f.slice(), center, f.normal)
}

// capsuleFace is always the side quad of the capsule's cylinder.
func capsuleFace(f *face, capsule *shape.ConvexInfo, normal mgl32.Vec3) {
	center := sideFace(f, capsule, normal)
	f.distance = f.normal.Dot(f.vertices[0])
	sortClockwise(f.slice(), center, f.normal)
}

// sideFace fills f with the side quad whose normal best matches the radial part
// of normal and returns the quad center.
func sideFace(f *face, info *shape.ConvexInfo, normal mgl32.Vec3) mgl32.Vec3 {
	axis := info.Axis()
	f.normal = normal
	if d := normal.Dot(axis); d != 0 {
		if radial := geom.Normalize(normal.Sub(axis.Mul(d))); radial.LenSqr() > 0 {
			f.normal = radial
		}
	}

	dir, bestDot := 1, math32.Inf(-1)
	for i := 1; i <= shape.Segments; i++ {
		if d := info.Axes[i].Dot(f.normal); d > bestDot {
			dir, bestDot = i, d
		}
	}
	i1, i2 := dir-1, dir%shape.Segments
	f.count = 4
	f.vertices[0] = info.Points[i1]
	f.vertices[1] = info.Points[i2]
	f.vertices[2] = info.Points[i1+shape.Segments]
	f.vertices[3] = info.Points[i2+shape.Segments]
	return f.vertices[0].Add(f.vertices[1]).Add(f.vertices[2]).Add(f.vertices[3]).Mul(0.25)
}

// clipAgainstPlane keeps the part of the polygon with dot(n, p) - dist <= 0.
func clipAgainstPlane(p *polygon, n mgl32.Vec3, dist float32) {
	count := p.count
	if count == 0 {
		return
	}
	out := 0
	emit := func(v mgl32.Vec3) {
		if out < maxPolygonPoints {
			p.buffer[out] = v
			out++
		}
	}
	for i := 0; i < count; i++ {
		curr, next := p.points[i], p.points[(i+1)%count]
		dc := n.Dot(curr) - dist
		dn := n.Dot(next) - dist
		currIn, nextIn := dc <= 0, dn <= 0
		switch {
		case currIn && nextIn:
			emit(next)
		case !currIn && nextIn:
			emit(curr.Add(next.Sub(curr).Mul(dc / (dc - dn))))
			emit(next)
		case currIn && !nextIn:
			emit(curr.Add(next.Sub(curr).Mul(dc / (dc - dn))))
		}
	}
	copy(p.points[:], p.buffer[:out])
	p.count = out
}

// contactPolygon clips the incident face by the side planes of the reference
// face and then by the reference plane itself.
func contactPolygon(p *polygon, ref, inc *face) {
	p.count = copy(p.points[:], inc.slice())
	verts := ref.slice()
	for i := range verts {
		start, end := verts[i], verts[(i+1)%len(verts)]
		sideN := geom.Normalize(ref.normal.Cross(end.Sub(start)))
		if sideN.LenSqr() == 0 {
			continue
		}
		clipAgainstPlane(p, sideN, sideN.Dot(start))
		if p.count == 0 {
			return
		}
	}
	clipAgainstPlane(p, ref.normal, ref.distance)
}

// pointsFromPolygon scales each clipped vertex's depth below the reference
// plane so that the deepest one matches the EPA depth.
func pointsFromPolygon(m *Manifold, ref *face, p *polygon, pen Penetration) {
	if p.count == 0 {
		return
	}
	refN := ref.normal
	points := p.slice()
	slices.SortFunc(points, func(a, b mgl32.Vec3) int {
		da, db := a.Dot(refN), b.Dot(refN)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})

	depth := func(v mgl32.Vec3) float32 {
		return ref.distance - v.Dot(refN)
	}
	var ratio float32
	if denom := depth(points[0]); denom >= 1e-8 {
		ratio = pen.Depth / denom
	}
	for _, v := range points {
		sep := ratio * depth(v)
		if !m.Add(ManifoldPoint{
			PointA:     v.Add(pen.Normal.Mul(sep)),
			PointB:     v,
			Normal:     refN,
			Separation: sep,
		}) {
			return
		}
	}
}
