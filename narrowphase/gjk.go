package narrowphase

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/geom"
	"github.com/gekko3d/rigid/shape"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	gjkMaxIterations = 64

	// gjkProgressTolerance ends the search once a new support point moves the
	// closest point by less than this fraction of its squared length.
	gjkProgressTolerance = 1e-5
	// gjkContainTolerance treats a closest point this small, relative to the
	// simplex extent, as the origin itself.
	gjkContainTolerance = 1e-10
	// gjkFlatTolerance is the minimum reach a completing support point needs
	// off the current simplex.
	gjkFlatTolerance  = 1e-5
	degenerateEpsilon = 1e-10
)

// GJK reports whether a and b overlap. On success s holds a tetrahedron of
// Minkowski difference points enclosing the origin, possibly on one of its
// faces, ready for EPA. Touching and degenerate configurations report no
// overlap.
//
// Every iteration reduces s to the feature closest to the origin, so the
// closest point shrinks strictly and the search cannot revisit a simplex.
func GJK(a, b *shape.ConvexInfo, s *Simplex) bool {
	s.Reset()

	v := a.Center.Sub(b.Center)
	if v.LenSqr() < geom.Epsilon {
		v = geom.AxisX
	}

	for i := 0; i < gjkMaxIterations; i++ {
		dir := v.Mul(-1)
		w := minkowskiSupport(a, b, dir)
		if w.Dot(dir) <= 0 {
			return false
		}
		if s.Count > 0 {
			vv := v.LenSqr()
			if vv-v.Dot(w) <= gjkProgressTolerance*vv || s.contains(w) {
				return false
			}
		}
		s.push(w)

		v = closestToOrigin(s)
		if v.LenSqr() <= gjkContainTolerance*s.extent() {
			return completeTetrahedron(a, b, s)
		}
	}
	return false
}

// feature is the subset of simplex points that supports a closest point.
type feature struct {
	points [4]mgl32.Vec3
	count  int
}

func featureOf(points ...mgl32.Vec3) feature {
	var f feature
	f.count = copy(f.points[:], points)
	return f
}

// closestToOrigin returns the point of s nearest the origin and reduces s to
// the smallest subset that still contains it.
func closestToOrigin(s *Simplex) mgl32.Vec3 {
	var v mgl32.Vec3
	var f feature
	switch s.Count {
	case 1:
		return s.Points[0]
	case 2:
		v, f = closestOnSegment(s.Points[0], s.Points[1])
	case 3:
		v, f = closestOnTriangle(s.Points[0], s.Points[1], s.Points[2])
	default:
		v, f = closestOnTetrahedron(s.Points[0], s.Points[1], s.Points[2], s.Points[3])
	}
	s.set(f.points[:f.count]...)
	return v
}

func closestOnSegment(a, b mgl32.Vec3) (mgl32.Vec3, feature) {
	ab := b.Sub(a)
	den := ab.LenSqr()
	if den < degenerateEpsilon {
		return a, featureOf(a)
	}
	t := -a.Dot(ab) / den
	switch {
	case t <= 0:
		return a, featureOf(a)
	case t >= 1:
		return b, featureOf(b)
	}
	return a.Add(ab.Mul(t)), featureOf(a, b)
}

// closestOnTriangle walks the vertex, edge and face regions of abc in turn.
func closestOnTriangle(a, b, c mgl32.Vec3) (mgl32.Vec3, feature) {
	ab := b.Sub(a)
	ac := c.Sub(a)

	d1 := -ab.Dot(a)
	d2 := -ac.Dot(a)
	if d1 <= 0 && d2 <= 0 {
		return a, featureOf(a)
	}

	d3 := -ab.Dot(b)
	d4 := -ac.Dot(b)
	if d3 >= 0 && d4 <= d3 {
		return b, featureOf(b)
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3))), featureOf(a, b)
	}

	d5 := -ab.Dot(c)
	d6 := -ac.Dot(c)
	if d6 >= 0 && d5 <= d6 {
		return c, featureOf(c)
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6))), featureOf(a, c)
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6)))), featureOf(b, c)
	}

	den := va + vb + vc
	if math32.Abs(den) < degenerateEpsilon {
		// Collinear: the nearest of the three edges.
		var best candidate
		best = best.keep(closestOnSegment(a, b))
		best = best.keep(closestOnSegment(b, c))
		best = best.keep(closestOnSegment(a, c))
		return best.point, best.feature
	}
	return a.Add(ab.Mul(vb / den)).Add(ac.Mul(vc / den)), featureOf(a, b, c)
}

// closestOnTetrahedron checks every face the origin lies outside of. An
// origin on a face counts as inside.
func closestOnTetrahedron(p0, p1, p2, p3 mgl32.Vec3) (mgl32.Vec3, feature) {
	p := [4]mgl32.Vec3{p0, p1, p2, p3}
	faces := [4][4]int{{0, 1, 2, 3}, {0, 2, 3, 1}, {0, 3, 1, 2}, {1, 3, 2, 0}}

	var best candidate
	for _, f := range faces {
		a, b, c, opp := p[f[0]], p[f[1]], p[f[2]], p[f[3]]
		n := b.Sub(a).Cross(c.Sub(a))
		if -n.Dot(a)*n.Dot(opp.Sub(a)) >= 0 {
			continue
		}
		best = best.keep(closestOnTriangle(a, b, c))
	}
	if !best.ok {
		return mgl32.Vec3{}, featureOf(p0, p1, p2, p3)
	}
	return best.point, best.feature
}

// candidate tracks the closest of several features.
type candidate struct {
	point   mgl32.Vec3
	feature feature
	ok      bool
}

func (c candidate) keep(p mgl32.Vec3, f feature) candidate {
	if !c.ok || p.LenSqr() < c.point.LenSqr() {
		return candidate{point: p, feature: f, ok: true}
	}
	return c
}

// completeTetrahedron grows a simplex that touches the origin into a full
// tetrahedron around it. It fails when the Minkowski difference is flat
// there, which means the shapes only touch.
func completeTetrahedron(a, b *shape.ConvexInfo, s *Simplex) bool {
	if s.Count == 1 {
		return false
	}
	if s.Count == 2 {
		p0, p1 := s.Points[0], s.Points[1]
		edge := geom.Normalize(p1.Sub(p0))
		axis := geom.AxisX
		if math32.Abs(edge.X()) > 0.57 {
			axis = geom.AxisY
		}
		u := geom.Normalize(edge.Cross(axis))
		w := edge.Cross(u)
		found := false
		for _, dir := range [4]mgl32.Vec3{u, u.Mul(-1), w, w.Mul(-1)} {
			q := minkowskiSupport(a, b, dir)
			if q.Sub(p0).Cross(edge).Len() > gjkFlatTolerance {
				s.push(q)
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if s.Count == 3 {
		p0, p1, p2 := s.Points[0], s.Points[1], s.Points[2]
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if n.LenSqr() < degenerateEpsilon {
			return false
		}
		n = geom.Normalize(n)
		up := minkowskiSupport(a, b, n)
		down := minkowskiSupport(a, b, n.Mul(-1))
		if up.Dot(n) <= gjkFlatTolerance || -down.Dot(n) <= gjkFlatTolerance {
			return false
		}
		s.push(up)
	}

	p0 := s.Points[0]
	volume := s.Points[1].Sub(p0).Dot(s.Points[2].Sub(p0).Cross(s.Points[3].Sub(p0)))
	return math32.Abs(volume) > degenerateEpsilon
}
