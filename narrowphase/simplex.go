// Package narrowphase decides whether two convex shapes overlap and, when they
// do, builds the contact manifold the solver consumes. Overlap comes from GJK,
// depth and normal from EPA, and contact points from face clipping.
package narrowphase

import (
	"github.com/gekko3d/rigid/shape"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxSimplexCount bounds the polytope EPA may grow.
	MaxSimplexCount  = 100
	duplicateEpsilon = 1e-6
)

// Simplex holds Minkowski difference points. GJK leaves the newest point last;
// on a hit the first four points form a tetrahedron around the origin.
type Simplex struct {
	Points [MaxSimplexCount]mgl32.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

func (s *Simplex) push(p mgl32.Vec3) bool {
	if s.Count == MaxSimplexCount {
		return false
	}
	s.Points[s.Count] = p
	s.Count++
	return true
}

func (s *Simplex) set(points ...mgl32.Vec3) {
	s.Count = copy(s.Points[:], points)
}

// contains reports whether p duplicates a point already in the simplex.
func (s *Simplex) contains(p mgl32.Vec3) bool {
	for i := 0; i < s.Count; i++ {
		if s.Points[i].Sub(p).LenSqr() < duplicateEpsilon {
			return true
		}
	}
	return false
}

// extent is the largest squared distance of a simplex point from the origin,
// never below one.
func (s *Simplex) extent() float32 {
	e := float32(1)
	for i := 0; i < s.Count; i++ {
		e = max(e, s.Points[i].LenSqr())
	}
	return e
}

// minkowskiSupport is the furthest point of A−B along dir.
func minkowskiSupport(a, b *shape.ConvexInfo, dir mgl32.Vec3) mgl32.Vec3 {
	return a.Support(dir).Sub(b.Support(dir.Mul(-1)))
}
