package narrowphase

import "github.com/go-gl/mathgl/mgl32"

// MaxManifoldPoints bounds the contact points one shape pair can produce.
const MaxManifoldPoints = 40

// ManifoldPoint is one contact. PointA lies on shape A, PointB on shape B and
// Separation is the penetration depth along Normal, which points from A to B.
type ManifoldPoint struct {
	PointA         mgl32.Vec3
	PointB         mgl32.Vec3
	Normal         mgl32.Vec3
	Separation     float32
	NormalImpulse  float32
	TangentImpulse float32
}

type Manifold struct {
	Points [MaxManifoldPoints]ManifoldPoint
	Count  int
}

func (m *Manifold) Reset() {
	m.Count = 0
}

// Add appends p and reports false, dropping p, when the manifold is full.
func (m *Manifold) Add(p ManifoldPoint) bool {
	if m.Count == MaxManifoldPoints {
		return false
	}
	m.Points[m.Count] = p
	m.Count++
	return true
}

// Slice exposes the live points for in-place updates.
func (m *Manifold) Slice() []ManifoldPoint {
	return m.Points[:m.Count]
}

// TotalSeparation sums the separation of every point.
func (m *Manifold) TotalSeparation() float32 {
	var sum float32
	for i := 0; i < m.Count; i++ {
		sum += m.Points[i].Separation
	}
	return sum
}

// flip swaps the roles of A and B.
func (m *Manifold) flip() {
	for i := 0; i < m.Count; i++ {
		p := &m.Points[i]
		p.PointA, p.PointB = p.PointB, p.PointA
		p.Normal = p.Normal.Mul(-1)
	}
}
