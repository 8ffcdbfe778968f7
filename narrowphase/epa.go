package narrowphase

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/gekko3d/rigid/shape"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	epaMaxIterations = 64
	epaTolerance     = 1e-2
	// epaFaceTolerance admits an origin lying on a face of the polytope.
	epaFaceTolerance = 1e-5

	// MaxPolytopeFaces keeps the face blocks inside the largest size class.
	MaxPolytopeFaces = 256
	minFaceCapacity  = 8
)

// Penetration is the minimum translation between two overlapping shapes.
// Normal points from A toward B.
type Penetration struct {
	Normal mgl32.Vec3
	Depth  float32
}

// polytope stores triangles as index triples into a Simplex together with
// their outward normal (xyz) and origin distance (w).
type polytope struct {
	indices []int32
	normals []mgl32.Vec4
	count   int
}

func (p *polytope) reserve(ar *arena.Arena, n int) bool {
	if n <= len(p.normals) {
		return true
	}
	c := max(len(p.normals), minFaceCapacity)
	for c < n {
		c *= 2
	}
	if c > MaxPolytopeFaces {
		return false
	}
	indices := ar.Indices.MustAllocate(3 * c)
	normals := ar.Normals.MustAllocate(c)
	copy(indices, p.indices[:3*p.count])
	copy(normals, p.normals[:p.count])
	p.free(ar)
	p.indices, p.normals = indices, normals
	return true
}

func (p *polytope) free(ar *arena.Arena) {
	ar.Indices.Free(p.indices)
	ar.Normals.Free(p.normals)
	p.indices, p.normals = nil, nil
}

func (p *polytope) add(i0, i1, i2 int32) {
	k := 3 * p.count
	p.indices[k], p.indices[k+1], p.indices[k+2] = i0, i1, i2
	p.count++
}

// remove swaps the last face into slot i.
func (p *polytope) remove(i int) {
	last := p.count - 1
	copy(p.indices[3*i:3*i+3], p.indices[3*last:3*last+3])
	p.normals[i] = p.normals[last]
	p.count--
}

func (p *polytope) face(i int) (int32, int32, int32) {
	return p.indices[3*i], p.indices[3*i+1], p.indices[3*i+2]
}

func (p *polytope) append(ar *arena.Arena, other *polytope) bool {
	if !p.reserve(ar, p.count+other.count) {
		return false
	}
	copy(p.indices[3*p.count:], other.indices[:3*other.count])
	copy(p.normals[p.count:], other.normals[:other.count])
	p.count += other.count
	return true
}

func (p *polytope) nearest() int {
	best, bestDist := -1, math32.Inf(1)
	for i := 0; i < p.count; i++ {
		if d := p.normals[i][3]; d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// computeNormals fills the normals of faces [from, count), oriented away from
// the centroid of s. It fails on a degenerate face or when the origin lies
// outside a face by more than epaFaceTolerance.
func computeNormals(s *Simplex, p *polytope, from int) bool {
	var centroid mgl32.Vec3
	for i := 0; i < s.Count; i++ {
		centroid = centroid.Add(s.Points[i])
	}
	centroid = centroid.Mul(1 / float32(s.Count))

	for i := from; i < p.count; i++ {
		i0, i1, i2 := p.face(i)
		a, b, c := s.Points[i0], s.Points[i1], s.Points[i2]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.LenSqr() < degenerateEpsilon {
			return false
		}
		n = geom.Normalize(n)
		if n.Dot(a.Sub(centroid)) < 0 {
			n = n.Mul(-1)
		}
		d := n.Dot(a)
		if d < -epaFaceTolerance {
			return false
		}
		p.normals[i] = n.Vec4(max(d, 0))
	}
	return true
}

// addUniqueEdge records edge (a, b) unless its twin (b, a) is already present,
// in which case the shared edge is interior to the hole and both are dropped.
func addUniqueEdge(edges []arena.Edge, a, b int32) []arena.Edge {
	for i, e := range edges {
		if e[0] == b && e[1] == a {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return append(edges, arena.Edge{a, b})
}

// EPA expands the GJK tetrahedron in s until the face nearest the origin lies on
// the Minkowski difference boundary. It returns false when the polytope
// degenerates or the iteration budget runs out.
func EPA(a, b *shape.ConvexInfo, s *Simplex, ar *arena.Arena) (Penetration, bool) {
	if s.Count < 4 {
		return Penetration{}, false
	}
	s.Count = 4

	var faces, added polytope
	defer faces.free(ar)
	defer added.free(ar)

	faces.reserve(ar, 4)
	faces.add(0, 1, 2)
	faces.add(0, 3, 1)
	faces.add(0, 2, 3)
	faces.add(1, 3, 2)
	if !computeNormals(s, &faces, 0) {
		return Penetration{}, false
	}
	minFace := faces.nearest()

	for iter := 0; iter < epaMaxIterations; iter++ {
		normal := faces.normals[minFace].Vec3()
		minDist := faces.normals[minFace][3]

		support := minkowskiSupport(a, b, normal)
		supportDist := normal.Dot(support)
		if math32.Abs(supportDist-minDist) <= epaTolerance || s.contains(support) || s.Count >= MaxSimplexCount {
			return Penetration{Normal: normal, Depth: minDist}, true
		}

		if !expand(s, &faces, &added, support, ar) {
			return Penetration{}, false
		}
		minFace = faces.nearest()
	}
	return Penetration{}, false
}

// expand removes every face visible from support, stitches the hole's
// boundary to the new vertex and merges the new faces into faces.
func expand(s *Simplex, faces, added *polytope, support mgl32.Vec3, ar *arena.Arena) bool {
	scope := ar.Edges.Scope()
	defer scope.Release()
	edges := ar.Edges.Allocate(3 * faces.count)[:0]

	for i := 0; i < faces.count; i++ {
		i0, i1, i2 := faces.face(i)
		center := s.Points[i0].Add(s.Points[i1]).Add(s.Points[i2]).Mul(1.0 / 3)
		if faces.normals[i].Vec3().Dot(support.Sub(center)) <= 0 {
			continue
		}
		edges = addUniqueEdge(edges, i0, i1)
		edges = addUniqueEdge(edges, i1, i2)
		edges = addUniqueEdge(edges, i2, i0)
		faces.remove(i)
		i--
	}

	added.count = 0
	if len(edges) == 0 || !added.reserve(ar, len(edges)) {
		return false
	}
	newIndex := int32(s.Count)
	for _, e := range edges {
		added.add(e[0], e[1], newIndex)
	}
	s.push(support)

	if !computeNormals(s, added, 0) {
		return false
	}
	return faces.append(ar, added)
}
