package broadphase

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube(c mgl32.Vec3, h float32) geom.AABB {
	r := mgl32.Vec3{h, h, h}
	return geom.AABB{Lower: c.Sub(r), Upper: c.Add(r)}
}

func randomPoint(rng *rand.Rand, span float32) mgl32.Vec3 {
	return mgl32.Vec3{
		(rng.Float32()*2 - 1) * span,
		(rng.Float32()*2 - 1) * span,
		(rng.Float32()*2 - 1) * span,
	}
}

func TestCreateProxyFattens(t *testing.T) {
	tree := NewTree[int](0.1, 2)
	tight := cube(mgl32.Vec3{1, 2, 3}, 0.5)
	id := tree.CreateProxy(tight, 7)

	fat := tree.FatAABB(id)
	assert.True(t, fat.Contains(tight))
	assert.InDelta(t, 0.4, fat.Lower.X(), 1e-6)
	assert.Equal(t, 7, tree.Data(id))
	assert.Equal(t, 1, tree.ProxyCount())
	assert.Equal(t, 0, tree.MaxBalance())
	require.NoError(t, tree.Validate())
}

func TestMoveProxy(t *testing.T) {
	tree := NewTree[int](0.1, 2)
	id := tree.CreateProxy(cube(mgl32.Vec3{}, 0.5), 0)

	assert.False(t, tree.MoveProxy(id, cube(mgl32.Vec3{0.05, 0, 0}, 0.5), mgl32.Vec3{0.05, 0, 0}), "small move stays inside the fat box")

	moved := cube(mgl32.Vec3{1, 0, 0}, 0.5)
	require.True(t, tree.MoveProxy(id, moved, mgl32.Vec3{1, 0, 0}))
	fat := tree.FatAABB(id)
	assert.True(t, fat.Contains(moved))
	assert.InDelta(t, 1.5+0.1+2, fat.Upper.X(), 1e-5, "fat box is stretched along the displacement")
	assert.InDelta(t, 0.5-0.1, fat.Lower.X(), 1e-5)
}

func TestTreeStaysBalanced(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tree := NewTree[int](0.1, 2)

	var ids []int32
	boxes := map[int32]geom.AABB{}
	for i := 0; i < 500; i++ {
		b := cube(randomPoint(rng, 50), 0.5+rng.Float32())
		id := tree.CreateProxy(b, i)
		ids = append(ids, id)
		boxes[id] = b
	}
	// Remove every third proxy and move the rest.
	kept := ids[:0]
	for i, id := range ids {
		if i%3 == 0 {
			tree.DestroyProxy(id)
			delete(boxes, id)
			continue
		}
		kept = append(kept, id)
	}
	for _, id := range kept {
		d := randomPoint(rng, 3)
		b := boxes[id]
		b = geom.AABB{Lower: b.Lower.Add(d), Upper: b.Upper.Add(d)}
		tree.MoveProxy(id, b, d)
		boxes[id] = b
	}

	require.NoError(t, tree.Validate())
	n := tree.ProxyCount()
	assert.Equal(t, len(kept), n)
	bound := 3 * int(math32.Ceil(math32.Log2(float32(n))))
	assert.LessOrEqual(t, tree.Height(), bound)
	assert.Greater(t, tree.AreaRatio(), float32(1))

	for id, b := range boxes {
		assert.True(t, tree.FatAABB(id).Contains(b), "proxy %d", id)
	}
}

func TestQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tree := NewTree[int](0, 2)
	boxes := map[int32]geom.AABB{}
	for i := 0; i < 200; i++ {
		b := cube(randomPoint(rng, 20), 1)
		boxes[tree.CreateProxy(b, i)] = b
	}

	q := cube(mgl32.Vec3{2, -1, 0}, 6)
	got := map[int32]bool{}
	tree.Query(q, func(id int32) bool {
		got[id] = true
		return true
	})
	for id, b := range boxes {
		assert.Equal(t, b.Overlaps(q), got[id], "proxy %d", id)
	}

	calls := 0
	tree.Query(cube(mgl32.Vec3{}, 100), func(int32) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls, "returning false stops the query")
}

func TestDestroyAllEmptiesTree(t *testing.T) {
	tree := NewTree[string](0.1, 2)
	var ids []int32
	for i := 0; i < 40; i++ {
		ids = append(ids, tree.CreateProxy(cube(mgl32.Vec3{float32(i), 0, 0}, 0.4), "x"))
	}
	for _, id := range ids {
		tree.DestroyProxy(id)
	}
	assert.Equal(t, 0, tree.ProxyCount())
	assert.Equal(t, 0, tree.Height())
	require.NoError(t, tree.Validate())
	assert.Panics(t, func() { tree.DestroyProxy(ids[0]) })
}

func TestUpdatePairs(t *testing.T) {
	bp := New[string](0.1, 2)
	a := bp.CreateProxy(cube(mgl32.Vec3{0, 0, 0}, 0.5), "a")
	b := bp.CreateProxy(cube(mgl32.Vec3{0.8, 0, 0}, 0.5), "b")
	bp.CreateProxy(cube(mgl32.Vec3{10, 0, 0}, 0.5), "c")
	assert.Equal(t, 3, bp.MoveCount())

	var pairs [][2]string
	bp.UpdatePairs(func(x, y string) {
		pairs = append(pairs, [2]string{x, y})
	})
	require.Len(t, pairs, 1, "a and b both moved but the pair is reported once")
	assert.ElementsMatch(t, []string{"a", "b"}, pairs[0][:])
	assert.Equal(t, 0, bp.MoveCount())
	assert.True(t, bp.TestOverlap(a, b))

	pairs = pairs[:0]
	bp.UpdatePairs(func(x, y string) { pairs = append(pairs, [2]string{x, y}) })
	assert.Empty(t, pairs, "nothing moved")

	bp.TouchProxy(a)
	bp.UpdatePairs(func(x, y string) { pairs = append(pairs, [2]string{x, y}) })
	assert.Len(t, pairs, 1)
}

func TestDestroyedProxyIsUnbuffered(t *testing.T) {
	bp := New[int](0.1, 2)
	a := bp.CreateProxy(cube(mgl32.Vec3{}, 0.5), 1)
	bp.CreateProxy(cube(mgl32.Vec3{0.2, 0, 0}, 0.5), 2)
	bp.DestroyProxy(a)

	count := 0
	bp.UpdatePairs(func(int, int) { count++ })
	assert.Equal(t, 0, count)
	assert.Equal(t, 1, bp.ProxyCount())
}
