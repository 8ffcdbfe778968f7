package broadphase

import (
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/slices"
)

type pair struct {
	a, b int32
}

func comparePairs(x, y pair) int {
	if x.a != y.a {
		return int(x.a - y.a)
	}
	return int(x.b - y.b)
}

// BroadPhase buffers moved proxies and turns them into unique candidate pairs.
type BroadPhase[T any] struct {
	tree       *Tree[T]
	moveBuffer []int32
	pairBuffer []pair
	queryID    int32
}

func New[T any](extension, multiplier float32) *BroadPhase[T] {
	return &BroadPhase[T]{tree: NewTree[T](extension, multiplier)}
}

func (bp *BroadPhase[T]) Tree() *Tree[T] {
	return bp.tree
}

func (bp *BroadPhase[T]) CreateProxy(aabb geom.AABB, data T) int32 {
	id := bp.tree.CreateProxy(aabb, data)
	bp.bufferMove(id)
	return id
}

func (bp *BroadPhase[T]) DestroyProxy(id int32) {
	bp.unbufferMove(id)
	bp.tree.DestroyProxy(id)
}

func (bp *BroadPhase[T]) MoveProxy(id int32, aabb geom.AABB, displacement mgl32.Vec3) {
	if bp.tree.MoveProxy(id, aabb, displacement) {
		bp.bufferMove(id)
	}
}

// TouchProxy forces a proxy to be re-paired on the next UpdatePairs.
func (bp *BroadPhase[T]) TouchProxy(id int32) {
	bp.bufferMove(id)
}

func (bp *BroadPhase[T]) Data(id int32) T {
	return bp.tree.Data(id)
}

func (bp *BroadPhase[T]) FatAABB(id int32) geom.AABB {
	return bp.tree.FatAABB(id)
}

func (bp *BroadPhase[T]) TestOverlap(a, b int32) bool {
	return bp.tree.FatAABB(a).Overlaps(bp.tree.FatAABB(b))
}

func (bp *BroadPhase[T]) ProxyCount() int {
	return bp.tree.ProxyCount()
}

func (bp *BroadPhase[T]) MoveCount() int {
	return len(bp.moveBuffer)
}

func (bp *BroadPhase[T]) bufferMove(id int32) {
	bp.moveBuffer = append(bp.moveBuffer, id)
}

func (bp *BroadPhase[T]) unbufferMove(id int32) {
	for i, m := range bp.moveBuffer {
		if m == id {
			bp.moveBuffer[i] = NullNode
		}
	}
}

// UpdatePairs queries the tree with every buffered proxy and calls fn once per
// overlapping pair, in ascending proxy order. The move buffer is cleared.
func (bp *BroadPhase[T]) UpdatePairs(fn func(a, b T)) {
	bp.pairBuffer = bp.pairBuffer[:0]
	for _, id := range bp.moveBuffer {
		if id == NullNode {
			continue
		}
		bp.queryID = id
		bp.tree.Query(bp.tree.FatAABB(id), bp.queryCallback)
	}
	bp.moveBuffer = bp.moveBuffer[:0]

	slices.SortFunc(bp.pairBuffer, comparePairs)
	bp.pairBuffer = slices.Compact(bp.pairBuffer)

	for _, p := range bp.pairBuffer {
		fn(bp.tree.Data(p.a), bp.tree.Data(p.b))
	}
}

func (bp *BroadPhase[T]) queryCallback(id int32) bool {
	if id == bp.queryID {
		return true
	}
	bp.pairBuffer = append(bp.pairBuffer, pair{a: min(id, bp.queryID), b: max(id, bp.queryID)})
	return true
}
