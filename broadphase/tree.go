// Package broadphase keeps fattened proxy boxes in a dynamic bounding volume
// tree and reports candidate pairs for the narrow phase.
package broadphase

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// NullNode marks an absent child, parent or proxy.
const NullNode int32 = -1

const initialNodeCapacity = 16

type treeNode[T any] struct {
	aabb   geom.AABB
	data   T
	parent int32 // doubles as the free list link when the node is unused
	child1 int32
	child2 int32
	height int32 // -1 when free, 0 for leaves
}

func (n *treeNode[T]) isLeaf() bool {
	return n.child1 == NullNode
}

// Tree is a dynamic AABB tree. Leaves hold fat boxes and a payload; internal
// nodes hold the union of their children and are rebalanced on every change.
type Tree[T any] struct {
	root       int32
	nodes      []treeNode[T]
	nodeCount  int
	freeList   int32
	extension  float32
	multiplier float32
	stack      []int32
}

func NewTree[T any](extension, multiplier float32) *Tree[T] {
	t := &Tree[T]{
		root:       NullNode,
		extension:  extension,
		multiplier: multiplier,
	}
	t.grow(initialNodeCapacity)
	return t
}

func (t *Tree[T]) grow(capacity int) {
	old := len(t.nodes)
	nodes := make([]treeNode[T], capacity)
	copy(nodes, t.nodes)
	for i := old; i < capacity; i++ {
		nodes[i].parent = int32(i + 1)
		nodes[i].height = -1
	}
	nodes[capacity-1].parent = NullNode
	t.nodes = nodes
	t.freeList = int32(old)
}

func (t *Tree[T]) allocateNode() int32 {
	if t.freeList == NullNode {
		t.grow(2 * len(t.nodes))
	}
	id := t.freeList
	n := &t.nodes[id]
	t.freeList = n.parent
	var zero T
	*n = treeNode[T]{
		data:   zero,
		parent: NullNode,
		child1: NullNode,
		child2: NullNode,
	}
	t.nodeCount++
	return id
}

func (t *Tree[T]) freeNode(id int32) {
	var zero T
	t.nodes[id].data = zero
	t.nodes[id].parent = t.freeList
	t.nodes[id].height = -1
	t.freeList = id
	t.nodeCount--
}

func (t *Tree[T]) checkProxy(id int32) *treeNode[T] {
	if id < 0 || int(id) >= len(t.nodes) || !t.nodes[id].isLeaf() || t.nodes[id].height != 0 {
		panic(fmt.Sprintf("broadphase: invalid proxy %d", id))
	}
	return &t.nodes[id]
}

// CreateProxy inserts a leaf for aabb, fattened by the tree's extension.
func (t *Tree[T]) CreateProxy(aabb geom.AABB, data T) int32 {
	id := t.allocateNode()
	t.nodes[id].aabb = aabb.Expand(t.extension)
	t.nodes[id].data = data
	t.insertLeaf(id)
	return id
}

func (t *Tree[T]) DestroyProxy(id int32) {
	t.checkProxy(id)
	t.removeLeaf(id)
	t.freeNode(id)
}

// MoveProxy refits a proxy whose tight box is now aabb. When the stored fat box
// still contains aabb nothing changes and false is returned. Otherwise the leaf
// is reinserted with a fresh fat box stretched along the predicted displacement.
func (t *Tree[T]) MoveProxy(id int32, aabb geom.AABB, displacement mgl32.Vec3) bool {
	n := t.checkProxy(id)
	if n.aabb.Contains(aabb) {
		return false
	}
	t.removeLeaf(id)
	t.nodes[id].aabb = aabb.Expand(t.extension).Extend(displacement.Mul(t.multiplier))
	t.insertLeaf(id)
	return true
}

func (t *Tree[T]) Data(id int32) T {
	return t.checkProxy(id).data
}

func (t *Tree[T]) FatAABB(id int32) geom.AABB {
	return t.checkProxy(id).aabb
}

// Query calls fn for every leaf whose fat box overlaps aabb until fn returns false.
func (t *Tree[T]) Query(aabb geom.AABB, fn func(id int32) bool) {
	if t.root == NullNode {
		return
	}
	// fn may call back into Query, so the shared stack is only borrowed when free.
	stack := t.stack[:0]
	t.stack = nil
	defer func() { t.stack = stack[:0] }()

	stack = append(stack, t.root)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if !n.aabb.Overlaps(aabb) {
			continue
		}
		if n.isLeaf() {
			if !fn(id) {
				return
			}
			continue
		}
		stack = append(stack, n.child1, n.child2)
	}
}

func (t *Tree[T]) ProxyCount() int {
	return (t.nodeCount + 1) / 2
}

// Height is the height of the root, 0 for a single leaf and for an empty tree.
func (t *Tree[T]) Height() int {
	if t.root == NullNode {
		return 0
	}
	return int(t.nodes[t.root].height)
}

// MaxBalance is the largest height difference between two siblings.
func (t *Tree[T]) MaxBalance() int {
	best := int32(0)
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.height <= 1 {
			continue
		}
		d := t.nodes[n.child1].height - t.nodes[n.child2].height
		if d < 0 {
			d = -d
		}
		if d > best {
			best = d
		}
	}
	return int(best)
}

func (t *Tree[T]) insertLeaf(leaf int32) {
	if t.root == NullNode {
		t.root = leaf
		t.nodes[leaf].parent = NullNode
		return
	}

	leafAABB := t.nodes[leaf].aabb
	index := t.root
	for !t.nodes[index].isLeaf() {
		n := &t.nodes[index]
		area := n.aabb.Surface()
		combinedArea := n.aabb.Combine(leafAABB).Surface()

		// Cost of pairing the leaf with this node as a new parent.
		cost := 2 * combinedArea
		// Minimum cost pushed onto every ancestor by descending further.
		inheritance := 2 * (combinedArea - area)

		cost1 := t.descendCost(n.child1, leafAABB) + inheritance
		cost2 := t.descendCost(n.child2, leafAABB) + inheritance
		if cost < cost1 && cost < cost2 {
			break
		}
		if cost1 < cost2 {
			index = n.child1
		} else {
			index = n.child2
		}
	}
	sibling := index

	oldParent := t.nodes[sibling].parent
	newParent := t.allocateNode()
	t.nodes[newParent].parent = oldParent
	t.nodes[newParent].aabb = leafAABB.Combine(t.nodes[sibling].aabb)
	t.nodes[newParent].height = t.nodes[sibling].height + 1
	t.nodes[newParent].child1 = sibling
	t.nodes[newParent].child2 = leaf
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	if oldParent == NullNode {
		t.root = newParent
	} else if t.nodes[oldParent].child1 == sibling {
		t.nodes[oldParent].child1 = newParent
	} else {
		t.nodes[oldParent].child2 = newParent
	}

	t.refit(t.nodes[leaf].parent)
}

func (t *Tree[T]) descendCost(child int32, leafAABB geom.AABB) float32 {
	c := &t.nodes[child]
	combined := leafAABB.Combine(c.aabb).Surface()
	if c.isLeaf() {
		return combined
	}
	return combined - c.aabb.Surface()
}

func (t *Tree[T]) removeLeaf(leaf int32) {
	if leaf == t.root {
		t.root = NullNode
		return
	}

	parent := t.nodes[leaf].parent
	grandParent := t.nodes[parent].parent
	sibling := t.nodes[parent].child1
	if sibling == leaf {
		sibling = t.nodes[parent].child2
	}

	if grandParent == NullNode {
		t.root = sibling
		t.nodes[sibling].parent = NullNode
		t.freeNode(parent)
		return
	}

	if t.nodes[grandParent].child1 == parent {
		t.nodes[grandParent].child1 = sibling
	} else {
		t.nodes[grandParent].child2 = sibling
	}
	t.nodes[sibling].parent = grandParent
	t.freeNode(parent)
	t.refit(grandParent)
}

// refit walks from index to the root, balancing and re-unioning every ancestor.
func (t *Tree[T]) refit(index int32) {
	for index != NullNode {
		index = t.balance(index)
		n := &t.nodes[index]
		c1, c2 := &t.nodes[n.child1], &t.nodes[n.child2]
		n.height = 1 + max(c1.height, c2.height)
		n.aabb = c1.aabb.Combine(c2.aabb)
		index = n.parent
	}
}

// balance performs a left or right rotation if node a is imbalanced and
// returns the index of the subtree's new root.
func (t *Tree[T]) balance(iA int32) int32 {
	a := &t.nodes[iA]
	if a.isLeaf() || a.height < 2 {
		return iA
	}

	iB, iC := a.child1, a.child2
	b, c := &t.nodes[iB], &t.nodes[iC]
	bal := c.height - b.height

	if bal > 1 {
		return t.rotate(iA, iC, iB, true)
	}
	if bal < -1 {
		return t.rotate(iA, iB, iC, false)
	}
	return iA
}

// rotate promotes the taller child iUp of iA. iOther is iA's remaining child;
// upIsChild2 tells which slot of iA iUp occupied.
func (t *Tree[T]) rotate(iA, iUp, iOther int32, upIsChild2 bool) int32 {
	a, up := &t.nodes[iA], &t.nodes[iUp]
	iF, iG := up.child1, up.child2
	f, g := &t.nodes[iF], &t.nodes[iG]

	up.child1 = iA
	up.parent = a.parent
	a.parent = iUp

	if up.parent != NullNode {
		p := &t.nodes[up.parent]
		if p.child1 == iA {
			p.child1 = iUp
		} else {
			p.child2 = iUp
		}
	} else {
		t.root = iUp
	}

	other := &t.nodes[iOther]
	keep, keepID, give, giveID := f, iF, g, iG
	if f.height <= g.height {
		keep, keepID, give, giveID = g, iG, f, iF
	}

	up.child2 = keepID
	if upIsChild2 {
		a.child2 = giveID
	} else {
		a.child1 = giveID
	}
	give.parent = iA
	a.aabb = other.aabb.Combine(give.aabb)
	up.aabb = a.aabb.Combine(keep.aabb)
	a.height = 1 + max(other.height, give.height)
	up.height = 1 + max(a.height, keep.height)
	return iUp
}

// Validate checks parent links, heights and box containment of the whole tree.
func (t *Tree[T]) Validate() error {
	if t.root == NullNode {
		if t.nodeCount != 0 {
			return fmt.Errorf("empty tree has %d nodes", t.nodeCount)
		}
		return nil
	}
	if t.nodes[t.root].parent != NullNode {
		return fmt.Errorf("root %d has parent %d", t.root, t.nodes[t.root].parent)
	}
	count, err := t.validateNode(t.root)
	if err != nil {
		return err
	}
	if count != t.nodeCount {
		return fmt.Errorf("reached %d nodes, pool holds %d", count, t.nodeCount)
	}
	free := 0
	for i := t.freeList; i != NullNode; i = t.nodes[i].parent {
		free++
	}
	if free+t.nodeCount != len(t.nodes) {
		return fmt.Errorf("free list has %d nodes, expected %d", free, len(t.nodes)-t.nodeCount)
	}
	return nil
}

func (t *Tree[T]) validateNode(id int32) (int, error) {
	n := &t.nodes[id]
	if n.isLeaf() {
		if n.child2 != NullNode || n.height != 0 {
			return 0, fmt.Errorf("leaf %d malformed", id)
		}
		return 1, nil
	}
	c1, c2 := &t.nodes[n.child1], &t.nodes[n.child2]
	if c1.parent != id || c2.parent != id {
		return 0, fmt.Errorf("children of %d have wrong parent", id)
	}
	if n.height != 1+max(c1.height, c2.height) {
		return 0, fmt.Errorf("node %d height %d, children %d/%d", id, n.height, c1.height, c2.height)
	}
	if !n.aabb.Contains(c1.aabb) || !n.aabb.Contains(c2.aabb) {
		return 0, fmt.Errorf("node %d does not contain its children", id)
	}
	l, err := t.validateNode(n.child1)
	if err != nil {
		return 0, err
	}
	r, err := t.validateNode(n.child2)
	if err != nil {
		return 0, err
	}
	return 1 + l + r, nil
}

// AreaRatio is the summed node surface over the root surface, a rough tree
// quality figure.
func (t *Tree[T]) AreaRatio() float32 {
	if t.root == NullNode {
		return 0
	}
	rootArea := t.nodes[t.root].aabb.Surface()
	total := float32(0)
	for i := range t.nodes {
		if t.nodes[i].height >= 0 {
			total += t.nodes[i].aabb.Surface()
		}
	}
	if rootArea <= 0 {
		return math32.Inf(1)
	}
	return total / rootArea
}
