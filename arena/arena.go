// Package arena provides the allocators a World threads through its
// collision pipeline: size-classed block pools for small churned arrays and
// LIFO scratch stacks for per-call buffers.
package arena

import "github.com/go-gl/mathgl/mgl32"

// Edge is a directed polytope edge given by two simplex indices.
type Edge [2]int32

// Arena bundles the allocators used by shapes and the narrow phase. One Arena
// belongs to one World and must not be shared between goroutines.
type Arena struct {
	Points  *BlockAllocator[mgl32.Vec3]
	Normals *BlockAllocator[mgl32.Vec4]
	Indices *BlockAllocator[int32]
	Edges   *StackAllocator[Edge]
}

func New(stackBytes int) *Arena {
	return &Arena{
		Points:  NewBlockAllocator[mgl32.Vec3](),
		Normals: NewBlockAllocator[mgl32.Vec4](),
		Indices: NewBlockAllocator[int32](),
		Edges:   NewStackAllocator[Edge](stackBytes),
	}
}

// Live reports outstanding blocks across the block pools.
func (a *Arena) Live() int {
	return a.Points.Live() + a.Normals.Live() + a.Indices.Live()
}
