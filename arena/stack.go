package arena

import (
	"fmt"
	"unsafe"
)

const (
	StackSize       = 10 << 20
	MaxStackEntries = 32
)

type stackEntry struct {
	offset int
	size   int
	heap   bool
}

// StackAllocator is a LIFO scratch buffer. Allocations are carved from one
// contiguous slice; requests that do not fit fall back to the heap but are
// still tracked so Free stays symmetric.
type StackAllocator[T any] struct {
	data          []T
	capacity      int
	index         int
	allocation    int
	maxAllocation int
	entries       [MaxStackEntries]stackEntry
	entryCount    int
	heapBlocks    [MaxStackEntries][]T
}

// NewStackAllocator creates a stack holding up to sizeBytes worth of T. The
// backing slice is created on first use.
func NewStackAllocator[T any](sizeBytes int) *StackAllocator[T] {
	var zero T
	elem := int(unsafe.Sizeof(zero))
	if elem == 0 {
		elem = 1
	}
	if sizeBytes <= 0 {
		sizeBytes = StackSize
	}
	return &StackAllocator[T]{capacity: sizeBytes / elem}
}

func (s *StackAllocator[T]) Allocate(n int) []T {
	if s.entryCount == MaxStackEntries {
		panic(fmt.Sprintf("arena: stack allocator exceeded %d entries", MaxStackEntries))
	}
	if n < 0 {
		n = 0
	}
	if s.data == nil {
		s.data = make([]T, s.capacity)
	}

	entry := stackEntry{offset: s.index, size: n}
	var block []T
	if s.index+n > s.capacity {
		entry.heap = true
		block = make([]T, n)
		s.heapBlocks[s.entryCount] = block
	} else {
		block = s.data[s.index : s.index+n : s.index+n]
		clear(block)
		s.index += n
	}

	s.entries[s.entryCount] = entry
	s.entryCount++
	s.allocation += n
	if s.allocation > s.maxAllocation {
		s.maxAllocation = s.allocation
	}
	return block
}

// Free releases the most recent allocation.
func (s *StackAllocator[T]) Free() {
	if s.entryCount == 0 {
		panic("arena: stack allocator free on empty stack")
	}
	s.entryCount--
	entry := s.entries[s.entryCount]
	if entry.heap {
		s.heapBlocks[s.entryCount] = nil
	} else {
		s.index -= entry.size
	}
	s.allocation -= entry.size
}

// Scope marks the current stack depth. Releasing the scope frees everything
// allocated after the mark, newest first.
func (s *StackAllocator[T]) Scope() Scope[T] {
	return Scope[T]{stack: s, depth: s.entryCount}
}

// Reset drops every outstanding allocation.
func (s *StackAllocator[T]) Reset() {
	for s.entryCount > 0 {
		s.Free()
	}
}

func (s *StackAllocator[T]) Entries() int {
	return s.entryCount
}

func (s *StackAllocator[T]) Allocated() int {
	return s.allocation
}

func (s *StackAllocator[T]) MaxAllocated() int {
	return s.maxAllocation
}

type Scope[T any] struct {
	stack *StackAllocator[T]
	depth int
}

func (sc Scope[T]) Release() {
	if sc.stack == nil {
		return
	}
	if sc.stack.entryCount < sc.depth {
		panic("arena: scope released after its parent")
	}
	for sc.stack.entryCount > sc.depth {
		sc.stack.Free()
	}
}
