package arena

import (
	"errors"
	"fmt"
	"unsafe"
)

const (
	ChunkSize         = 1 << 20
	MaxBlockSize      = 4096
	BlockSizeCount    = 16
	initialChunkSlots = 128
)

var ErrBlockTooLarge = errors.New("block request exceeds largest size class")

var blockSizes = [BlockSizeCount]int{
	16,
	32,
	64,
	96,
	128,
	160,
	192,
	224,
	256,
	320,
	384,
	448,
	512,
	1024,
	2048,
	4096,
}

// sizeMap maps a byte size in [0, MaxBlockSize] to its size class.
var sizeMap [MaxBlockSize + 1]uint8

func init() {
	j := 0
	sizeMap[0] = 0
	for i := 1; i <= MaxBlockSize; i++ {
		if i > blockSizes[j] {
			j++
		}
		if j >= BlockSizeCount {
			panic(fmt.Sprintf("arena: size lookup exhausted at %d bytes", i))
		}
		sizeMap[i] = uint8(j)
	}
}

// SizeClass returns the class index and rounded byte size for a request of n bytes.
func SizeClass(n int) (int, int, error) {
	if n <= 0 {
		return 0, 0, nil
	}
	if n > MaxBlockSize {
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrBlockTooLarge, n)
	}
	class := int(sizeMap[n])
	return class, blockSizes[class], nil
}

type chunk[T any] struct {
	class int
	data  []T
}

// BlockAllocator hands out small typed slices from pooled chunks. Each of the
// 16 size classes keeps its own free list. Not safe for concurrent use.
type BlockAllocator[T any] struct {
	elemSize  int
	chunks    []chunk[T]
	freeLists [BlockSizeCount][][]T
	live      int
}

func NewBlockAllocator[T any]() *BlockAllocator[T] {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		size = 1
	}
	return &BlockAllocator[T]{
		elemSize: size,
		chunks:   make([]chunk[T], 0, initialChunkSlots),
	}
}

// Allocate returns a slice of length n whose backing block belongs to the
// smallest size class that fits n elements.
func (a *BlockAllocator[T]) Allocate(n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	class, _, err := SizeClass(n * a.elemSize)
	if err != nil {
		return nil, err
	}

	list := a.freeLists[class]
	if len(list) == 0 {
		a.grow(class)
		list = a.freeLists[class]
	}
	block := list[len(list)-1]
	a.freeLists[class] = list[:len(list)-1]
	a.live++
	return block[:n], nil
}

// MustAllocate is Allocate for sizes known to fit; an oversized request is a
// configuration error and panics.
func (a *BlockAllocator[T]) MustAllocate(n int) []T {
	block, err := a.Allocate(n)
	if err != nil {
		panic(fmt.Sprintf("arena: %v", err))
	}
	return block
}

// Free returns a block obtained from Allocate. Freeing a nil slice is a no-op.
func (a *BlockAllocator[T]) Free(block []T) {
	if cap(block) == 0 {
		return
	}
	class, ok := a.classForCap(cap(block))
	if !ok {
		panic(fmt.Sprintf("arena: freeing foreign block of capacity %d", cap(block)))
	}
	a.freeLists[class] = append(a.freeLists[class], block[:cap(block):cap(block)])
	a.live--
}

// Live reports the number of blocks handed out and not yet freed.
func (a *BlockAllocator[T]) Live() int {
	return a.live
}

// Chunks reports how many 1 MiB chunks back the allocator.
func (a *BlockAllocator[T]) Chunks() int {
	return len(a.chunks)
}

// Clear drops every chunk. Outstanding blocks must not be freed afterwards.
func (a *BlockAllocator[T]) Clear() {
	a.chunks = a.chunks[:0]
	for i := range a.freeLists {
		a.freeLists[i] = nil
	}
	a.live = 0
}

func (a *BlockAllocator[T]) perBlock(class int) int {
	return blockSizes[class] / a.elemSize
}

func (a *BlockAllocator[T]) classForCap(c int) (int, bool) {
	class, _, err := SizeClass(c * a.elemSize)
	if err != nil || a.perBlock(class) != c {
		return 0, false
	}
	return class, true
}

func (a *BlockAllocator[T]) grow(class int) {
	if len(a.chunks) == cap(a.chunks) {
		grown := make([]chunk[T], len(a.chunks), 2*cap(a.chunks))
		copy(grown, a.chunks)
		a.chunks = grown
	}

	per := a.perBlock(class)
	count := ChunkSize / blockSizes[class]
	data := make([]T, per*count)
	a.chunks = append(a.chunks, chunk[T]{class: class, data: data})

	list := a.freeLists[class]
	for i := count - 1; i >= 0; i-- {
		list = append(list, data[i*per:(i+1)*per:(i+1)*per])
	}
	a.freeLists[class] = list
}
