package arena

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClassRounding(t *testing.T) {
	cases := []struct {
		bytes int
		want  int
	}{
		{1, 16},
		{16, 16},
		{17, 32},
		{65, 96},
		{257, 320},
		{513, 1024},
		{4096, 4096},
	}
	for _, c := range cases {
		_, size, err := SizeClass(c.bytes)
		require.NoError(t, err)
		assert.Equal(t, c.want, size, "bytes=%d", c.bytes)
	}

	_, _, err := SizeClass(MaxBlockSize + 1)
	assert.True(t, errors.Is(err, ErrBlockTooLarge))
}

func TestBlockAllocatorReuse(t *testing.T) {
	a := NewBlockAllocator[mgl32.Vec3]()

	b1, err := a.Allocate(8)
	require.NoError(t, err)
	assert.Len(t, b1, 8)
	assert.Equal(t, 1, a.Live())
	assert.Equal(t, 1, a.Chunks())

	a.Free(b1)
	assert.Equal(t, 0, a.Live())

	b2 := a.MustAllocate(7)
	assert.Equal(t, &b1[:1][0], &b2[:1][0], "freed block should be handed out again")
	a.Free(b2)
}

func TestBlockAllocatorZeroAndOversized(t *testing.T) {
	a := NewBlockAllocator[int32]()

	b, err := a.Allocate(0)
	assert.NoError(t, err)
	assert.Nil(t, b)

	_, err = a.Allocate(MaxBlockSize)
	assert.ErrorIs(t, err, ErrBlockTooLarge)
	assert.Panics(t, func() { a.MustAllocate(MaxBlockSize) })
}

func TestBlockAllocatorForeignFree(t *testing.T) {
	a := NewBlockAllocator[int32]()
	assert.Panics(t, func() { a.Free(make([]int32, 3)) })
}

func TestBlockAllocatorManyBlocks(t *testing.T) {
	a := NewBlockAllocator[mgl32.Vec4]()
	var blocks [][]mgl32.Vec4
	// 1 MiB of 4096-byte blocks is 256 blocks; ask for more to force a second chunk.
	for i := 0; i < 300; i++ {
		blocks = append(blocks, a.MustAllocate(256))
	}
	assert.Equal(t, 2, a.Chunks())
	for _, b := range blocks {
		a.Free(b)
	}
	assert.Equal(t, 0, a.Live())
}

func TestStackAllocatorLIFO(t *testing.T) {
	s := NewStackAllocator[Edge](1024)

	a := s.Allocate(10)
	b := s.Allocate(20)
	assert.Len(t, a, 10)
	assert.Len(t, b, 20)
	assert.Equal(t, 30, s.Allocated())
	assert.Equal(t, 2, s.Entries())

	s.Free()
	assert.Equal(t, 10, s.Allocated())
	s.Free()
	assert.Equal(t, 0, s.Allocated())
	assert.Equal(t, 30, s.MaxAllocated())

	assert.Panics(t, func() { s.Free() })
}

func TestStackAllocatorHeapFallback(t *testing.T) {
	s := NewStackAllocator[int64](64) // 8 elements
	small := s.Allocate(4)
	big := s.Allocate(100)
	assert.Len(t, small, 4)
	assert.Len(t, big, 100)
	s.Free()
	s.Free()
	assert.Equal(t, 0, s.Entries())
}

func TestStackAllocatorEntryLimit(t *testing.T) {
	s := NewStackAllocator[int32](1024)
	for i := 0; i < MaxStackEntries; i++ {
		s.Allocate(1)
	}
	assert.Panics(t, func() { s.Allocate(1) })
	s.Reset()
	assert.Equal(t, 0, s.Entries())
}

func TestStackScopeRelease(t *testing.T) {
	s := NewStackAllocator[int32](1024)
	outer := s.Allocate(3)
	outer[0] = 42

	sc := s.Scope()
	s.Allocate(5)
	s.Allocate(7)
	sc.Release()

	assert.Equal(t, 1, s.Entries())
	assert.Equal(t, 3, s.Allocated())
	assert.Equal(t, int32(42), outer[0])

	fresh := s.Allocate(2)
	assert.Equal(t, int32(0), fresh[0], "scratch blocks are zeroed")
}

func TestArenaLive(t *testing.T) {
	ar := New(0)
	p := ar.Points.MustAllocate(3)
	n := ar.Normals.MustAllocate(4)
	assert.Equal(t, 2, ar.Live())
	ar.Points.Free(p)
	ar.Normals.Free(n)
	assert.Equal(t, 0, ar.Live())
}
