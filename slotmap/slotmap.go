// Package slotmap stores objects in a generational index pool so references
// between them can be held as small handles that detect reuse.
package slotmap

import "fmt"

// Handle addresses one slot. The zero Handle is never valid.
type Handle[T any] struct {
	index uint32
	gen   uint32
}

func (h Handle[T]) IsNil() bool {
	return h.gen == 0
}

func (h Handle[T]) Index() int {
	return int(h.index)
}

func (h Handle[T]) String() string {
	if h.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%d@%d", h.index, h.gen)
}

type slot[T any] struct {
	value *T
	gen   uint32
}

// Map owns *T values addressed by Handle[T]. Removing a value bumps the slot
// generation so every outstanding handle to it stops resolving.
type Map[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

func (m *Map[T]) Insert(v *T) Handle[T] {
	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		m.slots = append(m.slots, slot[T]{gen: 1})
		idx = uint32(len(m.slots) - 1)
	}
	s := &m.slots[idx]
	s.value = v
	m.count++
	return Handle[T]{index: idx, gen: s.gen}
}

func (m *Map[T]) Get(h Handle[T]) (*T, bool) {
	if h.IsNil() || int(h.index) >= len(m.slots) {
		return nil, false
	}
	s := m.slots[h.index]
	if s.gen != h.gen || s.value == nil {
		return nil, false
	}
	return s.value, true
}

// MustGet resolves h and panics on a stale handle. Reserved for links the
// owner keeps consistent.
func (m *Map[T]) MustGet(h Handle[T]) *T {
	v, ok := m.Get(h)
	if !ok {
		panic(fmt.Sprintf("slotmap: stale handle %v", h))
	}
	return v
}

func (m *Map[T]) Contains(h Handle[T]) bool {
	_, ok := m.Get(h)
	return ok
}

func (m *Map[T]) Remove(h Handle[T]) bool {
	if _, ok := m.Get(h); !ok {
		return false
	}
	s := &m.slots[h.index]
	s.value = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	m.free = append(m.free, h.index)
	m.count--
	return true
}

func (m *Map[T]) Len() int {
	return m.count
}

// Each visits live values in slot order. fn may remove the visited handle;
// values inserted during the walk may or may not be visited.
func (m *Map[T]) Each(fn func(h Handle[T], v *T) bool) {
	for i := 0; i < len(m.slots); i++ {
		s := m.slots[i]
		if s.value == nil {
			continue
		}
		if !fn(Handle[T]{index: uint32(i), gen: s.gen}, s.value) {
			return
		}
	}
}

func (m *Map[T]) Clear() {
	for i := range m.slots {
		if m.slots[i].value != nil {
			m.Remove(Handle[T]{index: uint32(i), gen: m.slots[i].gen})
		}
	}
}
