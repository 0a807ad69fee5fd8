// File: internal/slab/slab.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Generation-tagged slab: index-based ownership for reactor and
// executor entries. Handles pack a 32-bit slot index and a 32-bit
// generation; a slot's generation advances on removal, so a handle
// issued before a removal can never alias the slot's next occupant.

package slab

import "math"

// entry is one slot. gen counts how many times the slot has been
// vacated; live distinguishes an occupied slot from a free one whose
// generation happens to match.
type entry[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Slab is a bounded handle table. Not safe for concurrent use; callers
// provide their own locking.
type Slab[T any] struct {
	entries []entry[T]
	free    []uint32
	count   int
	limit   int
}

// New creates a slab holding at most limit live entries.
// limit <= 0 means effectively unbounded.
func New[T any](limit int) *Slab[T] {
	if limit <= 0 || limit > math.MaxUint32 {
		limit = math.MaxUint32
	}
	return &Slab[T]{limit: limit}
}

// Insert stores v and returns its handle, or false on table exhaustion.
func (s *Slab[T]) Insert(v T) (uint64, bool) {
	if s.count >= s.limit {
		return 0, false
	}
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
		s.entries[idx].value = v
		s.entries[idx].live = true
	} else {
		idx = uint32(len(s.entries))
		s.entries = append(s.entries, entry[T]{value: v, live: true})
	}
	s.count++
	return pack(idx, s.entries[idx].gen), true
}

// Get returns a pointer to the entry for handle, or false if the handle
// is stale or was never issued. The pointer is valid until the next
// Insert or Remove.
func (s *Slab[T]) Get(handle uint64) (*T, bool) {
	idx, gen := unpack(handle)
	if int(idx) >= len(s.entries) {
		return nil, false
	}
	e := &s.entries[idx]
	if !e.live || e.gen != gen {
		return nil, false
	}
	return &e.value, true
}

// Remove vacates the entry for handle and returns its value. The slot's
// generation advances, invalidating the handle permanently.
func (s *Slab[T]) Remove(handle uint64) (T, bool) {
	var zero T
	idx, gen := unpack(handle)
	if int(idx) >= len(s.entries) {
		return zero, false
	}
	e := &s.entries[idx]
	if !e.live || e.gen != gen {
		return zero, false
	}
	v := e.value
	e.value = zero
	e.live = false
	e.gen++
	s.free = append(s.free, idx)
	s.count--
	return v, true
}

// Range calls fn for every live entry until fn returns false.
func (s *Slab[T]) Range(fn func(handle uint64, v *T) bool) {
	for i := range s.entries {
		e := &s.entries[i]
		if !e.live {
			continue
		}
		if !fn(pack(uint32(i), e.gen), &e.value) {
			return
		}
	}
}

// Len reports the number of live entries.
func (s *Slab[T]) Len() int { return s.count }

func pack(idx, gen uint32) uint64 { return uint64(gen)<<32 | uint64(idx) }

func unpack(h uint64) (idx, gen uint32) {
	return uint32(h & math.MaxUint32), uint32(h >> 32)
}
