// Package arena provides typed, index-addressed growable pools.
//
// A pool hands out dense uint32 ids instead of pointers. Index 0 is reserved
// in every pool as a null sentinel, so valid ids start at 1. All structural
// links between records are ids into their pools, which is what allows a
// sealed pool to be written to disk back to back and rebound on load from a
// base address alone.
package arena

import (
	"errors"
	"math"
)

// initialCapacity is the number of records reserved up front; growth past it
// is geometric via append.
const initialCapacity = 4096

// ErrPoolFull is returned when a pool's uint32 id space is exhausted.
var ErrPoolFull = errors.New("arena pool id space exhausted")

// Pool is a contiguous growable buffer of records addressed by uint32 id.
// The zero id is reserved and never returned by Alloc.
type Pool[T any] struct {
	items []T
}

// NewPool returns a pool with the sentinel record at index 0 pre-allocated.
func NewPool[T any]() *Pool[T] {
	return &Pool[T]{items: make([]T, 1, initialCapacity)}
}

// Alloc appends a zero record and returns its id.
// Fails only when the id space is exhausted.
func (p *Pool[T]) Alloc() (uint32, error) {
	if uint64(len(p.items)) >= math.MaxUint32-1 {
		return 0, ErrPoolFull
	}
	var zero T
	p.items = append(p.items, zero)
	return uint32(len(p.items) - 1), nil
}

// Get returns the record for the given id. The pointer is valid only until
// the next Alloc. Ids must come from Alloc on the same pool.
func (p *Pool[T]) Get(id uint32) *T {
	return &p.items[id]
}

// Len returns the pool's high-water mark: the number of records in use,
// including the reserved sentinel at index 0.
func (p *Pool[T]) Len() uint32 {
	return uint32(len(p.items))
}

// All returns the backing slice, sentinel included. It aliases the pool and
// is invalidated by the next Alloc.
func (p *Pool[T]) All() []T {
	return p.items
}
