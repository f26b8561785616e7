// Package freelist implements a size-classed free-list allocator over
// a single pre-allocated []byte arena, the same bucketing
// util.SizeClass/Segment.Alloc use, but pulled out from its mmap file
// so it can sit over any caller-supplied buffer (heap, a shared region,
// a test fixture).
package freelist

import (
	"listalloc/alloc"
	"listalloc/internal/errs"
)

// ErrCapacity is returned by New for a non-positive capacity.
var ErrCapacity = errs.ErrBadArgument

// Class rounds n up to the nearest multiple of align.
func Class(n, align int) int {
	if n <= 0 {
		return 0
	}
	if align <= 0 {
		align = 1
	}
	return (n + align - 1) / align * align
}

// Allocator is a free-list arena of fixed capacity, backed by a plain
// Go slice rather than a system mapping.
type Allocator struct {
	arena []byte
	align int
	tail  int

	free  map[int][]int
	truth map[int]int
}

// New allocates an arena of capacity bytes, classed to the given byte
// alignment (1 if align <= 0).
func New(capacity, align int) (*Allocator, error) {
	if capacity <= 0 {
		return nil, ErrCapacity
	}
	if align <= 0 {
		align = 1
	}
	return &Allocator{
		arena: make([]byte, capacity),
		align: align,
		free:  make(map[int][]int),
		truth: make(map[int]int),
	}, nil
}

// Allocate returns a block of exactly n bytes, reusing a matching
// freed block before growing the tail.
func (a *Allocator) Allocate(n int) []byte {
	if n <= 0 {
		return nil
	}
	c := Class(n, a.align)
	if stack := a.free[c]; len(stack) > 0 {
		off := stack[len(stack)-1]
		a.free[c] = stack[:len(stack)-1]
		delete(a.truth, off)
		return a.arena[off : off+n]
	}
	if a.tail+c > len(a.arena) {
		return nil
	}
	off := a.tail
	a.tail += c
	return a.arena[off : off+n]
}

func (a *Allocator) offsetOf(b []byte) int {
	if len(a.arena) == 0 || len(b) == 0 {
		return -1
	}
	lo, hi := &a.arena[0], &a.arena[len(a.arena)-1]
	bLo, bHi := &b[0], &b[len(b)-1]
	if ptrLess(bLo, lo) || ptrLess(hi, bHi) {
		return -1
	}
	return ptrDiff(bLo, lo)
}

// Owns reports whether b is a sub-slice of this arena.
func (a *Allocator) Owns(b []byte) bool {
	return a.offsetOf(b) >= 0
}

// Deallocate files b's size class for reuse. A double free is a no-op.
func (a *Allocator) Deallocate(b []byte) {
	off := a.offsetOf(b)
	if off < 0 || len(b) == 0 {
		return
	}
	if _, already := a.truth[off]; already {
		return
	}
	c := Class(len(b), a.align)
	a.truth[off] = c
	a.free[c] = append(a.free[c], off)
}

// Expand grows b by delta bytes in place; it only succeeds when b sits
// exactly at the current tail.
func (a *Allocator) Expand(b []byte, delta int) ([]byte, bool) {
	if delta <= 0 {
		return nil, false
	}
	off := a.offsetOf(b)
	if off < 0 || off+len(b) != a.tail {
		return nil, false
	}
	if a.tail+delta > len(a.arena) {
		return nil, false
	}
	a.tail += delta
	return a.arena[off : off+len(b)+delta], true
}

// DeallocateAll resets the arena to empty.
func (a *Allocator) DeallocateAll() {
	a.tail = 0
	a.free = make(map[int][]int)
	a.truth = make(map[int]int)
}

// Alignment reports the byte alignment every block satisfies.
func (a *Allocator) Alignment() int { return a.align }

// NewFactory returns an alloc.Factory that produces a fresh Allocator
// sized to at least n bytes, rounded up to capacity if n is smaller,
// classed to align.
func NewFactory(capacity, align int) alloc.Factory {
	return func(n int) (alloc.Allocator, bool) {
		size := capacity
		if n > size {
			size = n
		}
		a, err := New(size, align)
		if err != nil {
			return nil, false
		}
		return a, true
	}
}
