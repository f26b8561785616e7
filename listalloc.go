// Package listalloc exposes the composite allocator as a small public
// facade over internal/mrulist.
package listalloc

import (
	"listalloc/alloc"
	"listalloc/errs"
	"listalloc/internal/mrulist"
)

// Re-exported sentinel errors, so callers can errors.Is against this
// package without reaching into errs directly.
var (
	ErrNoFactory     = errs.ErrNoFactory
	ErrNoBookkeeping = errs.ErrNoBookkeeping
)

// Re-exported capability interfaces, so callers implementing a child
// allocator only need to import this one package.
type (
	Allocator      = alloc.Allocator
	Owner          = alloc.Owner
	Expander       = alloc.Expander
	Reallocator    = alloc.Reallocator
	Deallocator    = alloc.Deallocator
	AllDeallocator = alloc.AllDeallocator
	Aligned        = alloc.Aligned
	Closer         = alloc.Closer
	Bookkeeping    = alloc.Bookkeeping
	Factory        = alloc.Factory
)

// Options configures a new List.
type Options struct {
	// Factory produces a child allocator able to satisfy at least n
	// bytes, or reports false if it cannot. Required.
	Factory Factory
	// Ouroboros selects self-hosting bookkeeping: the List's own slot
	// array lives inside one of its own children rather than a
	// separately supplied allocator.
	Ouroboros bool
	// Bookkeeping backs the slot array when Ouroboros is false.
	// Required in that case.
	Bookkeeping Bookkeeping
	// Alignment is the byte alignment every child honors. Defaults to
	// 1 if left zero.
	Alignment int
}

// List is a composite allocator: a growable collection of lazily
// created child allocators, threaded by a most-recently-used chain,
// that forwards each operation to a child able to serve it.
//
// A List is not safe for concurrent use without external
// synchronization.
type List struct {
	l *mrulist.List
}

// New constructs an empty List. No child allocator is created until
// the first Allocate call.
func New(opts Options) (*List, error) {
	l, err := mrulist.New(mrulist.Options{
		Factory:     opts.Factory,
		Ouroboros:   opts.Ouroboros,
		Bookkeeping: opts.Bookkeeping,
		Alignment:   opts.Alignment,
	})
	if err != nil {
		return nil, err
	}
	return &List{l: l}, nil
}

// Empty reports whether the List currently has no live children.
func (lst *List) Empty() bool {
	if lst == nil || lst.l == nil {
		return true
	}
	return lst.l.Empty()
}

// Alignment returns the byte alignment configured at construction.
func (lst *List) Alignment() int {
	if lst == nil || lst.l == nil {
		return 1
	}
	return lst.l.Alignment()
}

// Allocate requests a block of exactly n bytes from whichever child
// can serve it, growing the List by one child if none can.
func (lst *List) Allocate(n int) ([]byte, bool) {
	if lst == nil || lst.l == nil {
		return nil, false
	}
	return lst.l.Allocate(n)
}

// Owns reports whether any live child claims b.
func (lst *List) Owns(b []byte) bool {
	if lst == nil || lst.l == nil {
		return false
	}
	return lst.l.Owns(b)
}

// Expand grows b by delta bytes in place, without moving it.
func (lst *List) Expand(b []byte, delta int) ([]byte, bool) {
	if lst == nil || lst.l == nil {
		return nil, false
	}
	return lst.l.Expand(b, delta)
}

// Reallocate resizes b to n bytes, possibly moving it.
func (lst *List) Reallocate(b []byte, n int) ([]byte, bool) {
	if lst == nil || lst.l == nil {
		return nil, false
	}
	return lst.l.Reallocate(b, n)
}

// Deallocate releases b. b must be owned by some live child; calling
// Deallocate on a block the List does not own panics.
func (lst *List) Deallocate(b []byte) {
	if lst == nil || lst.l == nil {
		return
	}
	lst.l.Deallocate(b)
}

// DeallocateAll tears down every child the List currently owns,
// returning it to its initial, empty state.
func (lst *List) DeallocateAll() {
	if lst == nil || lst.l == nil {
		return
	}
	lst.l.DeallocateAll()
}

// Close tears down the List. It is idempotent and always safe to
// call, regardless of which optional capabilities the children
// implement.
func (lst *List) Close() error {
	if lst == nil || lst.l == nil {
		return nil
	}
	return lst.l.Close()
}
