// Package alloc defines the capability surface a child allocator must
// (or may optionally) expose to be usable by a composite List.
//
// A child needs only Allocator to be usable at all; every other
// interface here is optional and detected with a type assertion at
// the call site, mirroring how io.Reader/io.Writer/io.Closer compose
// in the standard library rather than being declared up front.
package alloc

// Allocator is the one capability every child must support.
// Allocate returns a block of exactly n bytes on success, or a nil/
// short/long slice on failure. A composite never trims an
// over-returned block; it is treated the same as a failure.
type Allocator interface {
	Allocate(n int) []byte
}

// Owner reports whether a block belongs to this allocator. Answers
// are authoritative: a caller holding a positive answer never
// double-checks it against another child.
type Owner interface {
	Owns(b []byte) bool
}

// Expander grows an existing block by delta bytes without moving it.
// It reports false if the block cannot be grown in place.
type Expander interface {
	Expand(b []byte, delta int) ([]byte, bool)
}

// Reallocator resizes an existing block to exactly n bytes, possibly
// moving it. It reports false if it cannot satisfy the resize at all
// (including by moving); callers fall back to allocate+copy+free.
type Reallocator interface {
	Reallocate(b []byte, n int) ([]byte, bool)
}

// Deallocator releases a single block previously returned by
// Allocate. Freeing a block not owned by the allocator is a
// programmer error.
type Deallocator interface {
	Deallocate(b []byte)
}

// AllDeallocator releases every outstanding block at once and resets
// the allocator to its initial, empty state.
type AllDeallocator interface {
	DeallocateAll()
}

// Aligned exposes the byte alignment every block from this allocator
// satisfies.
type Aligned interface {
	Alignment() int
}

// Closer tears down any resources (file descriptors, mappings) the
// allocator holds. Go has no destructors, so a child backed by a real
// OS resource needs an explicit teardown hook when it is retired.
type Closer interface {
	Close() error
}

// Bookkeeping is the narrower surface required of the allocator that
// backs the slot array when a List is not self-hosting (ouroboros).
type Bookkeeping interface {
	Allocator
	Deallocator
	Expander
}

// Factory produces a fresh child allocator able to satisfy at least
// one allocation of n bytes. It reports false if it cannot produce a
// usable child at all (e.g. the underlying resource is exhausted).
//
// In ouroboros mode the n a Factory sees is occasionally larger than
// the client request that triggered it, because the composite folds
// in space for its own slot array plus headroom; factories must
// tolerate this and must not assume n reflects only client need.
type Factory func(n int) (Allocator, bool)
