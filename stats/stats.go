// Package stats wraps a child allocator with call counters and a
// stable identity, the way the retrieved pack mints ids with
// uuid.NewString rather than hand-rolled counters wherever something
// needs a durable identity.
package stats

import (
	"sync/atomic"

	"github.com/google/uuid"

	"listalloc/alloc"
)

// Counters holds a snapshot of a Child's lifetime call counts.
type Counters struct {
	Allocations   int64
	Deallocations int64
	Expansions    int64
	Reallocations int64
	BytesLive     int64
}

// Child decorates an alloc.Allocator with call counters, exposing
// whichever optional capabilities the wrapped allocator itself
// exposes. A fresh Child is assigned a random id, so a caller
// tracking many children at once can tell them apart in logs without
// needing the underlying allocator to support anything beyond
// Allocate.
type Child struct {
	ID string

	inner alloc.Allocator

	allocations   atomic.Int64
	deallocations atomic.Int64
	expansions    atomic.Int64
	reallocations atomic.Int64
	bytesLive     atomic.Int64
}

// Wrap returns a Child decorating inner.
func Wrap(inner alloc.Allocator) *Child {
	return &Child{ID: uuid.NewString(), inner: inner}
}

// Snapshot returns the Child's current counters.
func (c *Child) Snapshot() Counters {
	return Counters{
		Allocations:   c.allocations.Load(),
		Deallocations: c.deallocations.Load(),
		Expansions:    c.expansions.Load(),
		Reallocations: c.reallocations.Load(),
		BytesLive:     c.bytesLive.Load(),
	}
}

func (c *Child) Allocate(n int) []byte {
	b := c.inner.Allocate(n)
	if len(b) == n {
		c.allocations.Add(1)
		c.bytesLive.Add(int64(n))
	}
	return b
}

func (c *Child) Owns(b []byte) bool {
	owner, ok := c.inner.(alloc.Owner)
	return ok && owner.Owns(b)
}

func (c *Child) Expand(b []byte, delta int) ([]byte, bool) {
	expander, ok := c.inner.(alloc.Expander)
	if !ok {
		return nil, false
	}
	nb, ok := expander.Expand(b, delta)
	if ok {
		c.expansions.Add(1)
		c.bytesLive.Add(int64(delta))
	}
	return nb, ok
}

func (c *Child) Reallocate(b []byte, n int) ([]byte, bool) {
	re, ok := c.inner.(alloc.Reallocator)
	if !ok {
		return nil, false
	}
	nb, ok := re.Reallocate(b, n)
	if ok {
		c.reallocations.Add(1)
		c.bytesLive.Add(int64(len(nb) - len(b)))
	}
	return nb, ok
}

func (c *Child) Deallocate(b []byte) {
	dealloc, ok := c.inner.(alloc.Deallocator)
	if !ok {
		return
	}
	dealloc.Deallocate(b)
	c.deallocations.Add(1)
	c.bytesLive.Add(-int64(len(b)))
}

func (c *Child) DeallocateAll() {
	ad, ok := c.inner.(alloc.AllDeallocator)
	if !ok {
		return
	}
	ad.DeallocateAll()
	c.bytesLive.Store(0)
}

func (c *Child) Alignment() int {
	aligned, ok := c.inner.(alloc.Aligned)
	if !ok {
		return 1
	}
	return aligned.Alignment()
}

func (c *Child) Close() error {
	closer, ok := c.inner.(alloc.Closer)
	if !ok {
		return nil
	}
	return closer.Close()
}

// WrapFactory decorates every child an alloc.Factory produces with a
// Child, so call counts are available without the factory's own
// children needing to know about stats at all.
func WrapFactory(factory alloc.Factory) alloc.Factory {
	return func(n int) (alloc.Allocator, bool) {
		inner, ok := factory(n)
		if !ok {
			return nil, false
		}
		return Wrap(inner), true
	}
}
