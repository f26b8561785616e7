// Package mrulist implements the composite allocator at the center of
// this module: a growable array of child-allocator slots threaded by
// a most-recently-used chain, able to grow on demand and retire
// children once they go idle.
package mrulist

import (
	"unsafe"

	"listalloc/alloc"
	"listalloc/errs"
)

// slotState tags a slot as unused or hosting a live child. The
// original design collapses this into a self-pointer sentinel on the
// chain link to avoid widening the slot; Go's growable slices make
// that trick pointless (indices survive growth untranslated, per the
// index-based variant the design notes call out as the right port
// for languages where interior pointers into a growable buffer are
// awkward), so an explicit tag is used instead.
type slotState uint8

const (
	slotUnused slotState = iota
	slotLive
)

// noNext marks the end of the MRU chain, or "no such slot" when used
// as a result index.
const noNext int32 = -1

// hostingHeadroom is the slack folded into an ouroboros growth
// request beyond the slot array and the triggering client request.
const hostingHeadroom = 128

type childHandle struct {
	child       alloc.Allocator
	outstanding int
}

func (h *childHandle) empty() bool { return h.outstanding == 0 }

type slot struct {
	state  slotState
	next   int32
	handle childHandle
}

var slotSize = int(unsafe.Sizeof(slot{}))

// List is the composite allocator. It is not safe for concurrent use;
// callers serialize their own access. No internal locking is
// attempted here — a caller that needs concurrent access should guard
// the List itself rather than rely on per-operation locking inside it.
type List struct {
	factory   alloc.Factory
	alignment int

	ouroboros   bool
	bookkeeping alloc.Bookkeeping

	slots []slot
	root  int32

	// hostingChild is the slot whose child currently owns the raw
	// allocation backing the slot array's bookkeeping footprint
	// (ouroboros mode only). hostingBlock is that allocation, or in
	// external mode the block obtained from the bookkeeping allocator;
	// it is never read or written, only sized and relocated, so it carries
	// no child-handle pointers into memory the Go runtime doesn't
	// scan for pointers.
	hostingChild int32
	hostingBlock []byte

	closed bool
}

// Options configures a new List.
type Options struct {
	// Factory produces child allocators on demand. Required.
	Factory alloc.Factory
	// Ouroboros selects self-hosting bookkeeping: the slot array's
	// backing allocation lives inside one of the List's own children
	// instead of a separate allocator.
	Ouroboros bool
	// Bookkeeping is the allocator that owns the slot array's backing
	// allocation when Ouroboros is false. Required in that case.
	Bookkeeping alloc.Bookkeeping
	// Alignment is the byte alignment every child is expected to
	// honor, exposed verbatim by Alignment(). Defaults to 1.
	Alignment int
}

// New constructs an empty List. No child is created until the first
// Allocate call.
func New(opts Options) (*List, error) {
	if opts.Factory == nil {
		return nil, errs.ErrNoFactory
	}
	if !opts.Ouroboros && opts.Bookkeeping == nil {
		return nil, errs.ErrNoBookkeeping
	}
	align := opts.Alignment
	if align <= 0 {
		align = 1
	}
	return &List{
		factory:      opts.Factory,
		alignment:    align,
		ouroboros:    opts.Ouroboros,
		bookkeeping:  opts.Bookkeeping,
		root:         noNext,
		hostingChild: noNext,
	}, nil
}

// Empty reports whether the List currently has no live children.
func (l *List) Empty() bool { return l.root == noNext }

// Alignment returns the byte alignment configured at construction.
func (l *List) Alignment() int { return l.alignment }

func (l *List) isLive(idx int32) bool {
	return idx != noNext && l.slots[idx].state == slotLive
}

// unlink removes idx from the MRU chain without touching its slot
// state; idx must currently be on the chain.
func (l *List) unlink(idx int32) {
	if l.root == idx {
		l.root = l.slots[idx].next
		return
	}
	for p := l.root; p != noNext; p = l.slots[p].next {
		if l.slots[p].next == idx {
			l.slots[p].next = l.slots[idx].next
			return
		}
	}
}

// promote moves idx to the head of the MRU chain, making it the next
// slot Allocate tries first.
func (l *List) promote(idx int32) {
	if l.root == idx {
		return
	}
	l.unlink(idx)
	l.slots[idx].next = l.root
	l.root = idx
}

// findOwner walks the chain for the live slot owning b, without
// promoting it. Returns noNext, false if no live child claims b or
// none of them implement Owner.
func (l *List) findOwner(b []byte) (int32, bool) {
	for idx := l.root; idx != noNext; idx = l.slots[idx].next {
		owner, ok := l.slots[idx].handle.child.(alloc.Owner)
		if ok && owner.Owns(b) {
			return idx, true
		}
	}
	return noNext, false
}

// Allocate walks the MRU chain for a child that can satisfy exactly s
// bytes, growing the List by one child if none can.
func (l *List) Allocate(s int) ([]byte, bool) {
	if l.closed {
		return nil, false
	}
	for idx := l.root; idx != noNext; idx = l.slots[idx].next {
		b := l.slots[idx].handle.child.Allocate(s)
		if len(b) == s {
			l.promote(idx)
			l.slots[idx].handle.outstanding += s
			return b, true
		}
	}
	if l.root != noNext && l.slots[l.root].handle.empty() {
		// The freshest child is already empty and still couldn't
		// satisfy s; another same-sized child would not help either.
		return nil, false
	}
	if !l.addAllocator(s) {
		return nil, false
	}
	idx := l.root
	b := l.slots[idx].handle.child.Allocate(s)
	if len(b) != s {
		return nil, false
	}
	l.slots[idx].handle.outstanding += s
	return b, true
}

// Owns reports whether any live child claims b, promoting the owner
// on a hit. Unavailable (always false) if no child implements Owner.
func (l *List) Owns(b []byte) bool {
	if l.closed || len(b) == 0 {
		return false
	}
	idx, ok := l.findOwner(b)
	if !ok {
		return false
	}
	l.promote(idx)
	return true
}

// Expand grows an existing block by delta bytes in place, delegating
// to the owning child without promoting it — growing a block in place
// is not a signal that child should become the MRU root.
func (l *List) Expand(b []byte, delta int) ([]byte, bool) {
	if l.closed {
		return nil, false
	}
	if len(b) == 0 {
		nb, ok := l.Allocate(delta)
		return nb, ok && len(nb) == delta
	}
	idx, ok := l.findOwner(b)
	if !ok {
		return nil, false
	}
	expander, ok := l.slots[idx].handle.child.(alloc.Expander)
	if !ok {
		return nil, false
	}
	nb, ok := expander.Expand(b, delta)
	if ok {
		l.slots[idx].handle.outstanding += delta
	}
	return nb, ok
}

// Reallocate resizes an existing block to s bytes, delegating to the
// owning child without promoting it; on failure it falls back to
// allocate-copy-free against the List itself.
func (l *List) Reallocate(b []byte, s int) ([]byte, bool) {
	if l.closed {
		return nil, false
	}
	if len(b) == 0 {
		return l.Allocate(s)
	}
	idx, ok := l.findOwner(b)
	if !ok {
		return nil, false
	}
	if re, ok := l.slots[idx].handle.child.(alloc.Reallocator); ok {
		if nb, ok := re.Reallocate(b, s); ok {
			l.slots[idx].handle.outstanding += len(nb) - len(b)
			return nb, true
		}
	}
	nb, ok := l.Allocate(s)
	if !ok {
		return nil, false
	}
	n := len(b)
	if s < n {
		n = s
	}
	copy(nb, b[:n])
	l.Deallocate(b)
	return nb, true
}

// Deallocate releases b, retiring another idle child if one becomes
// available now that b's child has gone idle too. b must be owned by
// some live child; violating that precondition panics.
func (l *List) Deallocate(b []byte) {
	if l.closed || len(b) == 0 {
		return
	}
	idx, ok := l.findOwner(b)
	if !ok {
		panic("listalloc: deallocate of a block owned by no live child")
	}
	dealloc, ok := l.slots[idx].handle.child.(alloc.Deallocator)
	if !ok {
		return
	}
	dealloc.Deallocate(b)
	l.promote(idx)
	l.slots[idx].handle.outstanding -= len(b)
	if l.slots[idx].handle.outstanding < 0 {
		l.slots[idx].handle.outstanding = 0
	}
	if !l.slots[idx].handle.empty() {
		return
	}
	l.releasePair(idx)
}

// releasePair implements pair-based release: starting just after the
// just-emptied root, find another live-and-empty slot and destroy it.
// The slot currently hosting the slot array's backing allocation is
// never a candidate — destroying it would free memory the List
// itself depends on.
func (l *List) releasePair(rootIdx int32) {
	for node := l.slots[rootIdx].next; node != noNext; node = l.slots[node].next {
		if node == rootIdx {
			continue
		}
		if l.ouroboros && node == l.hostingChild {
			continue
		}
		if l.slots[node].handle.empty() {
			l.destroySlot(node)
			return
		}
	}
}

func (l *List) destroySlot(idx int32) {
	child := l.slots[idx].handle.child
	if c, ok := child.(alloc.Closer); ok {
		_ = c.Close()
	}
	l.unlink(idx)
	l.slots[idx] = slot{state: slotUnused, next: noNext}
}

// DeallocateAll tears down every live child and, in ouroboros mode,
// has the special child release the slot array's backing allocation
// last, since every other child's teardown still needs to consult the
// slot array on the way down.
func (l *List) DeallocateAll() {
	if l.closed {
		return
	}
	if l.ouroboros {
		hosting := l.hostingChild
		for idx := range l.slots {
			i := int32(idx)
			if l.slots[i].state != slotLive || i == hosting {
				continue
			}
			l.retire(i)
		}
		if hosting != noNext {
			hc := l.slots[hosting].handle.child
			if d, ok := hc.(alloc.Deallocator); ok && len(l.hostingBlock) > 0 {
				d.Deallocate(l.hostingBlock)
			}
			if c, ok := hc.(alloc.Closer); ok {
				_ = c.Close()
			}
		}
	} else {
		for idx := range l.slots {
			i := int32(idx)
			if l.slots[i].state != slotLive {
				continue
			}
			l.retire(i)
		}
		if l.hostingBlock != nil {
			l.bookkeeping.Deallocate(l.hostingBlock)
		}
	}
	l.slots = nil
	l.root = noNext
	l.hostingChild = noNext
	l.hostingBlock = nil
}

func (l *List) retire(idx int32) {
	child := l.slots[idx].handle.child
	if ad, ok := child.(alloc.AllDeallocator); ok {
		ad.DeallocateAll()
	}
	if c, ok := child.(alloc.Closer); ok {
		_ = c.Close()
	}
}

// Close tears down the List. It is always safe to call, even if
// children lack DeallocateAll/Owner: DeallocateAll degrades to a
// no-op per missing capability rather than requiring them up front.
func (l *List) Close() error {
	if l.closed {
		return nil
	}
	l.DeallocateAll()
	l.closed = true
	return nil
}
