package mrulist

import "listalloc/alloc"

// addAllocator appends one new child sized to satisfy at least s
// bytes, always appending a new slot to the slot array; slots left
// unused by an earlier release are not reused. Existing slot metadata
// never needs relocating: indices are stable across append, so only
// the allocation backing the slot array's footprint (in the hosting
// child or the bookkeeping allocator, never the slot metadata itself)
// is ever actually relocated.
func (l *List) addAllocator(s int) bool {
	if l.ouroboros {
		return l.addAllocatorOuroboros(s)
	}
	return l.addAllocatorExternal(s)
}

func (l *List) addAllocatorOuroboros(s int) bool {
	n := len(l.slots)

	if l.hostingChild != noNext {
		hc := l.slots[l.hostingChild].handle.child
		if expander, ok := hc.(alloc.Expander); ok {
			if nb, ok := expander.Expand(l.hostingBlock, slotSize); ok {
				l.hostingBlock = nb
				idx := int32(n)
				l.slots = append(l.slots, slot{state: slotUnused, next: noNext})
				return l.installNewChild(s, idx)
			}
		}
	}

	need := (n+1)*slotSize + s + hostingHeadroom
	child, ok := l.factory(need)
	if !ok {
		return false
	}
	hostBlock := child.Allocate((n + 1) * slotSize)
	if len(hostBlock) != (n+1)*slotSize {
		return false
	}

	oldHostingChild := l.hostingChild
	oldHostingBlock := l.hostingBlock

	idx := int32(n)
	l.slots = append(l.slots, slot{
		state:  slotLive,
		next:   l.root,
		handle: childHandle{child: child},
	})
	l.root = idx
	l.hostingChild = idx
	l.hostingBlock = hostBlock

	if oldHostingChild != noNext {
		// Release oldHostingBlock directly on the old hosting child's
		// own allocator, the same way addAllocatorExternal releases
		// the bookkeeping allocator's old backing block. The hosting
		// footprint was never credited to that slot's outstanding
		// counter (it isn't a client allocation), so routing this
		// through the composite's own Deallocate would debit bytes
		// that were never added, potentially zeroing outstanding out
		// from under a client block that child still legitimately
		// holds.
		if d, ok := l.slots[oldHostingChild].handle.child.(alloc.Deallocator); ok {
			d.Deallocate(oldHostingBlock)
		}
	}
	return true
}

func (l *List) addAllocatorExternal(s int) bool {
	n := len(l.slots)
	grew := false
	if l.hostingBlock != nil {
		if nb, ok := l.bookkeeping.Expand(l.hostingBlock, slotSize); ok {
			l.hostingBlock = nb
			grew = true
		}
	}
	if !grew {
		nb := l.bookkeeping.Allocate((n + 1) * slotSize)
		if len(nb) != (n+1)*slotSize {
			return false
		}
		old := l.hostingBlock
		l.hostingBlock = nb
		if old != nil {
			l.bookkeeping.Deallocate(old)
		}
	}
	idx := int32(n)
	l.slots = append(l.slots, slot{state: slotUnused, next: noNext})
	return l.installNewChild(s, idx)
}

// installNewChild produces an ordinary child via the factory and
// installs it into the reserved-but-unused slot at idx, making it the
// new MRU root. The slot is left unused (harmless, already reserved
// capacity) if the factory cannot produce a child.
func (l *List) installNewChild(s int, idx int32) bool {
	child, ok := l.factory(s)
	if !ok {
		return false
	}
	l.slots[idx] = slot{
		state:  slotLive,
		next:   l.root,
		handle: childHandle{child: child},
	}
	l.root = idx
	return true
}
