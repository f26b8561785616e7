package mrulist

import (
	"testing"
	"unsafe"

	"listalloc/alloc"
)

// fakeChild is a minimal arena-backed allocator implementing the full
// capability surface: no mocking framework, just a small real
// implementation driven directly by the tests. It deliberately does
// not implement Reallocator, so List tests can exercise the
// allocate-copy-free fallback without special-casing.
type fakeChild struct {
	cap    int
	buf    []byte
	off    int // bump offset, grows upward
	live   map[int]int
	closed bool
}

func newFakeChild(capacity int) *fakeChild {
	return &fakeChild{cap: capacity, buf: make([]byte, capacity), live: map[int]int{}}
}

func (c *fakeChild) Allocate(n int) []byte {
	if n <= 0 || c.off+n > c.cap {
		return nil
	}
	start := c.off
	c.off += n
	c.live[start] = n
	return c.buf[start : start+n]
}

func (c *fakeChild) Owns(b []byte) bool {
	return offsetWithin(c.buf, b) >= 0
}

func (c *fakeChild) Deallocate(b []byte) {
	start := offsetWithin(c.buf, b)
	if start < 0 {
		return
	}
	delete(c.live, start)
}

func (c *fakeChild) DeallocateAll() {
	c.live = map[int]int{}
	c.off = 0
}

func (c *fakeChild) Expand(b []byte, delta int) ([]byte, bool) {
	start := offsetWithin(c.buf, b)
	if start < 0 {
		return nil, false
	}
	n, ok := c.live[start]
	if !ok || start+n != c.off || c.off+delta > c.cap {
		return nil, false
	}
	c.off += delta
	c.live[start] = n + delta
	return c.buf[start : start+n+delta], true
}

func (c *fakeChild) Alignment() int { return 1 }

func (c *fakeChild) Close() error {
	c.closed = true
	return nil
}

// offsetWithin returns b's start offset inside buf, or -1 if b does
// not point into buf.
func offsetWithin(buf, b []byte) int {
	if len(buf) == 0 || len(b) == 0 {
		return -1
	}
	bp := uintptr(unsafe.Pointer(&b[0]))
	base := uintptr(unsafe.Pointer(&buf[0]))
	if bp < base || bp >= base+uintptr(len(buf)) {
		return -1
	}
	return int(bp - base)
}

// reallocatingChild wraps fakeChild and implements alloc.Reallocator,
// growing or shrinking a block by bump-allocating a fresh one and
// copying, the way a real child with its own reallocation fast
// path would report success without List ever falling back to
// allocate-copy-free itself.
type reallocatingChild struct {
	*fakeChild
}

func newReallocatingChild(capacity int) *reallocatingChild {
	return &reallocatingChild{fakeChild: newFakeChild(capacity)}
}

func (c *reallocatingChild) Reallocate(b []byte, s int) ([]byte, bool) {
	nb := c.Allocate(s)
	if nb == nil {
		return nil, false
	}
	n := len(b)
	if s < n {
		n = s
	}
	copy(nb, b[:n])
	c.Deallocate(b)
	return nb, true
}

func reallocatingFactory(capacity int) alloc.Factory {
	return func(n int) (alloc.Allocator, bool) {
		if n > capacity {
			return newReallocatingChild(n), true
		}
		return newReallocatingChild(capacity), true
	}
}

func testFactory(capacity int) alloc.Factory {
	return func(n int) (alloc.Allocator, bool) {
		if n > capacity {
			return newFakeChild(n), true
		}
		return newFakeChild(capacity), true
	}
}

// ceilingFactory ignores the requested size entirely, modeling a
// factory with a hard per-child capacity ceiling: it always produces
// a child, but that child cannot necessarily satisfy the request that
// triggered its creation.
func ceilingFactory(capacity int) alloc.Factory {
	return func(n int) (alloc.Allocator, bool) {
		return newFakeChild(capacity), true
	}
}

func newExternalList(t *testing.T, childCap int) *List {
	t.Helper()
	bk := newFakeChild(64 << 10)
	l, err := New(Options{
		Factory:     testFactory(childCap),
		Bookkeeping: bk,
		Alignment:   8,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func newOuroborosList(t *testing.T, childCap int) *List {
	t.Helper()
	l, err := New(Options{
		Factory:   testFactory(childCap),
		Ouroboros: true,
		Alignment: 8,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestNewRequiresFactory(t *testing.T) {
	_, err := New(Options{Bookkeeping: newFakeChild(1024)})
	if err == nil {
		t.Fatal("expected error for missing factory")
	}
}

func TestNewRequiresBookkeepingUnlessOuroboros(t *testing.T) {
	_, err := New(Options{Factory: testFactory(1024)})
	if err == nil {
		t.Fatal("expected error for missing bookkeeping allocator")
	}
	if _, err := New(Options{Factory: testFactory(1024), Ouroboros: true}); err != nil {
		t.Fatalf("ouroboros mode should not require bookkeeping: %v", err)
	}
}

func TestAllocateGrowsOnFirstUse(t *testing.T) {
	l := newExternalList(t, 4096)
	if !l.Empty() {
		t.Fatal("fresh list should be empty")
	}
	b, ok := l.Allocate(100)
	if !ok || len(b) != 100 {
		t.Fatalf("Allocate(100) = %v, %v", b, ok)
	}
	if l.Empty() {
		t.Fatal("list should not be empty after allocation")
	}
}

func TestAllocateServesFromExistingChild(t *testing.T) {
	l := newExternalList(t, 4096)
	l.Allocate(100)
	second, ok := l.Allocate(50)
	if !ok || len(second) != 50 {
		t.Fatalf("second allocate failed: %v %v", second, ok)
	}
}

func TestAllocatePromotesServingChildToRoot(t *testing.T) {
	l := newExternalList(t, 100)
	l.Allocate(60) // child A serves, becomes root; 40 bytes free in A
	rootA := l.root
	l.Allocate(100) // A can't serve 100 (only 40 free) -> child B created, serves, becomes root
	rootB := l.root
	if rootA == rootB {
		t.Fatal("expected a distinct second child")
	}
	// B is now fully consumed; a further request must skip it and
	// fall back to A, promoting A back to root.
	if _, ok := l.Allocate(30); !ok {
		t.Fatal("expected A to satisfy the request")
	}
	if l.root != rootA {
		t.Fatalf("root should be promoted to the serving slot, got %d want %d", l.root, rootA)
	}
}

func TestAllocateFailsWithoutCreatingSecondFreshChild(t *testing.T) {
	bk := newFakeChild(64 << 10)
	l, err := New(Options{
		Factory:     ceilingFactory(100),
		Bookkeeping: bk,
		Alignment:   8,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	full, ok := l.Allocate(100)
	if !ok || len(full) != 100 {
		t.Fatalf("expected to exhaust the first child's full capacity: %v %v", full, ok)
	}
	slotsBefore := len(l.slots)

	// A request larger than the fresh child's own capacity: the
	// factory still produces a new child (it is not yet known to be
	// too small), but that child's own Allocate call comes back
	// short, so the overall request fails and the new, now-empty
	// child is left as root.
	_, ok = l.Allocate(500)
	if ok {
		t.Fatal("expected failure for an over-sized request")
	}
	if len(l.slots) != slotsBefore+1 {
		t.Fatalf("expected exactly one new child, slots went from %d to %d", slotsBefore, len(l.slots))
	}
	if !l.slots[l.root].handle.empty() {
		t.Fatal("the fresh child that failed to satisfy the request should be empty")
	}

	// A second identical request must fail fast off the empty root
	// rather than create yet another child.
	if _, ok := l.Allocate(500); ok {
		t.Fatal("expected continued failure, not a second new child")
	}
	if len(l.slots) != slotsBefore+1 {
		t.Fatalf("expected no further growth, slots now %d", len(l.slots))
	}
}

func TestOwnsPromotesOwner(t *testing.T) {
	l := newExternalList(t, 10)
	l.Allocate(10) // fills child A entirely
	other := l.root
	b, _ := l.Allocate(20) // A has no room left -> forces a second child
	if l.root == other {
		t.Fatal("expected allocate to have created and promoted a distinct child")
	}
	secondRoot := l.root
	_ = secondRoot
	// Promote `other` back to front, then confirm Owns on b restores
	// the true owner (the second child) to root.
	l.promote(other)
	if !l.Owns(b) {
		t.Fatal("expected Owns to find the owning child")
	}
	if l.root == other {
		t.Fatalf("Owns should promote the real owner of b, not leave root at %d", other)
	}
}

func TestDeallocatePairBasedRelease(t *testing.T) {
	l := newExternalList(t, 64)
	a, _ := l.Allocate(64) // fills child A entirely
	rootA := l.root
	b, ok := l.Allocate(64) // forces a second child B
	if !ok {
		t.Fatal("expected second child to be created")
	}
	rootB := l.root
	if rootA == rootB {
		t.Fatal("expected distinct children")
	}

	l.Deallocate(a) // empties A; B is still non-empty -> no release yet
	if l.slots[rootA].state != slotLive {
		t.Fatal("A should still be live, there is no second empty slot yet")
	}

	l.Deallocate(b) // empties B (now root); A is the other empty slot
	liveCount := 0
	for _, s := range l.slots {
		if s.state == slotLive {
			liveCount++
		}
	}
	if liveCount != 1 {
		t.Fatalf("pair-based release should leave exactly one live child, got %d", liveCount)
	}
}

func TestDeallocateOfUnownedBlockPanics(t *testing.T) {
	l := newExternalList(t, 4096)
	l.Allocate(10)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for deallocating an unowned block")
		}
	}()
	l.Deallocate(make([]byte, 10))
}

func TestExpandDoesNotPromote(t *testing.T) {
	l := newExternalList(t, 4096)
	b, ok := l.Allocate(50) // child A, becomes root
	if !ok {
		t.Fatal("Allocate failed")
	}
	root := l.root
	l.addAllocator(50) // child B created directly, becomes new root
	other := l.root
	if root == other {
		t.Fatal("expected distinct slots")
	}
	if _, ok := l.Expand(b, 10); !ok {
		t.Fatal("expected tail expand to succeed")
	}
	if l.root != other {
		t.Fatalf("Expand must not promote the owner, root=%d want=%d", l.root, other)
	}
}

func TestReallocateFallsBackToAllocateCopyFree(t *testing.T) {
	l := newExternalList(t, 4096)
	b, ok := l.Allocate(10)
	if !ok {
		t.Fatal("Allocate failed")
	}
	copy(b, []byte("0123456789"))
	nb, ok := l.Reallocate(b, 20)
	if !ok {
		t.Fatal("Reallocate failed")
	}
	if len(nb) != 20 {
		t.Fatalf("Reallocate length = %d, want 20", len(nb))
	}
	if string(nb[:10]) != "0123456789" {
		t.Fatalf("Reallocate did not preserve data: %q", nb[:10])
	}
}

func TestReallocateDelegatesWithoutPromoting(t *testing.T) {
	bk := newFakeChild(64 << 10)
	l, err := New(Options{
		Factory:     reallocatingFactory(4096),
		Bookkeeping: bk,
		Alignment:   8,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, ok := l.Allocate(50) // child A, becomes root
	if !ok {
		t.Fatal("Allocate failed")
	}
	copy(b, []byte("0123456789"))
	root := l.root
	l.addAllocator(50) // child B created directly, becomes new root
	other := l.root
	if root == other {
		t.Fatal("expected distinct slots")
	}

	nb, ok := l.Reallocate(b, 20)
	if !ok {
		t.Fatal("Reallocate failed")
	}
	if len(nb) != 20 {
		t.Fatalf("Reallocate length = %d, want 20", len(nb))
	}
	if string(nb[:10]) != "0123456789" {
		t.Fatalf("Reallocate did not preserve data: %q", nb[:10])
	}
	if l.root != other {
		t.Fatalf("direct-delegate Reallocate must not promote the owner, root=%d want=%d", l.root, other)
	}
}

func TestDeallocateAllExternalReleasesBookkeeping(t *testing.T) {
	l := newExternalList(t, 4096)
	l.Allocate(10)
	l.Allocate(20)
	l.DeallocateAll()
	if !l.Empty() {
		t.Fatal("DeallocateAll should leave the list empty")
	}
	if l.hostingBlock != nil {
		t.Fatal("hosting block should be released")
	}
}

func TestOuroborosGrowthOwnsSlotArray(t *testing.T) {
	l := newOuroborosList(t, 4096)
	l.Allocate(10)
	if l.hostingChild == noNext {
		t.Fatal("expected a hosting child after first growth")
	}
	hosting := l.slots[l.hostingChild].handle.child.(*fakeChild)
	if !hosting.Owns(l.hostingBlock) {
		t.Fatal("the special child must own the slot array's backing allocation")
	}
}

func TestOuroborosRelocationPreservesOldHostOutstanding(t *testing.T) {
	l := newOuroborosList(t, 4096)

	cb1, ok := l.Allocate(10)
	if !ok {
		t.Fatal("Allocate failed")
	}
	copy(cb1, []byte("0123456789"))
	firstHost := l.hostingChild
	if firstHost == noNext {
		t.Fatal("expected a hosting child after first growth")
	}
	firstHostOutstanding := l.slots[firstHost].handle.outstanding
	if firstHostOutstanding != 10 {
		t.Fatalf("expected the first hosting child's outstanding count to track only its client block, got %d", firstHostOutstanding)
	}

	// Force a second growth event. cb1 now sits right after the
	// hosting block in the first host's buffer, so the hosting block
	// is no longer at that child's tail and Expand cannot grow it in
	// place: addAllocator must relocate the slot array to a fresh
	// hosting child instead of expanding the old one.
	if _, ok := l.Allocate(4060); !ok {
		t.Fatal("expected the relocating growth to succeed")
	}
	if l.hostingChild == firstHost {
		t.Fatal("expected the slot array to have relocated to a new hosting child")
	}

	if got := l.slots[firstHost].handle.outstanding; got != firstHostOutstanding {
		t.Fatalf("relocating the slot array must not touch the old hosting child's outstanding count, got %d want %d", got, firstHostOutstanding)
	}
	if l.slots[firstHost].state != slotLive {
		t.Fatal("the old hosting child still holds a live client block and must not be destroyed")
	}
	if string(cb1[:10]) != "0123456789" {
		t.Fatalf("old hosting child's client block was corrupted: %q", cb1[:10])
	}
}

func TestOuroborosDeallocateAllReleasesSpecialLast(t *testing.T) {
	l := newOuroborosList(t, 4096)
	l.Allocate(10)
	l.Allocate(4060) // exceeds what's left in the first child, forcing a second growth event
	if len(l.slots) < 2 {
		t.Fatal("expected at least two slots after forcing growth")
	}
	l.DeallocateAll()
	if !l.Empty() {
		t.Fatal("DeallocateAll should leave the ouroboros list empty")
	}
	if l.hostingChild != noNext || l.hostingBlock != nil {
		t.Fatal("hosting bookkeeping should be fully cleared")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	l := newExternalList(t, 1024)
	l.Allocate(10)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := l.Allocate(10); ok {
		t.Fatal("Allocate after Close should fail")
	}
}
