// Package region provides a child allocator backed by a memory
// mapping: a size-classed free list with a tail-bump fallback for
// allocations that don't match a freed block's class. A Region can be
// backed by an anonymous mapping (NewRegion) or by a file (
// NewFileRegion), for callers that want the allocation to survive a
// process restart or be shared across processes.
package region

import (
	"fmt"
	"os"

	"listalloc/alloc"
	"listalloc/internal/errs"
	"listalloc/internal/mmap"
)

// ErrCapacity is returned by NewRegion for a non-positive capacity.
var ErrCapacity = errs.ErrBadArgument

const align = 8

// sizeClass rounds n up to the nearest multiple of align, the same
// bucketing util.SizeClass uses to keep the free list small.
func sizeClass(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + align - 1) / align * align
}

// Region is a fixed-capacity arena: new blocks are bump-allocated from
// the tail, and freed blocks are bucketed by size class and reused
// before the tail is touched again.
type Region struct {
	data []byte
	off  int
	file *os.File

	free  map[int][]int
	truth map[int]int

	closed bool
}

// NewRegion reserves a region able to host up to capacity bytes of
// client allocations, on top of a small reserved header, backed by an
// anonymous mapping with no file behind it.
func NewRegion(capacity int) (*Region, error) {
	if capacity <= 0 {
		return nil, ErrCapacity
	}
	data, err := mmap.MapAnon(capacity + headerSize)
	if err != nil {
		return nil, fmt.Errorf("region: map: %w", err)
	}
	r := &Region{
		data:  data,
		off:   headerSize,
		free:  make(map[int][]int),
		truth: make(map[int]int),
	}
	r.writeHeader(capacity)
	return r, nil
}

// NewFileRegion opens (creating if necessary) the file at path, grows
// it to fit capacity bytes of client allocations plus the reserved
// header, and maps it as a Region whose contents persist across
// process restarts and can be shared with another process that maps
// the same file. Call Sync to flush in-memory writes back to disk.
func NewFileRegion(path string, capacity int) (*Region, error) {
	if capacity <= 0 {
		return nil, ErrCapacity
	}
	size := capacity + headerSize
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("region: open: %w", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("region: truncate: %w", err)
	}
	data, err := mmap.Map(f.Fd(), size)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("region: map: %w", err)
	}
	r := &Region{
		data:  data,
		off:   headerSize,
		file:  f,
		free:  make(map[int][]int),
		truth: make(map[int]int),
	}
	r.writeHeader(capacity)
	return r, nil
}

// Allocate returns a zeroed block of exactly n bytes, preferring a
// reused block of the right size class before growing the tail.
func (r *Region) Allocate(n int) []byte {
	if r.closed || n <= 0 {
		return nil
	}
	c := sizeClass(n)
	if stack := r.free[c]; len(stack) > 0 {
		off := stack[len(stack)-1]
		r.free[c] = stack[:len(stack)-1]
		delete(r.truth, off)
		clear(r.data[off : off+n])
		return r.data[off : off+n]
	}
	if r.off+c > len(r.data) {
		return nil
	}
	off := r.off
	r.off += c
	clear(r.data[off : off+n])
	return r.data[off : off+n]
}

// Owns reports whether b is a sub-slice of this region's backing
// mapping.
func (r *Region) Owns(b []byte) bool {
	return r.offsetOf(b) >= 0
}

// offsetOf returns b's byte offset into the region's mapping, or -1
// if b does not point inside it.
func (r *Region) offsetOf(b []byte) int {
	if r.closed || len(r.data) == 0 || len(b) == 0 {
		return -1
	}
	lo := &r.data[0]
	hi := &r.data[len(r.data)-1]
	bLo := &b[0]
	bHi := &b[len(b)-1]
	if ptrLess(bLo, lo) || ptrLess(hi, bHi) {
		return -1
	}
	return ptrDiff(bLo, lo)
}

// Expand grows b by delta bytes in place. It only succeeds when b sits
// exactly at the current tail; a block anywhere else can't grow
// without colliding with whatever follows it.
func (r *Region) Expand(b []byte, delta int) ([]byte, bool) {
	if r.closed || delta <= 0 {
		return nil, false
	}
	off := r.offsetOf(b)
	if off < 0 || off+len(b) != r.off {
		return nil, false
	}
	if r.off+delta > len(r.data) {
		return nil, false
	}
	r.off += delta
	return r.data[off : off+len(b)+delta], true
}

// Deallocate files b's size class on the free list for reuse. Freeing
// a block twice is a no-op.
func (r *Region) Deallocate(b []byte) {
	if r.closed || len(b) == 0 {
		return
	}
	off := r.offsetOf(b)
	if off < 0 {
		return
	}
	if _, already := r.truth[off]; already {
		return
	}
	c := sizeClass(len(b))
	r.truth[off] = c
	r.free[c] = append(r.free[c], off)
}

// DeallocateAll resets the region to empty without unmapping it.
func (r *Region) DeallocateAll() {
	if r.closed {
		return
	}
	r.off = headerSize
	r.free = make(map[int][]int)
	r.truth = make(map[int]int)
}

// Alignment reports the byte alignment every block satisfies.
func (r *Region) Alignment() int { return align }

// Sync flushes a file-backed region's in-memory writes to disk. It is
// a no-op for a region created with NewRegion, since an anonymous
// mapping has nothing backing it to flush to.
func (r *Region) Sync() error {
	if r.closed || r.file == nil {
		return nil
	}
	return mmap.Sync(r.data)
}

// Close unmaps the region's backing memory, and closes its backing
// file if it has one. It is safe to call more than once.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.data == nil {
		return nil
	}
	err := mmap.Unmap(r.data)
	r.data = nil
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NewFactory returns an alloc.Factory that produces a fresh Region
// sized to at least n bytes, rounded up to capacity if n is smaller.
func NewFactory(capacity int) alloc.Factory {
	return func(n int) (alloc.Allocator, bool) {
		size := capacity
		if n > size {
			size = n
		}
		r, err := NewRegion(size)
		if err != nil {
			return nil, false
		}
		return r, true
	}
}
