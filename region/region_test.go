package region

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateBumpsTail(t *testing.T) {
	r, err := NewRegion(4096)
	require.NoError(t, err)
	defer r.Close()

	a := r.Allocate(16)
	require.Len(t, a, 16)
	b := r.Allocate(16)
	require.Len(t, b, 16)
	require.False(t, r.offsetOf(a) == r.offsetOf(b))
}

func TestAllocateFailsWhenExhausted(t *testing.T) {
	r, err := NewRegion(32)
	require.NoError(t, err)
	defer r.Close()

	require.NotNil(t, r.Allocate(32))
	require.Nil(t, r.Allocate(1))
}

func TestDeallocateReusesSizeClass(t *testing.T) {
	r, err := NewRegion(4096)
	require.NoError(t, err)
	defer r.Close()

	a := r.Allocate(16)
	off := r.offsetOf(a)
	r.Deallocate(a)
	b := r.Allocate(16)
	require.Equal(t, off, r.offsetOf(b), "expected the freed block to be reused before growing the tail")
}

func TestDeallocateTwiceIsNoOp(t *testing.T) {
	r, err := NewRegion(4096)
	require.NoError(t, err)
	defer r.Close()

	a := r.Allocate(16)
	r.Deallocate(a)
	r.Deallocate(a) // must not duplicate the free-list entry
	require.Len(t, r.free[sizeClass(16)], 1)
}

func TestExpandOnlySucceedsAtTail(t *testing.T) {
	r, err := NewRegion(4096)
	require.NoError(t, err)
	defer r.Close()

	a := r.Allocate(16)
	b := r.Allocate(16)
	_, ok := r.Expand(a, 8)
	require.False(t, ok, "a is no longer at the tail once b has been allocated")

	grown, ok := r.Expand(b, 8)
	require.True(t, ok)
	require.Len(t, grown, 24)
}

func TestOwns(t *testing.T) {
	r, err := NewRegion(64)
	require.NoError(t, err)
	defer r.Close()

	a := r.Allocate(16)
	require.True(t, r.Owns(a))
	require.False(t, r.Owns(make([]byte, 16)))
}

func TestDeallocateAllResetsWithoutUnmapping(t *testing.T) {
	r, err := NewRegion(4096)
	require.NoError(t, err)
	defer r.Close()

	r.Allocate(100)
	r.DeallocateAll()
	require.Equal(t, headerSize, r.off)
	a := r.Allocate(50)
	require.Len(t, a, 50)
}

func TestCloseUnmapsAndIsIdempotent(t *testing.T) {
	r, err := NewRegion(4096)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	require.Nil(t, r.Allocate(1))
}

func TestValidateHeaderSucceedsOnFreshRegion(t *testing.T) {
	r, err := NewRegion(4096)
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.ValidateHeader())
}

func TestValidateHeaderDetectsCorruption(t *testing.T) {
	r, err := NewRegion(4096)
	require.NoError(t, err)
	defer r.Close()
	r.data[0] ^= 0xFF // corrupt the magic
	require.ErrorIs(t, r.ValidateHeader(), ErrCorruptHeader)
}

func TestNewFileRegionPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")

	r, err := NewFileRegion(path, 4096)
	require.NoError(t, err)
	a := r.Allocate(16)
	require.Len(t, a, 16)
	copy(a, []byte("persisted-block!"))
	require.NoError(t, r.Sync())
	require.NoError(t, r.Close())

	r2, err := NewFileRegion(path, 4096)
	require.NoError(t, err)
	defer r2.Close()
	require.NoError(t, r2.ValidateHeader())
	require.Equal(t, []byte("persisted-block!"), r2.data[headerSize:headerSize+16])
}

func TestNewFileRegionSyncIsNoOpOnAnonymousRegion(t *testing.T) {
	r, err := NewRegion(4096)
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.Sync())
}

func TestNewFileRegionCloseClosesBackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")

	r, err := NewFileRegion(path, 4096)
	require.NoError(t, err)
	f := r.file
	require.NoError(t, r.Close())
	require.Error(t, f.Close(), "file should already be closed by Region.Close")
}

func TestNewFactoryGrowsBeyondCapacityForLargeRequests(t *testing.T) {
	factory := NewFactory(64)
	a, ok := factory(256)
	require.True(t, ok)
	require.NotNil(t, a.Allocate(200))
}
