package bump

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateGrowsPastInitialCapacity(t *testing.T) {
	a := NewArena(8)
	first := a.Allocate(8)
	require.Len(t, first, 8)

	second := a.Allocate(100)
	require.Len(t, second, 100)
	require.Len(t, first, 8) // unaffected even though growth reallocated the backing buffer
	require.True(t, a.Owns(second))
}

func TestExpandOnlyGrowsTheTailBlock(t *testing.T) {
	a := NewArena(64)
	first := a.Allocate(8)
	second := a.Allocate(8)

	_, ok := a.Expand(first, 8)
	require.False(t, ok)

	grown, ok := a.Expand(second, 8)
	require.True(t, ok)
	require.Len(t, grown, 16)
}

func TestOwnsRejectsForeignSlice(t *testing.T) {
	a := NewArena(64)
	require.False(t, a.Owns(make([]byte, 8)))
}

func TestNewFactoryIgnoresRequestedSize(t *testing.T) {
	factory := NewFactory(8)
	child, ok := factory(4096)
	require.True(t, ok)
	require.NotNil(t, child.Allocate(4096))
}
