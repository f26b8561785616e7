package listalloc

import "listalloc/internal/fixed"

// PutFixed writes v's raw layout directly into block, a raw block the
// List itself allocated. T must contain no pointers, slices, maps,
// strings, interfaces, or channels.
func PutFixed[T any](block []byte, v *T) error {
	return fixed.Put(block, v)
}

// ViewFixed reinterprets block's leading bytes as *T without copying.
// The returned pointer aliases block; it stays valid only as long as
// block does.
func ViewFixed[T any](block []byte) (*T, error) {
	return fixed.View[T](block)
}
