// Package errs collects sentinel errors shared by the reference child
// allocators (region, freelist).
package errs

import "errors"

var (
	ErrBadArgument = errors.New("allocator: bad argument")
	ErrCorrupt     = errors.New("allocator: corrupt")
)
