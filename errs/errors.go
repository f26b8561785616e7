// Package errs collects the sentinel errors returned across the
// listalloc module, following the same one-file-per-module convention
// as the allocator it was generalized from.
package errs

import "errors"

var (
	// ErrNoFactory is returned by New when no Factory is configured.
	ErrNoFactory = errors.New("listalloc: no factory configured")
	// ErrNoBookkeeping is returned by New when external bookkeeping
	// mode is selected but no Bookkeeping allocator is supplied.
	ErrNoBookkeeping = errors.New("listalloc: external bookkeeping mode requires a Bookkeeping allocator")
)
