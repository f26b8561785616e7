package region

import "unsafe"

// ptrLess and ptrDiff do raw pointer comparison/arithmetic over the
// region's own backing array, the same unsafe.Pointer idiom
// internal/fixed/fixed.go uses for laying out fixed types, applied
// here only to offsets rather than field contents.

func ptrLess(a, b *byte) bool {
	return uintptr(unsafe.Pointer(a)) < uintptr(unsafe.Pointer(b))
}

func ptrDiff(a, b *byte) int {
	return int(uintptr(unsafe.Pointer(a)) - uintptr(unsafe.Pointer(b)))
}
