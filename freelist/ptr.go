package freelist

import "unsafe"

func ptrLess(a, b *byte) bool {
	return uintptr(unsafe.Pointer(a)) < uintptr(unsafe.Pointer(b))
}

func ptrDiff(a, b *byte) int {
	return int(uintptr(unsafe.Pointer(a)) - uintptr(unsafe.Pointer(b)))
}
