// Package fixed views raw, pointer-free fixed-layout values directly
// inside a []byte block, letting a caller treat a block the List
// allocated as a typed struct without copying through an intermediate
// encoding.
package fixed

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// pointerFreeCache memoizes the pointer scan per type. Put/View run on
// every allocation a caller makes through this package rather than
// once per stored value, so re-walking a type's fields with reflect
// on each call would dominate the cost of what's meant to be a
// zero-copy operation.
var pointerFreeCache sync.Map // reflect.Type -> error (nil entry means pointer-free)

func noPointers[T any]() error {
	var zero T
	t := reflect.TypeOf(zero)
	if cached, ok := pointerFreeCache.Load(t); ok {
		if cached == nil {
			return nil
		}
		return cached.(error)
	}
	err := scanForPointers(t)
	pointerFreeCache.Store(t, err)
	return err
}

func scanForPointers(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Array:
		return scanForPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if err := scanForPointers(t.Field(i).Type); err != nil {
				return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
			}
		}
		return nil
	case reflect.String, reflect.Slice, reflect.Map, reflect.Pointer,
		reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Errorf("type %s contains pointer-like data", t.String())
	default:
		return fmt.Errorf("unsupported kind %s (%s)", t.Kind(), t.String())
	}
}

func bytesViewOf[T any](p *T) []byte {
	n := int(unsafe.Sizeof(*p))
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}

// Put writes v's raw layout into b. b must be at least sizeof(T)
// bytes; T must contain no pointers, slices, maps, strings, or
// interfaces, since nothing outside the Go runtime's normal pointer
// scanning will ever see this memory as anything but bytes.
func Put[T any](b []byte, v *T) error {
	if err := noPointers[T](); err != nil {
		return err
	}
	n := int(unsafe.Sizeof(*v))
	if len(b) < n {
		return fmt.Errorf("fixed: block too small: have=%d want=%d", len(b), n)
	}
	copy(b, bytesViewOf(v))
	return nil
}

// View reinterprets the first sizeof(T) bytes of b as *T, in place,
// with no copy. Mutating the returned pointer mutates b.
func View[T any](b []byte) (*T, error) {
	if err := noPointers[T](); err != nil {
		return nil, err
	}
	var zero T
	n := int(unsafe.Sizeof(zero))
	if len(b) < n {
		return nil, fmt.Errorf("fixed: block too small: have=%d want=%d", len(b), n)
	}
	return (*T)(unsafe.Pointer(&b[0])), nil
}
