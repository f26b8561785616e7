//go:build unix

package mmap

import (
	"golang.org/x/sys/unix"
)

// Map maps the file fd's [0, size) range as shared, read-write memory.
func Map(fd uintptr, size int) ([]byte, error) {
	return unix.Mmap(int(fd), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// MapAnon reserves size bytes of anonymous, process-private memory,
// for callers that need a mapping with no backing file.
func MapAnon(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// Sync flushes a file-backed mapping back to disk.
func Sync(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}

// Unmap releases a mapping returned by Map or MapAnon.
func Unmap(data []byte) error {
	return unix.Munmap(data)
}
