// Package region acquires and releases page-aligned, anonymous memory
// directly from the operating system.
package region

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Region is a single contiguous, page-aligned byte range owned exclusively
// by whoever acquired it.
type Region struct {
	mem  []byte
	base unsafe.Pointer
}

// Acquire maps a private, anonymous, zero-initialized, read-write region
// of at least size bytes. The returned region is rounded up to a whole
// number of OS pages.
func Acquire(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region: acquire: size must be positive, got %d", size)
	}
	pageSize := unix.Getpagesize()
	rounded := ((size + pageSize - 1) / pageSize) * pageSize
	mem, err := unix.Mmap(-1, 0, rounded, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("region: mmap %d bytes: %w", rounded, err)
	}
	return &Region{
		mem:  mem,
		base: unsafe.Pointer(&mem[0]),
	}, nil
}

// Base returns the start address of the region.
func (r *Region) Base() unsafe.Pointer {
	return r.base
}

// Size returns the page-rounded byte count actually mapped.
func (r *Region) Size() int {
	return len(r.mem)
}

// Release returns the region to the operating system. Using the region
// or any pointer derived from it after Release is undefined.
func (r *Region) Release() error {
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	r.base = nil
	if err != nil {
		return fmt.Errorf("region: munmap: %w", err)
	}
	return nil
}
