// Package slab hands out fixed-size objects from a single preallocated
// region, using an intrusive singly-linked free list stored inside the
// objects themselves. All operations are serialized by a single mutex.
package slab

import (
	"sync"
	"unsafe"

	"github.com/Feralthedogg/Allocates/bulkset"
	"github.com/Feralthedogg/Allocates/region"
)

// headerSize is the reserved prefix of every cell; while a cell is free,
// its first machine word (inside this header) holds the next-link.
const headerSize = 32

const wordSize = unsafe.Sizeof(uintptr(0))

// Slab manages one region of equal-sized cells.
type Slab struct {
	mu       sync.Mutex
	region   *region.Region
	base     unsafe.Pointer
	cellSize uintptr
	capacity int
	freeHead unsafe.Pointer // nil is the empty sentinel
}

// Stats is a point-in-time, diagnostic-only snapshot.
type Stats struct {
	Capacity int
	InUse    int
}

func alignUp16(n int) uintptr {
	return (uintptr(n) + 15) &^ 15
}

// New initializes a slab of capacity equal-sized cells, each at least
// objectSize bytes of total stride (header included). objectSize is
// rounded up to a 16-byte multiple and floored at headerSize, so the
// "first 32 bytes are a header" invariant always holds.
func New(capacity int, objectSize int) (*Slab, error) {
	if capacity < 1 {
		return nil, ErrCapacity
	}
	if objectSize < int(wordSize) {
		return nil, ErrObjectSize
	}

	cellSize := alignUp16(objectSize)
	if cellSize < headerSize {
		cellSize = headerSize
	}

	r, err := region.Acquire(int(cellSize) * capacity)
	if err != nil {
		return nil, err
	}

	s := &Slab{
		region:   r,
		base:     r.Base(),
		cellSize: cellSize,
		capacity: capacity,
	}
	s.buildFreeList()
	return s, nil
}

func (s *Slab) cellAt(i int) unsafe.Pointer {
	return unsafe.Pointer(uintptr(s.base) + uintptr(i)*s.cellSize)
}

func readNext(cell unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(cell)
}

func writeNext(cell unsafe.Pointer, next unsafe.Pointer) {
	*(*unsafe.Pointer)(cell) = next
}

// buildFreeList links cell i to cell i+1 in ascending order, terminating
// the last cell with the nil sentinel. Caller must hold s.mu.
func (s *Slab) buildFreeList() {
	for i := 0; i < s.capacity-1; i++ {
		writeNext(s.cellAt(i), s.cellAt(i+1))
	}
	writeNext(s.cellAt(s.capacity-1), nil)
	s.freeHead = s.cellAt(0)
}

// Alloc pops the first free cell and returns a pointer to its payload
// (cell + headerSize), or (nil, false) if the slab is full.
func (s *Slab) Alloc() (unsafe.Pointer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.freeHead == nil {
		return nil, false
	}
	head := s.freeHead
	s.freeHead = readNext(head)
	return unsafe.Pointer(uintptr(head) + headerSize), true
}

// Free pushes the cell owning ptr back onto the free list. ptr must be a
// value previously returned by Alloc and not already freed.
func (s *Slab) Free(ptr unsafe.Pointer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell := unsafe.Pointer(uintptr(ptr) - headerSize)
	writeNext(cell, s.freeHead)
	s.freeHead = cell
}

// Reset zeroes the entire backing region and then rebuilds the free list
// as if freshly initialized, so the only nonzero bytes afterwards are the
// next-links in the cell headers.
func (s *Slab) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	bulkset.Set(s.base, 0, uintptr(s.capacity)*s.cellSize)
	s.buildFreeList()
}

// Destroy releases the backing OS region. Using the slab afterward is
// undefined; callers with outstanding allocations at the time of destroy
// get no signal of that misuse.
func (s *Slab) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.region.Release()
	s.base = nil
	s.freeHead = nil
	s.region = nil
	return err
}

// Capacity returns the fixed number of cells this slab was built with.
func (s *Slab) Capacity() int {
	return s.capacity
}

// Stats walks the free list once and reports how many cells are
// currently handed out. Diagnostic only.
func (s *Slab) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	free := 0
	for cur := s.freeHead; cur != nil; cur = readNext(cur) {
		free++
	}
	return Stats{Capacity: s.capacity, InUse: s.capacity - free}
}
