// Package pool hands out variable-size, variable-alignment objects from a
// growing chain of contiguous regions, bump-allocating within each region
// and reusing freed blocks through a first-fit, splitting, coalescing
// free list.
package pool

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/Feralthedogg/Allocates/bulkset"
	"github.com/Feralthedogg/Allocates/region"
)

// headerSize is the reserved prefix of every block, live or free.
const headerSize = 32

// minSplitThreshold is the minimum leftover space required to carve a
// remainder block off a first-fit match instead of handing over the
// whole block.
const minSplitThreshold = 16

// blockHeader precedes every allocation. Its size must equal headerSize;
// the trailing field pads it out to 32 bytes on a 64-bit platform.
type blockHeader struct {
	payloadSize uintptr
	padding     uintptr
	nextFree    unsafe.Pointer
	_           uintptr
}

type poolRegion struct {
	reg        *region.Region
	base       unsafe.Pointer
	size       uintptr
	bumpOffset uintptr
	next       *poolRegion
}

// Pool is a chain of regions plus a free-list engine, all guarded by a
// coarse mutex. The free-list spin lock is nested inside that mutex on
// every call site, making it redundant in practice; it stays as its own
// primitive so free-list mutation has a lock scoped to it independent
// of whatever coarser lock a caller already holds.
type Pool struct {
	mu                sync.Mutex
	freeListSpin      int32
	regionHead        *poolRegion
	regionTail        *poolRegion
	freeHead          unsafe.Pointer
	initialRegionSize uintptr
}

func alignUp(addr uintptr, alignment uintptr) uintptr {
	return (addr + alignment - 1) &^ (alignment - 1)
}

func isPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// New initializes a pool with one region of at least initialRegionSize
// usable bytes.
func New(initialRegionSize int) (*Pool, error) {
	if initialRegionSize < 1 {
		return nil, ErrInitialRegionSize
	}

	pr, err := newPoolRegion(uintptr(initialRegionSize))
	if err != nil {
		return nil, err
	}

	return &Pool{
		regionHead:        pr,
		regionTail:        pr,
		initialRegionSize: uintptr(initialRegionSize),
	}, nil
}

func newPoolRegion(usableSize uintptr) (*poolRegion, error) {
	r, err := region.Acquire(int(usableSize))
	if err != nil {
		return nil, err
	}
	base := unsafe.Pointer(alignUp(uintptr(r.Base()), 16))
	usable := uintptr(r.Size()) - (uintptr(base) - uintptr(r.Base()))
	return &poolRegion{reg: r, base: base, size: usable}, nil
}

// Alloc returns a pointer to size bytes aligned to alignment (a power of
// two), first trying the free list, then bump allocation within existing
// regions, then growing the chain by exactly one region.
func (p *Pool) Alloc(size uintptr, alignment uintptr) (unsafe.Pointer, error) {
	if size < 1 {
		return nil, ErrSize
	}
	if !isPowerOfTwo(alignment) {
		return nil, ErrAlignment
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if ptr, ok := p.firstFit(size, alignment); ok {
		return ptr, nil
	}

	for pr := p.regionHead; pr != nil; pr = pr.next {
		if ptr, ok := allocFromRegion(pr, size, alignment); ok {
			return ptr, nil
		}
	}

	newSize := p.initialRegionSize
	if want := size + headerSize; newSize < want {
		newSize = want
	}
	pr, err := newPoolRegion(newSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGrowthFailed, err)
	}
	p.regionTail.next = pr
	p.regionTail = pr

	if ptr, ok := allocFromRegion(pr, size, alignment); ok {
		return ptr, nil
	}
	return nil, ErrGrowthFailed
}

func allocFromRegion(pr *poolRegion, size uintptr, alignment uintptr) (unsafe.Pointer, bool) {
	raw := uintptr(pr.base) + pr.bumpOffset
	alignedPayload := alignUp(raw+headerSize, alignment)
	padding := alignedPayload - (raw + headerSize)
	required := headerSize + padding + size

	if pr.bumpOffset+required > pr.size {
		return nil, false
	}

	pr.bumpOffset += required
	hdr := (*blockHeader)(unsafe.Pointer(alignedPayload - headerSize))
	hdr.payloadSize = size
	hdr.padding = padding
	hdr.nextFree = nil
	return unsafe.Pointer(alignedPayload), true
}

// Free returns the block owning ptr to the free list and coalesces it
// with any physically adjacent free blocks.
func (p *Pool) Free(ptr unsafe.Pointer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	hdr := (*blockHeader)(unsafe.Pointer(uintptr(ptr) - headerSize))

	p.lockFreeList()
	hdr.nextFree = p.freeHead
	p.freeHead = unsafe.Pointer(hdr)
	p.unlockFreeList()

	p.coalesce()
}

// Reset clears the free list and rewinds every region's bump offset to
// zero, zeroing each region's usable bytes. Regions themselves are kept.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lockFreeList()
	p.freeHead = nil
	p.unlockFreeList()

	for pr := p.regionHead; pr != nil; pr = pr.next {
		pr.bumpOffset = 0
		bulkset.Set(pr.base, 0, pr.size)
	}
}

// Destroy releases every region back to the operating system. Using the
// pool afterward is undefined.
func (p *Pool) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for pr := p.regionHead; pr != nil; {
		next := pr.next
		if err := pr.reg.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		pr = next
	}
	p.regionHead = nil
	p.regionTail = nil
	p.freeHead = nil
	return firstErr
}

// Stats is a point-in-time, diagnostic-only snapshot.
type Stats struct {
	Regions       int
	FreeListLen   int
	TotalCapacity uintptr
	TotalBumped   uintptr
}

// Stats reports region and free-list shape. Diagnostic only.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var st Stats
	for pr := p.regionHead; pr != nil; pr = pr.next {
		st.Regions++
		st.TotalCapacity += pr.size
		st.TotalBumped += pr.bumpOffset
	}

	p.lockFreeList()
	for cur := (*blockHeader)(p.freeHead); cur != nil; cur = (*blockHeader)(cur.nextFree) {
		st.FreeListLen++
	}
	p.unlockFreeList()

	return st
}
