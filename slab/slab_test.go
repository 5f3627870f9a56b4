package slab_test

import (
	"testing"
	"unsafe"

	"github.com/Feralthedogg/Allocates/slab"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadArgs(t *testing.T) {
	_, err := slab.New(0, 64)
	require.ErrorIs(t, err, slab.ErrCapacity)

	_, err = slab.New(1, 2)
	require.ErrorIs(t, err, slab.ErrObjectSize)
}

func TestAllocReturnsAlignedPointers(t *testing.T) {
	s, err := slab.New(8, 64)
	require.NoError(t, err)
	defer s.Destroy()

	for i := 0; i < 8; i++ {
		ptr, ok := s.Alloc()
		require.True(t, ok)
		require.Zero(t, uintptr(ptr)%16)
	}
}

func TestAllocNonOverlapping(t *testing.T) {
	s, err := slab.New(4, 64)
	require.NoError(t, err)
	defer s.Destroy()

	seen := map[uintptr]bool{}
	for i := 0; i < 4; i++ {
		ptr, ok := s.Alloc()
		require.True(t, ok)
		require.False(t, seen[uintptr(ptr)])
		seen[uintptr(ptr)] = true
	}
}

// capacity=3 fills exactly, a fourth alloc fails, freeing one allows
// exactly one more.
func TestCapacityBound(t *testing.T) {
	s, err := slab.New(3, 64)
	require.NoError(t, err)
	defer s.Destroy()

	var ptrs []unsafe.Pointer
	for i := 0; i < 3; i++ {
		p, ok := s.Alloc()
		require.True(t, ok)
		ptrs = append(ptrs, p)
	}

	_, ok := s.Alloc()
	require.False(t, ok)

	s.Free(ptrs[0])

	_, ok = s.Alloc()
	require.True(t, ok)

	_, ok = s.Alloc()
	require.False(t, ok)
}

// Round-trip: alloc/free cycles indefinitely within capacity.
func TestRoundTrip(t *testing.T) {
	s, err := slab.New(2, 64)
	require.NoError(t, err)
	defer s.Destroy()

	for i := 0; i < 1000; i++ {
		p, ok := s.Alloc()
		require.True(t, ok)
		s.Free(p)
	}
}

// reset makes the full capacity allocatable again and zeroes memory.
func TestResetReallocatesAndZeroes(t *testing.T) {
	s, err := slab.New(3, 64)
	require.NoError(t, err)
	defer s.Destroy()

	for i := 0; i < 3; i++ {
		p, ok := s.Alloc()
		require.True(t, ok)
		payload := (*[32]byte)(p)
		for j := range payload {
			payload[j] = 0xff
		}
	}

	s.Reset()

	for i := 0; i < 3; i++ {
		p, ok := s.Alloc()
		require.True(t, ok)
		payload := (*[32]byte)(p)
		for j := range payload {
			require.Zero(t, payload[j])
		}
	}
	_, ok := s.Alloc()
	require.False(t, ok)
}

func TestStats(t *testing.T) {
	s, err := slab.New(4, 32)
	require.NoError(t, err)
	defer s.Destroy()

	require.Equal(t, slab.Stats{Capacity: 4, InUse: 0}, s.Stats())

	p1, _ := s.Alloc()
	s.Alloc()
	require.Equal(t, slab.Stats{Capacity: 4, InUse: 2}, s.Stats())

	s.Free(p1)
	require.Equal(t, slab.Stats{Capacity: 4, InUse: 1}, s.Stats())
}

func TestFreeListAcyclic(t *testing.T) {
	s, err := slab.New(16, 32)
	require.NoError(t, err)
	defer s.Destroy()

	var ptrs []unsafe.Pointer
	for i := 0; i < 16; i++ {
		p, ok := s.Alloc()
		require.True(t, ok)
		ptrs = append(ptrs, p)
	}
	for _, p := range ptrs {
		s.Free(p)
	}

	count := 0
	for {
		if _, ok := s.Alloc(); !ok {
			break
		}
		count++
		require.LessOrEqual(t, count, 16)
	}
	require.Equal(t, 16, count)
}
