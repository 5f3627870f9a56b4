// Package bulkset writes a fixed byte value across a buffer, favoring
// wide stores when the CPU supports them. Used only by allocator reset
// paths.
package bulkset

import (
	"unsafe"

	"github.com/klauspost/cpuid/v2"
)

const wordWidth = int(unsafe.Sizeof(uint64(0)))
const wideWidth = 4 * wordWidth // 32 bytes, matching the header stride

// wideStores reports whether the host CPU advertises the vector width
// simd_memset targeted (AVX2, 256-bit registers). No assembly is emitted
// either way; this only picks the chunk size for the plain-Go store loop
// below.
var wideStores = cpuid.CPU.Has(cpuid.AVX2)

// WideStoreWidth returns the chunk size, in bytes, Set uses for its bulk
// stores on this host.
func WideStoreWidth() int {
	if wideStores {
		return wideWidth
	}
	return wordWidth
}

// Set writes value into the length bytes starting at dst. Every addressed
// byte equals value on return; no memory outside [dst, dst+length) is
// touched.
func Set(dst unsafe.Pointer, value byte, length uintptr) {
	if length == 0 {
		return
	}

	p := uintptr(dst)
	end := p + length

	strideBytes := WideStoreWidth()
	stride := uintptr(strideBytes)
	wide := uintptr(wideWidth)
	word := uintptr(wordWidth)

	// Fill up to the first stride-aligned address one byte at a time.
	for p < end && p%stride != 0 {
		*(*byte)(unsafe.Pointer(p)) = value
		p++
	}

	pattern := wordPattern(value)

	if strideBytes == wideWidth {
		for p+wide <= end {
			base := (*[4]uint64)(unsafe.Pointer(p))
			base[0], base[1], base[2], base[3] = pattern, pattern, pattern, pattern
			p += wide
		}
	}

	for p+word <= end {
		*(*uint64)(unsafe.Pointer(p)) = pattern
		p += word
	}

	for p < end {
		*(*byte)(unsafe.Pointer(p)) = value
		p++
	}
}

func wordPattern(value byte) uint64 {
	v := uint64(value)
	v |= v << 8
	v |= v << 16
	v |= v << 32
	return v
}
