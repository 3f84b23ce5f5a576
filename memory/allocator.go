package memory

import (
	"github.com/klauspost/cpuid/v2"
)

const minAlignment = 64

// alignment is the boundary every allocation is aligned to: at least 64
// bytes, widened to the detected cache line size on machines with larger
// lines.
var alignment = minAlignment

func init() {
	if cl := cpuid.CPU.CacheLine; cl > alignment && isMultipleOfPowerOf2(cl, minAlignment) {
		alignment = cl
	}
}

type Allocator interface {
	Allocate(size int) []byte
	Reallocate(size int, b []byte) []byte
	Free(b []byte)
}

// DefaultAllocator is a default implementation of Allocator and can be used anywhere
// an Allocator is required.
//
// DefaultAllocator is safe to use from multiple goroutines.
var DefaultAllocator Allocator = NewGoAllocator()
