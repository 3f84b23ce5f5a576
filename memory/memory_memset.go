package memory

import (
	"os"
	"unsafe"

	"github.com/klauspost/cpuid/v2"
)

func init() {
	memset = memory_memset_go
	if useWideMemset() {
		memset = memory_memset_wide
	}
}

// Set MEMALLOC_NO_WIDE_MEMSET in the environment to force the byte-at-a-time
// reference implementation.
func useWideMemset() bool {
	if _, ok := os.LookupEnv("MEMALLOC_NO_WIDE_MEMSET"); ok {
		return false
	}
	return cpuid.CPU.Has(cpuid.SSE2) || cpuid.CPU.Has(cpuid.ASIMD)
}

// memory_memset_wide fills buf with 8-byte stores. Every byte of the pattern
// word is equal, so the result does not depend on endianness. The head is
// filled bytewise until the cursor is 8-aligned.
func memory_memset_wide(buf []byte, c byte) {
	if len(buf) < 8 {
		memory_memset_go(buf, c)
		return
	}

	word := uint64(c) * 0x0101010101010101
	p := unsafe.Pointer(&buf[0])
	n := len(buf)

	i := 0
	for ; uintptr(unsafe.Add(p, i))&7 != 0; i++ {
		buf[i] = c
	}
	for ; n-i >= 8; i += 8 {
		*(*uint64)(unsafe.Add(p, i)) = word
	}
	for ; i < n; i++ {
		buf[i] = c
	}
}
