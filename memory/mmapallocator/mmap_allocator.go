//go:build unix

// Package mmapallocator provides a memory.Allocator backed by anonymous mmap
// regions obtained directly from the kernel, outside the Go heap. Blocks are
// zero-filled by the kernel, page aligned, and must be explicitly freed.
package mmapallocator

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/memalloc-go/memalloc/memory"
)

// MmapAllocator hands out anonymous private mappings. On Linux reallocation
// uses mremap, elsewhere it degrades to map-copy-unmap.
type MmapAllocator struct {
	allocatedBytes int64
}

func NewMmapAllocator() *MmapAllocator { return &MmapAllocator{} }

func (alloc *MmapAllocator) Allocate(size int) []byte {
	if size < 0 {
		panic("mmapallocator: negative size")
	}
	if size == 0 {
		return make([]byte, 0)
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		panic(xerrors.Errorf("mmapallocator: out of memory: %w", err))
	}
	atomic.AddInt64(&alloc.allocatedBytes, int64(size))
	return b[:size:size]
}

func (alloc *MmapAllocator) Reallocate(size int, b []byte) []byte {
	if size < 0 {
		panic("mmapallocator: negative size")
	}
	if size == len(b) {
		return b
	}
	if cap(b) == 0 {
		return alloc.Allocate(size)
	}
	if size == 0 {
		alloc.Free(b)
		return make([]byte, 0)
	}
	nb := remap(b[:cap(b)], size)
	atomic.AddInt64(&alloc.allocatedBytes, int64(size-len(b)))
	return nb[:size:size]
}

func (alloc *MmapAllocator) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	sz := len(b)
	if err := unix.Munmap(b[:cap(b)]); err != nil {
		panic(xerrors.Errorf("mmapallocator: munmap: %w", err))
	}
	atomic.AddInt64(&alloc.allocatedBytes, int64(-sz))
}

// AllocatedBytes returns the total number of bytes currently mapped and not
// yet unmapped.
func (alloc *MmapAllocator) AllocatedBytes() int64 {
	return atomic.LoadInt64(&alloc.allocatedBytes)
}

func (alloc *MmapAllocator) AssertSize(t memory.TestingT, sz int) {
	cur := alloc.AllocatedBytes()
	if int64(sz) != cur {
		t.Helper()
		t.Errorf("invalid memory size exp=%d, got=%d", sz, cur)
	}
}

var _ memory.Allocator = (*MmapAllocator)(nil)
