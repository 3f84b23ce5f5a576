//go:build unix && !linux

package mmapallocator

import (
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// remap on platforms without mremap: map a new region, copy the surviving
// prefix, and drop the old mapping. The new region is kernel zero-filled.
func remap(b []byte, size int) []byte {
	nb, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		panic(xerrors.Errorf("mmapallocator: out of memory: %w", err))
	}
	copy(nb, b)
	if err := unix.Munmap(b); err != nil {
		panic(xerrors.Errorf("mmapallocator: munmap: %w", err))
	}
	return nb[:size:size]
}
