package mmapallocator

import (
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// remap resizes a mapping in place when the kernel can, moving it otherwise.
// Bytes past the old length come back zero-filled, like a fresh mapping.
func remap(b []byte, size int) []byte {
	nb, err := unix.Mremap(b, size, unix.MREMAP_MAYMOVE)
	if err != nil {
		panic(xerrors.Errorf("mmapallocator: out of memory: %w", err))
	}
	return nb
}
