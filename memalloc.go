// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memalloc provides raw, manually managed memory blocks sized in
// elements of a caller-chosen type, on top of a growable memory.Buffer and a
// pluggable memory.Allocator.
//
// The three primitives, Allocate, Reallocate and Deallocate, trade in bare
// pointers: the element count is not stored alongside a block, so every call
// after the first must be given the exact size the block was created or last
// resized with. The usual slice safety net does not apply. Every function
// here has preconditions that are entirely the caller's responsibility, and
// violating them (size mismatch, double free, use of a stale pointer after a
// relocating Reallocate, zero element counts, zero-sized element types) is
// undefined behavior. Building with the assert tag turns some of these into
// panics.
//
// Failure to obtain memory is not reported: the process terminates, either
// through the Go runtime's own out-of-memory abort or through an allocator
// panic that is never recovered here. There is no error path by design.
//
// Blocks obtained with one allocator must be resized and freed through that
// same allocator. Concurrent calls on distinct blocks are safe if the
// underlying allocator is; concurrent calls touching the same block are a
// caller error.
package memalloc

import (
	"unsafe"

	"github.com/memalloc-go/memalloc/internal/debug"
	"github.com/memalloc-go/memalloc/memory"
)

// Allocate returns a pointer to a fresh block able to hold exactly size
// elements of type T, aligned to at least T's natural alignment, obtained
// from memory.DefaultAllocator. The block's contents are zeroed.
//
// Behavior is undefined if size is 0.
func Allocate[T any](size int) *T {
	return AllocateWith[T](memory.DefaultAllocator, size)
}

// AllocateWith is Allocate drawing from an explicit allocator.
func AllocateWith[T any](mem memory.Allocator, size int) *T {
	debug.Assert(size >= 1, "memalloc: Allocate with size < 1")

	buf := memory.NewResizableBuffer(mem)
	buf.ReserveExact(size * sizeOf[T]())
	return (*T)(detach(buf))
}

// Reallocate resizes the block referenced by ptr from oldSize to newSize
// elements and returns the pointer to the resized block. oldSize must be the
// size the block was created with, or the newSize passed to the previous
// Reallocate. The first min(oldSize, newSize) elements are preserved.
//
// The block may relocate; after a relocation the memory at the passed-in
// pointer is undefined and only the returned pointer may be used. When
// oldSize == newSize the call is a no-op and returns ptr itself.
//
// Behavior is undefined if newSize is 0.
func Reallocate[T any](ptr *T, oldSize, newSize int) *T {
	return ReallocateWith(memory.DefaultAllocator, ptr, oldSize, newSize)
}

// ReallocateWith is Reallocate against an explicit allocator, which must be
// the one the block came from.
func ReallocateWith[T any](mem memory.Allocator, ptr *T, oldSize, newSize int) *T {
	debug.Assert(ptr != nil, "memalloc: Reallocate of nil pointer")
	debug.Assert(oldSize >= 1, "memalloc: Reallocate with oldSize < 1")
	debug.Assert(newSize >= 1, "memalloc: Reallocate with newSize < 1")

	es := sizeOf[T]()
	switch {
	case oldSize > newSize:
		// Reclaim the region into a buffer whose logical length is the
		// surviving prefix, then shrink the capacity to fit it exactly.
		buf := memory.NewBufferWithAllocator(bytesOf(ptr, oldSize*es), mem)
		buf.ResizeExact(newSize * es)
		return (*T)(detach(buf))
	case newSize > oldSize:
		// Reclaim and reserve the exact additional capacity. The
		// reservation preserves the raw bytes of the old region; it only
		// relocates when growth cannot be satisfied in place.
		buf := memory.NewBufferWithAllocator(bytesOf(ptr, oldSize*es), mem)
		buf.ReserveExact(newSize * es)
		return (*T)(detach(buf))
	default:
		return ptr
	}
}

// Deallocate releases the block referenced by ptr, which must hold exactly
// size elements and must not be nil. The pointer is invalid for any use
// afterwards; releasing a block twice is undefined behavior.
func Deallocate[T any](ptr *T, size int) {
	DeallocateWith(memory.DefaultAllocator, ptr, size)
}

// DeallocateWith is Deallocate against an explicit allocator, which must be
// the one the block came from.
func DeallocateWith[T any](mem memory.Allocator, ptr *T, size int) {
	debug.Assert(ptr != nil, "memalloc: Deallocate of nil pointer")
	debug.Assert(size >= 1, "memalloc: Deallocate with size < 1")

	// Reclaim the region and let the buffer run to destruction.
	memory.NewBufferWithAllocator(bytesOf(ptr, size*sizeOf[T]()), mem).Release()
}

var emptyBlock [0]byte

// Empty returns a sentinel placeholder for a conceptual zero-element block:
// non-nil, stable across calls, backed by no storage. It must never be
// dereferenced and never passed to Reallocate or Deallocate.
func Empty() unsafe.Pointer {
	return unsafe.Pointer(&emptyBlock)
}

// detach extracts the start of the buffer's memory and suppresses the
// buffer's release of it. Ownership of the region passes to the returned
// pointer; the buffer is left empty.
func detach(buf *memory.Buffer) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(buf.Detach()))
}

// bytesOf reconstructs the full byte region of a block of n bytes starting
// at ptr. The inverse of detach.
func bytesOf[T any](ptr *T, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n)
}

func sizeOf[T any]() int {
	var v T
	return int(unsafe.Sizeof(v))
}
