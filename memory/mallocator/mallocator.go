// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

//go:build cgo

// Package mallocator defines an allocator implementation for
// memory.Allocator which defers to libc malloc.
//
// It is useful when the allocation must live outside the Go heap, e.g. for
// blocks whose lifetime is managed through raw handles instead of the
// garbage collector.
package mallocator

/*
#include <stdlib.h>
#include <string.h>

// Helper to avoid two cgo crossings for grow-and-zero. realloc preserves the
// old contents but leaves the grown tail uninitialized; Go callers expect it
// zeroed like fresh Go memory.
void* realloc_and_initialize(void* ptr, size_t old_len, size_t new_len) {
	void* new_ptr = realloc(ptr, new_len);
	if (new_ptr && new_len > old_len) {
		memset((char*)new_ptr + old_len, 0, new_len - old_len);
	}
	return new_ptr;
}
*/
import "C"

import (
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/memalloc-go/memalloc/memory"
)

// Mallocator is an allocator which defers to libc malloc.
//
// The priorities of this allocator are not necessarily performance, but
// rather (1) have allocations which live outside the Go heap and (2) track
// the total number of bytes currently handed out, so leaks of manually
// managed blocks can be asserted on in tests.
type Mallocator struct {
	allocatedBytes uint64
}

func NewMallocator() *Mallocator { return &Mallocator{} }

func (alloc *Mallocator) Allocate(size int) []byte {
	// Use calloc to zero-initialize memory.
	// > If size is 0, then malloc() returns either NULL, or a unique
	// > pointer value that can later be successfully passed to free().
	// Allocate a byte of slack so even a 0-size allocation has a unique,
	// non-nil backing pointer. The extra byte lives in the slice capacity,
	// which is how Free recovers the pointer of a zero-length block.
	if size < 0 {
		panic("mallocator: negative size")
	}
	ptr, err := C.calloc(C.size_t(size+1), 1)
	if ptr == nil {
		// a nil return with a nil errno still means the reservation failed
		if err == nil {
			err = syscall.ENOMEM
		}
		panic(xerrors.Errorf("mallocator: out of memory: %w", err))
	}
	atomic.AddUint64(&alloc.allocatedBytes, uint64(size))
	return unsafe.Slice((*byte)(ptr), size+1)[: size : size+1]
}

func (alloc *Mallocator) Reallocate(size int, b []byte) []byte {
	if size < 0 {
		panic("mallocator: negative size")
	}
	if size == len(b) {
		return b
	}
	if cap(b) == 0 {
		// not a slice handed out by this allocator; treat as fresh
		return alloc.Allocate(size)
	}
	oldPtr := unsafe.Pointer(&b[:cap(b)][0])
	newPtr, err := C.realloc_and_initialize(oldPtr, C.size_t(cap(b)), C.size_t(size+1))
	if newPtr == nil {
		if err == nil {
			err = syscall.ENOMEM
		}
		panic(xerrors.Errorf("mallocator: out of memory: %w", err))
	}
	delta := size - len(b)
	if delta >= 0 {
		atomic.AddUint64(&alloc.allocatedBytes, uint64(delta))
	} else {
		atomic.AddUint64(&alloc.allocatedBytes, ^uint64(-delta-1))
	}
	return unsafe.Slice((*byte)(newPtr), size+1)[: size : size+1]
}

func (alloc *Mallocator) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	sz := len(b)
	C.free(unsafe.Pointer(&b[:cap(b)][0]))
	atomic.AddUint64(&alloc.allocatedBytes, ^uint64(sz-1))
}

// AllocatedBytes returns the total number of bytes currently allocated and
// not yet freed.
func (alloc *Mallocator) AllocatedBytes() int64 {
	return int64(atomic.LoadUint64(&alloc.allocatedBytes))
}

func (alloc *Mallocator) AssertSize(t memory.TestingT, sz int) {
	cur := alloc.AllocatedBytes()
	if int64(sz) != cur {
		t.Helper()
		t.Errorf("invalid memory size exp=%d, got=%d", sz, cur)
	}
}

var _ memory.Allocator = (*Mallocator)(nil)
