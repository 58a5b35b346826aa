// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "unsafe"

// blockStatus is a block's allocation state.
type blockStatus uint32

const (
	statusFree blockStatus = iota
	statusAllocated
)

// block is the intrusive header that immediately precedes every payload.
// It lives inside OS-mapped memory, never on the Go heap: regions are
// mmap'd raw bytes reinterpreted via unsafe.Pointer, so the Go garbage
// collector never scans or moves it. Pointers stored here only ever
// reference other headers inside mapped regions, never Go-heap memory, so
// this is safe by the same technique the example corpus's own mmap-backed
// allocators use.
type block struct {
	size   uintptr     // header + payload, in bytes
	status blockStatus // FREE or ALLOCATED
	owner  *region     // region this block belongs to

	// address-order links within the owning region's block list.
	prev *block
	next *block

	// free-index links; only meaningful while status == statusFree.
	freePrev *block
	freeNext *block
}

// region is the header at the base of every OS mapping. The region's first
// block begins immediately after it.
type region struct {
	size   uintptr // total mapped bytes, including this header
	class  SizeClass
	blocks *block // address-ordered block list head
	free   *block // free-index head

	// region-list links, kept sorted by ascending base address.
	prev *region
	next *region

	// seeded marks one of the two regions created at package init time;
	// seeded regions are never unmapped while wholly free (§4.2/§9).
	seeded bool
}

var (
	blockHeaderSize  = roundup(unsafe.Sizeof(block{}), alignment)
	regionHeaderSize = roundup(unsafe.Sizeof(region{}), alignment)

	// minBlockSize is the smallest a block may ever be: header plus one
	// alignment unit of payload.
	minBlockSize = blockHeaderSize + alignment
)

// payloadStart returns the address of b's payload, the pointer Allocate
// hands back to callers.
func payloadStart(b *block) unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(b)) + blockHeaderSize)
}

// payloadSize returns the number of payload bytes b governs.
func payloadSize(b *block) uintptr {
	return b.size - blockHeaderSize
}

// regionStart returns the address of r's first block.
func regionStart(r *region) unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(r)) + regionHeaderSize)
}

// regionEnd returns the address one past the end of r's mapping.
func regionEnd(r *region) uintptr {
	return uintptr(unsafe.Pointer(r)) + r.size
}

func blockAddr(b *block) uintptr { return uintptr(unsafe.Pointer(b)) }
