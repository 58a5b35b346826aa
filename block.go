// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "unsafe"

// insertFree prepends b to r's free index (§4.4). O(1); this makes the
// free index a LIFO stack, which is this implementation's documented
// tie-break for scenario 2 of §8 (see SPEC_FULL.md §9).
func insertFree(r *region, b *block) {
	b.freePrev = nil
	b.freeNext = r.free
	if r.free != nil {
		r.free.freePrev = b
	}
	r.free = b
}

// removeFree unlinks b from r's free index and clears its free-link
// pointers. O(1).
func removeFree(r *region, b *block) {
	if b.freePrev != nil {
		b.freePrev.freeNext = b.freeNext
	} else {
		r.free = b.freeNext
	}
	if b.freeNext != nil {
		b.freeNext.freePrev = b.freePrev
	}
	b.freePrev = nil
	b.freeNext = nil
}

// findFreeBlock performs a first-fit scan of r's free index for a block
// whose size is at least total. Cycle detection and bounds checks guard the
// walk (§4.8).
func findFreeBlock(r *region, total uintptr) *block {
	if hasFreeCycle(r.free) {
		return nil
	}

	zoneStart := uintptr(regionStart(r))
	zoneEnd := regionEnd(r)

	for b := r.free; b != nil; b = b.freeNext {
		addr := blockAddr(b)
		if addr < zoneStart || addr >= zoneEnd || b.size < blockHeaderSize || b.size > r.size {
			return nil
		}
		if b.status == statusFree && b.size >= total {
			return b
		}
	}
	return nil
}

// splitAndMark carves a FREE block b down to exactly total bytes (rounded
// up to alignment, clamped to b's current size), optionally splitting off
// a trailing FREE block when the remainder is large enough to host one,
// then marks b ALLOCATED and applies perturbation if configured (§4.3).
func splitAndMark(r *region, b *block, total uintptr, cfg Config) {
	size := roundup(total, alignment)
	if size > b.size {
		size = b.size
	}

	remaining := b.size - size
	if remaining >= minBlockSize {
		nb := (*block)(unsafe.Pointer(blockAddr(b) + size))
		nb.size = remaining
		nb.status = statusFree
		nb.owner = r
		nb.prev = b
		nb.next = b.next
		nb.freePrev = nil
		nb.freeNext = nil

		if b.next != nil {
			b.next.prev = nb
		}
		b.next = nb

		insertFree(r, nb)
		b.size = size
	}

	removeFree(r, b)
	b.status = statusAllocated

	if cfg.PerturbByte != 0 {
		fillPayload(b, ^cfg.PerturbByte)
	}
}

// shrinkTail carves the unused tail off an already-ALLOCATED block b,
// registering the tail as a new FREE block in r's free index, without
// touching b's status or payload contents. Used by Resize when shrinking a
// live allocation in place (§4.6): unlike splitAndMark, b here already
// holds live caller data that must survive untouched.
func shrinkTail(r *region, b *block, newSize uintptr) {
	remaining := b.size - newSize
	if remaining < minBlockSize {
		return
	}

	nb := (*block)(unsafe.Pointer(blockAddr(b) + newSize))
	nb.size = remaining
	nb.status = statusFree
	nb.owner = r
	nb.prev = b
	nb.next = b.next
	nb.freePrev = nil
	nb.freeNext = nil

	if b.next != nil {
		b.next.prev = nb
	}
	b.next = nb
	b.size = newSize

	insertFree(r, nb)
}

// releaseAndCoalesce transitions an ALLOCATED block b to FREE, applies
// perturbation, adds it to the free index, and merges it with any
// address-adjacent FREE neighbours (§4.3, invariant 4). It returns the
// block that survives the merge (b itself, or whichever neighbour absorbed
// it).
func releaseAndCoalesce(r *region, b *block, cfg Config) *block {
	b.status = statusFree
	if cfg.PerturbByte != 0 {
		fillPayload(b, cfg.PerturbByte)
	}
	insertFree(r, b)

	for b.next != nil && b.next.status == statusFree && blockAddr(b)+b.size == blockAddr(b.next) {
		next := b.next
		removeFree(r, next)
		b.size += next.size
		b.next = next.next
		if next.next != nil {
			next.next.prev = b
		}
	}

	for b.prev != nil && b.prev.status == statusFree && blockAddr(b.prev)+b.prev.size == blockAddr(b) {
		prev := b.prev
		removeFree(r, b)
		prev.size += b.size
		prev.next = b.next
		if b.next != nil {
			b.next.prev = prev
		}
		b = prev
	}

	return b
}

// fillPayload fills b's payload bytes with v, used by hardening's
// perturbation policy (§4.8).
func fillPayload(b *block, v byte) {
	n := payloadSize(b)
	if n == 0 {
		return
	}
	s := unsafe.Slice((*byte)(payloadStart(b)), n)
	for i := range s {
		s[i] = v
	}
}
