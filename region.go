// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "unsafe"

// regionSize computes the total mapped size for a region of the given
// class. For TINY/SMALL the size is fixed by the target capacities in
// const.go; for LARGE, hint is the requested total block size and the
// region is sized to fit exactly one allocation of that size.
func regionSize(class SizeClass, hint uintptr) uintptr {
	var need uintptr
	switch class {
	case Tiny:
		need = regionHeaderSize + tinyRegionBlocks*tinyMax
	case Small:
		need = regionHeaderSize + smallRegionBlocks*smallMax
	default:
		need = regionHeaderSize + hint
	}
	return roundup(need, osPageSize)
}

// acquireRegion maps a new region of class, sized to also satisfy hint (the
// requested total block size, relevant only for LARGE), links it into a's
// region list in address-sorted order, and carves its sole block as one
// FREE block spanning the region minus its header (§4.2).
func (a *Allocator) acquireRegion(class SizeClass, hint uintptr) (*region, error) {
	size := regionSize(class, hint)

	if err := checkAllocationCeiling(a.committed, size); err != nil {
		return nil, err
	}

	p, err := mmapRegion(size)
	if err != nil {
		return nil, err
	}

	r := (*region)(p)
	r.size = size
	r.class = class
	r.prev = nil
	r.next = nil
	r.seeded = false

	b := (*block)(regionStart(r))
	b.size = size - regionHeaderSize
	b.status = statusFree
	b.owner = r
	b.prev = nil
	b.next = nil
	b.freePrev = nil
	b.freeNext = nil

	r.blocks = b
	r.free = nil
	insertFree(r, b)

	a.insertRegionSorted(r)
	a.committed += size
	return r, nil
}

// insertRegionSorted links r into a's region list keeping ascending base
// address order, per §3/§4.2.
func (a *Allocator) insertRegionSorted(r *region) {
	addr := uintptr(unsafe.Pointer(r))

	if a.head == nil || uintptr(unsafe.Pointer(a.head)) > addr {
		r.next = a.head
		r.prev = nil
		if a.head != nil {
			a.head.prev = r
		}
		a.head = r
		return
	}

	cur := a.head
	for cur.next != nil && uintptr(unsafe.Pointer(cur.next)) < addr {
		cur = cur.next
	}

	r.next = cur.next
	r.prev = cur
	if cur.next != nil {
		cur.next.prev = r
	}
	cur.next = r
}

// releaseRegion unlinks r from a's region list and unmaps it.
func (a *Allocator) releaseRegion(r *region) error {
	if r.prev != nil {
		r.prev.next = r.next
	} else {
		a.head = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	}

	a.committed -= r.size
	return munmapRegion(unsafe.Pointer(r), r.size)
}

// dropIfEmptyRegion releases r if it contains exactly one FREE block
// spanning the whole region (i.e. nothing else is live), unless r is one of
// the two pre-seeded TINY/SMALL regions (§4.2, §9).
func (a *Allocator) dropIfEmptyRegion(r *region) {
	if r.seeded {
		return
	}

	b := r.blocks
	if b == nil || b.next != nil || b.status != statusFree {
		return
	}
	if b.size != r.size-regionHeaderSize {
		return
	}

	_ = a.releaseRegion(r)
}

// hasRegionCycle runs Floyd's tortoise-and-hare over a's region list,
// guarding every traversal-based operation against a corrupted heap
// hanging the allocator (§4.8, invariant 1).
func (a *Allocator) hasRegionCycle() bool {
	slow := a.head
	if slow == nil || slow.next == nil {
		return false
	}
	fast := slow.next

	for fast != nil && fast.next != nil {
		if slow == fast {
			return true
		}
		slow = slow.next
		fast = fast.next.next
	}
	return false
}

// hasBlockCycle runs the same check over a region's address-ordered block
// list.
func hasBlockCycle(start *block) bool {
	if start == nil || start.next == nil {
		return false
	}
	slow := start
	fast := start.next

	for fast != nil && fast.next != nil {
		if slow == fast {
			return true
		}
		slow = slow.next
		fast = fast.next.next
	}
	return false
}

// hasFreeCycle runs the same check over a region's free-index list.
func hasFreeCycle(start *block) bool {
	if start == nil || start.freeNext == nil {
		return false
	}
	slow := start
	fast := start.freeNext

	for fast != nil && fast.freeNext != nil {
		if slow == fast {
			return true
		}
		slow = slow.freeNext
		fast = fast.freeNext.freeNext
	}
	return false
}
