// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "unsafe"

// blockOf is the reverse lookup / validator (§4.5). Given a caller-supplied
// payload pointer, it scans the region list and, for the region containing
// ptr, scans that region's block list with cycle detection and bounds
// checks, returning the unique block whose payload starts at ptr, whatever
// its status: a FREE block is returned too, so callers check b.status
// (Release reports a double free that way). It returns nil when ptr lies
// outside every region, when it falls inside a region but does not match
// any payload start, or when corruption is detected, in which case the
// traversal aborts and behaves as if no match was found (§7).
func (a *Allocator) blockOf(ptr unsafe.Pointer) *block {
	if ptr == nil {
		return nil
	}

	if a.hasRegionCycle() {
		return nil
	}

	addr := uintptr(ptr)
	for r := a.head; r != nil; r = r.next {
		zoneStart := uintptr(regionStart(r))
		zoneEnd := regionEnd(r)
		if addr < zoneStart || addr >= zoneEnd {
			continue
		}

		if hasBlockCycle(r.blocks) {
			return nil
		}

		for b := r.blocks; b != nil; b = b.next {
			bAddr := blockAddr(b)
			if bAddr < zoneStart || bAddr >= zoneEnd || b.size < blockHeaderSize || b.size > r.size {
				return nil
			}
			if uintptr(payloadStart(b)) == addr {
				return b
			}
		}
		return nil
	}

	return nil
}
