// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"errors"
	"fmt"
)

// Sentinel errors matching the distilled spec's error kinds (§7). Use
// errors.Is to test a returned error against these.
var (
	// ErrOutOfMemory is returned when a region cannot be acquired, either
	// because the OS mapping failed or because RLIMIT_AS would be
	// exceeded (ENOMEM in the C original).
	ErrOutOfMemory = errors.New("malloc: out of memory")

	// ErrInvalidPointer is returned/reported when a caller-supplied
	// pointer is not a live allocation of this allocator (EINVAL in the
	// C original's realloc; a policy-handled no-op in free).
	ErrInvalidPointer = errors.New("malloc: invalid pointer")

	// ErrDoubleFree classifies an invalid pointer that does belong to a
	// known block, but one already in the FREE state. It is treated as
	// ErrInvalidPointer for policy purposes but carries a distinct
	// message, per §7 and scenario 4 of §8.
	ErrDoubleFree = errors.New("malloc: double free")

	// ErrCorruption is reported when cycle detection or bounds-checking
	// finds a corrupted region or block list mid-traversal.
	ErrCorruption = errors.New("malloc: corrupted heap")

	// ErrSizeOverflow is returned when size + header overflows uintptr.
	ErrSizeOverflow = errors.New("malloc: size overflow")
)

// pointerError wraps one of the sentinels above with the offending address,
// used by hardening's check-level policy (§4.8) when bit 2 (checkIncludePtr)
// requests the address be included in the printed message.
type pointerError struct {
	kind error
	ptr  uintptr
}

func (e *pointerError) Error() string {
	return fmt.Sprintf("%s: %#x", policyMessage(e.kind), e.ptr)
}

func (e *pointerError) Unwrap() error { return e.kind }
