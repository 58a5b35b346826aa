// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"sync"
	"unsafe"
)

// Allocator is the allocator's state: the region list head, the bytes
// currently committed to OS mappings (for RLIMIT_AS accounting), the
// active configuration, and the mutex serializing every public entry
// point (§4.7, §5). Its zero value is not ready for use; construct one
// with newAllocator, or use the package-level global via Allocate/Release/
// Resize/Report, which is how this package is meant to be used — there is
// deliberately no per-call handle exposed to callers (§9 "Global mutable
// state").
type Allocator struct {
	mu        sync.Mutex
	head      *region
	committed uintptr
	cfg       Config
}

// newAllocator builds an Allocator with one pre-seeded TINY and one
// pre-seeded SMALL region, matching the C original's constructor (§5,
// §4.2). It is used both by the package-level global and directly by
// tests that want an isolated allocator.
func newAllocator(cfg Config) (*Allocator, error) {
	a := &Allocator{cfg: cfg}

	tiny, err := a.acquireRegion(Tiny, 0)
	if err != nil {
		return nil, err
	}
	tiny.seeded = true

	small, err := a.acquireRegion(Small, 0)
	if err != nil {
		_ = a.releaseRegion(tiny)
		return nil, err
	}
	small.seeded = true

	return a, nil
}

var (
	globalMu  sync.Mutex
	global    *Allocator
	globalErr error
)

func init() {
	globalMu.Lock()
	defer globalMu.Unlock()
	global, globalErr = newAllocator(loadConfig())
}

// Allocate reserves size bytes and returns a pointer to them, or an error
// wrapping ErrOutOfMemory / ErrSizeOverflow on failure (§4.6).
//
// Allocate(0) returns (nil, nil) with no side effect, matching free(NULL)
// semantics in reverse.
func Allocate(size int) (unsafe.Pointer, error) {
	globalMu.Lock()
	a, err := global, globalErr
	globalMu.Unlock()
	if err != nil {
		return nil, err
	}
	return a.Allocate(size)
}

// Release gives back memory previously returned by Allocate or Resize. A
// nil pointer is a no-op. An unrecognized or already-free pointer is
// handled per the configured check-level policy (§4.8) rather than
// returned as an error, matching free()'s void-returning C contract.
func Release(ptr unsafe.Pointer) {
	globalMu.Lock()
	a, err := global, globalErr
	globalMu.Unlock()
	if err != nil {
		return
	}
	a.Release(ptr)
}

// Resize grows or shrinks a live allocation, preserving its contents up to
// min(old, new) size. See Allocator.Resize for the full contract (§4.6).
func Resize(ptr unsafe.Pointer, size int) (unsafe.Pointer, error) {
	globalMu.Lock()
	a, err := global, globalErr
	globalMu.Unlock()
	if err != nil {
		return nil, err
	}
	return a.Resize(ptr, size)
}

// Shutdown unmaps every region and resets the package-level global
// allocator. It is the Go realization of the C original's destructor
// (§5, §6) — there being no process-exit hook in Go that a long-running
// host program can rely on, callers that want every mapped page released
// (for example under a leak checker) call Shutdown explicitly. It is safe
// to call only once; a second call is a no-op.
func Shutdown() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return
	}
	global.shutdown()
	global = nil
}

// Allocate is the per-instance implementation backing the package-level
// Allocate function.
func (a *Allocator) Allocate(size int) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, nil
	}
	if size < 0 {
		return nil, ErrSizeOverflow
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	total := uintptr(size) + blockHeaderSize
	if total < uintptr(size) {
		return nil, ErrSizeOverflow
	}

	class := classify(total)

	if b := a.findFreeBlockInClass(class, total); b != nil {
		splitAndMark(b.owner, b, total, a.cfg)
		return payloadStart(b), nil
	}

	r, err := a.acquireRegion(class, total)
	if err != nil {
		return nil, err
	}

	b := r.blocks
	if b.status != statusFree || b.size < total {
		return nil, ErrOutOfMemory
	}

	splitAndMark(r, b, total, a.cfg)
	return payloadStart(b), nil
}

// findFreeBlockInClass scans every region of class for a first-fit FREE
// block of at least total bytes (§4.3 "Best-fit vs first-fit").
func (a *Allocator) findFreeBlockInClass(class SizeClass, total uintptr) *block {
	if a.hasRegionCycle() {
		return nil
	}
	for r := a.head; r != nil; r = r.next {
		if r.class != class {
			continue
		}
		if b := findFreeBlock(r, total); b != nil {
			return b
		}
	}
	return nil
}

// Release is the per-instance implementation backing the package-level
// Release function.
func (a *Allocator) Release(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b := a.blockOf(ptr)
	if b == nil {
		reportPolicyViolation(a.cfg, "free", ErrInvalidPointer, uintptr(ptr))
		return
	}

	if b.status != statusAllocated {
		reportPolicyViolation(a.cfg, "free", ErrDoubleFree, uintptr(ptr))
		return
	}

	r := b.owner
	releaseAndCoalesce(r, b, a.cfg)
	a.dropIfEmptyRegion(r)
}

// Resize is the per-instance implementation backing the package-level
// Resize function (§4.6).
func (a *Allocator) Resize(ptr unsafe.Pointer, size int) (unsafe.Pointer, error) {
	if ptr == nil {
		return a.Allocate(size)
	}
	if size == 0 {
		a.Release(ptr)
		return nil, nil
	}
	if size < 0 {
		return nil, ErrSizeOverflow
	}

	a.mu.Lock()

	b := a.blockOf(ptr)
	if b == nil || b.status != statusAllocated {
		a.mu.Unlock()
		return nil, ErrInvalidPointer
	}

	newTotal := roundup(uintptr(size)+blockHeaderSize, alignment)
	r := b.owner
	oldPayload := payloadSize(b)

	if classify(newTotal) == r.class && b.size >= newTotal {
		shrinkTail(r, b, newTotal)
		a.mu.Unlock()
		return ptr, nil
	}

	a.mu.Unlock()

	newPtr, err := a.Allocate(size)
	if err != nil {
		return nil, err
	}

	copySize := oldPayload
	if uintptr(size) < copySize {
		copySize = uintptr(size)
	}
	if copySize > 0 {
		dst := unsafe.Slice((*byte)(newPtr), copySize)
		src := unsafe.Slice((*byte)(ptr), copySize)
		copy(dst, src)
	}

	// Re-look-up the old block rather than trusting b, which may have
	// been invalidated by the mutex release above (§4.7).
	a.Release(ptr)

	return newPtr, nil
}

// shutdown unmaps every region. Guarded by cycle detection: on a corrupted
// region list it leaks rather than loops (§5).
func (a *Allocator) shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.hasRegionCycle() {
		return
	}

	for a.head != nil {
		next := a.head.next
		_ = munmapRegion(unsafe.Pointer(a.head), a.head.size)
		a.head = next
	}
	a.committed = 0
}
