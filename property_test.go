// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"io"
	"math"
	"sort"
	"sync"
	"testing"
	"unsafe"

	"github.com/cznic/mathutil"
	"github.com/stretchr/testify/require"
)

// TestAlignment (§8): every payload address returned by Allocate is a
// multiple of the allocator's alignment, regardless of requested size.
func TestAlignment(t *testing.T) {
	a := newTestAllocator(t)

	rng, err := mathutil.NewFC32(1, 6000, true)
	require.NoError(t, err)
	rng.Seed(1)

	for i := 0; i < 500; i++ {
		size := rng.Next()
		p, err := a.Allocate(size)
		require.NoError(t, err)
		require.Zero(t, uintptr(p)%alignment)
	}
}

// TestNonOverlap (§8): no two simultaneously-live allocations ever share a
// byte of address space.
func TestNonOverlap(t *testing.T) {
	a := newTestAllocator(t)

	rng, err := mathutil.NewFC32(1, 4000, true)
	require.NoError(t, err)
	rng.Seed(2)

	type span struct{ start, end uintptr }
	var spans []span

	for i := 0; i < 300; i++ {
		size := rng.Next()
		p, err := a.Allocate(size)
		require.NoError(t, err)

		b := a.blockOf(p)
		require.NotNil(t, b)
		start := uintptr(p)
		end := start + payloadSize(b)
		spans = append(spans, span{start, end})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		require.LessOrEqualf(t, spans[i-1].end, spans[i].start,
			"span %d [%x,%x) overlaps span %d [%x,%x)",
			i-1, spans[i-1].start, spans[i-1].end, i, spans[i].start, spans[i].end)
	}
}

// TestResizePreservesDataProperty (§8): Resize always preserves the
// min(oldSize, newSize) leading bytes of the payload, across many random
// shrink/grow sequences and size classes.
func TestResizePreservesDataProperty(t *testing.T) {
	a := newTestAllocator(t)

	rng, err := mathutil.NewFC32(1, int(math.MaxInt16), true)
	require.NoError(t, err)
	rng.Seed(3)

	size := rng.Next()
	p, err := a.Allocate(size)
	require.NoError(t, err)

	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i)
	}
	writeBytes(p, payload)

	for i := 0; i < 40; i++ {
		newSize := rng.Next()

		q, err := a.Resize(p, newSize)
		require.NoError(t, err)

		keep := newSize
		if keep > len(payload) {
			keep = len(payload)
		}
		require.Equal(t, payload[:keep], readBytes(q, keep))

		if newSize < len(payload) {
			payload = payload[:newSize]
		} else {
			grown := make([]byte, newSize)
			copy(grown, payload)
			payload = grown
		}
		p = q
	}
}

// TestConcurrentAllocateRelease (§8): concurrent Allocate/write/Release
// loops through the package-level global complete, and Report afterwards
// finds no corrupted region or block list.
func TestConcurrentAllocateRelease(t *testing.T) {
	const goroutines = 8
	const rounds = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func(seed int32) {
			defer wg.Done()

			rng, err := mathutil.NewFC32(8, 3000, true)
			if err != nil {
				return
			}
			rng.Seed(seed)

			for i := 0; i < rounds; i++ {
				size := rng.Next()
				p, err := Allocate(size)
				if err != nil || p == nil {
					continue
				}
				*(*byte)(unsafe.Pointer(p)) = byte(size)
				Release(p)
			}
		}(int32(g + 1))
	}

	wg.Wait()

	require.NoError(t, Report(io.Discard))
}
