// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReportTotalMatchesOutstanding(t *testing.T) {
	a := newTestAllocator(t)

	// Total counts each allocation's payload after the allocator's
	// internal rounding, which is at least the requested size.
	sizes := []int{10, 200, 3000, 8000}
	var want uintptr
	for _, s := range sizes {
		p, err := a.Allocate(s)
		require.NoError(t, err)
		b := a.blockOf(p)
		require.NotNil(t, b)
		require.GreaterOrEqual(t, payloadSize(b), uintptr(s))
		want += payloadSize(b)
	}

	var sb strings.Builder
	require.NoError(t, a.report(&sb, false))
	require.Contains(t, sb.String(), "Total : "+itoa(want)+" bytes")
}

func TestReportHexIncludesDump(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(20)
	require.NoError(t, err)
	writeBytes(p, []byte("ABCDEFGHIJKLMNOPQRST"))

	var sb strings.Builder
	require.NoError(t, a.report(&sb, true))
	require.Contains(t, sb.String(), "41 42 43 44") // 'A''B''C''D' in hex
	require.Contains(t, sb.String(), "|ABCD")
}

func TestReportHeaderLinesNameEachClass(t *testing.T) {
	a := newTestAllocator(t)

	_, err := a.Allocate(8192) // forces a LARGE region
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, a.report(&sb, false))
	out := sb.String()
	require.Contains(t, out, "TINY : ")
	require.Contains(t, out, "SMALL : ")
	require.Contains(t, out, "LARGE : ")
}

func TestReportDetectsCorruptRegionList(t *testing.T) {
	a := newTestAllocator(t)

	last := a.head
	for last.next != nil {
		last = last.next
	}
	last.next = a.head
	defer func() { last.next = nil }()

	var sb strings.Builder
	err := a.report(&sb, false)
	require.ErrorIs(t, err, ErrCorruption)
	require.Contains(t, sb.String(), "Error: Corrupted zone list detected")
}

func itoa(n uintptr) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
