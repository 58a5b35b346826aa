//go:build unix

// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

func init() {
	osPageSize = uintptr(os.Getpagesize())
}

// mmapRegion asks the OS for size bytes of anonymous, private, read-write
// virtual memory and returns a pointer to its base. size must already be a
// multiple of osPageSize.
func mmapRegion(size uintptr) (unsafe.Pointer, error) {
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, ErrOutOfMemory
	}

	p := unsafe.Pointer(&b[0])
	if uintptr(p)&(osPageSize-1) != 0 {
		panic("malloc: mmap returned a non-page-aligned address")
	}

	return p, nil
}

// munmapRegion returns a previously mmapRegion'd mapping to the OS.
func munmapRegion(p unsafe.Pointer, size uintptr) error {
	b := unsafe.Slice((*byte)(p), size)
	return unix.Munmap(b)
}

// checkAllocationCeiling consults RLIMIT_AS: if the process's soft address
// space limit is not "infinity" and committed+size would exceed it, the
// region acquisition fails with ErrOutOfMemory before any mapping is
// attempted (§4.2, §4.8, §4.11).
func checkAllocationCeiling(committed, size uintptr) error {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_AS, &rlim); err != nil {
		return nil
	}

	if rlim.Cur == unix.RLIM_INFINITY {
		return nil
	}

	if uint64(committed)+uint64(size) > rlim.Cur {
		return ErrOutOfMemory
	}

	return nil
}
