//go:build windows

// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

func init() {
	var si windows.SystemInfo
	windows.GetSystemInfo(&si)
	osPageSize = uintptr(si.PageSize)
}

// handleMap lets munmapRegion recover the file-mapping handle that
// mmapRegion created for a given base address, mirroring the two-step
// CreateFileMapping/MapViewOfFile dance Windows requires in place of a
// single mmap(2) call.
var (
	handleMapMu sync.Mutex
	handleMap   = map[uintptr]windows.Handle{}
)

func mmapRegion(size uintptr) (unsafe.Pointer, error) {
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, uint32(uint64(size)>>32), uint32(size&0xFFFFFFFF), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateFileMapping: %v", ErrOutOfMemory, err)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, size)
	if err != nil {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("%w: MapViewOfFile: %v", ErrOutOfMemory, err)
	}

	handleMapMu.Lock()
	handleMap[addr] = h
	handleMapMu.Unlock()

	return unsafe.Pointer(addr), nil
}

func munmapRegion(p unsafe.Pointer, _ uintptr) error {
	addr := uintptr(p)

	handleMapMu.Lock()
	h, ok := handleMap[addr]
	delete(handleMap, addr)
	handleMapMu.Unlock()

	if err := windows.UnmapViewOfFile(addr); err != nil {
		return err
	}

	if ok {
		return windows.CloseHandle(h)
	}

	return nil
}

// checkAllocationCeiling is a no-op on Windows: there is no RLIMIT_AS
// equivalent to consult, so the OS mapping call is the only ceiling.
func checkAllocationCeiling(_, _ uintptr) error {
	return nil
}
