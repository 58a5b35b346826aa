// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package malloc implements a general-purpose dynamic memory allocator on
// top of raw, OS-provided virtual memory.
//
// It plays the role malloc/free/realloc play in a hosted C runtime: Allocate
// obtains a pointer to a block of at least the requested size, Release gives
// it back, and Resize grows or shrinks a live allocation in place when
// possible. Memory is carved out of regions mapped directly from the
// operating system (via golang.org/x/sys) rather than out of the Go heap, so
// blocks returned by Allocate are not managed, scanned, or moved by the Go
// garbage collector. This makes the package suitable for building arenas,
// off-heap buffers handed to cgo, or manually-managed pools.
//
// Every public entry point is safe to call from multiple goroutines; a
// single process-wide mutex serializes all of them. See Report and
// ReportHex for introspection of the live allocation map.
package malloc
