// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"fmt"
	"os"
)

// osExit is a seam for tests: reportPolicyViolation calls it instead of
// os.Exit directly so abort-policy tests can observe the call without
// terminating the test binary.
var osExit = os.Exit

// reportPolicyViolation implements the three-bit MALLOC_CHECK_ policy
// (§4.8, §6) for a pointer-related failure: it optionally prints a message
// to os.Stderr (bit 0), optionally includes the offending address (bit 2),
// and optionally aborts the process (bit 1). kind distinguishes the
// "Invalid pointer" and "Double free" messages the original emits.
func reportPolicyViolation(cfg Config, op string, kind error, ptr uintptr) {
	if cfg.CheckLevel&checkPrint != 0 {
		if cfg.CheckLevel&checkIncludePtr != 0 {
			perr := &pointerError{kind: kind, ptr: ptr}
			fmt.Fprintf(os.Stderr, "%s(): %s\n", op, perr)
		} else {
			fmt.Fprintf(os.Stderr, "%s(): %s\n", op, policyMessage(kind))
		}
	}

	if cfg.CheckLevel&checkAbort != 0 {
		osExit(134) // SIGABRT-equivalent exit status, mirroring abort()
	}
}

func policyMessage(kind error) string {
	switch kind {
	case ErrDoubleFree:
		return "double free"
	default:
		return "invalid pointer"
	}
}
