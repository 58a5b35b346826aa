// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"os"
	"strconv"
)

// checkLevel bits (§4.8, §6). Named after glibc's MALLOC_CHECK_ tunable,
// which this module's env var deliberately echoes.
const (
	checkPrint        = 1 << 0
	checkAbort        = 1 << 1
	checkIncludePtr   = 1 << 2
	defaultCheckLevel = checkPrint
)

// Config holds the three environment-sourced tunables described in
// SPEC_FULL.md §4.9/§6. Its zero value is not meaningful on its own; use
// loadConfig.
type Config struct {
	// PerturbByte, if non-zero, is used to fill freed payloads; its
	// bitwise complement fills freshly allocated payloads.
	PerturbByte byte

	// CheckLevel is the three-bit invalid-pointer/double-free policy
	// bitfield: bit 0 prints, bit 1 aborts, bit 2 includes the pointer.
	CheckLevel uint8

	// HexDump, when true, makes the default Report behave like
	// ReportHex.
	HexDump bool
}

// loadConfig reads MALLOC_PERTURB_, MALLOC_CHECK_ and MALLOC_HEX_DUMP from
// the environment. Unset or unparsable values fall back to safe defaults:
// no perturbation, print-only policy, no hex dump by default.
func loadConfig() Config {
	cfg := Config{CheckLevel: defaultCheckLevel}

	if v, ok := os.LookupEnv("MALLOC_PERTURB_"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PerturbByte = byte(n & 0xFF)
		}
	}

	if v, ok := os.LookupEnv("MALLOC_CHECK_"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CheckLevel = uint8(n & 0x7)
		}
	}

	if v, ok := os.LookupEnv("MALLOC_HEX_DUMP"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.HexDump = b
		} else if n, err := strconv.Atoi(v); err == nil {
			cfg.HexDump = n != 0
		}
	}

	return cfg
}
