// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mallocctl is a small harness for exercising the malloc package
// from the shell: a scripted sequence of alloc/free/resize/report commands,
// one per line, read from a file or stdin. It contains no allocator logic
// of its own.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/Pradene/malloc"
)

func main() {
	script := flag.String("script", "", "path to a command script (defaults to stdin)")
	hex := flag.Bool("hex", false, "use ReportHex instead of Report")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Drives the malloc package from a scripted command file.\n\n")
		fmt.Fprintf(os.Stderr, "COMMANDS (one per line):\n")
		fmt.Fprintf(os.Stderr, "  alloc <id> <size>         allocate size bytes, remember it as <id>\n")
		fmt.Fprintf(os.Stderr, "  resize <id> <size>        resize <id>'s allocation\n")
		fmt.Fprintf(os.Stderr, "  free <id>                 release <id>'s allocation\n")
		fmt.Fprintf(os.Stderr, "  report                    print the live allocation map\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	in := os.Stdin
	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	if err := run(in, os.Stdout, *hex); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, hex bool) error {
	live := map[string]unsafe.Pointer{}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "alloc":
			if len(fields) != 3 {
				return fmt.Errorf("alloc: want <id> <size>, got %q", fields)
			}
			size, err := strconv.Atoi(fields[2])
			if err != nil {
				return err
			}
			p, err := malloc.Allocate(size)
			if err != nil {
				return fmt.Errorf("alloc %s: %w", fields[1], err)
			}
			live[fields[1]] = p

		case "resize":
			if len(fields) != 3 {
				return fmt.Errorf("resize: want <id> <size>, got %q", fields)
			}
			size, err := strconv.Atoi(fields[2])
			if err != nil {
				return err
			}
			p, ok := live[fields[1]]
			if !ok {
				return fmt.Errorf("resize: unknown id %q", fields[1])
			}
			np, err := malloc.Resize(p, size)
			if err != nil {
				return fmt.Errorf("resize %s: %w", fields[1], err)
			}
			live[fields[1]] = np

		case "free":
			if len(fields) != 2 {
				return fmt.Errorf("free: want <id>, got %q", fields)
			}
			p, ok := live[fields[1]]
			if !ok {
				return fmt.Errorf("free: unknown id %q", fields[1])
			}
			malloc.Release(p)
			delete(live, fields[1])

		case "report":
			var err error
			if hex {
				err = malloc.ReportHex(out)
			} else {
				err = malloc.Report(out)
			}
			if err != nil {
				return err
			}

		default:
			return fmt.Errorf("unknown command %q", fields[0])
		}
	}

	return scanner.Err()
}
