// Copyright 2024 The Malloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "testing"

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		total uintptr
		want  SizeClass
	}{
		{1, Tiny},
		{tinyMax, Tiny},
		{tinyMax + 1, Small},
		{smallMax, Small},
		{smallMax + 1, Large},
		{1 << 20, Large},
	}

	for _, c := range cases {
		if got := classify(c.total); got != c.want {
			t.Errorf("classify(%d) = %v, want %v", c.total, got, c.want)
		}
	}
}

func TestClassifyMonotone(t *testing.T) {
	for x := uintptr(1); x < smallMax+256; x++ {
		if classify(x) > classify(x+1) {
			t.Fatalf("classify not monotone at %d: classify(x)=%v classify(x+1)=%v", x, classify(x), classify(x+1))
		}
	}
}

func TestSizeClassString(t *testing.T) {
	if Tiny.String() != "TINY" || Small.String() != "SMALL" || Large.String() != "LARGE" {
		t.Fatal("unexpected SizeClass.String() output")
	}
}
