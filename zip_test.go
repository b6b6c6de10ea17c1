// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux_test

import (
	"testing"
	"testing/quick"
	"time"

	"github.com/riftlane/flux"
)

func TestZipPairsInLockstep(t *testing.T) {
	sum := func(vs ...int) int { return vs[0] + vs[1] }
	got, err := drainFlow(t, flux.Zip(sum, flux.Enumerate([]int{1, 2, 3}), flux.Enumerate([]int{10, 20, 30})), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{11, 22, 33}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// TestZipQueuesValuesFromAFasterUpstream lets one upstream race ahead
// and produce all three of its values before the other upstream's
// pump even starts. A single overwritable slot per upstream would let
// the later values stomp the earlier ones, pairing the slow
// upstream's first value with the fast upstream's last; a FIFO queue
// per upstream must instead preserve arrival order on both sides.
func TestZipQueuesValuesFromAFasterUpstream(t *testing.T) {
	skipRace(t)
	fast := flux.Enumerate([]int{1, 2, 3})
	slow := func(onNotify func(), onTerminate func()) flux.Transfer[int] {
		time.Sleep(20 * time.Millisecond)
		return flux.Enumerate([]int{10, 20, 30})(onNotify, onTerminate)
	}
	sum := func(vs ...int) int { return vs[0] + vs[1] }

	got, err := drainFlow(t, flux.Zip(sum, fast, slow), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{11, 22, 33}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v (a faster upstream's earlier values must not be overwritten while waiting on a slower partner)", got, want)
		}
	}
}

func TestZipTruncatesToShortestUpstream(t *testing.T) {
	property := func(a, b []int) bool {
		if len(a) == 0 || len(b) == 0 {
			return true
		}
		sum := func(vs ...int) int { return vs[0] + vs[1] }
		got, err := drainFlow(t, flux.Zip(sum, flux.Enumerate(a), flux.Enumerate(b)), time.Second)
		if err != nil {
			return false
		}
		want := len(a)
		if len(b) < want {
			want = len(b)
		}
		return len(got) == want
	}
	if err := quick.Check(property, &quick.Config{MaxLen: 12}); err != nil {
		t.Error(err)
	}
}
