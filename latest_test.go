// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux_test

import (
	"testing"
	"time"

	"github.com/riftlane/flux"
)

func TestLatestEmitsOnceAllUpstreamsAreWarm(t *testing.T) {
	sum := func(vs ...int) int { return vs[0] + vs[1] }
	got, err := drainFlow(t, flux.Latest(sum, flux.Enumerate([]int{1}), flux.Enumerate([]int{10, 20})), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one emission")
	}
	if got[0] != 11 {
		t.Fatalf("got first emission %d, want 11", got[0])
	}
	last := got[len(got)-1]
	if last != 21 {
		t.Fatalf("got last emission %d, want 21", last)
	}
}

func TestLatestFailureCancelsTheRest(t *testing.T) {
	failing := func(onNotify func(), onTerminate func()) flux.Transfer[int] {
		go onNotify()
		return flux.Transfer[int]{
			Take:   func() (int, error) { return 0, flux.ErrCancelled },
			Cancel: func() {},
		}
	}
	sum := func(vs ...int) int { return vs[0] + vs[1] }
	_, err := drainFlow(t, flux.Latest(sum, flux.Enumerate([]int{1, 2, 3}), failing), time.Second)
	if err != flux.ErrCancelled {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
}
