// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux_test

import (
	"testing"
	"time"

	"github.com/riftlane/flux"
)

func TestGatherMergesAllUpstreams(t *testing.T) {
	got, err := drainFlow(t, flux.Gather(flux.Enumerate([]int{1, 2, 3}), flux.Enumerate([]int{4, 5})), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := 0
	for _, v := range got {
		sum += v
	}
	if len(got) != 5 || sum != 15 {
		t.Fatalf("got %v, want five values summing to 15", got)
	}
}

func TestGatherEmptyTerminatesImmediately(t *testing.T) {
	got, err := drainFlow(t, flux.Gather[int](), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want no values", got)
	}
}

func TestGatherFailureCancelsSiblings(t *testing.T) {
	failing := func(onNotify func(), onTerminate func()) flux.Transfer[int] {
		go onNotify()
		return flux.Transfer[int]{
			Take:   func() (int, error) { return 0, flux.ErrCancelled },
			Cancel: func() {},
		}
	}
	_, err := drainFlow(t, flux.Gather(flux.Enumerate([]int{1, 2, 3}), failing), time.Second)
	if err != flux.ErrCancelled {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
}
