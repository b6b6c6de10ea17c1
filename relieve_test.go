// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux_test

import (
	"testing"
	"time"

	"github.com/riftlane/flux"
)

// TestRelieveFoldsBurstsWhenDownstreamLags drains Relieve over an
// Enumerate upstream and checks the relieved total is
// conserved across however many deliveries it took to get there: the
// sum of everything ever folded in must equal the sum of everything
// the test actually sees, since Relieve only ever combines, never
// drops, a value.
func TestRelieveFoldsBurstsWhenDownstreamLags(t *testing.T) {
	sum := func(acc, v int) int { return acc + v }
	coll := []int{1, 2, 3, 4, 5}
	got, err := drainFlow(t, flux.Relieve(sum, flux.Enumerate(coll)), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := 0
	for _, v := range got {
		total += v
	}
	want := 0
	for _, v := range coll {
		want += v
	}
	if total != want {
		t.Fatalf("got total %d across %v, want %d", total, got, want)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one delivery")
	}
}

func TestRelieveCancelStopsUpstream(t *testing.T) {
	sum := func(acc, v int) int { return acc + v }
	f := flux.Relieve(sum, flux.Enumerate([]int{1, 2, 3}))
	var transfer flux.Transfer[int]
	done := make(chan struct{})
	transfer = f(func() {}, func() { close(done) })
	transfer.Cancel()
	v, err := transfer.Take()
	if err != flux.ErrCancelled {
		t.Fatalf("got v=%v err=%v, want ErrCancelled", v, err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onTerminate never fired after cancel")
	}
}
