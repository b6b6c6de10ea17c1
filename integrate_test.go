// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/riftlane/flux"
)

func TestIntegrateEmitsInitThenRunningTotals(t *testing.T) {
	sum := func(acc int, v int) int { return acc + v }
	got, err := drainFlow(t, flux.Integrate(sum, 0, flux.Enumerate([]int{1, 2, 3})), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 1, 3, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIntegratePanicInReducerFailsFlow(t *testing.T) {
	rf := func(acc int, v int) int {
		if v == 2 {
			panic("boom")
		}
		return acc + v
	}
	_, err := drainFlow(t, flux.Integrate(rf, 0, flux.Enumerate([]int{1, 2, 3})), time.Second)
	if err == nil {
		t.Fatal("expected an error from the panicking reducer")
	}
}
