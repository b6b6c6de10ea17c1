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

// TestTransformComposedTransducer runs filter-odd, mapcat-range and
// partition-all(4) over the integers 0..9, matching the pipeline's
// hand-worked expansion: the odd values 1,3,5,7,9 each expand to
// 0..v-1, the resulting 25-element sequence is then cut into four-
// element groups with a final short group flushed at the end.
func TestTransformComposedTransducer(t *testing.T) {
	xf := flux.Compose(
		flux.Filter(func(v int) bool { return v%2 == 1 }),
		flux.Mapcat(func(v int) []int {
			out := make([]int, v)
			for i := range out {
				out[i] = i
			}
			return out
		}),
		flux.PartitionAll[int](4),
	)

	coll := make([]int, 10)
	for i := range coll {
		coll[i] = i
	}

	got, err := drainFlow(t, flux.Transform[int, []int](xf, flux.Enumerate(coll)), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]int{
		{0, 0, 1, 2},
		{0, 1, 2, 3},
		{4, 0, 1, 2},
		{3, 4, 5, 6},
		{0, 1, 2, 3},
		{4, 5, 6, 7},
		{8},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTransformMapOnly(t *testing.T) {
	xf := flux.Map(func(v int) int { return v * 2 })
	got, err := drainFlow(t, flux.Transform[int, int](xf, flux.Enumerate([]int{1, 2, 3})), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{2, 4, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTransformTakeWhileStopsEarly(t *testing.T) {
	xf := flux.TakeWhile(func(v int) bool { return v < 3 })
	got, err := drainFlow(t, flux.Transform[int, int](xf, flux.Enumerate([]int{1, 2, 3, 4, 5})), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
