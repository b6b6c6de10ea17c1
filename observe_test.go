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

func TestObserveDeliversExternalEventsInOrder(t *testing.T) {
	var emit func(int)
	f := flux.Observe(func(event func(int)) func() {
		emit = event
		return func() {}
	})

	var transfer flux.Transfer[int]
	var got []int
	done := make(chan struct{})
	transfer = f(func() {
		v, err := transfer.Take()
		if err != nil {
			close(done)
			return
		}
		got = append(got, v)
		if len(got) == 3 {
			transfer.Cancel()
		}
	}, func() { close(done) })

	go func() {
		emit(1)
		time.Sleep(time.Millisecond)
		emit(2)
		time.Sleep(time.Millisecond)
		emit(3)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("observe flow never terminated")
	}
	want := []int{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestObserveEventBeforePriorValueTakenPanics(t *testing.T) {
	var emit func(int)
	f := flux.Observe(func(event func(int)) func() {
		emit = event
		return func() {}
	})
	f(func() {}, func() {})

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic from firing event while a value is still pending")
		}
	}()
	emit(1)
	emit(2)
}
