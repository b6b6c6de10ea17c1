// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux_test

import (
	"errors"
	"testing"
	"time"

	"github.com/riftlane/flux"
)

func TestCompletedSucceeds(t *testing.T) {
	var got int
	flux.Completed(42).Subscribe(func(v int) { got = v }, func(error) {
		t.Fatal("unexpected failure")
	})
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestFailedFails(t *testing.T) {
	want := errors.New("boom")
	var got error
	flux.Failed[int](want).Subscribe(func(int) {
		t.Fatal("unexpected success")
	}, func(err error) { got = err })
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSleepCompletesAfterDuration(t *testing.T) {
	start := time.Now()
	done := make(chan struct{})
	flux.Sleep(20*time.Millisecond, "done").Subscribe(func(v string) {
		if v != "done" {
			t.Errorf("got %q, want %q", v, "done")
		}
		close(done)
	}, func(error) { t.Fatal("unexpected failure") })

	<-done
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("completed too early: %v", elapsed)
	}
}

func TestSleepCancel(t *testing.T) {
	succeeded := make(chan struct{}, 1)
	failed := make(chan error, 1)
	cancel := flux.Sleep(50*time.Millisecond, 1).Subscribe(func(int) {
		succeeded <- struct{}{}
	}, func(err error) { failed <- err })
	cancel()
	time.Sleep(80 * time.Millisecond)
	select {
	case <-succeeded:
		t.Fatal("cancelled sleep still completed")
	default:
	}
	select {
	case err := <-failed:
		if err != flux.ErrCancelled {
			t.Fatalf("got %v, want ErrCancelled", err)
		}
	default:
		t.Fatal("cancelled sleep did not fail")
	}
}

func TestNeverNeverCompletes(t *testing.T) {
	failed := make(chan error, 1)
	cancel := flux.Never[int]().Subscribe(func(int) {
		t.Fatal("never task completed")
	}, func(err error) { failed <- err })
	select {
	case err := <-failed:
		t.Fatalf("never task failed before cancel: %v", err)
	default:
	}
	cancel()
	select {
	case err := <-failed:
		if err != flux.ErrCancelled {
			t.Fatalf("got %v, want ErrCancelled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled never task did not fail")
	}
}
