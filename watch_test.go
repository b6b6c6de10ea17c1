// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux_test

import (
	"sync"
	"testing"
	"time"

	"github.com/riftlane/flux"
)

type testRef struct {
	mu       sync.Mutex
	value    int
	watchers map[any]func(int)
}

func newTestRef(initial int) *testRef {
	return &testRef{value: initial, watchers: map[any]func(int){}}
}

func (r *testRef) AddWatch(key any, fn func(int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[key] = fn
}

func (r *testRef) RemoveWatch(key any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watchers, key)
}

func (r *testRef) Deref() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

func (r *testRef) set(v int) {
	r.mu.Lock()
	r.value = v
	fns := make([]func(int), 0, len(r.watchers))
	for _, fn := range r.watchers {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

func TestWatchDeliversCurrentValueThenChanges(t *testing.T) {
	ref := newTestRef(1)
	f := flux.Watch[int](ref)

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
		if len(got) == 2 {
			transfer.Cancel()
		}
	}, func() { close(done) })

	go func() {
		time.Sleep(5 * time.Millisecond)
		ref.set(2)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch flow never terminated")
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}
}

func TestWatchCancelRemovesWatcher(t *testing.T) {
	ref := newTestRef(0)
	f := flux.Watch[int](ref)
	var transfer flux.Transfer[int]
	transfer = f(func() {}, func() {})
	transfer.Cancel()
	_, err := transfer.Take()
	if err != flux.ErrCancelled {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
	ref.mu.Lock()
	n := len(ref.watchers)
	ref.mu.Unlock()
	if n != 0 {
		t.Fatalf("got %d watchers still installed, want 0", n)
	}
}
