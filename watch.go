// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Watchable is the external watchable-reference capability this
// package relies on: AddWatch installs fn to be called with the new
// value after each mutation; RemoveWatch uninstalls it; Deref reads
// the current value.
type Watchable[T any] interface {
	AddWatch(key any, fn func(T))
	RemoveWatch(key any)
	Deref() T
}

// Watch is a continuous Flow over ref. The first notification carries
// ref's current value; subsequent notifications mean the value changed.
// Only the most recent change is retained between notifications —
// overflow drops older values, never the latest. Cancel removes the
// watcher.
func Watch[T any](ref Watchable[T]) Flow[T] {
	return func(onNotify func(), onTerminate func()) Transfer[T] {
		var mu sync.Mutex
		current := ref.Deref()
		pending := true
		cancelled := false
		terminated := false
		key := new(byte)

		terminate := func() {
			mu.Lock()
			if terminated {
				mu.Unlock()
				return
			}
			terminated = true
			mu.Unlock()
			ref.RemoveWatch(key)
			onTerminate()
		}

		ref.AddWatch(key, func(v T) {
			mu.Lock()
			if cancelled || terminated {
				mu.Unlock()
				return
			}
			current = v
			already := pending
			pending = true
			mu.Unlock()
			if !already {
				onNotify()
			}
		})

		take := func() (T, error) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				terminate()
				var zero T
				return zero, ErrCancelled
			}
			v := current
			pending = false
			mu.Unlock()
			return v, nil
		}

		go onNotify()

		return Transfer[T]{
			Take: take,
			Cancel: func() {
				mu.Lock()
				cancelled = true
				mu.Unlock()
				terminate()
			},
		}
	}
}
