// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Observe is a discrete Flow driven by an external event source. subject
// is called once, on subscription, with an event func; it returns a
// cleanup thunk invoked on cancellation. event may be called from any
// goroutine. Calling it again while a previously delivered value is
// still waiting to be taken is a protocol violation on the caller's
// part and panics with an *OverflowError rather than silently dropping
// or queueing the value.
func Observe[T any](subject func(event func(T)) func()) Flow[T] {
	return func(onNotify func(), onTerminate func()) Transfer[T] {
		var mu sync.Mutex
		var value T
		pending := false
		cancelled := false
		terminated := false
		var cleanup func()

		terminate := func() {
			mu.Lock()
			if terminated {
				mu.Unlock()
				return
			}
			terminated = true
			c := cleanup
			mu.Unlock()
			if c != nil {
				c()
			}
			onTerminate()
		}

		event := func(v T) {
			mu.Lock()
			if cancelled || terminated {
				mu.Unlock()
				return
			}
			if pending {
				mu.Unlock()
				panic(&OverflowError{Reason: "observe: event fired while a previous value was still pending transfer"})
			}
			value = v
			pending = true
			mu.Unlock()
			onNotify()
		}

		cleanup = subject(event)

		take := func() (T, error) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				terminate()
				var zero T
				return zero, ErrCancelled
			}
			v := value
			pending = false
			mu.Unlock()
			return v, nil
		}

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
