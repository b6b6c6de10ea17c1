// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Relieve turns a discrete flow into a continuous one: while a value
// is pending and unread, further upstream values are folded into it
// with rf instead of queueing. Downstream always transfers the latest
// reduction.
func Relieve[T any](rf func(acc T, v T) T, flow Flow[T]) Flow[T] {
	return func(onNotify func(), onTerminate func()) Transfer[T] {
		var mu sync.Mutex
		var value T
		pending := false
		cancelled := false
		terminated := false
		var upstream Transfer[T]

		terminate := func() {
			mu.Lock()
			if terminated {
				mu.Unlock()
				return
			}
			terminated = true
			mu.Unlock()
			onTerminate()
		}

		upstream = flow(
			func() {
				v, err := upstream.Take()
				if err != nil {
					terminate()
					return
				}
				mu.Lock()
				already := pending
				if already {
					value = rf(value, v)
				} else {
					value = v
				}
				pending = true
				mu.Unlock()
				if !already {
					onNotify()
				}
			},
			terminate,
		)

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
				upstream.Cancel()
				terminate()
			},
		}
	}
}
