// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Latest subscribes to every flow. The first emission occurs once
// every upstream has produced its first value; every subsequent
// upstream change re-emits f applied to the then-current tuple.
// Failure of any upstream cancels the rest and fails the composite.
// The composite terminates once every upstream has terminated.
func Latest[T, R any](f func(...T) R, flows ...Flow[T]) Flow[R] {
	return func(onNotify func(), onTerminate func()) Transfer[R] {
		n := len(flows)
		var mu sync.Mutex
		values := make([]T, n)
		haveValue := make([]bool, n)
		warm := 0
		remaining := n
		pending := false
		cancelled := false
		terminated := false
		failed := false
		var failure error
		transfers := make([]Transfer[T], n)

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

		cancelAll := func() {
			for _, tr := range transfers {
				if tr.Cancel != nil {
					tr.Cancel()
				}
			}
		}

		fail := func(err error) {
			mu.Lock()
			if failed {
				mu.Unlock()
				return
			}
			failed = true
			failure = err
			already := pending
			pending = true
			mu.Unlock()
			cancelAll()
			if !already {
				onNotify()
			}
		}

		for i := range flows {
			i := i
			transfers[i] = flows[i](
				func() {
					v, err := transfers[i].Take()
					if err != nil {
						fail(err)
						return
					}
					mu.Lock()
					values[i] = v
					if !haveValue[i] {
						haveValue[i] = true
						warm++
					}
					ready := warm == n
					already := pending
					if ready {
						pending = true
					}
					mu.Unlock()
					if ready && !already {
						onNotify()
					}
				},
				func() {
					mu.Lock()
					remaining--
					d := remaining == 0 && !failed && !pending
					mu.Unlock()
					if d {
						terminate()
					}
				},
			)
		}

		take := func() (R, error) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				terminate()
				var zero R
				return zero, ErrCancelled
			}
			if failure != nil {
				err := failure
				failure = nil
				mu.Unlock()
				terminate()
				var zero R
				return zero, err
			}
			vs := append([]T(nil), values...)
			pending = false
			ended := remaining == 0
			mu.Unlock()
			if ended {
				terminate()
			}
			return f(vs...), nil
		}

		return Transfer[R]{
			Take: take,
			Cancel: func() {
				mu.Lock()
				cancelled = true
				mu.Unlock()
				cancelAll()
				terminate()
			},
		}
	}
}
