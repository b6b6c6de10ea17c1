// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Join subscribes to every task in the listed order. If all succeed,
// completes with combine applied to their results in subscription order,
// regardless of completion order. If any fails, cancels the rest and
// fails with that error; later failures are discarded (first-observed
// wins). Joining zero tasks completes immediately with combine().
func Join[T, R any](combine func(...T) R, tasks ...Task[T]) Task[R] {
	return func(onSuccess func(R), onFailure func(error)) Cancel {
		if len(tasks) == 0 {
			onSuccess(combine())
			return func() {}
		}

		var mu sync.Mutex
		results := make([]T, len(tasks))
		remaining := len(tasks)
		var s settle
		cancels := make([]Cancel, len(tasks))

		cancelAll := func() {
			for _, c := range cancels {
				if c != nil {
					c()
				}
			}
		}

		for i, t := range tasks {
			i := i
			if s.isDone() {
				break
			}
			cancels[i] = t(
				func(v T) {
					mu.Lock()
					results[i] = v
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done && s.claim() {
						onSuccess(combine(results...))
					}
				},
				func(err error) {
					if s.claim() {
						cancelAll()
						onFailure(err)
					}
				},
			)
		}

		return onceCancel(func() {
			if s.claim() {
				cancelAll()
				onFailure(ErrCancelled)
			} else {
				cancelAll()
			}
		})
	}
}
