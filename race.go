// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Race subscribes to every task in the listed order. The first success
// wins and cancels the rest; if all fail, fails with a *RaceError
// aggregating every candidate's error. The winner is the first terminal
// event observed, regardless of subscription order. Racing zero tasks
// fails immediately with an empty *RaceError.
func Race[T any](tasks ...Task[T]) Task[T] {
	return func(onSuccess func(T), onFailure func(error)) Cancel {
		if len(tasks) == 0 {
			onFailure(&RaceError{})
			return func() {}
		}

		var mu sync.Mutex
		errs := make([]error, len(tasks))
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
					if s.claim() {
						cancelAll()
						onSuccess(v)
					}
				},
				func(err error) {
					mu.Lock()
					errs[i] = err
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done && s.claim() {
						onFailure(&RaceError{Errs: errs})
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
