// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "time"

// Timeout succeeds with t's value iff t completes within d; otherwise t
// is cancelled and the composite fails with a *TimeoutError carrying d.
// Expressed purely via Race and Sleep, per spec: there is no privileged
// timer wheel.
func Timeout[T any](d time.Duration, t Task[T]) Task[T] {
	failing := func() (T, error) {
		var zero T
		return zero, &TimeoutError{Duration: d}
	}
	return Absolve(Race(Sleep(d, failing), Attempt(t)))
}
