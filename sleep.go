// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "time"

// Sleep returns a Task completing with v after d has elapsed from
// subscription. Cancellation fails it immediately.
func Sleep[T any](d time.Duration, v T) Task[T] {
	return func(onSuccess func(T), onFailure func(error)) Cancel {
		var s settle
		timer := time.AfterFunc(d, func() {
			if s.claim() {
				onSuccess(v)
			}
		})
		return onceCancel(func() {
			timer.Stop()
			if s.claim() {
				onFailure(ErrCancelled)
			}
		})
	}
}

// Never returns a Task that never succeeds. Cancellation fails it.
func Never[T any]() Task[T] {
	return func(_ func(T), onFailure func(error)) Cancel {
		var s settle
		return onceCancel(func() {
			if s.claim() {
				onFailure(ErrCancelled)
			}
		})
	}
}
