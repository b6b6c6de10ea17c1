// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import (
	"fmt"

	"code.hybscloud.com/kont"
)

// SP runs body as a sequential fiber: a suspendable computation built
// with Park (the `?` operation) and Poll (the `!` operation). It
// returns a Task that succeeds with body's result, or fails if the
// fiber is cancelled or any parked task fails. The body runs on its
// own goroutine; dispatching a Park operation blocks that goroutine,
// never the caller of SP.
func SP[A any](body kont.Eff[A]) Task[A] {
	return func(onSuccess func(A), onFailure func(error)) Cancel {
		ctx := &fiberContext{}
		var s settle

		go func() {
			defer func() {
				if r := recover(); r == nil {
					return
				} else if !s.claim() {
					return
				} else if err, ok := r.(error); ok {
					onFailure(err)
				} else {
					onFailure(&ProtocolViolationError{Reason: fmt.Sprintf("sp: fiber panicked: %v", r)})
				}
			}()
			result := kont.Handle(body, fiberHandler{ctx: ctx})
			if s.claim() {
				onSuccess(result)
			}
		}()

		return onceCancel(func() {
			ctx.cancelled.Store(1)
		})
	}
}
