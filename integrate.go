// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import (
	"fmt"
	"sync"
)

// Integrate emits init immediately, then after each upstream value
// emits rf(prev, v), where prev is the previously emitted value.
// A panic from rf cancels the upstream and surfaces as the next Take's
// error.
func Integrate[T, R any](rf func(acc R, v T) R, init R, flow Flow[T]) Flow[R] {
	return func(onNotify func(), onTerminate func()) Transfer[R] {
		var mu sync.Mutex
		queue := []R{init}
		acc := init
		var failure error
		cancelled := false
		terminated := false
		upstreamDone := false
		notifiedPending := false
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

		signal := func() {
			mu.Lock()
			if notifiedPending || (len(queue) == 0 && failure == nil) {
				mu.Unlock()
				return
			}
			notifiedPending = true
			mu.Unlock()
			onNotify()
		}

		finishIfDrained := func() {
			mu.Lock()
			done := upstreamDone && len(queue) == 0 && failure == nil
			mu.Unlock()
			if done {
				terminate()
			}
		}

		step := func(v T) (stop bool) {
			var next R
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					failure = &ProtocolViolationError{Reason: fmt.Sprintf("integrate: rf panicked: %v", r)}
					mu.Unlock()
					stop = true
				}
			}()
			next = rf(acc, v)
			mu.Lock()
			acc = next
			queue = append(queue, next)
			mu.Unlock()
			return false
		}

		upstream = flow(
			func() {
				v, err := upstream.Take()
				if err != nil {
					mu.Lock()
					upstreamDone = true
					mu.Unlock()
					signal()
					finishIfDrained()
					return
				}
				if step(v) {
					upstream.Cancel()
					mu.Lock()
					upstreamDone = true
					mu.Unlock()
				}
				signal()
				finishIfDrained()
			},
			func() {
				mu.Lock()
				upstreamDone = true
				mu.Unlock()
				signal()
				finishIfDrained()
			},
		)

		take := func() (R, error) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				terminate()
				var zero R
				return zero, ErrCancelled
			}
			if len(queue) == 0 {
				if failure != nil {
					err := failure
					failure = nil
					mu.Unlock()
					terminate()
					var zero R
					return zero, err
				}
				mu.Unlock()
				var zero R
				return zero, &ProtocolViolationError{Reason: "integrate: Take called with nothing buffered"}
			}
			v := queue[0]
			queue = queue[1:]
			notifiedPending = false
			mu.Unlock()
			signal()
			finishIfDrained()
			return v, nil
		}

		go signal()

		return Transfer[R]{
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
