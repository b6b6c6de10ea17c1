// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Sample waits for sampled to produce its first value; thereafter, for
// every sampler value it emits f(sampled-current, sampler-value).
// Termination of sampler terminates the composite and cancels sampled.
// Termination of sampled does not end the composite: its last value
// goes on being sampled. Failure of either, or a sampler value arriving before sampled has
// produced anything, cancels and propagates.
func Sample[S, E, R any](f func(S, E) R, sampled Flow[S], sampler Flow[E]) Flow[R] {
	return func(onNotify func(), onTerminate func()) Transfer[R] {
		var mu sync.Mutex
		var current S
		haveSampled := false
		var queue []R
		var failure error
		done := false
		cancelled := false
		terminated := false
		notifiedPending := false
		var sampledTransfer Transfer[S]
		var samplerTransfer Transfer[E]

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
			d := done && len(queue) == 0 && failure == nil
			mu.Unlock()
			if d {
				terminate()
			}
		}

		failWith := func(err error) {
			mu.Lock()
			if done {
				mu.Unlock()
				return
			}
			done = true
			if failure == nil {
				failure = err
			}
			mu.Unlock()
			sampledTransfer.Cancel()
			samplerTransfer.Cancel()
			signal()
		}

		sampledTransfer = sampled(
			func() {
				v, err := sampledTransfer.Take()
				if err != nil {
					failWith(err)
					return
				}
				mu.Lock()
				current = v
				haveSampled = true
				mu.Unlock()
			},
			func() {},
		)

		samplerTransfer = sampler(
			func() {
				v, err := samplerTransfer.Take()
				if err != nil {
					failWith(err)
					return
				}
				mu.Lock()
				if !haveSampled {
					mu.Unlock()
					failWith(&ProtocolViolationError{Reason: "sample: sampler fired before sampled produced a value"})
					return
				}
				result := f(current, v)
				queue = append(queue, result)
				mu.Unlock()
				signal()
			},
			func() {
				mu.Lock()
				done = true
				mu.Unlock()
				sampledTransfer.Cancel()
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
				return zero, &ProtocolViolationError{Reason: "sample: Take called with nothing buffered"}
			}
			v := queue[0]
			queue = queue[1:]
			notifiedPending = false
			mu.Unlock()
			signal()
			finishIfDrained()
			return v, nil
		}

		return Transfer[R]{
			Take: take,
			Cancel: func() {
				mu.Lock()
				cancelled = true
				mu.Unlock()
				sampledTransfer.Cancel()
				samplerTransfer.Cancel()
				terminate()
			},
		}
	}
}
