// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// Buffer accumulates up to capacity upstream values in a bounded
// lock-free ring when downstream lags. If capacity would be exceeded
// the flow fails with an *OverflowError and cancels the upstream.
// capacity must be > 0.
func Buffer[T any](capacity int, flow Flow[T]) Flow[T] {
	return func(onNotify func(), onTerminate func()) Transfer[T] {
		var ring lfq.SPSC[T]
		ring.Init(capacity)
		var count atomix.Uint32

		var mu sync.Mutex
		cancelled := false
		terminated := false
		upstreamDone := false
		notifiedPending := false
		var failure error
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
			if notifiedPending {
				mu.Unlock()
				return
			}
			ready := count.Load() > 0 || failure != nil
			if !ready {
				mu.Unlock()
				return
			}
			notifiedPending = true
			mu.Unlock()
			onNotify()
		}

		finishIfDrained := func() {
			mu.Lock()
			done := upstreamDone && count.Load() == 0 && failure == nil
			mu.Unlock()
			if done {
				terminate()
			}
		}

		fail := func(err error) {
			mu.Lock()
			if failure == nil {
				failure = err
			}
			upstreamDone = true
			mu.Unlock()
			signal()
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
				if enqErr := ring.Enqueue(&v); enqErr != nil {
					upstream.Cancel()
					fail(&OverflowError{Reason: "buffer: capacity exceeded"})
					return
				}
				count.Add(1)
				signal()
			},
			func() {
				mu.Lock()
				upstreamDone = true
				mu.Unlock()
				signal()
				finishIfDrained()
			},
		)

		take := func() (T, error) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				terminate()
				var zero T
				return zero, ErrCancelled
			}
			mu.Unlock()

			if count.Load() > 0 {
				v, err := ring.Dequeue()
				if err == nil {
					count.Add(^uint32(0))
					mu.Lock()
					notifiedPending = false
					mu.Unlock()
					signal()
					finishIfDrained()
					return v, nil
				}
			}

			mu.Lock()
			if failure != nil {
				err := failure
				failure = nil
				mu.Unlock()
				terminate()
				var zero T
				return zero, err
			}
			notifiedPending = false
			mu.Unlock()
			var zero T
			return zero, &ProtocolViolationError{Reason: "buffer: Take called with nothing buffered"}
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
