// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Gather emits values from every listed flow as they arrive, in
// arrival order, from whichever source produced them. It terminates
// once all upstreams have terminated. Any upstream failure cancels
// the rest and fails the composite.
func Gather[T any](flows ...Flow[T]) Flow[T] {
	return func(onNotify func(), onTerminate func()) Transfer[T] {
		n := len(flows)
		var mu sync.Mutex
		var queue []T
		var failure error
		remaining := n
		cancelled := false
		terminated := false
		notifiedPending := false
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
			d := remaining == 0 && len(queue) == 0 && failure == nil
			mu.Unlock()
			if d {
				terminate()
			}
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
			if failure == nil {
				failure = err
			}
			mu.Unlock()
			cancelAll()
			signal()
		}

		if n == 0 {
			go onTerminate()
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
					queue = append(queue, v)
					mu.Unlock()
					signal()
				},
				func() {
					mu.Lock()
					remaining--
					mu.Unlock()
					finishIfDrained()
				},
			)
		}

		take := func() (T, error) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				terminate()
				var zero T
				return zero, ErrCancelled
			}
			if len(queue) == 0 {
				if failure != nil {
					err := failure
					failure = nil
					mu.Unlock()
					terminate()
					var zero T
					return zero, err
				}
				mu.Unlock()
				var zero T
				return zero, &ProtocolViolationError{Reason: "gather: Take called with nothing buffered"}
			}
			v := queue[0]
			queue = queue[1:]
			notifiedPending = false
			mu.Unlock()
			signal()
			finishIfDrained()
			return v, nil
		}

		return Transfer[T]{
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
