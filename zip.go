// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Zip waits until every upstream has emitted one value, then emits
// f(v1,...,vn), consuming one buffered value per upstream per emission.
// Each upstream has its own FIFO queue, so an upstream that emits
// several values before another emits its first does not lose any of
// them: it just waits, queued, for its partners to catch up.
// Termination of an upstream ends the composite, and cancels the rest,
// once every value that upstream emitted has been zipped; the output is
// thus as long as the shortest upstream. Failure of any upstream
// terminates the composite at once and cancels the rest.
func Zip[T, R any](f func(...T) R, flows ...Flow[T]) Flow[R] {
	return func(onNotify func(), onTerminate func()) Transfer[R] {
		n := len(flows)
		var mu sync.Mutex
		pending := make([][]T, n)
		ended := make([]bool, n)
		var queue []R
		cancelled := false
		terminated := false
		done := false
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

		cancelAll := func() {
			for _, tr := range transfers {
				if tr.Cancel != nil {
					tr.Cancel()
				}
			}
		}

		signal := func() {
			mu.Lock()
			if notifiedPending || len(queue) == 0 {
				mu.Unlock()
				return
			}
			notifiedPending = true
			mu.Unlock()
			onNotify()
		}

		finishIfDrained := func() {
			mu.Lock()
			d := done && len(queue) == 0
			mu.Unlock()
			if d {
				terminate()
			}
		}

		fail := func() {
			mu.Lock()
			if done {
				mu.Unlock()
				return
			}
			done = true
			mu.Unlock()
			cancelAll()
			finishIfDrained()
		}

		for i := range flows {
			i := i
			transfers[i] = flows[i](
				func() {
					v, err := transfers[i].Take()
					if err != nil {
						fail()
						return
					}
					mu.Lock()
					pending[i] = append(pending[i], v)
					produced := false
					for {
						complete := true
						for j := range pending {
							if len(pending[j]) == 0 {
								complete = false
								break
							}
						}
						if !complete {
							break
						}
						vs := make([]T, n)
						for j := range pending {
							vs[j] = pending[j][0]
							pending[j] = pending[j][1:]
						}
						queue = append(queue, f(vs...))
						produced = true
					}
					stop := false
					for j := range pending {
						stop = stop || (ended[j] && len(pending[j]) == 0)
					}
					mu.Unlock()
					if produced {
						signal()
					}
					if stop {
						fail()
					}
				},
				func() {
					mu.Lock()
					ended[i] = true
					stop := len(pending[i]) == 0
					mu.Unlock()
					if stop {
						fail()
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
			if len(queue) == 0 {
				mu.Unlock()
				var zero R
				return zero, &ProtocolViolationError{Reason: "zip: Take called with nothing buffered"}
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
				cancelAll()
				terminate()
			},
		}
	}
}
