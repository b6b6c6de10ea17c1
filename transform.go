// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Reduced wraps a transducer step's accumulated result to signal that
// the transduction should stop before the upstream is exhausted.
type Reduced struct{ Value any }

// Stage is a transducer's reducing step plus its completion step:
// Step combines the in-progress result with one new input, returning
// either the updated result or a *Reduced to stop early. Flush is
// called once, after the upstream is exhausted, to let a stateful
// stage emit what it is still holding (e.g. a partial partition).
type Stage struct {
	Step  func(result any, input any) any
	Flush func(result any) any
}

// Transducer turns the reducing step of a downstream stage into the
// reducing step of the stage that feeds it — the same composition
// shape as a Clojure transducer, adapted to Go's static typing by
// erasing to any at the stage boundary; Map, Filter, Mapcat,
// TakeWhile and PartitionAll below recover static types at
// construction time.
type Transducer func(next Stage) Stage

func identityFlush(result any) any { return result }

// Map lifts f into a Transducer producing exactly one output per input.
func Map[T, R any](f func(T) R) Transducer {
	return func(next Stage) Stage {
		return Stage{
			Step: func(result any, input any) any {
				return next.Step(result, f(input.(T)))
			},
			Flush: next.Flush,
		}
	}
}

// Filter keeps only inputs for which pred holds.
func Filter[T any](pred func(T) bool) Transducer {
	return func(next Stage) Stage {
		return Stage{
			Step: func(result any, input any) any {
				v := input.(T)
				if !pred(v) {
					return result
				}
				return next.Step(result, v)
			},
			Flush: next.Flush,
		}
	}
}

// Mapcat lifts f into a Transducer producing zero or more outputs per
// input, in order.
func Mapcat[T, R any](f func(T) []R) Transducer {
	return func(next Stage) Stage {
		return Stage{
			Step: func(result any, input any) any {
				for _, v := range f(input.(T)) {
					result = next.Step(result, v)
					if _, stop := result.(*Reduced); stop {
						return result
					}
				}
				return result
			},
			Flush: next.Flush,
		}
	}
}

// TakeWhile passes inputs through unchanged until pred fails, at which
// point it signals early termination via Reduced.
func TakeWhile[T any](pred func(T) bool) Transducer {
	return func(next Stage) Stage {
		return Stage{
			Step: func(result any, input any) any {
				v := input.(T)
				if !pred(v) {
					return &Reduced{Value: result}
				}
				return next.Step(result, v)
			},
			Flush: next.Flush,
		}
	}
}

// PartitionAll groups every n inputs into a []T emitted downstream,
// flushing a shorter final group when the upstream ends mid-partition.
func PartitionAll[T any](n int) Transducer {
	return func(next Stage) Stage {
		buf := make([]T, 0, n)
		return Stage{
			Step: func(result any, input any) any {
				buf = append(buf, input.(T))
				if len(buf) < n {
					return result
				}
				out := buf
				buf = make([]T, 0, n)
				return next.Step(result, out)
			},
			Flush: func(result any) any {
				if len(buf) > 0 {
					out := buf
					buf = nil
					result = next.Step(result, out)
				}
				return next.Flush(result)
			},
		}
	}
}

// Compose chains transducers left to right: the first listed is the
// outermost, seeing upstream values first.
func Compose(xfs ...Transducer) Transducer {
	return func(next Stage) Stage {
		stage := next
		for i := len(xfs) - 1; i >= 0; i-- {
			stage = xfs[i](stage)
		}
		return stage
	}
}

// Transform applies xf to flow's values. Each upstream transfer drives
// xf, which may produce zero, one, or many downstream values; these
// are buffered and emitted one per downstream transfer, in order. A
// transducer that signals early termination via Reduced cancels the
// upstream at once; the values it has already produced are still
// emitted. A panic from xf is not recovered: it propagates out of the
// call that delivered the upstream value.
func Transform[T, R any](xf Transducer, flow Flow[T]) Flow[R] {
	return func(onNotify func(), onTerminate func()) Transfer[R] {
		terminal := Stage{
			Step: func(result any, input any) any {
				return append(result.([]R), input.(R))
			},
			Flush: identityFlush,
		}
		stage := xf(terminal)

		var mu sync.Mutex
		var queue []R
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
			done := upstreamDone && len(queue) == 0
			mu.Unlock()
			if done {
				terminate()
			}
		}

		upstream = flow(
			func() {
				v, err := upstream.Take()
				if err != nil {
					mu.Lock()
					upstreamDone = true
					mu.Unlock()
					finishIfDrained()
					return
				}
				mu.Lock()
				res := stage.Step([]R{}, v)
				stop := false
				if red, ok := res.(*Reduced); ok {
					queue = append(queue, red.Value.([]R)...)
					stop = true
				} else {
					queue = append(queue, res.([]R)...)
				}
				mu.Unlock()
				if stop {
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
				res := stage.Flush([]R{})
				queue = append(queue, res.([]R)...)
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
				mu.Unlock()
				var zero R
				return zero, &ProtocolViolationError{Reason: "transform: Take called with nothing buffered"}
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
				upstream.Cancel()
				terminate()
			},
		}
	}
}
