// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// AP names the top-level boundary of an ambiguous fiber assembled from
// ForkConcat, ForkSwitch and ForkGather: it is the Go-shaped rendering
// of a block that forks on a flow, producing a flow of its own rather
// than the single terminal value SP's kont.Eff body produces. Each
// fork combinator below is a Flow[T]-to-Flow[A] transformer taking a
// plain func(T) Task[A] continuation, not a kont.Eff: a fork manages a
// population of overlapping Task lifetimes across a stream of
// upstream values, which is a different shape of problem than Park's
// one-shot "suspend this fiber until a single Task completes", so
// forks are not expressed on top of Park and cannot be mixed with it
// inside one sequential fiber body. A tree of forks is built instead
// by ordinary function composition — ForkSwitch(ForkConcat(flow, f), g)
// nests one fork's output flow as the next fork's upstream — and a
// fork's bodyAfter can itself contain an SP(Park(...)) fiber when a
// step needs to park. AP itself adds no behavior beyond naming the
// boundary; Cancel on the returned Flow reaches every fork and body
// Task currently active inside it.
func AP[A any](body Flow[A]) Flow[A] {
	return body
}

// ForkConcat is the `??` fork: for every upstream value it runs
// bodyAfter to completion before taking the next upstream value. Runs
// never overlap; output is emitted in upstream order. bodyAfter may
// itself be an SP fiber (SP(...).Subscribe-shaped Task) if a step
// needs to Park, but ForkConcat does not participate in that fiber's
// own kont.Eff tree.
func ForkConcat[T, A any](flow Flow[T], bodyAfter func(T) Task[A]) Flow[A] {
	return func(onNotify func(), onTerminate func()) Transfer[A] {
		var mu sync.Mutex
		var queue []A
		var failure error
		busy := false
		pendingNotify := false
		upstreamDone := false
		cancelled := false
		terminated := false
		notifiedPending := false
		var upstream Transfer[T]
		var bodyCancel Cancel
		var handleNotify func()

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
			d := upstreamDone && !busy && len(queue) == 0 && failure == nil
			mu.Unlock()
			if d {
				terminate()
			}
		}

		runBody := func(v T) {
			mu.Lock()
			busy = true
			mu.Unlock()
			c := bodyAfter(v)(
				func(result A) {
					mu.Lock()
					queue = append(queue, result)
					busy = false
					again := pendingNotify
					pendingNotify = false
					mu.Unlock()
					signal()
					if again {
						handleNotify()
					} else {
						finishIfDrained()
					}
				},
				func(err error) {
					mu.Lock()
					if failure == nil {
						failure = err
					}
					busy = false
					upstreamDone = true
					mu.Unlock()
					upstream.Cancel()
					signal()
					finishIfDrained()
				},
			)
			mu.Lock()
			bodyCancel = c
			mu.Unlock()
		}

		handleNotify = func() {
			mu.Lock()
			if busy {
				pendingNotify = true
				mu.Unlock()
				return
			}
			mu.Unlock()
			v, err := upstream.Take()
			if err != nil {
				mu.Lock()
				upstreamDone = true
				mu.Unlock()
				signal()
				finishIfDrained()
				return
			}
			runBody(v)
		}

		upstream = flow(
			handleNotify,
			func() {
				mu.Lock()
				upstreamDone = true
				mu.Unlock()
				finishIfDrained()
			},
		)

		take := func() (A, error) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				terminate()
				var zero A
				return zero, ErrCancelled
			}
			if len(queue) == 0 {
				if failure != nil {
					err := failure
					failure = nil
					mu.Unlock()
					terminate()
					var zero A
					return zero, err
				}
				mu.Unlock()
				var zero A
				return zero, &ProtocolViolationError{Reason: "ap: concat fork Take called with nothing buffered"}
			}
			v := queue[0]
			queue = queue[1:]
			notifiedPending = false
			mu.Unlock()
			signal()
			finishIfDrained()
			return v, nil
		}

		return Transfer[A]{
			Take: take,
			Cancel: func() {
				mu.Lock()
				cancelled = true
				c := bodyCancel
				mu.Unlock()
				upstream.Cancel()
				if c != nil {
					c()
				}
				terminate()
			},
		}
	}
}

// ForkSwitch is the `?!` fork: on each new upstream value, the
// currently-running bodyAfter continuation is cancelled and a fresh
// one starts from that value. Only the latest fork's output reaches
// downstream. Like ForkConcat, bodyAfter is a plain func(T) Task[A],
// not a kont.Eff — it can wrap an SP fiber but is not spliced into one.
func ForkSwitch[T, A any](flow Flow[T], bodyAfter func(T) Task[A]) Flow[A] {
	return func(onNotify func(), onTerminate func()) Transfer[A] {
		var mu sync.Mutex
		var queue []A
		var failure error
		var box cancelBox
		gen := 0
		running := false
		upstreamDone := false
		cancelled := false
		terminated := false
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
			d := upstreamDone && !running && len(queue) == 0 && failure == nil
			mu.Unlock()
			if d {
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
					signal()
					finishIfDrained()
					return
				}
				mu.Lock()
				gen++
				running = true
				myGen := gen
				mu.Unlock()
				c := bodyAfter(v)(
					func(result A) {
						mu.Lock()
						if myGen != gen {
							mu.Unlock()
							return
						}
						running = false
						queue = append(queue, result)
						mu.Unlock()
						signal()
						finishIfDrained()
					},
					func(err error) {
						mu.Lock()
						if myGen != gen {
							mu.Unlock()
							return
						}
						running = false
						if failure == nil {
							failure = err
						}
						upstreamDone = true
						mu.Unlock()
						upstream.Cancel()
						signal()
						finishIfDrained()
					},
				)
				box.swap(myGen, c)
			},
			func() {
				mu.Lock()
				upstreamDone = true
				mu.Unlock()
				finishIfDrained()
			},
		)

		take := func() (A, error) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				terminate()
				var zero A
				return zero, ErrCancelled
			}
			if len(queue) == 0 {
				if failure != nil {
					err := failure
					failure = nil
					mu.Unlock()
					terminate()
					var zero A
					return zero, err
				}
				mu.Unlock()
				var zero A
				return zero, &ProtocolViolationError{Reason: "ap: switch fork Take called with nothing buffered"}
			}
			v := queue[0]
			queue = queue[1:]
			notifiedPending = false
			mu.Unlock()
			signal()
			finishIfDrained()
			return v, nil
		}

		return Transfer[A]{
			Take: take,
			Cancel: func() {
				mu.Lock()
				cancelled = true
				mu.Unlock()
				upstream.Cancel()
				box.cancelNow()
				terminate()
			},
		}
	}
}

// ForkGather is the `?=` fork: every upstream value starts a new
// concurrent bodyAfter continuation; outputs are interleaved in
// whatever order the continuations complete. As with the other two
// forks, bodyAfter is a plain func(T) Task[A] rather than a kont.Eff.
func ForkGather[T, A any](flow Flow[T], bodyAfter func(T) Task[A]) Flow[A] {
	return func(onNotify func(), onTerminate func()) Transfer[A] {
		var mu sync.Mutex
		var queue []A
		var failure error
		outstanding := 0
		upstreamDone := false
		cancelled := false
		terminated := false
		notifiedPending := false
		cancels := map[int]Cancel{}
		nextChild := 0
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
			d := upstreamDone && outstanding == 0 && len(queue) == 0 && failure == nil
			mu.Unlock()
			if d {
				terminate()
			}
		}

		cancelAllChildren := func() {
			mu.Lock()
			cs := make([]Cancel, 0, len(cancels))
			for _, c := range cancels {
				cs = append(cs, c)
			}
			mu.Unlock()
			for _, c := range cs {
				if c != nil {
					c()
				}
			}
		}

		fail := func(err error) {
			mu.Lock()
			if failure == nil {
				failure = err
			}
			upstreamDone = true
			mu.Unlock()
			upstream.Cancel()
			cancelAllChildren()
			signal()
			finishIfDrained()
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
				outstanding++
				myChild := nextChild
				nextChild++
				mu.Unlock()
				childDone := false
				c := bodyAfter(v)(
					func(result A) {
						mu.Lock()
						queue = append(queue, result)
						outstanding--
						childDone = true
						delete(cancels, myChild)
						mu.Unlock()
						signal()
						finishIfDrained()
					},
					func(err error) {
						mu.Lock()
						childDone = true
						delete(cancels, myChild)
						mu.Unlock()
						fail(err)
					},
				)
				mu.Lock()
				if !childDone {
					cancels[myChild] = c
				}
				mu.Unlock()
			},
			func() {
				mu.Lock()
				upstreamDone = true
				mu.Unlock()
				finishIfDrained()
			},
		)

		take := func() (A, error) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				terminate()
				var zero A
				return zero, ErrCancelled
			}
			if len(queue) == 0 {
				if failure != nil {
					err := failure
					failure = nil
					mu.Unlock()
					terminate()
					var zero A
					return zero, err
				}
				mu.Unlock()
				var zero A
				return zero, &ProtocolViolationError{Reason: "ap: gather fork Take called with nothing buffered"}
			}
			v := queue[0]
			queue = queue[1:]
			notifiedPending = false
			mu.Unlock()
			signal()
			finishIfDrained()
			return v, nil
		}

		return Transfer[A]{
			Take: take,
			Cancel: func() {
				mu.Lock()
				cancelled = true
				mu.Unlock()
				upstream.Cancel()
				cancelAllChildren()
				terminate()
			},
		}
	}
}
