// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// Enumerate is a discrete Flow emitting coll's elements in order. Each
// Take consumes one element. Cancellation mid-stream fails the flow
// immediately: the next Take returns ErrCancelled instead of a buffered
// value, and the flow terminates.
func Enumerate[T any](coll []T) Flow[T] {
	return func(onNotify func(), onTerminate func()) Transfer[T] {
		idx := 0
		var cancelled atomix.Uint32
		var terminated atomix.Uint32
		taken := make(chan struct{}, 1)
		abort := make(chan struct{})
		var abortOnce sync.Once

		terminate := func() {
			if terminated.Add(1) == 1 {
				onTerminate()
			}
		}

		take := func() (T, error) {
			if cancelled.Load() != 0 {
				terminate()
				var zero T
				return zero, ErrCancelled
			}
			v := coll[idx]
			idx++
			select {
			case taken <- struct{}{}:
			default:
			}
			return v, nil
		}

		// The pump drives one onNotify per element and waits for the
		// matching Take before advancing, so a downstream consumer
		// that defers taking (a busy ForkConcat body, say) never sees
		// more than one outstanding notification at a time. Firing
		// onNotify for idx+1 synchronously inside take() itself, as a
		// tighter loop-free version of this might do, would reenter
		// any consumer that processes its value inline before take()
		// even returns the current one.
		go func() {
			for i := 0; i < len(coll); i++ {
				if cancelled.Load() != 0 {
					return
				}
				onNotify()
				select {
				case <-taken:
				case <-abort:
					return
				}
			}
			terminate()
		}()

		return Transfer[T]{
			Take: take,
			Cancel: func() {
				cancelled.Store(1)
				abortOnce.Do(func() { close(abort) })
				terminate()
			},
		}
	}
}
