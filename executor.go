// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "code.hybscloud.com/atomix"

// Executor accepts a zero-arg work item and schedules it. Sizing and
// placement policy are deliberately unspecified, as spec.md requires.
type Executor interface {
	Schedule(work func())
}

// goroutineExecutor is the simplest faithful Executor: schedule spawns a
// goroutine. Both named process-wide executors reduce to this absent a
// prescribed pool-sizing policy.
type goroutineExecutor struct{}

func (goroutineExecutor) Schedule(work func()) { go work() }

// blocking and cpu are lazily referenced, process-wide, never explicitly
// torn down, exactly as spec.md §9 allows.
var (
	blocking Executor = goroutineExecutor{}
	cpu      Executor = goroutineExecutor{}
)

// Blocking returns the process-wide executor for blocking, I/O-bound
// work.
func Blocking() Executor { return blocking }

// CPU returns the process-wide executor for CPU-bound work.
func CPU() Executor { return cpu }

// ViaCall schedules thunk on ex, completing with its return value or
// failing with its returned error. Cancelling before thunk has started
// aborts it before scheduling takes effect; Go has no mechanism to
// interrupt a thunk already running on another goroutine, so cancelling
// a started thunk has no effect: it runs to completion and its result or
// error is delivered as usual.
func ViaCall[T any](ex Executor, thunk func() (T, error)) Task[T] {
	return func(onSuccess func(T), onFailure func(error)) Cancel {
		var aborted atomix.Uint32
		var s settle
		ex.Schedule(func() {
			if aborted.Load() == 1 {
				if s.claim() {
					onFailure(ErrCancelled)
				}
				return
			}
			v, err := thunk()
			if !s.claim() {
				return
			}
			if err != nil {
				onFailure(err)
				return
			}
			onSuccess(v)
		})
		return onceCancel(func() {
			aborted.Store(1)
		})
	}
}
