// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// fiberContext holds the state an SP fiber's suspended operations
// dispatch against: a cancellation flag checked by every operation.
type fiberContext struct {
	cancelled atomix.Uint32
}

// fiberDispatcher is the structural interface fiber operations
// implement, mirroring the session transport's own dispatch shape.
type fiberDispatcher interface {
	DispatchFiber(ctx *fiberContext) (kont.Resumed, error)
}

// fiberHandler implements kont.Handler for fiber effects, waiting past
// iox.ErrWouldBlock with adaptive backoff the same way the session
// transport's handler waits on its bounded queues.
type fiberHandler struct {
	ctx *fiberContext
}

// Dispatch implements kont.Handler via structural interface assertion.
func (h fiberHandler) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	fop, ok := op.(fiberDispatcher)
	if !ok {
		panic("flux: unhandled effect in fiberHandler")
	}
	return fiberDispatchWait(h.ctx, fop), true
}

// fiberCancelable is implemented by operations that hold a resource
// needing an explicit Cancel when the fiber is torn down mid-dispatch,
// such as park's subscribed task.
type fiberCancelable interface {
	cancelFiber()
}

// fiberDispatchWait blocks until DispatchFiber succeeds, backing off
// on iox.ErrWouldBlock, and aborts the fiber once cancellation is
// observed, cancelling whatever the operation is currently waiting on
// first so a cancelled fiber doesn't leave a parked task running past
// it.
func fiberDispatchWait(ctx *fiberContext, fop fiberDispatcher) kont.Resumed {
	var bo iox.Backoff
	for {
		if ctx.cancelled.Load() != 0 {
			if c, ok := fop.(fiberCancelable); ok {
				c.cancelFiber()
			}
			panic(ErrCancelled)
		}
		v, err := fop.DispatchFiber(ctx)
		if err == nil {
			return v
		}
		bo.Wait()
	}
}

// poll is the `!` operation: it checks cancellation without parking on
// anything.
type poll struct {
	kont.Phantom[struct{}]
}

func (poll) DispatchFiber(ctx *fiberContext) (kont.Resumed, error) {
	if ctx.cancelled.Load() != 0 {
		panic(ErrCancelled)
	}
	return struct{}{}, nil
}

// Poll is the `!` primitive: it fails the enclosing fiber if it has
// been cancelled, otherwise resumes immediately.
func Poll() kont.Eff[struct{}] {
	return kont.Perform(poll{})
}

// park is the `?` operation: it parks the fiber on a task, resuming
// with the task's success value or aborting the fiber with its
// failure. The task is subscribed at most once, on first dispatch.
type park[T any] struct {
	kont.Phantom[T]
	task Task[T]

	once   sync.Once
	done   atomix.Uint32 // 0 outstanding, 1 succeeded, 2 failed
	value  T
	err    error
	cancel Cancel
}

func (p *park[T]) DispatchFiber(ctx *fiberContext) (kont.Resumed, error) {
	p.once.Do(func() {
		p.cancel = p.task(
			func(v T) {
				p.value = v
				p.done.Store(1)
			},
			func(err error) {
				p.err = err
				p.done.Store(2)
			},
		)
	})
	switch p.done.Load() {
	case 0:
		return nil, iox.ErrWouldBlock
	case 1:
		return p.value, nil
	default:
		panic(p.err)
	}
}

// Park is the `?` primitive: it suspends the enclosing SP fiber until
// t completes, yielding t's value, or aborting the fiber with t's
// error.
func Park[T any](t Task[T]) kont.Eff[T] {
	return kont.Perform(&park[T]{task: t})
}

// cancelFiber cancels the parked task if it was ever subscribed, so a
// cancelled fiber doesn't leave it running unobserved. once.Do above
// and cancelFiber below only ever run on the fiber's own goroutine, in
// sequence, so p.cancel needs no lock of its own.
func (p *park[T]) cancelFiber() {
	if p.cancel != nil {
		p.cancel()
	}
}
