// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// Dataflow is a single-assignment variable. The first Assign wins; later
// writes are ignored and return the already-bound value.
type Dataflow[T any] struct {
	bound   atomix.Uint32
	mu      sync.Mutex
	value   T
	waiters []*dataflowWaiter[T]
}

type dataflowWaiter[T any] struct {
	settle
	onSuccess func(T)
}

// NewDataflow returns an unbound Dataflow.
func NewDataflow[T any]() *Dataflow[T] {
	return &Dataflow[T]{}
}

// Assign binds v if the variable is still unbound and returns v; if
// already bound, returns the existing binding and ignores v.
func (d *Dataflow[T]) Assign(v T) T {
	d.mu.Lock()
	if d.bound.Load() != 0 {
		bound := d.value
		d.mu.Unlock()
		return bound
	}
	d.value = v
	d.bound.Store(1)
	waiters := d.waiters
	d.waiters = nil
	d.mu.Unlock()

	for _, w := range waiters {
		if w.claim() {
			w.onSuccess(v)
		}
	}
	return v
}

// Deref is a Task that completes with the binding as soon as one is
// present. Cancelling a pending Deref fails it.
func (d *Dataflow[T]) Deref() Task[T] {
	return func(onSuccess func(T), onFailure func(error)) Cancel {
		d.mu.Lock()
		if d.bound.Load() != 0 {
			v := d.value
			d.mu.Unlock()
			onSuccess(v)
			return func() {}
		}
		w := &dataflowWaiter[T]{onSuccess: onSuccess}
		d.waiters = append(d.waiters, w)
		d.mu.Unlock()

		return onceCancel(func() {
			if w.claim() {
				onFailure(ErrCancelled)
			}
		})
	}
}
