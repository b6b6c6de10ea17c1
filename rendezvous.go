// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Rendezvous is a synchronous, unbuffered handoff. Give completes only
// once a Take accepts the value; pairs match in FIFO order on both
// sides. Cancelling a queued side removes it from the queue; it never
// blocks the other side from pairing with the next candidate.
type Rendezvous[T any] struct {
	mu     sync.Mutex
	givers []*rendezvousGiver[T]
	takers []*rendezvousTaker[T]
}

type rendezvousGiver[T any] struct {
	settle
	value     T
	onSuccess func(struct{})
}

type rendezvousTaker[T any] struct {
	settle
	onSuccess func(T)
}

// NewRendezvous returns an empty Rendezvous.
func NewRendezvous[T any]() *Rendezvous[T] {
	return &Rendezvous[T]{}
}

// Give is a Task completing once a Take accepts v.
func (r *Rendezvous[T]) Give(v T) Task[struct{}] {
	return func(onSuccess func(struct{}), onFailure func(error)) Cancel {
		r.mu.Lock()
		for len(r.takers) > 0 {
			t := r.takers[0]
			r.takers = r.takers[1:]
			if t.claim() {
				r.mu.Unlock()
				t.onSuccess(v)
				onSuccess(struct{}{})
				return func() {}
			}
		}
		g := &rendezvousGiver[T]{value: v, onSuccess: onSuccess}
		r.givers = append(r.givers, g)
		r.mu.Unlock()

		return onceCancel(func() {
			if !g.claim() {
				return
			}
			r.mu.Lock()
			for i, gg := range r.givers {
				if gg == g {
					r.givers = append(r.givers[:i], r.givers[i+1:]...)
					break
				}
			}
			r.mu.Unlock()
			onFailure(ErrCancelled)
		})
	}
}

// Take is a Task completing with the value of a matching Give.
func (r *Rendezvous[T]) Take() Task[T] {
	return func(onSuccess func(T), onFailure func(error)) Cancel {
		r.mu.Lock()
		for len(r.givers) > 0 {
			g := r.givers[0]
			r.givers = r.givers[1:]
			if g.claim() {
				r.mu.Unlock()
				g.onSuccess(struct{}{})
				onSuccess(g.value)
				return func() {}
			}
		}
		t := &rendezvousTaker[T]{onSuccess: onSuccess}
		r.takers = append(r.takers, t)
		r.mu.Unlock()

		return onceCancel(func() {
			if !t.claim() {
				return
			}
			r.mu.Lock()
			for i, tt := range r.takers {
				if tt == t {
					r.takers = append(r.takers[:i], r.takers[i+1:]...)
					break
				}
			}
			r.mu.Unlock()
			onFailure(ErrCancelled)
		})
	}
}
