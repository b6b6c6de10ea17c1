// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// Semaphore is a counted semaphore; n=1 behaves as a mutex. Waiters are
// served FIFO. Cancelling a pending Acquire fails it and does not consume
// a token.
type Semaphore struct {
	mu      sync.Mutex
	tokens  int
	waiters []*semaphoreWaiter
}

type semaphoreWaiter struct {
	settle
	onSuccess func(struct{})
}

// NewSemaphore returns a Semaphore initialized with n tokens.
func NewSemaphore(n int) *Semaphore {
	if n < 0 {
		n = 0
	}
	return &Semaphore{tokens: n}
}

// Release returns a token, handing it directly to the longest-waiting
// Acquire if one is pending.
func (s *Semaphore) Release() {
	s.mu.Lock()
	for len(s.waiters) > 0 {
		w := s.waiters[0]
		s.waiters = s.waiters[1:]
		if w.claim() {
			s.mu.Unlock()
			w.onSuccess(struct{}{})
			return
		}
	}
	s.tokens++
	s.mu.Unlock()
}

// Acquire is a Task completing when a token is available; completion
// atomically decrements the token count.
func (s *Semaphore) Acquire() Task[struct{}] {
	return func(onSuccess func(struct{}), onFailure func(error)) Cancel {
		s.mu.Lock()
		if s.tokens > 0 {
			s.tokens--
			s.mu.Unlock()
			onSuccess(struct{}{})
			return func() {}
		}
		w := &semaphoreWaiter{onSuccess: onSuccess}
		s.waiters = append(s.waiters, w)
		s.mu.Unlock()

		return onceCancel(func() {
			if !w.claim() {
				return
			}
			s.mu.Lock()
			for i, ww := range s.waiters {
				if ww == w {
					s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
			onFailure(ErrCancelled)
		})
	}
}

// Holding runs body while holding a token from sem, guaranteeing Release
// on every exit path: success, failure, and cancellation alike. It is the
// same acquire-release-use discipline [code.hybscloud.com/kont.Bracket]
// names for the algebraic-effects runtime, rebuilt here directly over
// cancelBox and an atomix.Uint32 release guard rather than over kont,
// since Holding's body is a Task (callback-shaped) rather than a
// kont.Eff and has no fiber to run Bracket's handler against.
func Holding[T any](sem *Semaphore, body func() Task[T]) Task[T] {
	return func(onSuccess func(T), onFailure func(error)) Cancel {
		box := &cancelBox{}
		var released atomix.Uint32
		var acquired atomix.Uint32
		release := func() {
			if released.Add(1) == 1 {
				sem.Release()
			}
		}

		acquireCancel := sem.Acquire()(
			func(struct{}) {
				acquired.Store(1)
				bodyCancel := body()(
					func(v T) { release(); onSuccess(v) },
					func(err error) { release(); onFailure(err) },
				)
				box.set(1, bodyCancel)
			},
			func(err error) {
				onFailure(err)
			},
		)
		box.set(0, acquireCancel)

		return onceCancel(func() {
			box.cancelNow()
			if acquired.Load() == 1 {
				release()
			}
		})
	}
}
