// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Mailbox is an unbounded FIFO. Post never blocks; Fetch is a Task that
// pops the head or waits for one. Waiters are served FIFO.
type Mailbox[T any] struct {
	mu      sync.Mutex
	queue   []T
	waiters []*mailboxWaiter[T]
}

type mailboxWaiter[T any] struct {
	settle
	onSuccess func(T)
}

// NewMailbox returns an empty Mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{}
}

// Post enqueues v. Posts that race with a waiter's cancellation are
// requeued for the next waiter or buffered; no value is ever dropped.
func (m *Mailbox[T]) Post(v T) {
	m.mu.Lock()
	for len(m.waiters) > 0 {
		w := m.waiters[0]
		m.waiters = m.waiters[1:]
		if w.claim() {
			m.mu.Unlock()
			w.onSuccess(v)
			return
		}
	}
	m.queue = append(m.queue, v)
	m.mu.Unlock()
}

// Fetch is a Task popping the head of the queue, or waiting for a Post.
// Cancelling a pending Fetch fails it.
func (m *Mailbox[T]) Fetch() Task[T] {
	return func(onSuccess func(T), onFailure func(error)) Cancel {
		m.mu.Lock()
		if len(m.queue) > 0 {
			v := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()
			onSuccess(v)
			return func() {}
		}
		w := &mailboxWaiter[T]{onSuccess: onSuccess}
		m.waiters = append(m.waiters, w)
		m.mu.Unlock()

		return onceCancel(func() {
			if !w.claim() {
				return
			}
			m.mu.Lock()
			for i, ww := range m.waiters {
				if ww == w {
					m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
					break
				}
			}
			m.mu.Unlock()
			onFailure(ErrCancelled)
		})
	}
}
