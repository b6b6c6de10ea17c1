// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// Cancel politely requests early termination of a task or flow
// subscription. Idempotent and safe to call from any goroutine, at any
// time, including before the subscription has finished installing.
type Cancel func()

// onceCancel wraps fn so repeated or concurrent invocation runs it at most
// once, satisfying the protocol's cancellation-idempotence invariant.
func onceCancel(fn func()) Cancel {
	var done atomix.Uint32
	return func() {
		if done.Add(1) != 1 {
			return
		}
		fn()
	}
}

// settle guarantees that exactly one of succeed/fail ever runs for a given
// task subscription, even when completion and cancellation race.
type settle struct {
	done atomix.Uint32
}

// claim returns true for the first caller only; later callers (whichever
// of success, failure, or cancellation arrives second) are no-ops.
func (s *settle) claim() bool { return s.done.Add(1) == 1 }

// isDone reports whether claim has already succeeded once, without
// itself claiming. Used to stop subscribing further children once a
// combinator's outcome is already decided.
func (s *settle) isDone() bool { return s.done.Load() != 0 }

// cancelBox holds the cancel handle for whichever child subscription is
// currently active, so a single outer Cancel can always reach it even as
// the active child changes over time (Holding's acquire then body, AP's
// switch fork). Stages are numbered; a stage may
// only replace an older or equal one, so a late-arriving handle for a
// superseded stage is dropped rather than clobbering a newer one.
type cancelBox struct {
	mu     sync.Mutex
	gen    int
	cancel Cancel
	fired  bool
}

// set installs c as the active cancel for stage gen. If the box has
// already fired, c runs immediately; if a later stage has already taken
// over, c is dropped.
func (b *cancelBox) set(gen int, c Cancel) {
	b.mu.Lock()
	if b.fired {
		b.mu.Unlock()
		c()
		return
	}
	if gen < b.gen {
		b.mu.Unlock()
		return
	}
	b.gen = gen
	b.cancel = c
	b.mu.Unlock()
}

// swap cancels whatever was active and installs c as the new active
// cancel for stage gen. Unlike set, the outgoing cancel always runs —
// used where a later stage must actively preempt an earlier one that
// is still running, rather than merely replace a finished one (AP's
// switch fork).
func (b *cancelBox) swap(gen int, c Cancel) {
	b.mu.Lock()
	if b.fired {
		b.mu.Unlock()
		c()
		return
	}
	if gen < b.gen {
		b.mu.Unlock()
		c()
		return
	}
	old := b.cancel
	b.gen = gen
	b.cancel = c
	b.mu.Unlock()
	if old != nil {
		old()
	}
}

// cancelNow fires the box: the currently active cancel runs, and any
// later set call runs its argument immediately instead of storing it.
func (b *cancelBox) cancelNow() {
	b.mu.Lock()
	b.fired = true
	c := b.cancel
	b.cancel = nil
	b.mu.Unlock()
	if c != nil {
		c()
	}
}
