// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import (
	"errors"
	"fmt"
	"time"
)

// ErrCancelled is delivered to a pending deref, fetch, take, give, acquire,
// sleep, or never when the operation is cancelled before it would otherwise
// complete.
var ErrCancelled = errors.New("flux: cancelled")

// TimeoutError is the failure carried by [Timeout] when the wrapped task
// does not complete within the configured duration.
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("flux: timeout after %s", e.Duration)
}

// RaceError aggregates every candidate's failure when [Race] has no
// winner: all candidates failed.
type RaceError struct {
	Errs []error
}

func (e *RaceError) Error() string {
	return fmt.Sprintf("flux: race failed, %d candidates", len(e.Errs))
}

// Unwrap exposes every candidate error for errors.Is/As.
func (e *RaceError) Unwrap() []error { return e.Errs }

// OverflowError signals that [Buffer] or a non-backpressured [Observe]
// subject received a value it had no room for.
type OverflowError struct {
	Reason string
}

func (e *OverflowError) Error() string { return "flux: overflow: " + e.Reason }

// ProtocolViolationError signals misuse of the task/flow contract, or a
// panic that carries no error value: a consumer that transferred before
// its notifier fired, a [Sample] sampler value arriving before the
// sampled flow produced one, an [Integrate] reducer or reactor boot that
// panicked, or an [SP] fiber that panicked with a non-error value. Use
// of a fork combinator outside [AP], or of [Stream] or [Signal] outside
// a reactor boot, is not detected.
type ProtocolViolationError struct {
	Reason string
}

func (e *ProtocolViolationError) Error() string { return "flux: protocol violation: " + e.Reason }
