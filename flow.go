// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

// Transfer is what a [Flow] subscription hands back: a function that
// yields the value (or error) a prior notifier announced and rearms the
// flow, paired with a cancel handle. The host protocol describes these as
// one dual-role value (call with no argument to cancel, call to transfer);
// Go has no variable-arity callable, so the two roles are two fields
// instead of one overloaded function.
type Transfer[T any] struct {
	// Take yields the pending value or error and rearms the flow for the
	// next notifier. Must be called exactly once per onNotify call.
	Take func() (T, error)
	// Cancel politely requests early termination, idempotently.
	Cancel Cancel
}

// Flow represents a discrete or continuous value producer. Subscribing
// installs onNotify ("a value is ready") and onTerminate ("no more values
// will come") and returns the transfer handle.
//
// Discrete flows: each notification is a distinct value; onTerminate
// marks end of stream. Continuous flows: onNotify fires immediately after
// subscription with the current value, and again whenever the value
// changes; Take always returns a defined current value once the first
// notification has fired and before onTerminate.
type Flow[T any] func(onNotify func(), onTerminate func()) Transfer[T]

// Subscribe installs onNotify/onTerminate and returns the transfer
// handle, for call sites where that reads better than calling f directly.
func (f Flow[T]) Subscribe(onNotify func(), onTerminate func()) Transfer[T] {
	return f(onNotify, onTerminate)
}

// Empty returns a discrete Flow that terminates immediately without ever
// notifying.
func Empty[T any]() Flow[T] {
	return func(_ func(), onTerminate func()) Transfer[T] {
		onTerminate()
		return Transfer[T]{
			Take:   func() (T, error) { var zero T; return zero, ErrCancelled },
			Cancel: func() {},
		}
	}
}
