// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import "sync"

// Subscription is the demand-signalling half of the external
// reactive-streams-shaped publisher capability this package bridges
// to and from.
type Subscription interface {
	Request(n int64)
	Cancel()
}

// Subscriber is the event-receiving half of the external publisher
// capability.
type Subscriber[T any] interface {
	OnSubscribe(sub Subscription)
	OnNext(v T)
	OnError(err error)
	OnComplete()
}

// ExternalPublisher is the bridge target/source: a reactive-streams
// shaped producer external to this module.
type ExternalPublisher[T any] interface {
	Subscribe(sub Subscriber[T])
}

// Enumerate, Watch and Integrate dispatch their first onNotify on a new
// goroutine rather than from within the subscribing call itself.
// Observe and Subscribe notify on the goroutine that feeds them, which
// can be the subscribing call. Publisher below reads the wrapped flow's
// Transfer handle from inside its notify closure, so it relies on that
// flow not notifying before the subscribing call has returned.

type bridgeSubscriber[T any] struct {
	onSubscribe func(Subscription)
	onNext      func(T)
	onError     func(error)
	onComplete  func()
}

func (b *bridgeSubscriber[T]) OnSubscribe(s Subscription) { b.onSubscribe(s) }
func (b *bridgeSubscriber[T]) OnNext(v T)                 { b.onNext(v) }
func (b *bridgeSubscriber[T]) OnError(err error)          { b.onError(err) }
func (b *bridgeSubscriber[T]) OnComplete()                { b.onComplete() }

// Subscribe bridges an ExternalPublisher into a discrete Flow, issuing
// Request(1) after each Take so the external side observes the same
// one-outstanding discipline the Flow contract enforces on this side.
func Subscribe[T any](pub ExternalPublisher[T]) Flow[T] {
	return func(onNotify func(), onTerminate func()) Transfer[T] {
		var mu sync.Mutex
		var value T
		var failure error
		var sub Subscription
		cancelled := false
		terminated := false

		terminate := func() {
			mu.Lock()
			if terminated {
				mu.Unlock()
				return
			}
			terminated = true
			mu.Unlock()
			onTerminate()
		}

		pub.Subscribe(&bridgeSubscriber[T]{
			onSubscribe: func(sn Subscription) {
				mu.Lock()
				sub = sn
				mu.Unlock()
				sn.Request(1)
			},
			onNext: func(v T) {
				mu.Lock()
				value, failure = v, nil
				mu.Unlock()
				onNotify()
			},
			onError: func(err error) {
				mu.Lock()
				failure = err
				mu.Unlock()
				onNotify()
			},
			onComplete: terminate,
		})

		take := func() (T, error) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				terminate()
				var zero T
				return zero, ErrCancelled
			}
			v, err := value, failure
			var zero T
			value, failure = zero, nil
			sn := sub
			mu.Unlock()
			if err != nil {
				terminate()
				return v, err
			}
			if sn != nil {
				sn.Request(1)
			}
			return v, nil
		}

		return Transfer[T]{
			Take: take,
			Cancel: func() {
				mu.Lock()
				cancelled = true
				sn := sub
				mu.Unlock()
				if sn != nil {
					sn.Cancel()
				}
				terminate()
			},
		}
	}
}

type bridgeSubscription struct {
	request func(int64)
	cancel  func()
}

func (b bridgeSubscription) Request(n int64) { b.request(n) }
func (b bridgeSubscription) Cancel()         { b.cancel() }

// Publisher bridges a Flow out to an ExternalPublisher, buffering at
// most one value — the Flow contract never has more than one
// outstanding — and releasing it to the subscriber only as Request
// demand allows.
func Publisher[T any](f Flow[T]) ExternalPublisher[T] {
	return publisherAdapter[T]{flow: f}
}

type publisherAdapter[T any] struct{ flow Flow[T] }

func (p publisherAdapter[T]) Subscribe(sub Subscriber[T]) {
	var mu sync.Mutex
	var requested int64
	var bufValue T
	var bufErr error
	hasBuf := false
	completed := false
	var transfer Transfer[T]

	drain := func() {
		for {
			mu.Lock()
			if !hasBuf || requested <= 0 || completed {
				mu.Unlock()
				return
			}
			v, err := bufValue, bufErr
			hasBuf = false
			requested--
			mu.Unlock()
			if err != nil {
				sub.OnError(err)
				return
			}
			sub.OnNext(v)
		}
	}

	transfer = p.flow(
		func() {
			v, err := transfer.Take()
			mu.Lock()
			bufValue, bufErr = v, err
			hasBuf = true
			mu.Unlock()
			drain()
		},
		func() {
			mu.Lock()
			completed = true
			mu.Unlock()
			sub.OnComplete()
		},
	)

	sub.OnSubscribe(bridgeSubscription{
		request: func(n int64) {
			mu.Lock()
			requested += n
			mu.Unlock()
			drain()
		},
		cancel: transfer.Cancel,
	})
}
