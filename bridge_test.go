// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/riftlane/flux"
)

// fakePublisher is an ExternalPublisher that only ever emits as much as
// it has been given Request demand for, one value per Request(1), the
// way a reactive-streams producer is supposed to behave.
type fakePublisher struct {
	values []int
}

func (p fakePublisher) Subscribe(sub flux.Subscriber[int]) {
	idx := 0
	var requested int64
	sub.OnSubscribe(fakeSubscription{
		request: func(n int64) {
			requested += n
			for requested > 0 && idx < len(p.values) {
				requested--
				v := p.values[idx]
				idx++
				sub.OnNext(v)
			}
			if idx == len(p.values) {
				sub.OnComplete()
			}
		},
		cancel: func() {},
	})
}

type fakeSubscription struct {
	request func(int64)
	cancel  func()
}

func (s fakeSubscription) Request(n int64) { s.request(n) }
func (s fakeSubscription) Cancel()         { s.cancel() }

func TestSubscribeBridgesExternalPublisherInOrder(t *testing.T) {
	got, err := drainFlow(t, flux.Subscribe[int](fakePublisher{values: []int{1, 2, 3}}), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPublisherBridgesFlowOutRespectingDemand(t *testing.T) {
	pub := flux.Publisher[int](flux.Enumerate([]int{1, 2, 3}))

	var got []int
	done := make(chan struct{})
	var sub flux.Subscription
	pub.Subscribe(&bridgeTestSubscriber{
		onSubscribe: func(s flux.Subscription) { sub = s; s.Request(1) },
		onNext: func(v int) {
			got = append(got, v)
			sub.Request(1)
		},
		onComplete: func() { close(done) },
		onError:    func(error) { close(done) },
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher never completed")
	}
	want := []int{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

type bridgeTestSubscriber struct {
	onSubscribe func(flux.Subscription)
	onNext      func(int)
	onError     func(error)
	onComplete  func()
}

func (s *bridgeTestSubscriber) OnSubscribe(sub flux.Subscription) { s.onSubscribe(sub) }
func (s *bridgeTestSubscriber) OnNext(v int)                      { s.onNext(v) }
func (s *bridgeTestSubscriber) OnError(err error)                 { s.onError(err) }
func (s *bridgeTestSubscriber) OnComplete()                       { s.onComplete() }
