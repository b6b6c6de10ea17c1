// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

import (
	"fmt"
	"sort"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// reactorNodeQueueCapacity bounds how many discrete values a stream
// node may carry between one dispatch round and the next. A node
// that outruns this has produced faster than the reactor's own
// dispatch loop could visit it.
const reactorNodeQueueCapacity = 64

// ReactorContext is the boot-scoped handle passed to a reactor's boot
// function. Stream, Signal and Loop, called on it from within boot (or
// transitively from a spawned node's own continuation), register a
// publisher node whose lifetime is bound to the reactor.
//
// Propagation is round-based: a round begins whenever one or more
// nodes' underlying sources have a fresh value to deliver, and visits
// every node marked dirty for that round exactly once, in the order
// the nodes were spawned. Since a node's source can only ever
// reference a node that already exists (Go requires the referenced
// node's flow to already be a value before it can be closed over),
// spawn order is a valid topological order for the dependency graph,
// so a round never observes a node before a node it depends on that
// is dirty in the same round. A node that becomes dirty again while
// its round is being dispatched (a diamond, or a cycle through a
// Loop-built signal) is scheduled for the following round instead of
// re-entering the current one, which is what makes propagation
// glitch-free (nothing downstream of two siblings sees one sibling's
// update before the other's in the same round) and keeps a cycle from
// recursing: each hop through the cycle is a new round, never a
// nested call.
type ReactorContext struct {
	mu          sync.Mutex
	started     bool
	pumps       []func() Cancel
	cancels     []Cancel
	outstanding int
	settled     settle
	onFinish    func(error)
	nextSeq     int

	round    atomix.Uint32
	schedMu  sync.Mutex
	pending  []reactorVisitor
	queued   map[int]bool
	doneOnce sync.Once
	done     chan struct{}
}

func newReactorContext() *ReactorContext {
	return &ReactorContext{
		queued: map[int]bool{},
		done:   make(chan struct{}),
	}
}

// reactorVisitor is the type-erased half of reactorNode the dispatch
// loop operates on, since a single round's batch mixes nodes of
// different value types.
type reactorVisitor interface {
	seq() int
	visit()
}

// scheduleVisit marks n dirty for the next round the dispatch loop
// picks up. Calling it more than once before that round starts is
// idempotent: n is visited once per round regardless of how many
// times its source notified during the round that made it dirty.
func (ctx *ReactorContext) scheduleVisit(n reactorVisitor) {
	ctx.schedMu.Lock()
	if !ctx.queued[n.seq()] {
		ctx.queued[n.seq()] = true
		ctx.pending = append(ctx.pending, n)
	}
	ctx.schedMu.Unlock()
}

// runDispatch is the reactor's round barrier: it waits for at least
// one node to be dirty, then drains every node dirty at that instant
// as a single round, visiting them in spawn (topological) order.
// Nodes marked dirty by that visiting — a downstream node reacting
// to this round's values — land in the next round's batch instead,
// since ctx.pending is cleared before any node in the current batch
// is visited.
func (ctx *ReactorContext) runDispatch() {
	var bo iox.Backoff
	for {
		select {
		case <-ctx.done:
			return
		default:
		}

		ctx.schedMu.Lock()
		if len(ctx.pending) == 0 {
			ctx.schedMu.Unlock()
			bo.Wait()
			continue
		}
		batch := ctx.pending
		ctx.pending = nil
		for _, n := range batch {
			ctx.queued[n.seq()] = false
		}
		ctx.schedMu.Unlock()

		ctx.round.Add(1)
		sort.Slice(batch, func(i, j int) bool { return batch[i].seq() < batch[j].seq() })
		for _, n := range batch {
			n.visit()
		}
		bo = iox.Backoff{}
	}
}

// spawn registers a node's pump. Before boot returns, the pump is
// deferred until every node from the initial boot call has been
// wired; afterwards (a node spawned from another node's own body) it
// starts immediately.
func (ctx *ReactorContext) spawn(start func() Cancel) {
	ctx.mu.Lock()
	ctx.outstanding++
	if ctx.started {
		ctx.mu.Unlock()
		c := start()
		ctx.mu.Lock()
		ctx.cancels = append(ctx.cancels, c)
		ctx.mu.Unlock()
		return
	}
	ctx.pumps = append(ctx.pumps, start)
	ctx.mu.Unlock()
}

func (ctx *ReactorContext) nodeDone() {
	ctx.mu.Lock()
	ctx.outstanding--
	done := ctx.outstanding == 0
	ctx.mu.Unlock()
	if done {
		ctx.finish(nil)
	}
}

func (ctx *ReactorContext) nodeFailed(err error) {
	ctx.finish(err)
}

func (ctx *ReactorContext) finish(err error) {
	if !ctx.settled.claim() {
		return
	}
	ctx.doneOnce.Do(func() { close(ctx.done) })
	if err != nil {
		ctx.mu.Lock()
		cancels := append([]Cancel(nil), ctx.cancels...)
		ctx.mu.Unlock()
		for _, c := range cancels {
			c()
		}
	}
	ctx.onFinish(err)
}

// reactorSub is one subscriber's view of a reactorNode: a discrete
// per-subscriber buffer, or a continuous per-subscriber latest-value
// cell, depending on the node's kind.
type reactorSub[T any] struct {
	mu          sync.Mutex
	queue       []T
	lastValue   T
	pending     bool
	cancelled   bool
	terminated  bool
	onNotify    func()
	onTerminate func()
}

// reactorNode wraps a single Flow, visited at most once per dispatch
// round, multicasting each round's value to every subscriber
// currently attached. Streams deliver every value to every subscriber
// once; signals cache the current value and notify a subscriber only
// when it changes relative to what that subscriber has already seen.
type reactorNode[T any] struct {
	ctx        *ReactorContext
	continuous bool
	source     Flow[T]
	id         int

	mu   sync.Mutex
	subs []*reactorSub[T]

	pendingMu    sync.Mutex
	dirty        bool
	pendingValue T
	pendingQ     lfq.SPSC[T]
	terminating  bool
	failErr      error

	// postBroadcast, when set (by Loop), runs after every broadcast
	// with that round's value — the hook a feedback cell uses to make
	// a node's own prior output visible to its source one round later.
	postBroadcast func(T)
}

func newReactorNode[T any](ctx *ReactorContext, continuous bool, source Flow[T]) *reactorNode[T] {
	ctx.mu.Lock()
	id := ctx.nextSeq
	ctx.nextSeq++
	ctx.mu.Unlock()
	n := &reactorNode[T]{ctx: ctx, continuous: continuous, source: source, id: id}
	if !continuous {
		n.pendingQ.Init(reactorNodeQueueCapacity)
	}
	ctx.spawn(n.startPump)
	return n
}

func (n *reactorNode[T]) seq() int { return n.id }

// visit delivers whatever this node accumulated since its last visit —
// the single latest value for a signal, every queued value in order
// for a stream — before finalizing any termination or failure marked
// for this node. Draining first guarantees a value already buffered
// before the node's source terminated is still broadcast: termination
// is itself just another event scheduled through the round queue, so
// it can never finalize a node ahead of a value that was enqueued
// before it.
func (n *reactorNode[T]) visit() {
	if n.continuous {
		n.pendingMu.Lock()
		v := n.pendingValue
		dirty := n.dirty
		n.dirty = false
		n.pendingMu.Unlock()
		if dirty {
			n.broadcast(v)
		}
	} else {
		for {
			v, err := n.pendingQ.Dequeue()
			if err != nil {
				break
			}
			n.broadcast(v)
		}
	}

	n.pendingMu.Lock()
	terminating := n.terminating
	n.terminating = false
	failErr := n.failErr
	n.failErr = nil
	n.pendingMu.Unlock()
	if terminating {
		n.terminateAll()
		if failErr != nil {
			n.ctx.nodeFailed(failErr)
		} else {
			n.ctx.nodeDone()
		}
	}
}

func (n *reactorNode[T]) markTerminating(err error) {
	n.pendingMu.Lock()
	n.terminating = true
	if err != nil {
		n.failErr = err
	}
	n.pendingMu.Unlock()
	n.ctx.scheduleVisit(n)
}

func (n *reactorNode[T]) startPump() Cancel {
	var transfer Transfer[T]
	transfer = n.source(
		func() {
			v, err := transfer.Take()
			if err != nil {
				n.markTerminating(err)
				return
			}
			if n.continuous {
				n.pendingMu.Lock()
				n.pendingValue = v
				n.dirty = true
				n.pendingMu.Unlock()
			} else if enqErr := n.pendingQ.Enqueue(&v); enqErr != nil {
				n.markTerminating(&OverflowError{Reason: "reactor: node outran its input queue between dispatch rounds"})
				return
			}
			n.ctx.scheduleVisit(n)
		},
		func() {
			n.markTerminating(nil)
		},
	)
	return transfer.Cancel
}

func (n *reactorNode[T]) broadcast(v T) {
	n.mu.Lock()
	subs := append([]*reactorSub[T](nil), n.subs...)
	n.mu.Unlock()
	for _, sub := range subs {
		sub.mu.Lock()
		if sub.cancelled || sub.terminated {
			sub.mu.Unlock()
			continue
		}
		if n.continuous {
			already := sub.pending
			sub.lastValue = v
			sub.pending = true
			sub.mu.Unlock()
			if !already {
				sub.onNotify()
			}
		} else {
			sub.queue = append(sub.queue, v)
			fireNow := len(sub.queue) == 1
			sub.mu.Unlock()
			if fireNow {
				sub.onNotify()
			}
		}
	}
	if n.postBroadcast != nil {
		n.postBroadcast(v)
	}
}

func (n *reactorNode[T]) terminateAll() {
	n.mu.Lock()
	subs := append([]*reactorSub[T](nil), n.subs...)
	n.subs = nil
	n.mu.Unlock()
	for _, sub := range subs {
		sub.mu.Lock()
		if sub.terminated {
			sub.mu.Unlock()
			continue
		}
		sub.terminated = true
		sub.mu.Unlock()
		sub.onTerminate()
	}
}

func (n *reactorNode[T]) removeSub(target *reactorSub[T]) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, sub := range n.subs {
		if sub == target {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			return
		}
	}
}

// flow is the Flow[T] exposed to reactor subscribers: each call
// attaches a fresh subscriber to the node, independent of any other
// subscriber's pace.
func (n *reactorNode[T]) flow(onNotify func(), onTerminate func()) Transfer[T] {
	sub := &reactorSub[T]{onNotify: onNotify, onTerminate: onTerminate}
	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	take := func() (T, error) {
		sub.mu.Lock()
		if sub.cancelled {
			sub.mu.Unlock()
			var zero T
			return zero, ErrCancelled
		}
		if n.continuous {
			v := sub.lastValue
			sub.pending = false
			sub.mu.Unlock()
			return v, nil
		}
		if len(sub.queue) == 0 {
			sub.mu.Unlock()
			var zero T
			return zero, &ProtocolViolationError{Reason: "reactor: Take called with nothing buffered"}
		}
		v := sub.queue[0]
		sub.queue = sub.queue[1:]
		more := len(sub.queue) > 0
		sub.mu.Unlock()
		if more {
			onNotify()
		}
		return v, nil
	}

	return Transfer[T]{
		Take: take,
		Cancel: func() {
			sub.mu.Lock()
			sub.cancelled = true
			already := sub.terminated
			sub.terminated = true
			sub.mu.Unlock()
			n.removeSub(sub)
			if !already {
				sub.onTerminate()
			}
		},
	}
}

// Stream spawns a discrete publisher node wrapping source, scoped to
// the reactor ctx belongs to. The returned Flow may be subscribed any
// number of times; each subscriber sees every value once.
func Stream[T any](ctx *ReactorContext, source Flow[T]) Flow[T] {
	n := newReactorNode[T](ctx, false, source)
	return n.flow
}

// Signal spawns a continuous publisher node wrapping source. The
// returned Flow may be subscribed any number of times; each
// subscriber is notified only when the cached value changes.
func Signal[T any](ctx *ReactorContext, source Flow[T]) Flow[T] {
	n := newReactorNode[T](ctx, true, source)
	return n.flow
}

// reactorFeedback is a single-subscriber continuous cell: it delivers
// its current value immediately on subscription and again whenever
// push changes it, the same notify-on-change shape watch.go's Watch
// uses over an external Watchable.
type reactorFeedback[T any] struct {
	mu       sync.Mutex
	value    T
	pending  bool
	onNotify func()
}

func (fb *reactorFeedback[T]) flow(onNotify func(), _ func()) Transfer[T] {
	fb.mu.Lock()
	fb.onNotify = onNotify
	fb.pending = true
	fb.mu.Unlock()
	go onNotify()
	return Transfer[T]{
		Take: func() (T, error) {
			fb.mu.Lock()
			v := fb.value
			fb.pending = false
			fb.mu.Unlock()
			return v, nil
		},
		Cancel: func() {},
	}
}

func (fb *reactorFeedback[T]) push(v T) {
	fb.mu.Lock()
	fb.value = v
	already := fb.pending
	fb.pending = true
	notify := fb.onNotify
	fb.mu.Unlock()
	if !already && notify != nil {
		notify()
	}
}

// Loop spawns a signal node whose own source may read the node's own
// prior output: fn receives a Flow that replays init until the node's
// first broadcast, and from then on the value from the node's most
// recently completed round, and returns the Flow that becomes the
// node's actual source. This is the construction spec.md's propagation
// model means by "cycles through signals are permitted": the
// feedback's value only ever advances after a full round has
// broadcast, so fn's own output can never observe itself within the
// round that produced it, which is what keeps the cycle from
// recursing — each trip around it is a separate dispatch round.
func Loop[T any](ctx *ReactorContext, init T, fn func(feedback Flow[T]) Flow[T]) Flow[T] {
	fb := &reactorFeedback[T]{value: init}
	source := fn(fb.flow)
	node := newReactorNode[T](ctx, true, source)
	node.postBroadcast = fb.push
	return node.flow
}

// ReactorCall creates a reactor context, runs boot to wire its graph
// of nodes, then drives every spawned node until all have terminated.
// It succeeds with boot's return value iff every node terminates
// successfully; otherwise it fails with the first node failure and
// cancels the rest. Cancelling the returned task cancels every node.
func ReactorCall[A any](boot func(*ReactorContext) A) Task[A] {
	return func(onSuccess func(A), onFailure func(error)) Cancel {
		ctx := newReactorContext()
		go ctx.runDispatch()

		var bootPanic any
		var result A
		func() {
			defer func() {
				bootPanic = recover()
			}()
			result = boot(ctx)
		}()

		ctx.onFinish = func(err error) {
			if err != nil {
				onFailure(err)
			} else {
				onSuccess(result)
			}
		}

		if bootPanic != nil {
			ctx.doneOnce.Do(func() { close(ctx.done) })
			if ctx.settled.claim() {
				onFailure(&ProtocolViolationError{Reason: fmt.Sprintf("reactor: boot panicked: %v", bootPanic)})
			}
			return func() {}
		}

		ctx.mu.Lock()
		ctx.started = true
		pumps := ctx.pumps
		ctx.pumps = nil
		ctx.mu.Unlock()

		for _, p := range pumps {
			c := p()
			ctx.mu.Lock()
			ctx.cancels = append(ctx.cancels, c)
			ctx.mu.Unlock()
		}

		ctx.mu.Lock()
		zero := ctx.outstanding == 0
		ctx.mu.Unlock()
		if zero {
			ctx.finish(nil)
		}

		return onceCancel(func() {
			ctx.mu.Lock()
			cancels := append([]Cancel(nil), ctx.cancels...)
			ctx.mu.Unlock()
			for _, c := range cancels {
				c()
			}
			ctx.doneOnce.Do(func() { close(ctx.done) })
			if ctx.settled.claim() {
				onFailure(ErrCancelled)
			}
		})
	}
}
