// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package flux is a functional reactive concurrency runtime: one-shot
// asynchronous computations ([Task]) and backpressured, cancellable value
// streams ([Flow]) under a small set of composable primitives, plus two
// structured control blocks — [SP] (sequential) and [AP] (ambiguous/forking)
// — that compose them with deterministic cancellation and error
// propagation.
//
// # Protocol Kernel
//
// A [Task] completes exactly once, with success or failure. A [Flow]
// notifies, then requires exactly one [Transfer] before the next
// notification — the "one outstanding" rule that makes flows
// backpressured end to end. Both contracts are plain function types; no
// class hierarchy is required, variants are tagged by construction.
//
// # Coordination Primitives
//
//   - Transport: mutex-guarded FIFO queues back [NewMailbox] and
//     [NewRendezvous].
//   - [NewDataflow]: single-assignment dataflow variable.
//   - [NewSemaphore] and [Holding]: counted semaphore with scoped,
//     guaranteed release.
//   - [Sleep], [Never], [ViaCall]: timer and executor-backed tasks.
//
// # Task Combinators
//
// [Join], [Race], [Attempt], [Absolve], [Timeout], and [Compel] compose
// tasks. Timeouts are expressed purely via [Race] with [Sleep]; there is
// no privileged timer wheel.
//
// # Flow Sources and Transformers
//
// [Enumerate], [Watch], and [Observe] produce flows; [Subscribe] and
// [Publisher] bridge to and from an external reactive-streams-shaped
// publisher. [Transform], [Integrate], [Relieve], [Buffer], [Zip],
// [Latest], [Sample], and [Gather] compose them.
//
// # Fiber
//
// [SP] runs a [code.hybscloud.com/kont] effect body as a [Task]. [AP]
// names the boundary of a fork tree built from [ForkConcat], [ForkSwitch],
// and [ForkGather], each a [Flow]-to-[Flow] transformer running a plain
// callback per upstream value rather than a kont effect — a fork manages
// overlapping Task lifetimes across a stream, which [Park]'s one-shot
// suspend-on-a-single-Task model does not cover, so forks compose by
// ordinary function composition instead of by splicing into one kont
// effect tree. [Park] suspends the enclosing [SP] fiber on a [Task];
// [Poll] yields and checks cancellation. The suspendable-body facility is
// [code.hybscloud.com/kont]'s continuation/algebraic-effect substrate:
// [kont.Eff], [kont.Perform], and [kont.Handle]'s one-effect-at-a-time
// dispatch against a [kont.Handler].
//
// # Reactor
//
// [ReactorCall] boots a dynamic DAG of publisher nodes spawned with
// [Stream] and [Signal], driving round-based glitch-free propagation
// until every node terminates.
//
// # Scheduling Model
//
// There is no implicit event loop. Work progresses by synchronous calls
// of continuations on whatever goroutine invoked the triggering event,
// and by explicit re-dispatch via an executor ([ViaCall], [Sleep]).
// Every combinator's callbacks must tolerate re-entrant invocation from
// arbitrary goroutines.
package flux
