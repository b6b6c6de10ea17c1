// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux_test

import (
	"sync"
	"testing"
	"time"

	"github.com/riftlane/flux"
)

func TestSemaphoreMutualExclusion(t *testing.T) {
	sem := flux.NewSemaphore(1)
	var mu sync.Mutex
	inside := 0
	maxInside := 0
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		flux.Holding(sem, func() flux.Task[struct{}] {
			return func(onSuccess func(struct{}), onFailure func(error)) flux.Cancel {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()
				go func() {
					time.Sleep(time.Millisecond)
					mu.Lock()
					inside--
					mu.Unlock()
					onSuccess(struct{}{})
				}()
				return func() {}
			}
		}).Subscribe(func(struct{}) { wg.Done() }, func(error) { wg.Done() })
	}
	wg.Wait()
	if maxInside > 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxInside)
	}
}

// TestSemaphoreDiningPhilosophers seats five philosophers, each needing the fork to
// their left and right (a shared Semaphore(1) per fork), and checks
// that every philosopher eventually eats without deadlock.
func TestSemaphoreDiningPhilosophers(t *testing.T) {
	const n = 5
	forks := make([]*flux.Semaphore, n)
	for i := range forks {
		forks[i] = flux.NewSemaphore(1)
	}

	var wg sync.WaitGroup
	ate := make([]bool, n)
	var mu sync.Mutex

	for i := 0; i < n; i++ {
		i := i
		left, right := forks[i], forks[(i+1)%n]
		if i == n-1 {
			left, right = right, left // break the cycle to avoid deadlock
		}
		wg.Add(1)
		eat := flux.Holding(left, func() flux.Task[struct{}] {
			return flux.Holding(right, func() flux.Task[struct{}] {
				return func(onSuccess func(struct{}), onFailure func(error)) flux.Cancel {
					mu.Lock()
					ate[i] = true
					mu.Unlock()
					onSuccess(struct{}{})
					return func() {}
				}
			})
		})
		eat.Subscribe(func(struct{}) { wg.Done() }, func(error) { wg.Done() })
	}
	wg.Wait()

	for i, v := range ate {
		if !v {
			t.Fatalf("philosopher %d never ate", i)
		}
	}
}

func TestSemaphoreCancelledAcquireDoesNotConsumeToken(t *testing.T) {
	sem := flux.NewSemaphore(0)
	cancel := sem.Acquire().Subscribe(func(struct{}) {
		t.Fatal("unexpected success")
	}, func(error) {})
	cancel()

	sem.Release()
	acquired := false
	sem.Acquire().Subscribe(func(struct{}) { acquired = true }, func(error) {
		t.Fatal("unexpected failure")
	})
	if !acquired {
		t.Fatal("release after cancel did not make a token available")
	}
}
