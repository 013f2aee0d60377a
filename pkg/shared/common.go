package shared

import (
	"sync"
)

// ForEveryWithBoundedGoroutines runs f over values with at most limit concurrent
// goroutines and waits for all of them to finish.
func ForEveryWithBoundedGoroutines[T any](limit int, values []T, f func(i int, value T)) {
	if limit <= 0 {
		limit = 1
	}
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, value := range values {
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(i int, value T) {
			defer wg.Done()
			f(i, value)
			<-guard
		}(i, value)
	}
	wg.Wait()
}

// Semaphore bounds concurrency globally across independent call sites. Holders
// must never acquire while already holding a slot.
type Semaphore chan struct{}

// NewSemaphore creates a semaphore with the given number of slots.
func NewSemaphore(slots int) Semaphore {
	if slots <= 0 {
		slots = 1
	}
	return make(Semaphore, slots)
}

// Acquire takes one slot, blocking until one is free.
func (s Semaphore) Acquire() {
	s <- struct{}{}
}

// Release frees one slot.
func (s Semaphore) Release() {
	<-s
}
