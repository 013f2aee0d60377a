package shared

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestForEveryWithBoundedGoroutinesVisitsEveryValue(t *testing.T) {
	values := make([]int, 100)
	for i := range values {
		values[i] = i
	}

	var mu sync.Mutex
	seen := map[int]bool{}
	ForEveryWithBoundedGoroutines(5, values, func(i int, value int) {
		mu.Lock()
		defer mu.Unlock()
		if i != value {
			t.Errorf("index %d does not match value %d", i, value)
		}
		seen[value] = true
	})

	if len(seen) != 100 {
		t.Fatalf("expected 100 values visited, got %d", len(seen))
	}
}

func TestForEveryWithBoundedGoroutinesRespectsLimit(t *testing.T) {
	const limit = 3
	var current, peak int32

	ForEveryWithBoundedGoroutines(limit, make([]struct{}, 50), func(i int, _ struct{}) {
		n := atomic.AddInt32(&current, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&current, -1)
	})

	if peak > limit {
		t.Fatalf("observed %d concurrent goroutines, limit is %d", peak, limit)
	}
}

func TestForEveryWithBoundedGoroutinesZeroLimit(t *testing.T) {
	visited := 0
	ForEveryWithBoundedGoroutines(0, []string{"a", "b"}, func(i int, _ string) {
		visited++ // limit 0 degrades to serial execution, no race here
	})
	if visited != 2 {
		t.Fatalf("expected 2 visits, got %d", visited)
	}
}

func TestSemaphoreCapMatchesSlots(t *testing.T) {
	sem := NewSemaphore(4)
	if cap(sem) != 4 {
		t.Fatalf("expected capacity 4, got %d", cap(sem))
	}

	sem.Acquire()
	sem.Acquire()
	if len(sem) != 2 {
		t.Fatalf("expected 2 held slots, got %d", len(sem))
	}
	sem.Release()
	sem.Release()
	if len(sem) != 0 {
		t.Fatalf("expected no held slots, got %d", len(sem))
	}
}

func TestSemaphoreMinimumOneSlot(t *testing.T) {
	sem := NewSemaphore(0)
	if cap(sem) != 1 {
		t.Fatalf("expected minimum capacity 1, got %d", cap(sem))
	}
}
