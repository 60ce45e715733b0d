package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://example.com/property-1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://example.com/property-1")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		url := "https://example.com/same"
		pool.Submit(func() {
			if s.Add(url) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolClampsConcurrency(t *testing.T) {
	// A misconfigured MAX_CONCURRENCY of 0 must not deadlock Submit.
	pool := NewWorkerPool(0, 0)

	var ran int64
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			pool.Submit(func() {
				atomic.AddInt64(&ran, 1)
			})
		}
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool with clamped concurrency never drained")
	}
	if ran != 5 {
		t.Errorf("ran %d jobs, want 5", ran)
	}
}

func TestWorkerPoolZeroRateLimitDoesNotPace(t *testing.T) {
	pool := NewWorkerPool(2, 0)

	start := time.Now()
	for i := 0; i < 10; i++ {
		pool.Submit(func() {})
	}
	pool.Wait()

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("10 no-op jobs took %v with pacing disabled", elapsed)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var timestamps []time.Time
	mu := make(chan struct{}, 1)
	mu <- struct{}{}

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			<-mu
			timestamps = append(timestamps, time.Now())
			mu <- struct{}{}
		})
	}
	pool.Wait()

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		min := time.Duration(rateLimitMs) * time.Millisecond
		if gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}
