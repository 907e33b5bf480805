package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		key      string
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			key:      "test",
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			key:      "test",
			calls:    5,
			wantPass: 2,
		},
		{
			name:     "single token",
			rps:      1,
			burst:    1,
			key:      "key1",
			calls:    1,
			wantPass: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst, 0)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow(tt.key) {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1, 0)
	defer rl.Stop()

	if !rl.Allow("key1") {
		t.Error("key1 first request should pass")
	}
	if rl.Allow("key1") {
		t.Error("key1 second request should be limited")
	}
	if !rl.Allow("key2") {
		t.Error("key2 should have its own budget")
	}
}

func TestKeyedRateLimiter_Refill(t *testing.T) {
	rl := New(10, 1, 0)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	if !rl.Allow("k") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("k") {
		t.Fatal("second request should be limited")
	}

	now = now.Add(150 * time.Millisecond)
	if !rl.Allow("k") {
		t.Error("token should have refilled after 1/rps")
	}
}

func TestKeyedRateLimiter_EvictIdle(t *testing.T) {
	rl := New(1, 1, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(45 * time.Second)
	rl.Allow("fresh")

	now = now.Add(30 * time.Second)
	if got := rl.evictIdle(); got != 1 {
		t.Errorf("evictIdle() = %d, want 1", got)
	}
	if got := rl.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}

	// An evicted key starts over with a full bucket.
	if !rl.Allow("old") {
		t.Error("evicted key should get a fresh limiter")
	}
}

func TestKeyedRateLimiter_Concurrent(t *testing.T) {
	rl := New(1000, 100, 0)
	defer rl.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rl.Allow(string(rune('a' + id)))
			}
		}(i)
	}
	wg.Wait()

	if got := rl.Len(); got != 10 {
		t.Errorf("Len() = %d, want 10", got)
	}
}

func TestKeyedRateLimiter_StopIdempotent(t *testing.T) {
	rl := New(1, 1, 0)
	rl.Stop()
	rl.Stop()
}
