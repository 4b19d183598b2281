// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package guard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a settable clock shared by the store tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestConsume(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		in          bucket
		wantAllowed bool
		wantCount   int
		wantRemain  int
	}{
		{"empty bucket", bucket{}, true, 1, 2},
		{"below limit", bucket{Count: 1, ExpiresAt: now.Add(time.Minute)}, true, 2, 1},
		{"at limit", bucket{Count: 3, ExpiresAt: now.Add(time.Minute)}, false, 3, 0},
		{"expired at limit", bucket{Count: 3, ExpiresAt: now.Add(-time.Second)}, true, 1, 2},
		{"expires exactly now", bucket{Count: 3, ExpiresAt: now}, true, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, res := consume(tt.in, now, 3, time.Hour)
			if res.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", res.Allowed, tt.wantAllowed)
			}
			if b.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", b.Count, tt.wantCount)
			}
			if res.Remaining != tt.wantRemain {
				t.Errorf("Remaining = %d, want %d", res.Remaining, tt.wantRemain)
			}
		})
	}
}

// storeContract runs the behaviour every CounterStore must share.
func storeContract(t *testing.T, newStore func(t *testing.T, clock *fakeClock) CounterStore) {
	t.Helper()

	t.Run("limit then deny", func(t *testing.T) {
		s := newStore(t, newFakeClock())
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			res, err := s.TryConsume(ctx, "booking:203.0.113.5", 3, time.Hour)
			if err != nil {
				t.Fatalf("TryConsume #%d: %v", i+1, err)
			}
			if !res.Allowed {
				t.Fatalf("request #%d denied", i+1)
			}
			if res.Remaining != 2-i {
				t.Errorf("request #%d remaining = %d, want %d", i+1, res.Remaining, 2-i)
			}
		}
		res, err := s.TryConsume(ctx, "booking:203.0.113.5", 3, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if res.Allowed {
			t.Error("request over the limit was allowed")
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := newStore(t, newFakeClock())
		ctx := context.Background()
		if _, err := s.TryConsume(ctx, "booking:203.0.113.5", 1, time.Hour); err != nil {
			t.Fatal(err)
		}
		res, err := s.TryConsume(ctx, "quote:203.0.113.5", 1, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Error("different class shares a bucket")
		}
		res, err = s.TryConsume(ctx, "booking:2001:db8::1", 1, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Error("different IP shares a bucket")
		}
	})

	t.Run("window expiry resets lazily", func(t *testing.T) {
		clock := newFakeClock()
		s := newStore(t, clock)
		ctx := context.Background()
		for i := 0; i < 2; i++ {
			if _, err := s.TryConsume(ctx, "contact:198.51.100.7", 2, time.Minute); err != nil {
				t.Fatal(err)
			}
		}
		if res, _ := s.TryConsume(ctx, "contact:198.51.100.7", 2, time.Minute); res.Allowed {
			t.Fatal("expected denial inside the window")
		}
		clock.Advance(time.Minute)
		res, err := s.TryConsume(ctx, "contact:198.51.100.7", 2, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed || res.Remaining != 1 {
			t.Errorf("after expiry got %+v, want allowed with 1 remaining", res)
		}
	})

	t.Run("concurrent callers never exceed the limit", func(t *testing.T) {
		s := newStore(t, newFakeClock())
		ctx := context.Background()
		const limit = 10
		var allowed atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := s.TryConsume(ctx, "bundle:192.0.2.1", limit, time.Hour)
				if err != nil {
					t.Errorf("TryConsume: %v", err)
					return
				}
				if res.Allowed {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()
		if got := allowed.Load(); got != limit {
			t.Errorf("allowed = %d, want %d", got, limit)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	storeContract(t, func(t *testing.T, clock *fakeClock) CounterStore {
		s := NewMemoryStore()
		s.now = clock.Now
		return s
	})
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemoryStore().TryConsume(ctx, "k", 1, time.Minute); err == nil {
		t.Error("expected context error")
	}
}
