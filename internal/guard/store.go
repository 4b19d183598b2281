// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package guard

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStoreClosed is returned after a counter store has been closed.
var ErrStoreClosed = errors.New("counter store closed")

// Result is the outcome of one TryConsume call.
type Result struct {
	Allowed   bool
	Remaining int
	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// CounterStore holds fixed-window request counters shared by every
// replica that uses the same backing store.
//
// TryConsume takes one unit from the bucket at key. A bucket whose window
// has passed is treated as absent and restarts at zero. The count never
// goes above limit: a denied call does not increment it.
type CounterStore interface {
	TryConsume(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// bucket is the persisted state of one key.
type bucket struct {
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expires_at"`
}

// consume applies one request to b at now and returns the updated bucket.
func consume(b bucket, now time.Time, limit int, window time.Duration) (bucket, Result) {
	if !now.Before(b.ExpiresAt) {
		b = bucket{ExpiresAt: now.Add(window)}
	}
	if b.Count >= limit {
		return b, Result{Allowed: false, Remaining: 0, ResetAt: b.ExpiresAt}
	}
	b.Count++
	return b, Result{Allowed: true, Remaining: limit - b.Count, ResetAt: b.ExpiresAt}
}

// MemoryStore is an in-process CounterStore. Quotas are not shared across
// replicas; use it for single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]bucket
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]bucket), now: time.Now}
}

// TryConsume implements CounterStore. Expired buckets are overwritten on
// access and never swept.
func (m *MemoryStore) TryConsume(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, res := consume(m.buckets[key], m.now(), limit, window)
	m.buckets[key] = b
	return res, nil
}
