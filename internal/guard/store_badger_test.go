// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package guard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openTestBadger(t *testing.T, dir string) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	return s
}

func TestBadgerStore(t *testing.T) {
	t.Parallel()
	storeContract(t, func(t *testing.T, clock *fakeClock) CounterStore {
		s := openTestBadger(t, t.TempDir())
		s.now = clock.Now
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestBadgerStore_SurvivesReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()

	s := openTestBadger(t, dir)
	for i := 0; i < 2; i++ {
		if _, err := s.TryConsume(ctx, "booking:203.0.113.9", 2, time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s = openTestBadger(t, dir)
	defer s.Close()
	res, err := s.TryConsume(ctx, "booking:203.0.113.9", 2, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Error("quota was lost across restart")
	}
}

func TestBadgerStore_Closed(t *testing.T) {
	t.Parallel()
	s := openTestBadger(t, t.TempDir())
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	_, err := s.TryConsume(context.Background(), "k", 1, time.Minute)
	if !errors.Is(err, ErrStoreClosed) {
		t.Errorf("err = %v, want ErrStoreClosed", err)
	}
}
