// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	badgerKeyPrefix = "ratelimit:"
	// badgerMaxAttempts bounds retries of conflicting optimistic transactions.
	// Writers in this process are serialized, so conflicts only come from
	// other handles on the same directory.
	badgerMaxAttempts = 5
)

// BadgerStore keeps counters in BadgerDB so quotas survive a restart.
// Entries carry a TTL equal to the remaining window, so badger drops them
// during compaction; correctness does not depend on that.
type BadgerStore struct {
	db     *badger.DB
	now    func() time.Time
	mu     sync.Mutex
	closed bool
	owned  bool
}

// NewBadgerStore wraps an already opened database. The caller keeps ownership.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now}
}

// OpenBadgerStore opens (or creates) a database in dir. Close releases it.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	s := NewBadgerStore(db)
	s.owned = true
	return s, nil
}

// TryConsume implements CounterStore.
func (s *BadgerStore) TryConsume(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Result{}, ErrStoreClosed
	}

	k := []byte(badgerKeyPrefix + key)
	var res Result
	var err error
	for attempt := 0; attempt < badgerMaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			var b bucket
			item, getErr := txn.Get(k)
			switch {
			case errors.Is(getErr, badger.ErrKeyNotFound):
			case getErr != nil:
				return getErr
			default:
				if valErr := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &b)
				}); valErr != nil {
					return valErr
				}
			}

			now := s.now()
			var updated bucket
			updated, res = consume(b, now, limit, window)
			if !res.Allowed {
				return nil
			}

			data, marshalErr := json.Marshal(updated)
			if marshalErr != nil {
				return marshalErr
			}
			return txn.SetEntry(badger.NewEntry(k, data).WithTTL(updated.ExpiresAt.Sub(now)))
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return Result{}, fmt.Errorf("badger rate limit update: %w", err)
	}
	return res, nil
}

// Close closes the database if this store opened it.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.owned {
		return s.db.Close()
	}
	return nil
}
