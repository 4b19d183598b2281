// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package guard

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go/jetstream"
)

// kvMaxAttempts bounds compare-and-set retries. Every round has one winner,
// so this also bounds the number of concurrent writers per key.
const kvMaxAttempts = 64

// KVStore keeps counters in a NATS JetStream key-value bucket, so every
// replica connected to the same cluster shares one quota per client.
//
// Updates are compare-and-set on the entry revision; a concurrent writer
// makes the loser re-read and retry.
type KVStore struct {
	kv  jetstream.KeyValue
	now func() time.Time
}

// NewKVStore creates (or updates) bucket and returns a store backed by it.
// ttl should be at least the longest configured window.
func NewKVStore(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (*KVStore, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "tourdesk submission rate limits",
		TTL:         ttl,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("create kv bucket %s: %w", bucket, err)
	}
	return &KVStore{kv: kv, now: time.Now}, nil
}

// kvKey encodes key into the KV key alphabet. IPv6 addresses carry colons,
// which JetStream rejects.
func kvKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// TryConsume implements CounterStore.
func (s *KVStore) TryConsume(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	k := kvKey(key)

	for attempt := 0; attempt < kvMaxAttempts; attempt++ {
		var b bucket
		var rev uint64

		entry, err := s.kv.Get(ctx, k)
		switch {
		case errors.Is(err, jetstream.ErrKeyNotFound):
		case err != nil:
			return Result{}, fmt.Errorf("kv get: %w", err)
		default:
			if err := json.Unmarshal(entry.Value(), &b); err != nil {
				return Result{}, fmt.Errorf("kv decode: %w", err)
			}
			rev = entry.Revision()
		}

		updated, res := consume(b, s.now(), limit, window)
		if !res.Allowed {
			return res, nil
		}

		data, err := json.Marshal(updated)
		if err != nil {
			return Result{}, err
		}

		if rev == 0 {
			_, err = s.kv.Create(ctx, k, data)
		} else {
			_, err = s.kv.Update(ctx, k, data, rev)
		}
		if err == nil {
			return res, nil
		}
		if !isRevisionConflict(err) {
			return Result{}, fmt.Errorf("kv write: %w", err)
		}
	}
	return Result{}, fmt.Errorf("kv write: too much contention on %s", key)
}

func isRevisionConflict(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}
