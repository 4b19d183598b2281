// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

//go:build integration

package guard

import (
	"context"
	"fmt"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/tourdesk/internal/eventprocessor"
)

func TestKVStore(t *testing.T) {
	cfg := eventprocessor.DefaultServerConfig()
	cfg.Port = -1
	cfg.StoreDir = t.TempDir()
	srv, err := eventprocessor.NewEmbeddedServer(&cfg)
	if err != nil {
		t.Fatalf("NewEmbeddedServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(nc.Close)
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatal(err)
	}

	var n int
	storeContract(t, func(t *testing.T, clock *fakeClock) CounterStore {
		n++
		s, err := NewKVStore(context.Background(), js, fmt.Sprintf("ratelimit-test-%d", n), 2*time.Hour)
		if err != nil {
			t.Fatalf("NewKVStore: %v", err)
		}
		s.now = clock.Now
		return s
	})
}

func TestKVKey(t *testing.T) {
	for _, key := range []string{"booking:203.0.113.5", "quote:2001:db8::1"} {
		k := kvKey(key)
		for _, r := range k {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
				t.Errorf("kvKey(%q) = %q contains %q", key, k, r)
			}
		}
	}
}
