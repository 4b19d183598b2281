// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/tourdesk/internal/config"
	"github.com/tomtom215/tourdesk/internal/eventprocessor"
	"github.com/tomtom215/tourdesk/internal/guard"
	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/models"
	"github.com/tomtom215/tourdesk/internal/notify"
)

const (
	backendMemory = "memory"
	backendBadger = "badger"
	backendNATS   = "nats"
)

// natsComponents is the optional NATS connection shared by the KV counter
// store and the JetStream notification transport.
type natsComponents struct {
	server *eventprocessor.EmbeddedServer
	conn   *natsgo.Conn
	js     jetstream.JetStream
	cfg    eventprocessor.NATSConfig
}

func needsNATS(cfg *config.Config) bool {
	return cfg.Guard.Backend == backendNATS ||
		(cfg.Notifications.Enabled && cfg.Notifications.Transport == eventprocessor.TransportNATS)
}

// natsConfig maps the NATS settings onto the eventprocessor defaults.
func natsConfig(cfg *config.Config, url string) eventprocessor.NATSConfig {
	nc := eventprocessor.DefaultNATSConfig(url)
	n := cfg.NATS
	nc.MaxReconnects = n.MaxReconnects
	if n.ReconnectWait > 0 {
		nc.ReconnectWait = n.ReconnectWait
	}
	if n.DurableName != "" {
		nc.DurableName = n.DurableName
	}
	if n.QueueGroup != "" {
		nc.QueueGroup = n.QueueGroup
	}
	if n.SubscriberCount > 0 {
		nc.SubscribersCount = n.SubscriberCount
	}
	if n.AckWaitTimeout > 0 {
		nc.AckWaitTimeout = n.AckWaitTimeout
	}
	if cfg.Notifications.CloseTimeout > 0 {
		nc.CloseTimeout = cfg.Notifications.CloseTimeout
	}
	return nc
}

// startNATS starts the embedded server when configured and connects to it,
// or to the external URL.
func startNATS(cfg *config.Config) (*natsComponents, error) {
	comps := &natsComponents{}
	url := cfg.NATS.URL

	if cfg.NATS.EmbeddedServer {
		srvCfg := eventprocessor.DefaultServerConfig()
		srvCfg.StoreDir = filepath.Join(cfg.NATS.StoreDir, "jetstream")
		if cfg.NATS.MaxMemory > 0 {
			srvCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		}
		if cfg.NATS.MaxStore > 0 {
			srvCfg.JetStreamMaxStore = cfg.NATS.MaxStore
		}
		srv, err := eventprocessor.NewEmbeddedServer(&srvCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		comps.server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Str("store_dir", srvCfg.StoreDir).Msg("Embedded NATS server started")
	}

	comps.cfg = natsConfig(cfg, url)
	nc, err := eventprocessor.Connect(&comps.cfg, logging.NewWatermillLogger("nats"))
	if err != nil {
		comps.abort()
		return nil, err
	}
	comps.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		comps.abort()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	comps.js = js
	return comps, nil
}

// close drains the connection. The embedded server is stopped by the
// supervisor.
func (c *natsComponents) close() {
	if c == nil || c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		logging.Warn().Err(err).Msg("NATS drain failed")
	}
}

// abort undoes a failed startup, including the embedded server.
func (c *natsComponents) abort() {
	c.close()
	if c.server != nil {
		if err := c.server.Shutdown(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS shutdown failed")
		}
	}
}

// guardLimits converts the per-class quota settings.
func guardLimits(g config.GuardConfig) map[models.Kind]guard.Limit {
	limit := func(l config.LimitConfig) guard.Limit {
		return guard.Limit{Requests: l.Requests, Window: l.Window}
	}
	return map[models.Kind]guard.Limit{
		models.KindBooking: limit(g.Booking),
		models.KindQuote:   limit(g.Quote),
		models.KindContact: limit(g.Contact),
		models.KindBundle:  limit(g.Bundle),
		models.KindCustom:  limit(g.Custom),
	}
}

func longestWindow(limits map[models.Kind]guard.Limit) time.Duration {
	var longest time.Duration
	for _, l := range limits {
		if l.Window > longest {
			longest = l.Window
		}
	}
	return longest
}

// newCounterStore builds the quota backend. The returned close func is
// never nil.
func newCounterStore(ctx context.Context, cfg config.GuardConfig, nats *natsComponents) (guard.CounterStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case backendMemory, "":
		return guard.NewMemoryStore(), noop, nil
	case backendBadger:
		store, err := guard.OpenBadgerStore(cfg.BadgerDir)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case backendNATS:
		if nats == nil {
			return nil, noop, errors.New("guard backend nats requires a NATS connection")
		}
		store, err := guard.NewKVStore(ctx, nats.js, cfg.KVBucket, longestWindow(guardLimits(cfg)))
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown guard backend %q", cfg.Backend)
	}
}

// newSender picks SMTP delivery when a relay is configured and logs emails
// otherwise.
func newSender(cfg *config.Config) notify.Sender {
	if cfg.SMTP.Host == "" {
		logging.Warn().Msg("SMTP_HOST not set, emails will be logged and not delivered")
		return notify.LogSender{}
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:            cfg.SMTP.Host,
		Port:            cfg.SMTP.Port,
		Username:        cfg.SMTP.Username,
		Password:        cfg.SMTP.Password,
		UseTLS:          cfg.SMTP.UseTLS,
		Timeout:         cfg.SMTP.Timeout,
		FromAddress:     cfg.Notifications.FromAddress,
		FromName:        cfg.Notifications.FromName,
		SendRate:        cfg.Notifications.SendRate,
		BreakerFailures: cfg.SMTP.BreakerFailures,
		BreakerTimeout:  cfg.SMTP.BreakerTimeout,
	})
}

// notifications is the delivery side: transport, router and dispatcher.
type notifications struct {
	pubsub     *eventprocessor.PubSub
	router     *eventprocessor.Router
	dispatcher *notify.Dispatcher
}

func newNotifications(ctx context.Context, cfg *config.Config, nats *natsComponents) (*notifications, error) {
	n := cfg.Notifications
	wmLogger := logging.NewWatermillLogger("notifications")

	var natsCfg *eventprocessor.NATSConfig
	if n.Transport == eventprocessor.TransportNATS {
		natsCfg = &nats.cfg
		if _, err := eventprocessor.EnsureStream(ctx, nats.js, natsCfg); err != nil {
			return nil, err
		}
	}
	ps, err := eventprocessor.NewPubSub(n.Transport, natsCfg, wmLogger)
	if err != nil {
		return nil, err
	}

	routerCfg := eventprocessor.DefaultRouterConfig()
	routerCfg.RetryMaxRetries = n.MaxRetries
	if n.RetryDelay > 0 {
		routerCfg.RetryInitialInterval = n.RetryDelay
	}
	if n.CloseTimeout > 0 {
		routerCfg.CloseTimeout = n.CloseTimeout
	}
	router, err := eventprocessor.NewRouter(&routerCfg, wmLogger)
	if err != nil {
		_ = ps.Close()
		return nil, err
	}
	router.AddConsumerHandler(notify.HandlerName, n.Topic, ps.Subscriber, notify.NewEmailHandler(newSender(cfg)).Handle)

	dispatcher, err := notify.NewDispatcher(ps.Publisher, notify.NewRenderer(n.FromName), notify.DispatcherConfig{
		Topic:        n.Topic,
		StaffAddress: n.StaffAddress,
	})
	if err != nil {
		_ = ps.Close()
		return nil, err
	}

	logging.Info().
		Str("transport", ps.Transport).
		Str("topic", n.Topic).
		Int("max_retries", n.MaxRetries).
		Msg("Notifications configured")
	return &notifications{pubsub: ps, router: router, dispatcher: dispatcher}, nil
}
