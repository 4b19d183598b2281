// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMailpitImage is the Mailpit SMTP capture server image.
	DefaultMailpitImage = "axllent/mailpit:v1.21"

	mailpitSMTPPort = "1025"
	mailpitHTTPPort = "8025"
)

// MailpitContainer is a running Mailpit instance. It accepts any SMTP
// message without authentication and exposes the captured mail over HTTP.
type MailpitContainer struct {
	testcontainers.Container
	SMTPHost string
	SMTPPort int
	APIURL   string
}

// MailpitOption configures the container.
type MailpitOption func(*mailpitConfig)

type mailpitConfig struct {
	image        string
	startTimeout time.Duration
}

// WithMailpitImage sets a custom image.
func WithMailpitImage(image string) MailpitOption {
	return func(c *mailpitConfig) {
		c.image = image
	}
}

// WithStartTimeout sets the timeout for waiting for the container to start.
func WithStartTimeout(timeout time.Duration) MailpitOption {
	return func(c *mailpitConfig) {
		c.startTimeout = timeout
	}
}

// NewMailpitContainer creates and starts a Mailpit container.
//
//	mailpit, err := testinfra.NewMailpitContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer mailpit.Terminate(ctx)
//
//	sender := notify.NewSMTPSender(notify.SMTPConfig{Host: mailpit.SMTPHost, Port: mailpit.SMTPPort})
func NewMailpitContainer(ctx context.Context, opts ...MailpitOption) (*MailpitContainer, error) {
	cfg := &mailpitConfig{
		image:        DefaultMailpitImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{mailpitSMTPPort + "/tcp", mailpitHTTPPort + "/tcp"},
		Env: map[string]string{
			"MP_SMTP_AUTH_ACCEPT_ANY":     "1",
			"MP_SMTP_AUTH_ALLOW_INSECURE": "1",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(mailpitSMTPPort+"/tcp"),
			wait.ForHTTP("/api/v1/info").WithPort(mailpitHTTPPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create mailpit container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	smtpPort, err := container.MappedPort(ctx, mailpitSMTPPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get smtp port: %w", err)
	}
	httpPort, err := container.MappedPort(ctx, mailpitHTTPPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get http port: %w", err)
	}
	port, err := strconv.Atoi(smtpPort.Port())
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("parse smtp port: %w", err)
	}

	return &MailpitContainer{
		Container: container,
		SMTPHost:  host,
		SMTPPort:  port,
		APIURL:    fmt.Sprintf("http://%s:%s", host, httpPort.Port()),
	}, nil
}

// MailpitAddress is a parsed address from the Mailpit API.
type MailpitAddress struct {
	Name    string `json:"Name"`
	Address string `json:"Address"`
}

// MailpitMessage is a captured message summary.
type MailpitMessage struct {
	ID      string           `json:"ID"`
	From    MailpitAddress   `json:"From"`
	To      []MailpitAddress `json:"To"`
	ReplyTo []MailpitAddress `json:"ReplyTo"`
	Subject string           `json:"Subject"`
	Snippet string           `json:"Snippet"`
}

// Messages lists the captured messages, newest first.
func (c *MailpitContainer) Messages(ctx context.Context) ([]MailpitMessage, error) {
	var out struct {
		Messages []MailpitMessage `json:"messages"`
	}
	if err := c.getJSON(ctx, "/api/v1/messages", &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// MessageText returns the plain-text body of message id.
func (c *MailpitContainer) MessageText(ctx context.Context, id string) (string, error) {
	var out struct {
		Text string `json:"Text"`
	}
	if err := c.getJSON(ctx, "/api/v1/message/"+id, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

func (c *MailpitContainer) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+path, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailpit %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailpit %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
