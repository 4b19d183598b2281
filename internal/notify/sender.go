// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/metrics"
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// ErrCircuitOpen is returned while the SMTP breaker rejects sends.
var ErrCircuitOpen = errors.New("notify: smtp circuit open")

// LogSender logs emails instead of sending them. It is used when no SMTP
// host is configured.
type LogSender struct{}

// Send logs the envelope of email.
func (LogSender) Send(ctx context.Context, email Email) error {
	logging.Ctx(ctx).Info().
		Str("audience", string(email.Audience)).
		Str("to", logging.SanitizeEmail(email.To)).
		Str("subject", email.Subject).
		Str("code", email.Code).
		Msg("Email delivery disabled, logged instead")
	return nil
}

// SMTPConfig configures an SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	Timeout  time.Duration

	FromAddress string
	FromName    string

	// SendRate caps sends per second; 0 disables pacing.
	SendRate float64

	// BreakerFailures consecutive failures open the circuit for
	// BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// SMTPSender sends through an SMTP relay behind a circuit breaker and a
// rate limiter.
type SMTPSender struct {
	cfg     SMTPConfig
	cb      *gobreaker.CircuitBreaker[struct{}]
	limiter *rate.Limiter
	now     func() time.Time
}

const smtpBreakerName = "smtp"

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = time.Minute
	}
	if cfg.FromName == "" {
		cfg.FromName = "Tourdesk"
	}

	limit := rate.Inf
	burst := 1
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
		burst = int(cfg.SendRate)
		if burst < 1 {
			burst = 1
		}
	}

	metrics.CircuitBreakerState.WithLabelValues(smtpBreakerName).Set(0)

	failures := cfg.BreakerFailures
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        smtpBreakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Recipient rejections say nothing about relay health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errRecipientRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})

	return &SMTPSender{
		cfg:     cfg,
		cb:      cb,
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// State returns the breaker state name.
func (s *SMTPSender) State() string {
	return s.cb.State().String()
}

// Send delivers email, waiting for the rate limiter first.
func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notify: rate limiter: %w", err)
	}

	_, err := s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.sendSMTP(ctx, email.To, s.buildMessage(email))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return err
}

var errRecipientRejected = errors.New("recipient rejected")

// buildMessage constructs the MIME message with headers.
func (s *SMTPSender) buildMessage(email Email) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", headerValue(s.cfg.FromName), s.cfg.FromAddress))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", headerValue(email.To)))
	if email.ReplyTo != "" {
		msg.WriteString(fmt.Sprintf("Reply-To: %s\r\n", headerValue(email.ReplyTo)))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", headerValue(email.Subject)))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", s.now().Format(time.RFC1123Z)))
	msg.WriteString(fmt.Sprintf("Message-ID: <%s@%s>\r\n", messageID(email), s.cfg.Host))
	if email.Code != "" {
		msg.WriteString(fmt.Sprintf("X-Tourdesk-Reference: %s\r\n", headerValue(email.Code)))
	}
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTML != "" && email.Text != "" {
		boundary := "tourdesk-" + strings.ReplaceAll(uuid.NewString(), "-", "")
		msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("Content-Transfer-Encoding: 8bit\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(crlf(email.Text))
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("Content-Transfer-Encoding: 8bit\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(crlf(email.HTML))
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(crlf(email.Text))
	}

	return msg.String()
}

// sendSMTP sends msg to one recipient.
func (s *SMTPSender) sendSMTP(ctx context.Context, to, msg string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(s.now().Add(s.cfg.Timeout))

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if s.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: s.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(s.cfg.FromAddress); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("%w: %s: %w", errRecipientRejected, logging.SanitizeEmail(to), err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// The message is accepted once DATA closes.
	_ = client.Quit()
	return nil
}

// headerValue strips CR and LF so a submitted value cannot add headers.
func headerValue(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

// crlf normalizes line endings to CRLF.
func crlf(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func messageID(email Email) string {
	if email.ID != "" {
		return email.ID
	}
	return uuid.NewString()
}

// classifyEmailError labels a send error for logs.
func classifyEmailError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrCircuitOpen) {
		return "circuit_open"
	}
	if errors.Is(err, errRecipientRejected) {
		return "recipient_rejected"
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "authentication"):
		return "auth_failed"
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "connect"):
		return "connection_failed"
	case strings.Contains(errStr, "tls"):
		return "tls_failed"
	default:
		return "unknown"
	}
}
