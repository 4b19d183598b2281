// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package submission runs the trusted submission pipeline.
//
// Submit takes an untrusted request body through these steps, in order:
//
//  1. per-IP quota (guard.Allow), before the body is read
//  2. bounded read and JSON decode into a field map
//  3. honeypot check on the raw fields
//  4. sanitization of every string field
//  5. JSON type check per field, typed decode, normalization and validation
//  6. authoritative pricing from the catalog
//  7. one transactional insert with a unique confirmation code
//  8. detached notification dispatch
//
// The first failing step returns an *Error and nothing after it runs. Once
// the quota is consumed the caller's cancellation no longer aborts the
// submission.
package submission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tourdesk/internal/guard"
	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/metrics"
	"github.com/tomtom215/tourdesk/internal/models"
	"github.com/tomtom215/tourdesk/internal/notify"
	"github.com/tomtom215/tourdesk/internal/pricing"
	"github.com/tomtom215/tourdesk/internal/sanitize"
	"github.com/tomtom215/tourdesk/internal/validation"
)

// DefaultMaxBodyBytes caps a submission body.
const DefaultMaxBodyBytes int64 = 64 << 10

// FieldPolicy lists the rich-text fields. Every other string is stripped
// of all markup.
var FieldPolicy = sanitize.Policy{
	"specialRequests": sanitize.Permissive,
	"message":         sanitize.Permissive,
	"notes":           sanitize.Permissive,
}

// Guard is the abuse guard as the pipeline uses it.
type Guard interface {
	Allow(ctx context.Context, ip string, class models.Kind) (guard.Decision, error)
	CheckHoneypot(ctx context.Context, fields map[string]any, ip string, class models.Kind) error
}

// Pricer computes authoritative totals.
type Pricer interface {
	Resolve(ctx context.Context, req models.Request) (pricing.Quote, error)
}

// Store persists accepted submissions.
type Store interface {
	InsertBooking(ctx context.Context, b *models.Booking) error
	InsertSubmission(ctx context.Context, s *models.Submission) error
}

// Notifier receives a Notice for every stored submission. Dispatch must
// not block.
type Notifier interface {
	Dispatch(ctx context.Context, n notify.Notice)
}

// Deps are the pipeline collaborators. Notifier may be nil.
type Deps struct {
	Guard     Guard
	Sanitizer *sanitize.Sanitizer
	Validator *validation.Validator
	Pricer    Pricer
	Store     Store
	Notifier  Notifier
}

// Receipt is returned for an accepted submission.
type Receipt struct {
	Kind     models.Kind
	ID       int64
	Code     string
	Total    models.Money
	Currency string
	ItemName string
	Items    []models.PricedItem
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	deps    Deps
	maxBody int64
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithMaxBodyBytes replaces DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxBody = n
		}
	}
}

// New creates a Pipeline. Nil Sanitizer and Validator use the defaults.
func New(deps Deps, opts ...Option) *Pipeline {
	if deps.Sanitizer == nil {
		deps.Sanitizer = sanitize.New()
	}
	if deps.Validator == nil {
		deps.Validator = validation.Default()
	}
	p := &Pipeline{deps: deps, maxBody: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit runs body through the pipeline for kind on behalf of clientIP.
func (p *Pipeline) Submit(ctx context.Context, kind models.Kind, clientIP string, body io.Reader) (rec Receipt, err error) {
	start := time.Now()
	defer func() {
		outcome := "accepted"
		if err != nil {
			outcome = string(ClassOf(err))
		}
		metrics.RecordSubmission(string(kind), outcome, time.Since(start))
	}()

	if !kind.Valid() {
		return Receipt{}, fail(ClassInternal, fmt.Errorf("%w: %q", ErrUnknownKind, kind))
	}

	decision, err := p.deps.Guard.Allow(ctx, clientIP, kind)
	if err != nil {
		if errors.Is(err, guard.ErrRateLimited) {
			return Receipt{}, &Error{Class: ClassRateLimited, Err: err, Quota: decision}
		}
		return Receipt{}, fail(ClassInternal, err)
	}

	// Past the quota the submission runs to completion.
	ctx = context.WithoutCancel(ctx)
	log := logging.Ctx(ctx).With().Str("kind", string(kind)).Logger()

	fields, err := p.decode(body)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected malformed submission")
		return Receipt{}, fail(ClassMalformed, err)
	}

	if err := p.deps.Guard.CheckHoneypot(ctx, fields, clientIP, kind); err != nil {
		return Receipt{}, fail(ClassBotDetected, err)
	}

	clean := p.deps.Sanitizer.Map(fields, FieldPolicy)
	if errs := validation.CheckTypes(models.NewRequest(kind), clean); errs != nil {
		log.Debug().Str("field", errs.FirstField()).Msg("Submission has mistyped fields")
		return Receipt{}, &Error{Class: ClassValidationFailed, Err: errs, Fields: errs}
	}

	req, err := p.typed(kind, clean)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected submission with mistyped fields")
		return Receipt{}, fail(ClassMalformed, err)
	}

	if errs := p.deps.Validator.Validate(req); errs != nil {
		log.Debug().Str("field", errs.FirstField()).Msg("Submission failed validation")
		return Receipt{}, &Error{Class: ClassValidationFailed, Err: errs, Fields: errs}
	}

	quote, err := p.deps.Pricer.Resolve(ctx, req)
	switch {
	case errors.Is(err, pricing.ErrItemNotFound):
		return Receipt{}, fail(ClassItemNotFound, err)
	case errors.Is(err, pricing.ErrItemUnavailable):
		return Receipt{}, fail(ClassItemUnavailable, err)
	case err != nil:
		log.Error().Err(err).Msg("Catalog lookup failed")
		return Receipt{}, fail(ClassPersistenceFailure, err)
	}

	rec, notice, err := p.store(ctx, req, quote)
	if err != nil {
		log.Error().Err(err).Msg("Failed to store submission")
		return Receipt{}, fail(ClassPersistenceFailure, err)
	}

	log.Info().
		Str("code", rec.Code).
		Int64("id", rec.ID).
		Str("total", rec.Total.Decimal()).
		Str("currency", rec.Currency).
		Msg("Submission accepted")

	if p.deps.Notifier != nil {
		p.deps.Notifier.Dispatch(ctx, notice)
	}
	return rec, nil
}

// decode reads at most maxBody bytes and decodes a single JSON object.
// Numbers are kept as json.Number so integers survive the round trip.
func (p *Pipeline) decode(body io.Reader) (map[string]any, error) {
	if body == nil {
		return nil, ErrNotObject
	}
	raw, err := io.ReadAll(io.LimitReader(body, p.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > p.maxBody {
		return nil, ErrBodyTooLarge
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if fields == nil {
		return nil, ErrNotObject
	}
	if dec.More() {
		return nil, errors.New("decode body: trailing data after object")
	}
	return fields, nil
}

// typed re-encodes the sanitized fields into the request type of kind.
func (p *Pipeline) typed(kind models.Kind, fields map[string]any) (models.Request, error) {
	req := models.NewRequest(kind)
	if req == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	clean, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode sanitized fields: %w", err)
	}
	if err := json.Unmarshal(clean, req); err != nil {
		return nil, fmt.Errorf("decode %s request: %w", kind, err)
	}
	return req, nil
}

func (p *Pipeline) store(ctx context.Context, req models.Request, q pricing.Quote) (Receipt, notify.Notice, error) {
	if b, ok := req.(*models.BookingRequest); ok {
		booking, err := bookingRecord(b, q)
		if err != nil {
			return Receipt{}, notify.Notice{}, err
		}
		if err := p.deps.Store.InsertBooking(ctx, booking); err != nil {
			return Receipt{}, notify.Notice{}, err
		}
		rec := receipt(models.KindBooking, booking.ID, booking.ConfirmationNumber, q)
		return rec, bookingNotice(b, booking, q), nil
	}

	sub, err := submissionRecord(req, q)
	if err != nil {
		return Receipt{}, notify.Notice{}, err
	}
	if err := p.deps.Store.InsertSubmission(ctx, sub); err != nil {
		return Receipt{}, notify.Notice{}, err
	}
	rec := receipt(sub.Kind, sub.ID, sub.ReferenceCode, q)
	return rec, submissionNotice(req, sub, q), nil
}

func receipt(kind models.Kind, id int64, code string, q pricing.Quote) Receipt {
	return Receipt{
		Kind:     kind,
		ID:       id,
		Code:     code,
		Total:    q.Total,
		Currency: q.Total.Currency,
		ItemName: q.ItemName,
		Items:    q.Items,
	}
}
