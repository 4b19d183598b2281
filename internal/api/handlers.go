// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package api

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tourdesk/internal/guard"
	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/models"
	"github.com/tomtom215/tourdesk/internal/submission"
)

// Submitter runs the submission pipeline.
type Submitter interface {
	Submit(ctx context.Context, kind models.Kind, clientIP string, body io.Reader) (submission.Receipt, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the API routes.
type Handler struct {
	pipeline  Submitter
	db        Pinger
	startTime time.Time
}

// NewHandler creates a Handler. db may be nil, in which case readiness
// always fails.
func NewHandler(pipeline Submitter, db Pinger) *Handler {
	return &Handler{
		pipeline:  pipeline,
		db:        db,
		startTime: time.Now(),
	}
}

// SubmissionResponse is the data of an accepted submission.
type SubmissionResponse struct {
	Kind             models.Kind    `json:"kind"`
	ID               int64          `json:"id"`
	ConfirmationCode string         `json:"confirmationCode"`
	TotalPrice       json.Number    `json:"totalPrice"`
	Currency         string         `json:"currency,omitempty"`
	ItemName         string         `json:"itemName,omitempty"`
	Items            []ItemResponse `json:"items"`
}

// ItemResponse is one priced line of a SubmissionResponse.
type ItemResponse struct {
	Kind      models.ItemKind `json:"kind"`
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice json.Number     `json:"unitPrice"`
	Currency  string          `json:"currency"`
	Quantity  int             `json:"quantity"`
	Days      int             `json:"days,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Subtotal  json.Number     `json:"subtotal"`
}

func newSubmissionResponse(rec submission.Receipt) SubmissionResponse {
	items := make([]ItemResponse, len(rec.Items))
	for i, it := range rec.Items {
		items[i] = ItemResponse{
			Kind:      it.ItemKind,
			ID:        it.ItemID,
			Name:      it.Name,
			UnitPrice: json.Number(it.UnitPrice.Decimal()),
			Currency:  it.UnitPrice.Currency,
			Quantity:  it.Quantity,
			Days:      it.Days,
			Notes:     it.Notes,
			Subtotal:  json.Number(it.Subtotal().Decimal()),
		}
	}
	return SubmissionResponse{
		Kind:             rec.Kind,
		ID:               rec.ID,
		ConfirmationCode: rec.Code,
		TotalPrice:       json.Number(rec.Total.Decimal()),
		Currency:         rec.Currency,
		ItemName:         rec.ItemName,
		Items:            items,
	}
}

// submit runs one submission kind. The body is passed to the pipeline
// unread so the quota is checked first.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	rw := NewResponseWriter(w, r)
	ctx := guard.ContextWithUserAgent(r.Context(), r.UserAgent())

	rec, err := h.pipeline.Submit(ctx, kind, clientIP(r), r.Body)
	if err != nil {
		writeSubmissionError(rw, r, err)
		return
	}
	rw.Success(newSubmissionResponse(rec))
}

// CreateBooking handles /api/v1/bookings.
//
// @Summary Submit a tour booking
// @Description Books a package or a single destination. The total is priced from the catalog; client price fields are ignored. Returns the BK confirmation code.
// @Description The hidden "website" field must be sent empty.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param request body models.BookingRequest true "Booking request"
// @Success 200 {object} APIResponse{data=SubmissionResponse} "Submission accepted"
// @Failure 400 {object} APIResponse{error=APIError} "Malformed body, honeypot trip or validation failure"
// @Failure 404 {object} APIResponse{error=APIError} "Package or destination missing or inactive"
// @Failure 429 {object} APIResponse{error=APIError} "Rate limited"
// @Failure 500 {object} APIResponse{error=APIError} "Internal error"
// @Router /api/v1/bookings [post]
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, models.KindBooking)
}

// CreateQuote handles /api/v1/quotes.
//
// @Summary Request a quote
// @Description Asks for a quote on a catalog package, optionally with a custom itinerary. The estimate is priced from the package price per person.
// @Description The hidden "website" field must be sent empty.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param request body models.QuoteRequest true "Quote request"
// @Success 200 {object} APIResponse{data=SubmissionResponse} "Submission accepted"
// @Failure 400 {object} APIResponse{error=APIError} "Malformed body, honeypot trip or validation failure"
// @Failure 404 {object} APIResponse{error=APIError} "Package or destination missing or inactive"
// @Failure 429 {object} APIResponse{error=APIError} "Rate limited"
// @Failure 500 {object} APIResponse{error=APIError} "Internal error"
// @Router /api/v1/quotes [post]
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, models.KindQuote)
}

// CreateContact handles /api/v1/contact.
//
// @Summary Send a contact message
// @Description Delivers a message to the reservations team. Nothing is priced.
// @Description The hidden "website" field must be sent empty.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param request body models.ContactMessage true "Contact message"
// @Success 200 {object} APIResponse{data=SubmissionResponse} "Submission accepted"
// @Failure 400 {object} APIResponse{error=APIError} "Malformed body, honeypot trip or validation failure"
// @Failure 404 {object} APIResponse{error=APIError} "Package or destination missing or inactive"
// @Failure 429 {object} APIResponse{error=APIError} "Rate limited"
// @Failure 500 {object} APIResponse{error=APIError} "Internal error"
// @Router /api/v1/contact [post]
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, models.KindContact)
}

// CreateBundle handles /api/v1/bundles.
//
// @Summary Request a package bundle
// @Description Requests up to five packages together. Every package must exist and be active.
// @Description The hidden "website" field must be sent empty.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param request body models.PackageBundleRequest true "Bundle request"
// @Success 200 {object} APIResponse{data=SubmissionResponse} "Submission accepted"
// @Failure 400 {object} APIResponse{error=APIError} "Malformed body, honeypot trip or validation failure"
// @Failure 404 {object} APIResponse{error=APIError} "Package or destination missing or inactive"
// @Failure 429 {object} APIResponse{error=APIError} "Rate limited"
// @Failure 500 {object} APIResponse{error=APIError} "Internal error"
// @Router /api/v1/bundles [post]
func (h *Handler) CreateBundle(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, models.KindBundle)
}

// CreateCustomPackage handles /api/v1/custom-packages.
//
// @Summary Request a custom package
// @Description Requests a multi-destination trip priced per destination and traveler.
// @Description The hidden "website" field must be sent empty.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param request body models.CustomPackageRequest true "Custom package request"
// @Success 200 {object} APIResponse{data=SubmissionResponse} "Submission accepted"
// @Failure 400 {object} APIResponse{error=APIError} "Malformed body, honeypot trip or validation failure"
// @Failure 404 {object} APIResponse{error=APIError} "Package or destination missing or inactive"
// @Failure 429 {object} APIResponse{error=APIError} "Rate limited"
// @Failure 500 {object} APIResponse{error=APIError} "Internal error"
// @Router /api/v1/custom-packages [post]
func (h *Handler) CreateCustomPackage(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, models.KindCustom)
}

// writeSubmissionError maps a pipeline error class to its response.
func writeSubmissionError(rw *ResponseWriter, r *http.Request, err error) {
	var se *submission.Error
	if !errors.As(err, &se) {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Unclassified submission error")
		rw.InternalError()
		return
	}

	switch se.Class {
	case submission.ClassRateLimited:
		setQuotaHeaders(rw.Header(), se.Quota)
		rw.TooManyRequests()
	case submission.ClassBotDetected, submission.ClassMalformed:
		rw.BadRequest()
	case submission.ClassValidationFailed:
		rw.ValidationError(se.Fields.First(), se.Fields.Fields())
	case submission.ClassItemNotFound, submission.ClassItemUnavailable:
		rw.NotFound(MsgNotAvailable)
	default:
		rw.InternalError()
	}
}

func setQuotaHeaders(h http.Header, d guard.Decision) {
	retry := int(math.Ceil(d.RetryAfter.Seconds()))
	if retry < 1 {
		retry = 1
	}
	h.Set("Retry-After", strconv.Itoa(retry))
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}
