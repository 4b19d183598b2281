// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tourdesk/internal/config"
	"github.com/tomtom215/tourdesk/internal/database"
	"github.com/tomtom215/tourdesk/internal/guard"
	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/models"
	"github.com/tomtom215/tourdesk/internal/notify"
	"github.com/tomtom215/tourdesk/internal/pricing"
	"github.com/tomtom215/tourdesk/internal/submission"
	"github.com/tomtom215/tourdesk/internal/validation"
)

var codePattern = regexp.MustCompile(`^BK-[0-9A-HJKMNP-TV-Z]{8}-[0-9A-HJKMNP-TV-Z]$`)

type noticeRecorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *noticeRecorder) Dispatch(_ context.Context, n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

type stack struct {
	handler http.Handler
	db      *database.DB
	notices *noticeRecorder
}

func newStack(t *testing.T, bookingLimit int) *stack {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	usd := func(a int64) models.Money { return models.Money{Amount: a, Currency: "USD"} }
	for _, p := range []models.CatalogItem{
		{ID: 5, Kind: models.ItemPackage, Slug: "serengeti-safari", Name: "Serengeti Safari", Price: usd(20000), Active: true},
		{ID: 7, Kind: models.ItemPackage, Slug: "retired-tour", Name: "Retired Tour", Price: usd(9900), Active: false},
	} {
		if err := db.UpsertPackage(ctx, p); err != nil {
			t.Fatalf("UpsertPackage: %v", err)
		}
	}

	limits := map[models.Kind]guard.Limit{}
	for _, k := range models.Kinds {
		limits[k] = guard.Limit{Requests: 100, Window: time.Hour}
	}
	limits[models.KindBooking] = guard.Limit{Requests: bookingLimit, Window: time.Hour}
	audit := logging.NewAbuseLoggerWithLogger(logging.NewTestLogger(io.Discard))

	notices := &noticeRecorder{}
	pipeline := submission.New(submission.Deps{
		Guard:     guard.New(guard.NewMemoryStore(), guard.Config{Limits: limits}, guard.WithAbuseLogger(audit)),
		Validator: validation.New(validation.WithClock(clock)),
		Pricer:    pricing.NewResolver(db),
		Store:     db,
		Notifier:  notices,
	})
	return &stack{
		handler: NewRouter(NewHandler(pipeline, db), RouterConfig{}),
		db:      db,
		notices: notices,
	}
}

const fullBooking = `{
	"firstName": "John",
	"lastName": "Doe",
	"email": "john@example.com",
	"phone": "0700123456",
	"bookingType": "package",
	"packageId": %d,
	"numberOfTravelers": 4,
	"travelDateFrom": "2026-03-02",
	"travelDateTo": "2026-03-07",
	"pricePerPerson": 1,
	"totalPrice": 4,
	"specialRequests": "<script>alert(1)</script>Vegetarian meals"
}`

func bookingJSON(packageID int) string {
	return fmt.Sprintf(fullBooking, packageID)
}

func TestServer_BookingEndToEnd(t *testing.T) {
	t.Parallel()
	s := newStack(t, 100)

	rec := post(s.handler, "/api/v1/bookings", bookingJSON(5))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data SubmissionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.TotalPrice.String() != "800.00" || resp.Data.Currency != "USD" {
		t.Errorf("total = %s %s, want 800.00 USD", resp.Data.TotalPrice, resp.Data.Currency)
	}
	if !codePattern.MatchString(resp.Data.ConfirmationCode) || !database.ValidCode(resp.Data.ConfirmationCode) {
		t.Errorf("confirmation code %q is not well formed", resp.Data.ConfirmationCode)
	}

	stored, err := s.db.BookingByCode(context.Background(), resp.Data.ConfirmationCode)
	if err != nil {
		t.Fatalf("BookingByCode: %v", err)
	}
	if stored.TotalPrice.Amount != 80000 || stored.PricePerPerson.Amount != 20000 {
		t.Errorf("stored prices = %v / %v", stored.PricePerPerson, stored.TotalPrice)
	}
	if stored.SpecialRequests != "Vegetarian meals" {
		t.Errorf("stored special requests = %q", stored.SpecialRequests)
	}

	s.notices.mu.Lock()
	defer s.notices.mu.Unlock()
	if len(s.notices.notices) != 1 || s.notices.notices[0].Code != resp.Data.ConfirmationCode {
		t.Errorf("notices = %+v", s.notices.notices)
	}
}

func TestServer_RejectionsWriteNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"inactive package", "/api/v1/bookings", bookingJSON(7), http.StatusNotFound},
		{"unknown package", "/api/v1/bookings", bookingJSON(99), http.StatusNotFound},
		{"honeypot", "/api/v1/contact", `{"name":"Bot","email":"bot@example.com","subject":"Hi","message":"buy cheap watches now","website":"x"}`, http.StatusBadRequest},
		{"malformed", "/api/v1/contact", `{"name":`, http.StatusBadRequest},
		{"invalid", "/api/v1/contact", `{"name":"Ann","email":"not-an-email","subject":"Hi","message":"short"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newStack(t, 100)

			rec := post(s.handler, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.status, rec.Body.String())
			}
			counts, err := s.db.CountRecords(context.Background())
			if err != nil {
				t.Fatalf("CountRecords: %v", err)
			}
			if counts.Bookings != 0 || counts.Submissions != 0 {
				t.Errorf("counts = %+v, want nothing stored", counts)
			}
		})
	}
}

func TestServer_ForwardedForDoesNotResetQuota(t *testing.T) {
	t.Parallel()
	s := newStack(t, 1)

	var accepted, limited int
	for i := 1; i <= 5; i++ {
		rec := postFrom(s.handler, "203.0.113.50:4444", "/api/v1/bookings", bookingJSON(5),
			"X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i),
			"X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		switch rec.Code {
		case http.StatusOK:
			accepted++
		case http.StatusTooManyRequests:
			limited++
		default:
			t.Fatalf("request %d status = %d; body %s", i, rec.Code, rec.Body.String())
		}
	}
	if accepted != 1 || limited != 4 {
		t.Errorf("accepted = %d, limited = %d, want 1 and 4", accepted, limited)
	}
	counts, err := s.db.CountRecords(context.Background())
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if counts.Bookings != 1 {
		t.Errorf("stored %d bookings, want 1", counts.Bookings)
	}
}

func TestServer_BotAndMalformedLookAlike(t *testing.T) {
	t.Parallel()
	s := newStack(t, 100)

	bot := post(s.handler, "/api/v1/contact", `{"website":"http://spam.example","name":"x"}`)
	bad := post(s.handler, "/api/v1/contact", `[1,2,3]`)
	if bot.Code != bad.Code {
		t.Fatalf("status %d vs %d", bot.Code, bad.Code)
	}
	be, me := decodeResponse(t, bot).Error, decodeResponse(t, bad).Error
	if be.Code != me.Code || be.Message != me.Message {
		t.Errorf("bot error %+v differs from malformed error %+v", be, me)
	}
}

func TestServer_BookingQuota(t *testing.T) {
	t.Parallel()
	s := newStack(t, 1)

	if rec := post(s.handler, "/api/v1/bookings", bookingJSON(5)); rec.Code != http.StatusOK {
		t.Fatalf("first booking status = %d: %s", rec.Code, rec.Body.String())
	}
	rec := post(s.handler, "/api/v1/bookings", bookingJSON(5))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second booking status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
	counts, err := s.db.CountRecords(context.Background())
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if counts.Bookings != 1 {
		t.Errorf("bookings = %d, want 1", counts.Bookings)
	}

	// Quotas are per class.
	contact := `{"name":"Ann Lee","email":"ann@example.com","subject":"Visa","message":"Do I need a visa for Kenya?"}`
	if rec := post(s.handler, "/api/v1/contact", contact); rec.Code != http.StatusOK {
		t.Errorf("contact after booking quota status = %d: %s", rec.Code, rec.Body.String())
	}
}
