// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tourdesk/internal/guard"
	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/models"
	"github.com/tomtom215/tourdesk/internal/notify"
	"github.com/tomtom215/tourdesk/internal/pricing"
	"github.com/tomtom215/tourdesk/internal/validation"
)

var clock = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

const clientIP = "203.0.113.7"

type fakeCatalog struct {
	mu       sync.Mutex
	packages map[int64]models.CatalogItem
	dests    map[int64]models.CatalogItem
	calls    int
	err      error
	onLookup func()
}

func newFakeCatalog() *fakeCatalog {
	usd := func(a int64) models.Money { return models.Money{Amount: a, Currency: "USD"} }
	return &fakeCatalog{
		packages: map[int64]models.CatalogItem{
			5: {ID: 5, Kind: models.ItemPackage, Slug: "serengeti-safari", Name: "Serengeti Safari", Price: usd(20000), Active: true},
			6: {ID: 6, Kind: models.ItemPackage, Slug: "zanzibar-beach", Name: "Zanzibar Beach", Price: usd(15050), Active: true},
			7: {ID: 7, Kind: models.ItemPackage, Slug: "retired-tour", Name: "Retired Tour", Price: usd(9900), Active: false},
		},
		dests: map[int64]models.CatalogItem{
			3: {ID: 3, Kind: models.ItemDestination, Slug: "ngorongoro", Name: "Ngorongoro", Price: usd(12500), Active: true},
			4: {ID: 4, Kind: models.ItemDestination, Slug: "tarangire", Name: "Tarangire", Price: usd(8000), Active: true},
		},
	}
}

func (c *fakeCatalog) get(items map[int64]models.CatalogItem, id int64) (models.CatalogItem, error) {
	c.mu.Lock()
	c.calls++
	hook := c.onLookup
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	if c.err != nil {
		return models.CatalogItem{}, c.err
	}
	item, ok := items[id]
	if !ok {
		return models.CatalogItem{}, pricing.ErrNotFound
	}
	return item, nil
}

func (c *fakeCatalog) Package(_ context.Context, id int64) (models.CatalogItem, error) {
	return c.get(c.packages, id)
}

func (c *fakeCatalog) Destination(_ context.Context, id int64) (models.CatalogItem, error) {
	return c.get(c.dests, id)
}

func (c *fakeCatalog) PackageBySlug(_ context.Context, slug string) (models.CatalogItem, error) {
	for id, p := range c.packages {
		if p.Slug == slug {
			return c.get(c.packages, id)
		}
	}
	return c.get(nil, 0)
}

func (c *fakeCatalog) lookups() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeStore struct {
	mu          sync.Mutex
	bookings    []*models.Booking
	submissions []*models.Submission
	ctxErrs     []error
	err         error
}

func (s *fakeStore) InsertBooking(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	if s.err != nil {
		return s.err
	}
	b.ID = int64(len(s.bookings) + 1)
	b.ConfirmationNumber = fmt.Sprintf("BK-TEST%04d-X", b.ID)
	b.CreatedAt = clock()
	s.bookings = append(s.bookings, b)
	return nil
}

func (s *fakeStore) InsertSubmission(ctx context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	if s.err != nil {
		return s.err
	}
	sub.ID = int64(len(s.submissions) + 1)
	sub.ReferenceCode = fmt.Sprintf("%s-TEST%04d-X", sub.Kind.CodePrefix(), sub.ID)
	sub.CreatedAt = clock()
	s.submissions = append(s.submissions, sub)
	return nil
}

func (s *fakeStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings) + len(s.submissions)
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (n *fakeNotifier) Dispatch(_ context.Context, notice notify.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

type harness struct {
	pipeline *Pipeline
	catalog  *fakeCatalog
	store    *fakeStore
	notifier *fakeNotifier
}

func newHarness(t *testing.T, limits map[models.Kind]guard.Limit, opts ...Option) *harness {
	t.Helper()
	if limits == nil {
		limits = map[models.Kind]guard.Limit{}
		for _, k := range models.Kinds {
			limits[k] = guard.Limit{Requests: 100, Window: time.Hour}
		}
	}
	audit := logging.NewAbuseLoggerWithLogger(logging.NewTestLogger(io.Discard))
	g := guard.New(guard.NewMemoryStore(), guard.Config{Limits: limits}, guard.WithAbuseLogger(audit))

	h := &harness{catalog: newFakeCatalog(), store: &fakeStore{}, notifier: &fakeNotifier{}}
	h.pipeline = New(Deps{
		Guard:     g,
		Validator: validation.New(validation.WithClock(clock)),
		Pricer:    pricing.NewResolver(h.catalog),
		Store:     h.store,
		Notifier:  h.notifier,
	}, opts...)
	return h
}

func (h *harness) submit(kind models.Kind, body string) (Receipt, error) {
	return h.pipeline.Submit(context.Background(), kind, clientIP, strings.NewReader(body))
}

const bookingBody = `{
	"firstName": "  John ",
	"lastName": "Doe",
	"email": "  John.Doe@Example.COM ",
	"phone": "0700123456",
	"country": "Kenya",
	"bookingType": "package",
	"packageId": 5,
	"numberOfTravelers": 4,
	"travelDateFrom": "2026-03-02",
	"travelDateTo": "2026-03-07",
	"pricePerPerson": 1,
	"totalPrice": 4,
	"website": ""
}`

func assertClass(t *testing.T, err error, want Class) *Error {
	t.Helper()
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if se.Class != want {
		t.Fatalf("class = %s, want %s (err: %v)", se.Class, want, err)
	}
	return se
}

func TestSubmit_Booking(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	rec, err := h.submit(models.KindBooking, bookingBody)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.Total.Amount != 80000 || rec.Currency != "USD" {
		t.Errorf("total = %v, want 800.00 USD", rec.Total)
	}
	if rec.Code != "BK-TEST0001-X" || rec.Kind != models.KindBooking || rec.ItemName != "Serengeti Safari" {
		t.Errorf("receipt = %+v", rec)
	}

	if len(h.store.bookings) != 1 {
		t.Fatalf("stored %d bookings", len(h.store.bookings))
	}
	b := h.store.bookings[0]
	if b.Email != "john.doe@example.com" || b.FirstName != "John" {
		t.Errorf("booking not normalized: email %q, first name %q", b.Email, b.FirstName)
	}
	if b.PricePerPerson.Amount != 20000 || b.TotalPrice.Amount != 80000 {
		t.Errorf("booking prices = %v / %v, want catalog prices", b.PricePerPerson, b.TotalPrice)
	}
	if b.PackageID == nil || *b.PackageID != 5 || b.DestinationID != nil {
		t.Errorf("booking item ids = %v / %v", b.PackageID, b.DestinationID)
	}
	if b.BookingType != models.BookingTypePackage {
		t.Errorf("booking type = %q", b.BookingType)
	}
	if got := b.TravelDateTo.Sub(b.TravelDateFrom); got != 5*24*time.Hour {
		t.Errorf("travel span = %v", got)
	}

	if h.notifier.count() != 1 {
		t.Fatalf("dispatched %d notices", h.notifier.count())
	}
	n := h.notifier.notices[0]
	if n.Code != rec.Code || n.Name != "John Doe" || n.Total.Amount != 80000 {
		t.Errorf("notice = %+v", n)
	}
}

func TestSubmit_DestinationBooking(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	body := strings.NewReplacer(`"package",`, `"DESTINATION",`, `"packageId": 5`, `"destinationId": 4`).Replace(bookingBody)
	rec, err := h.submit(models.KindBooking, body)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.Total.Amount != 32000 {
		t.Errorf("total = %v, want 320.00 USD", rec.Total)
	}
	b := h.store.bookings[0]
	if b.DestinationID == nil || *b.DestinationID != 4 || b.PackageID != nil {
		t.Errorf("booking item ids = %v / %v", b.PackageID, b.DestinationID)
	}
}

func TestSubmit_OtherKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		kind      models.Kind
		body      string
		wantTotal int64
		wantItems int
		wantCode  string
	}{
		{
			name:      "quote",
			kind:      models.KindQuote,
			body:      `{"packageName":"Serengeti Safari","packageSlug":"serengeti-safari","numberOfPeople":3,"name":"Ann Lee","email":"ann@example.com","phone":"","destinations":[{"name":"Serengeti","days":3}]}`,
			wantTotal: 60000,
			wantItems: 1,
			wantCode:  "QT-TEST0001-X",
		},
		{
			name:      "contact",
			kind:      models.KindContact,
			body:      `{"name":"Ann Lee","email":"ann@example.com","subject":"Visa","message":"Do I need a visa for Tanzania?"}`,
			wantTotal: 0,
			wantItems: 0,
			wantCode:  "CT-TEST0001-X",
		},
		{
			name:      "bundle",
			kind:      models.KindBundle,
			body:      `{"email":"ann@example.com","packages":[{"packageId":5},{"packageId":6,"notes":"sea view"}],"numberOfPeople":2}`,
			wantTotal: 70100,
			wantItems: 2,
			wantCode:  "BN-TEST0001-X",
		},
		{
			name:      "custom",
			kind:      models.KindCustom,
			body:      `{"name":"Amani Njeri","email":"amani@example.com","phone":"+254 700 123 456","destinations":[{"destinationId":3,"days":4},{"destinationId":4,"days":2}],"numberOfTravelers":2,"travelDateFrom":"2026-04-01","travelDateTo":"2026-04-10"}`,
			wantTotal: 41000,
			wantItems: 2,
			wantCode:  "CP-TEST0001-X",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, nil)

			rec, err := h.submit(tt.kind, tt.body)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if rec.Total.Amount != tt.wantTotal || len(rec.Items) != tt.wantItems || rec.Code != tt.wantCode {
				t.Errorf("receipt = %+v", rec)
			}
			if len(h.store.submissions) != 1 {
				t.Fatalf("stored %d submissions", len(h.store.submissions))
			}
			sub := h.store.submissions[0]
			if sub.Kind != tt.kind || len(sub.Items) != tt.wantItems {
				t.Errorf("submission = %+v", sub)
			}
			var payload map[string]any
			if err := json.Unmarshal(sub.Payload, &payload); err != nil {
				t.Errorf("payload is not JSON: %v", err)
			}
			if h.notifier.count() != 1 || h.notifier.notices[0].Kind != tt.kind {
				t.Errorf("notices = %+v", h.notifier.notices)
			}
		})
	}
}

func TestSubmit_PricingFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind models.Kind
		body string
		want Class
	}{
		{"inactive package", models.KindBooking, strings.Replace(bookingBody, `"packageId": 5`, `"packageId": 7`, 1), ClassItemUnavailable},
		{"missing package", models.KindBooking, strings.Replace(bookingBody, `"packageId": 5`, `"packageId": 99`, 1), ClassItemNotFound},
		{"bundle with one missing package", models.KindBundle, `{"email":"ann@example.com","packages":[{"packageId":5},{"packageId":99}],"numberOfPeople":2}`, ClassItemNotFound},
		{"unknown slug", models.KindQuote, `{"packageName":"X","packageSlug":"no-such-tour","numberOfPeople":1,"name":"Ann","email":"ann@example.com"}`, ClassItemNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, nil)

			_, err := h.submit(tt.kind, tt.body)
			assertClass(t, err, tt.want)
			if h.store.writes() != 0 || h.notifier.count() != 0 {
				t.Errorf("side effects after pricing failure: %d writes, %d notices", h.store.writes(), h.notifier.count())
			}
		})
	}
}

func TestSubmit_ValidationFailures(t *testing.T) {
	t.Parallel()

	var sixPackages []string
	for i := 1; i <= 6; i++ {
		sixPackages = append(sixPackages, fmt.Sprintf(`{"packageId":%d}`, i))
	}

	tests := []struct {
		name      string
		kind      models.Kind
		body      string
		wantField string
		wantFirst string
	}{
		{
			name:      "contact message too short",
			kind:      models.KindContact,
			body:      `{"name":"Ann Lee","email":"ann@example.com","subject":"Hi","message":"123456789"}`,
			wantField: "message",
			wantFirst: "message must be at least 10 characters",
		},
		{
			name:      "six bundle packages",
			kind:      models.KindBundle,
			body:      `{"email":"ann@example.com","packages":[` + strings.Join(sixPackages, ",") + `],"numberOfPeople":2}`,
			wantField: "packages",
			wantFirst: "packages must contain at most 5 items",
		},
		{
			name:      "markup only name",
			kind:      models.KindContact,
			body:      `{"name":"<b></b>","email":"ann@example.com","subject":"Hi","message":"Hello there, team"}`,
			wantField: "name",
			wantFirst: "name is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, nil)

			_, err := h.submit(tt.kind, tt.body)
			se := assertClass(t, err, ClassValidationFailed)
			if se.Fields == nil || se.Fields.FirstField() != tt.wantField || se.Fields.First() != tt.wantFirst {
				t.Errorf("fields = %v, want %s: %q", se.Fields, tt.wantField, tt.wantFirst)
			}
			if h.catalog.lookups() != 0 || h.store.writes() != 0 {
				t.Errorf("downstream work after validation failure")
			}
		})
	}
}

func TestSubmit_Honeypot(t *testing.T) {
	t.Parallel()

	for _, value := range []string{`"http://spam.example"`, `" "`, `42`, `{"a":1}`} {
		t.Run(value, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, nil)

			// The message would also fail validation; the honeypot wins.
			body := `{"name":"Ann Lee","email":"ann@example.com","subject":"Hi","message":"short","website":` + value + `}`
			_, err := h.submit(models.KindContact, body)
			se := assertClass(t, err, ClassBotDetected)
			if se.Fields != nil {
				t.Errorf("honeypot error carries fields: %v", se.Fields)
			}
			if !errors.Is(err, guard.ErrBotDetected) {
				t.Errorf("err = %v, want ErrBotDetected", err)
			}
			if h.store.writes() != 0 || h.notifier.count() != 0 {
				t.Error("side effects after honeypot trip")
			}
		})
	}
}

func TestSubmit_Malformed(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, WithMaxBodyBytes(256))

	tests := []struct {
		name string
		body string
	}{
		{"empty", ``},
		{"truncated", `{"name":`},
		{"array", `[1,2]`},
		{"null", `null`},
		{"trailing object", `{} {}`},
		{"too large", `{"message":"` + strings.Repeat("a", 300) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.submit(models.KindContact, tt.body)
			se := assertClass(t, err, ClassMalformed)
			if se.Fields != nil {
				t.Errorf("malformed error carries fields")
			}
		})
	}
	if h.store.writes() != 0 {
		t.Errorf("stored %d records from malformed bodies", h.store.writes())
	}

	_, err := h.submit(models.KindContact, `{"message":"`+strings.Repeat("a", 300)+`"}`)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("err = %v, want ErrBodyTooLarge", err)
	}
}

func TestSubmit_MistypedFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		kind      models.Kind
		body      string
		wantField string
		wantFirst string
	}{
		{"quoted count", models.KindCustom,
			`{"name":"Ann Lee","email":"ann@example.com","phone":"0700123456","numberOfTravelers":"4","destinations":[{"destinationId":3,"days":2}],"travelDateFrom":"2026-03-02","travelDateTo":"2026-03-07"}`,
			"numberOfTravelers", "numberOfTravelers must be a whole number"},
		{"fractional count", models.KindCustom,
			`{"name":"Ann Lee","email":"ann@example.com","phone":"0700123456","numberOfTravelers":4.5,"destinations":[{"destinationId":3,"days":2}],"travelDateFrom":"2026-03-02","travelDateTo":"2026-03-07"}`,
			"numberOfTravelers", "numberOfTravelers must be a whole number"},
		{"object for text", models.KindContact,
			`{"name":"Ann Lee","email":"ann@example.com","subject":"Hi","message":{"nested":true}}`,
			"message", "message must be text"},
		{"nested element", models.KindBundle,
			`{"email":"ann@example.com","numberOfPeople":2,"packages":[{"packageId":5},{"packageId":"6"}]}`,
			"packages[1].packageId", "packageId must be a whole number"},
		{"object for list", models.KindBundle,
			`{"email":"ann@example.com","numberOfPeople":2,"packages":{"packageId":5}}`,
			"packages", "packages must be a list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, nil)

			_, err := h.submit(tt.kind, tt.body)
			se := assertClass(t, err, ClassValidationFailed)
			if se.Fields.FirstField() != tt.wantField || se.Fields.First() != tt.wantFirst {
				t.Errorf("first error = %s: %q, want %s: %q", se.Fields.FirstField(), se.Fields.First(), tt.wantField, tt.wantFirst)
			}
			if h.catalog.lookups() != 0 || h.store.writes() != 0 {
				t.Error("downstream work after type mismatch")
			}
		})
	}
}

// countingReader records whether the pipeline read the body.
type countingReader struct {
	r    io.Reader
	read bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.read = true
	return c.r.Read(p)
}

func TestSubmit_RateLimited(t *testing.T) {
	t.Parallel()
	limits := map[models.Kind]guard.Limit{models.KindContact: {Requests: 2, Window: time.Hour}}
	h := newHarness(t, limits)
	body := `{"name":"Ann Lee","email":"ann@example.com","subject":"Hi","message":"Hello there, team"}`

	for i := 0; i < 2; i++ {
		if _, err := h.submit(models.KindContact, body); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}

	reader := &countingReader{r: strings.NewReader(body)}
	_, err := h.pipeline.Submit(context.Background(), models.KindContact, clientIP, reader)
	se := assertClass(t, err, ClassRateLimited)
	if se.Quota.RetryAfter <= 0 || se.Quota.Limit != 2 || se.Quota.Remaining != 0 {
		t.Errorf("quota = %+v", se.Quota)
	}
	if reader.read {
		t.Error("body was read after the quota was exhausted")
	}
	if h.store.writes() != 2 {
		t.Errorf("writes = %d, want 2", h.store.writes())
	}

	// Another client is unaffected.
	if _, err := h.pipeline.Submit(context.Background(), models.KindContact, "198.51.100.1", strings.NewReader(body)); err != nil {
		t.Errorf("other client: %v", err)
	}
}

func TestSubmit_NoLimitConfigured(t *testing.T) {
	t.Parallel()
	h := newHarness(t, map[models.Kind]guard.Limit{models.KindContact: {Requests: 1, Window: time.Hour}})

	_, err := h.submit(models.KindBooking, bookingBody)
	assertClass(t, err, ClassInternal)
}

func TestSubmit_UnknownKind(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	_, err := h.submit(models.Kind("newsletter"), `{}`)
	assertClass(t, err, ClassInternal)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v", err)
	}
}

func TestSubmit_Sanitizes(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	body := `{"name":"<b>Ann</b> Lee","email":"ann@example.com","subject":"<script>alert(1)</script>Visa","message":"<p onclick=\"x()\">Do I <em>need</em> a visa?</p><script>steal()</script>"}`
	if _, err := h.submit(models.KindContact, body); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sub := h.store.submissions[0]
	if sub.Name != "Ann Lee" || sub.Subject != "Visa" {
		t.Errorf("strict fields = %q / %q", sub.Name, sub.Subject)
	}
	msg := h.notifier.notices[0].Message
	if msg != "<p>Do I <em>need</em> a visa?</p>" {
		t.Errorf("message = %q", msg)
	}
}

func TestSubmit_StoreFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.store.err = errors.New("disk full")

	_, err := h.submit(models.KindBooking, bookingBody)
	assertClass(t, err, ClassPersistenceFailure)
	if h.notifier.count() != 0 {
		t.Error("notification dispatched for an unstored submission")
	}
}

func TestSubmit_CatalogFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.catalog.err = errors.New("connection reset")

	_, err := h.submit(models.KindBooking, bookingBody)
	assertClass(t, err, ClassPersistenceFailure)
	if h.store.writes() != 0 {
		t.Error("stored a record after a catalog failure")
	}
}

func TestSubmit_IgnoresCancellationAfterGuard(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.catalog.onLookup = cancel

	if _, err := h.pipeline.Submit(ctx, models.KindBooking, clientIP, strings.NewReader(bookingBody)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(h.store.ctxErrs) != 1 || h.store.ctxErrs[0] != nil {
		t.Errorf("store saw ctx errors %v, want a live context", h.store.ctxErrs)
	}
}

func TestSubmit_ConcurrentClients(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	body := `{"name":"Ann Lee","email":"ann@example.com","subject":"Hi","message":"Hello there, team"}`

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ip := fmt.Sprintf("192.0.2.%d", i)
			if _, err := h.pipeline.Submit(context.Background(), models.KindContact, ip, strings.NewReader(body)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Submit: %v", err)
	}
	if h.store.writes() != 20 {
		t.Errorf("writes = %d, want 20", h.store.writes())
	}
}

func TestClassOf(t *testing.T) {
	t.Parallel()
	wrapped := fmt.Errorf("outer: %w", fail(ClassItemNotFound, pricing.ErrItemNotFound))
	if got := ClassOf(wrapped); got != ClassItemNotFound {
		t.Errorf("ClassOf(wrapped) = %s", got)
	}
	if got := ClassOf(errors.New("plain")); got != ClassInternal {
		t.Errorf("ClassOf(plain) = %s", got)
	}
	if !errors.Is(wrapped, pricing.ErrItemNotFound) {
		t.Error("Error does not unwrap")
	}
}
