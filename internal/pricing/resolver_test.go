// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/tourdesk/internal/models"
)

type fakeCatalog struct {
	packages     map[int64]models.CatalogItem
	destinations map[int64]models.CatalogItem
	err          error
	calls        int
}

func (f *fakeCatalog) Package(_ context.Context, id int64) (models.CatalogItem, error) {
	f.calls++
	if f.err != nil {
		return models.CatalogItem{}, f.err
	}
	item, ok := f.packages[id]
	if !ok {
		return models.CatalogItem{}, ErrNotFound
	}
	return item, nil
}

func (f *fakeCatalog) PackageBySlug(_ context.Context, slug string) (models.CatalogItem, error) {
	f.calls++
	if f.err != nil {
		return models.CatalogItem{}, f.err
	}
	for _, p := range f.packages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return models.CatalogItem{}, ErrNotFound
}

func (f *fakeCatalog) Destination(_ context.Context, id int64) (models.CatalogItem, error) {
	f.calls++
	if f.err != nil {
		return models.CatalogItem{}, f.err
	}
	item, ok := f.destinations[id]
	if !ok {
		return models.CatalogItem{}, ErrNotFound
	}
	return item, nil
}

func usd(amount int64) models.Money { return models.Money{Amount: amount, Currency: "USD"} }

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		packages: map[int64]models.CatalogItem{
			5: {ID: 5, Kind: models.ItemPackage, Slug: "serengeti-safari", Name: "Serengeti Safari", Price: usd(20000), Active: true},
			6: {ID: 6, Kind: models.ItemPackage, Slug: "zanzibar-beach", Name: "Zanzibar Beach", Price: usd(15050), Active: true},
			7: {ID: 7, Kind: models.ItemPackage, Slug: "retired-tour", Name: "Retired Tour", Price: usd(9900), Active: false},
			8: {ID: 8, Kind: models.ItemPackage, Slug: "euro-tour", Name: "Euro Tour", Price: models.Money{Amount: 10000, Currency: "EUR"}, Active: true},
		},
		destinations: map[int64]models.CatalogItem{
			3: {ID: 3, Kind: models.ItemDestination, Slug: "ngorongoro", Name: "Ngorongoro", Price: usd(12500), Active: true},
			4: {ID: 4, Kind: models.ItemDestination, Slug: "tarangire", Name: "Tarangire", Price: usd(8000), Active: true},
			9: {ID: 9, Kind: models.ItemDestination, Slug: "closed-park", Name: "Closed Park", Price: usd(100), Active: false},
		},
	}
}

func TestResolveBooking(t *testing.T) {
	t.Parallel()

	clientPrice := 1.0
	tests := []struct {
		name      string
		req       *models.BookingRequest
		wantTotal int64
		wantErr   error
	}{
		{
			name:      "package price times travelers",
			req:       &models.BookingRequest{BookingType: models.BookingTypePackage, PackageID: 5, NumberOfTravelers: 4},
			wantTotal: 80000,
		},
		{
			name: "client price ignored",
			req: &models.BookingRequest{BookingType: models.BookingTypePackage, PackageID: 5, NumberOfTravelers: 4,
				PricePerPerson: &clientPrice, TotalPrice: &clientPrice},
			wantTotal: 80000,
		},
		{
			name:      "destination booking",
			req:       &models.BookingRequest{BookingType: models.BookingTypeDestination, DestinationID: 3, NumberOfTravelers: 2},
			wantTotal: 25000,
		},
		{
			name:    "inactive package",
			req:     &models.BookingRequest{BookingType: models.BookingTypePackage, PackageID: 7, NumberOfTravelers: 1},
			wantErr: ErrItemUnavailable,
		},
		{
			name:    "unknown destination",
			req:     &models.BookingRequest{BookingType: models.BookingTypeDestination, DestinationID: 99, NumberOfTravelers: 1},
			wantErr: ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewResolver(newCatalog())
			q, err := r.ResolveBooking(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Total.Amount != tt.wantTotal || q.Total.Currency != "USD" {
				t.Errorf("total = %v, want %d USD", q.Total, tt.wantTotal)
			}
			if len(q.Items) != 1 || q.Items[0].Quantity != tt.req.NumberOfTravelers {
				t.Errorf("items = %+v", q.Items)
			}
		})
	}
}

func TestResolveQuote(t *testing.T) {
	t.Parallel()
	r := NewResolver(newCatalog())

	q, err := r.ResolveQuote(context.Background(), &models.QuoteRequest{PackageSlug: "zanzibar-beach", NumberOfPeople: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Total.Amount != 45150 || q.ItemName != "Zanzibar Beach" {
		t.Errorf("quote = %+v", q)
	}

	if _, err := r.ResolveQuote(context.Background(), &models.QuoteRequest{PackageSlug: "nowhere", NumberOfPeople: 1}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("unknown slug err = %v", err)
	}
	if _, err := r.ResolveQuote(context.Background(), &models.QuoteRequest{PackageSlug: "retired-tour", NumberOfPeople: 1}); !errors.Is(err, ErrItemUnavailable) {
		t.Errorf("inactive slug err = %v", err)
	}
}

func TestResolveBundle(t *testing.T) {
	t.Parallel()

	t.Run("sums packages times people", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(newCatalog())
		q, err := r.ResolveBundle(context.Background(), &models.PackageBundleRequest{
			Packages:       []models.BundlePackage{{PackageID: 5, Notes: "early"}, {PackageID: 6}},
			NumberOfPeople: 2,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q.Total.Amount != (20000+15050)*2 {
			t.Errorf("total = %d", q.Total.Amount)
		}
		if q.ItemName != "Serengeti Safari + 1 more" {
			t.Errorf("ItemName = %q", q.ItemName)
		}
		if q.Items[0].Notes != "early" {
			t.Errorf("notes not carried: %+v", q.Items[0])
		}
	})

	failures := []struct {
		name    string
		ids     []int64
		wantErr error
	}{
		{"one inactive fails all", []int64{5, 7}, ErrItemUnavailable},
		{"one missing fails all", []int64{5, 42}, ErrItemNotFound},
		{"mixed currencies", []int64{5, 8}, ErrItemUnavailable},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := &models.PackageBundleRequest{NumberOfPeople: 1}
			for _, id := range tt.ids {
				req.Packages = append(req.Packages, models.BundlePackage{PackageID: id})
			}
			q, err := NewResolver(newCatalog()).ResolveBundle(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(q.Items) != 0 {
				t.Errorf("partial quote returned: %+v", q)
			}
		})
	}
}

func TestResolveCustom(t *testing.T) {
	t.Parallel()
	r := NewResolver(newCatalog())

	q, err := r.ResolveCustom(context.Background(), &models.CustomPackageRequest{
		Destinations:      []models.CustomDestination{{DestinationID: 3, Days: 2}, {DestinationID: 4, Days: 5}},
		NumberOfTravelers: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Total.Amount != (12500+8000)*3 {
		t.Errorf("total = %d", q.Total.Amount)
	}
	if q.Items[1].Days != 5 {
		t.Errorf("days not carried: %+v", q.Items[1])
	}

	_, err = r.ResolveCustom(context.Background(), &models.CustomPackageRequest{
		Destinations:      []models.CustomDestination{{DestinationID: 9, Days: 1}},
		NumberOfTravelers: 1,
	})
	if !errors.Is(err, ErrItemUnavailable) {
		t.Errorf("inactive destination err = %v", err)
	}
}

func TestResolve_Dispatch(t *testing.T) {
	t.Parallel()

	cat := newCatalog()
	r := NewResolver(cat)
	q, err := r.Resolve(context.Background(), &models.ContactMessage{})
	if err != nil || len(q.Items) != 0 || cat.calls != 0 {
		t.Errorf("contact resolve = %+v, %v (calls %d)", q, err, cat.calls)
	}

	if _, err := r.Resolve(context.Background(), &models.BookingRequest{BookingType: models.BookingTypePackage, PackageID: 5, NumberOfTravelers: 1}); err != nil {
		t.Errorf("booking resolve: %v", err)
	}
}

func TestResolve_CatalogFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	cat := newCatalog()
	cat.err = boom
	_, err := NewResolver(cat).ResolveBooking(context.Background(), &models.BookingRequest{BookingType: models.BookingTypePackage, PackageID: 5, NumberOfTravelers: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrItemUnavailable) {
		t.Error("store failure must not look like a missing item")
	}
}
