// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package pricing computes authoritative totals for validated submissions.
//
// Every unit price comes from the Catalog at submission time. Client price
// fields are logged for comparison and otherwise ignored. The returned
// snapshots are what the store persists with the record.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/models"
)

var (
	// ErrNotFound is returned by Catalog implementations for absent items.
	ErrNotFound = errors.New("catalog item not found")

	// ErrItemNotFound means a referenced package or destination does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemUnavailable means a referenced item exists but is inactive, or
	// the items of one request are priced in different currencies.
	ErrItemUnavailable = errors.New("item unavailable")
)

// Catalog is the read side of the package and destination tables.
type Catalog interface {
	Package(ctx context.Context, id int64) (models.CatalogItem, error)
	PackageBySlug(ctx context.Context, slug string) (models.CatalogItem, error)
	Destination(ctx context.Context, id int64) (models.CatalogItem, error)
}

// Quote is the priced result of one submission.
type Quote struct {
	Items []models.PricedItem
	Total models.Money
	// ItemName names the primary item for receipts and emails.
	ItemName string
}

// Resolver prices requests against a Catalog. It holds no state between
// calls.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a Resolver reading from catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve dispatches on the request kind. Contact messages carry no items
// and resolve to an empty Quote.
func (r *Resolver) Resolve(ctx context.Context, req models.Request) (Quote, error) {
	switch v := req.(type) {
	case *models.BookingRequest:
		return r.ResolveBooking(ctx, v)
	case *models.QuoteRequest:
		return r.ResolveQuote(ctx, v)
	case *models.PackageBundleRequest:
		return r.ResolveBundle(ctx, v)
	case *models.CustomPackageRequest:
		return r.ResolveCustom(ctx, v)
	case *models.ContactMessage:
		return Quote{}, nil
	default:
		return Quote{}, fmt.Errorf("pricing: unsupported request %T", req)
	}
}

// ResolveBooking prices the booked package or destination per traveler.
func (r *Resolver) ResolveBooking(ctx context.Context, req *models.BookingRequest) (Quote, error) {
	var (
		item models.CatalogItem
		err  error
	)
	if req.BookingType == models.BookingTypeDestination {
		item, err = r.lookup(ctx, models.ItemDestination, req.DestinationID)
	} else {
		item, err = r.lookup(ctx, models.ItemPackage, req.PackageID)
	}
	if err != nil {
		return Quote{}, err
	}

	priced := snapshot(item, req.NumberOfTravelers)
	q := Quote{
		Items:    []models.PricedItem{priced},
		Total:    priced.Subtotal(),
		ItemName: item.Name,
	}
	logClientPrice(ctx, req, q)
	return q, nil
}

// ResolveQuote prices the package named by slug per person.
func (r *Resolver) ResolveQuote(ctx context.Context, req *models.QuoteRequest) (Quote, error) {
	item, err := r.catalog.PackageBySlug(ctx, req.PackageSlug)
	if err != nil {
		return Quote{}, classify(models.ItemPackage, req.PackageSlug, err)
	}
	if !item.Active {
		return Quote{}, fmt.Errorf("%w: package %q", ErrItemUnavailable, req.PackageSlug)
	}

	priced := snapshot(item, req.NumberOfPeople)
	return Quote{
		Items:    []models.PricedItem{priced},
		Total:    priced.Subtotal(),
		ItemName: item.Name,
	}, nil
}

// ResolveBundle resolves each package independently. One missing or
// inactive package fails the whole bundle.
func (r *Resolver) ResolveBundle(ctx context.Context, req *models.PackageBundleRequest) (Quote, error) {
	q := Quote{Items: make([]models.PricedItem, 0, len(req.Packages))}
	for _, p := range req.Packages {
		item, err := r.lookup(ctx, models.ItemPackage, p.PackageID)
		if err != nil {
			return Quote{}, err
		}
		priced := snapshot(item, req.NumberOfPeople)
		priced.Notes = p.Notes
		if err := q.add(priced); err != nil {
			return Quote{}, err
		}
	}
	q.ItemName = bundleName(q.Items)
	return q, nil
}

// ResolveCustom sums every destination's price per traveler.
func (r *Resolver) ResolveCustom(ctx context.Context, req *models.CustomPackageRequest) (Quote, error) {
	q := Quote{Items: make([]models.PricedItem, 0, len(req.Destinations))}
	for _, d := range req.Destinations {
		item, err := r.lookup(ctx, models.ItemDestination, d.DestinationID)
		if err != nil {
			return Quote{}, err
		}
		priced := snapshot(item, req.NumberOfTravelers)
		priced.Days = d.Days
		if err := q.add(priced); err != nil {
			return Quote{}, err
		}
	}
	q.ItemName = "Custom package"
	return q, nil
}

func (q *Quote) add(item models.PricedItem) error {
	if q.Total.Currency != "" && item.UnitPrice.Currency != q.Total.Currency {
		return fmt.Errorf("%w: %s %d is priced in %s, expected %s",
			ErrItemUnavailable, item.ItemKind, item.ItemID, item.UnitPrice.Currency, q.Total.Currency)
	}
	q.Items = append(q.Items, item)
	q.Total = q.Total.Add(item.Subtotal())
	return nil
}

func (r *Resolver) lookup(ctx context.Context, kind models.ItemKind, id int64) (models.CatalogItem, error) {
	var (
		item models.CatalogItem
		err  error
	)
	switch kind {
	case models.ItemDestination:
		item, err = r.catalog.Destination(ctx, id)
	default:
		item, err = r.catalog.Package(ctx, id)
	}
	if err != nil {
		return models.CatalogItem{}, classify(kind, id, err)
	}
	if !item.Active {
		return models.CatalogItem{}, fmt.Errorf("%w: %s %d is inactive", ErrItemUnavailable, kind, id)
	}
	return item, nil
}

// classify maps catalog errors to resolver errors. Anything that is not a
// missing row is returned wrapped so the pipeline treats it as a store
// failure.
func classify(kind models.ItemKind, ref any, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s %v", ErrItemNotFound, kind, ref)
	}
	return fmt.Errorf("pricing: load %s %v: %w", kind, ref, err)
}

func snapshot(item models.CatalogItem, quantity int) models.PricedItem {
	return models.PricedItem{
		ItemKind:  item.Kind,
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  quantity,
	}
}

func bundleName(items []models.PricedItem) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0].Name
	default:
		return fmt.Sprintf("%s + %d more", items[0].Name, len(items)-1)
	}
}

// logClientPrice records client price fields that disagree with the
// catalog. They are never used.
func logClientPrice(ctx context.Context, req *models.BookingRequest, q Quote) {
	if req.PricePerPerson == nil && req.TotalPrice == nil {
		return
	}
	e := logging.Ctx(ctx).Debug().
		Str("catalog_total", q.Total.Decimal()).
		Str("currency", q.Total.Currency)
	if req.PricePerPerson != nil {
		e = e.Float64("client_price_per_person", *req.PricePerPerson)
	}
	if req.TotalPrice != nil {
		e = e.Float64("client_total_price", *req.TotalPrice)
	}
	e.Msg("Ignoring client-supplied price")
}
