// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package models defines the submission variants accepted from the public
// website and the records persisted for them.
package models

import "time"

// Kind discriminates the submission variants.
type Kind string

const (
	KindBooking Kind = "booking"
	KindQuote   Kind = "quote"
	KindContact Kind = "contact"
	KindBundle  Kind = "bundle"
	KindCustom  Kind = "custom"
)

// Kinds lists every variant in a stable order.
var Kinds = []Kind{KindBooking, KindQuote, KindContact, KindBundle, KindCustom}

// Valid reports whether k is a known variant.
func (k Kind) Valid() bool {
	switch k {
	case KindBooking, KindQuote, KindContact, KindBundle, KindCustom:
		return true
	}
	return false
}

// CodePrefix is the leading segment of confirmation codes for this kind.
func (k Kind) CodePrefix() string {
	switch k {
	case KindBooking:
		return "BK"
	case KindQuote:
		return "QT"
	case KindContact:
		return "CT"
	case KindBundle:
		return "BN"
	case KindCustom:
		return "CP"
	default:
		return "TD"
	}
}

// BookingType says which catalog table a booking references.
type BookingType string

const (
	BookingTypePackage     BookingType = "PACKAGE"
	BookingTypeDestination BookingType = "DESTINATION"
)

// BookingStatus is changed by staff after creation.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// PaymentStatus tracks the out-of-band bank transfer.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// ItemKind names a catalog table.
type ItemKind string

const (
	ItemPackage     ItemKind = "package"
	ItemDestination ItemKind = "destination"
)

// CatalogItem is a package or destination as the pricing resolver reads it.
type CatalogItem struct {
	ID     int64
	Kind   ItemKind
	Slug   string
	Name   string
	Price  Money
	Active bool
}

// PricedItem is the price snapshot copied into a stored submission. It never
// changes after the record is written.
type PricedItem struct {
	ItemKind  ItemKind `json:"itemKind"`
	ItemID    int64    `json:"itemId"`
	Name      string   `json:"name"`
	UnitPrice Money    `json:"unitPrice"`
	Quantity  int      `json:"quantity"`
	Days      int      `json:"days,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Subtotal is UnitPrice × Quantity.
func (p PricedItem) Subtotal() Money {
	return p.UnitPrice.Times(p.Quantity)
}

// Booking is the persisted booking record.
type Booking struct {
	ID                 int64
	ConfirmationNumber string
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	Country            string
	BookingType        BookingType
	PackageID          *int64
	DestinationID      *int64
	ItemName           string
	NumberOfTravelers  int
	TravelDateFrom     time.Time
	TravelDateTo       time.Time
	SpecialRequests    string
	PaymentMethod      string
	PaymentReference   string
	PricePerPerson     Money
	TotalPrice         Money
	Status             BookingStatus
	PaymentStatus      PaymentStatus
	CreatedAt          time.Time
}

// Submission is the persisted record for quote, contact, bundle and
// custom-package requests.
type Submission struct {
	ID            int64
	Kind          Kind
	ReferenceCode string
	Name          string
	Email         string
	Phone         string
	Subject       string
	Items         []PricedItem
	Total         Money
	// Payload is the normalized request as JSON, kept for staff review.
	Payload   []byte
	Status    string
	CreatedAt time.Time
}
