// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package models

import "time"

// DateLayout is the wire format of every travel date.
const DateLayout = "2006-01-02"

// ParseDate parses a DateLayout string as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Request is implemented by every submission variant.
type Request interface {
	Kind() Kind
	// ContactEmail is where the customer confirmation goes ("" for none).
	ContactEmail() string
}

// BookingRequest is the body of POST /api/v1/bookings.
//
// Field order is significant: it decides which error is reported first.
// Client price fields are read only so they can be logged; they never reach
// the stored total.
type BookingRequest struct {
	FirstName         string      `json:"firstName" validate:"required,min=2,max=50,personname"`
	LastName          string      `json:"lastName" validate:"required,min=2,max=50,personname"`
	Email             string      `json:"email" validate:"required,max=254,email"`
	Phone             string      `json:"phone" validate:"required,phone"`
	Country           string      `json:"country,omitempty" validate:"omitempty,min=2,max=56"`
	BookingType       BookingType `json:"bookingType" validate:"required,oneof=PACKAGE DESTINATION"`
	PackageID         int64       `json:"packageId,omitempty" validate:"gte=0"`
	DestinationID     int64       `json:"destinationId,omitempty" validate:"gte=0"`
	NumberOfTravelers int         `json:"numberOfTravelers" validate:"gte=1,lte=50"`
	TravelDateFrom    string      `json:"travelDateFrom" validate:"required,datetime=2006-01-02"`
	TravelDateTo      string      `json:"travelDateTo" validate:"required,datetime=2006-01-02"`
	SpecialRequests   string      `json:"specialRequests,omitempty" validate:"max=2000"`
	PaymentMethod     string      `json:"paymentMethod,omitempty" validate:"omitempty,oneof=BANK_TRANSFER MOBILE_MONEY CASH"`
	PaymentReference  string      `json:"paymentReference,omitempty" validate:"max=100"`
	PricePerPerson    *float64    `json:"pricePerPerson,omitempty" validate:"-"`
	TotalPrice        *float64    `json:"totalPrice,omitempty" validate:"-"`
}

func (r *BookingRequest) Kind() Kind           { return KindBooking }
func (r *BookingRequest) ContactEmail() string { return r.Email }

// QuoteDestination is one stop of a requested quote itinerary.
type QuoteDestination struct {
	Name string `json:"name" validate:"required,max=100"`
	Days int    `json:"days" validate:"gte=1,lte=30"`
}

// QuoteRequest is the body of POST /api/v1/quotes.
type QuoteRequest struct {
	PackageName    string             `json:"packageName" validate:"required,max=200"`
	PackageSlug    string             `json:"packageSlug" validate:"required,max=200,slug"`
	NumberOfPeople int                `json:"numberOfPeople" validate:"gte=1,lte=1000"`
	Name           string             `json:"name" validate:"required,min=2,max=100"`
	Email          string             `json:"email" validate:"required,max=254,email"`
	Phone          string             `json:"phone,omitempty" validate:"omitempty,phone"`
	Message        string             `json:"message,omitempty" validate:"max=5000"`
	Destinations   []QuoteDestination `json:"destinations,omitempty" validate:"omitempty,max=10,dive"`
}

func (r *QuoteRequest) Kind() Kind           { return KindQuote }
func (r *QuoteRequest) ContactEmail() string { return r.Email }

// ContactMessage is the body of POST /api/v1/contact.
type ContactMessage struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,max=254,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

func (r *ContactMessage) Kind() Kind { return KindContact }

// ContactEmail is empty: contact messages only notify staff.
func (r *ContactMessage) ContactEmail() string { return "" }

// BundlePackage is one package of a bundle request.
type BundlePackage struct {
	PackageID int64  `json:"packageId" validate:"required,gt=0"`
	Notes     string `json:"notes,omitempty" validate:"max=500"`
}

// PackageBundleRequest is the body of POST /api/v1/bundles.
type PackageBundleRequest struct {
	Name            string          `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email           string          `json:"email" validate:"required,max=254,email"`
	Phone           string          `json:"phone,omitempty" validate:"omitempty,phone"`
	Packages        []BundlePackage `json:"packages" validate:"required,min=1,max=5,unique=PackageID,dive"`
	NumberOfPeople  int             `json:"numberOfPeople" validate:"gte=1,lte=50"`
	TravelDate      string          `json:"travelDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SpecialRequests string          `json:"specialRequests,omitempty" validate:"max=2000"`
}

func (r *PackageBundleRequest) Kind() Kind           { return KindBundle }
func (r *PackageBundleRequest) ContactEmail() string { return r.Email }

// CustomDestination is one destination of a custom package.
type CustomDestination struct {
	DestinationID int64 `json:"destinationId" validate:"required,gt=0"`
	Days          int   `json:"days" validate:"gte=1,lte=30"`
}

// CustomPackageRequest is the body of POST /api/v1/custom-packages.
type CustomPackageRequest struct {
	Name              string              `json:"name" validate:"required,min=2,max=100,personname"`
	Email             string              `json:"email" validate:"required,max=254,email"`
	Phone             string              `json:"phone" validate:"required,phone"`
	Destinations      []CustomDestination `json:"destinations" validate:"required,min=1,max=10,unique=DestinationID,dive"`
	NumberOfTravelers int                 `json:"numberOfTravelers" validate:"gte=1,lte=100"`
	TravelDateFrom    string              `json:"travelDateFrom" validate:"required,datetime=2006-01-02"`
	TravelDateTo      string              `json:"travelDateTo" validate:"required,datetime=2006-01-02"`
	SpecialRequests   string              `json:"specialRequests,omitempty" validate:"max=2000"`
}

func (r *CustomPackageRequest) Kind() Kind           { return KindCustom }
func (r *CustomPackageRequest) ContactEmail() string { return r.Email }

// NewRequest returns an empty request of the given kind, or nil.
func NewRequest(k Kind) Request {
	switch k {
	case KindBooking:
		return &BookingRequest{}
	case KindQuote:
		return &QuoteRequest{}
	case KindContact:
		return &ContactMessage{}
	case KindBundle:
		return &PackageBundleRequest{}
	case KindCustom:
		return &CustomPackageRequest{}
	default:
		return nil
	}
}
