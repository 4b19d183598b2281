// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package submission

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tourdesk/internal/models"
	"github.com/tomtom215/tourdesk/internal/notify"
	"github.com/tomtom215/tourdesk/internal/pricing"
)

func bookingRecord(req *models.BookingRequest, q pricing.Quote) (*models.Booking, error) {
	if len(q.Items) != 1 {
		return nil, fmt.Errorf("booking priced with %d items", len(q.Items))
	}
	from, err := models.ParseDate(req.TravelDateFrom)
	if err != nil {
		return nil, fmt.Errorf("travelDateFrom: %w", err)
	}
	to, err := models.ParseDate(req.TravelDateTo)
	if err != nil {
		return nil, fmt.Errorf("travelDateTo: %w", err)
	}

	b := &models.Booking{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		Country:           req.Country,
		BookingType:       req.BookingType,
		ItemName:          q.ItemName,
		NumberOfTravelers: req.NumberOfTravelers,
		TravelDateFrom:    from,
		TravelDateTo:      to,
		SpecialRequests:   req.SpecialRequests,
		PaymentMethod:     req.PaymentMethod,
		PaymentReference:  req.PaymentReference,
		PricePerPerson:    q.Items[0].UnitPrice,
		TotalPrice:        q.Total,
	}
	id := q.Items[0].ItemID
	if req.BookingType == models.BookingTypeDestination {
		b.DestinationID = &id
	} else {
		b.PackageID = &id
	}
	return b, nil
}

func submissionRecord(req models.Request, q pricing.Quote) (*models.Submission, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	s := &models.Submission{
		Kind:    req.Kind(),
		Items:   q.Items,
		Total:   q.Total,
		Payload: payload,
	}
	switch v := req.(type) {
	case *models.QuoteRequest:
		s.Name, s.Email, s.Phone, s.Subject = v.Name, v.Email, v.Phone, v.PackageName
	case *models.ContactMessage:
		s.Name, s.Email, s.Subject = v.Name, v.Email, v.Subject
	case *models.PackageBundleRequest:
		s.Name, s.Email, s.Phone = v.Name, v.Email, v.Phone
	case *models.CustomPackageRequest:
		s.Name, s.Email, s.Phone = v.Name, v.Email, v.Phone
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, req)
	}
	return s, nil
}

func bookingNotice(req *models.BookingRequest, b *models.Booking, q pricing.Quote) notify.Notice {
	n := notify.Notice{
		Kind:      models.KindBooking,
		Code:      b.ConfirmationNumber,
		Name:      strings.TrimSpace(b.FirstName + " " + b.LastName),
		Email:     b.Email,
		Phone:     b.Phone,
		Message:   req.SpecialRequests,
		ItemName:  q.ItemName,
		Items:     q.Items,
		Total:     q.Total,
		CreatedAt: b.CreatedAt,
	}
	n.Details = appendDetail(n.Details, "Travelers", strconv.Itoa(b.NumberOfTravelers))
	n.Details = appendDetail(n.Details, "Travel dates", req.TravelDateFrom+" to "+req.TravelDateTo)
	n.Details = appendDetail(n.Details, "Country", b.Country)
	n.Details = appendDetail(n.Details, "Payment method", b.PaymentMethod)
	n.Details = appendDetail(n.Details, "Payment reference", b.PaymentReference)
	return n
}

func submissionNotice(req models.Request, s *models.Submission, q pricing.Quote) notify.Notice {
	n := notify.Notice{
		Kind:      s.Kind,
		Code:      s.ReferenceCode,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		ItemName:  q.ItemName,
		Items:     q.Items,
		Total:     q.Total,
		CreatedAt: s.CreatedAt,
	}
	switch v := req.(type) {
	case *models.QuoteRequest:
		n.Message = v.Message
		n.Details = appendDetail(n.Details, "People", strconv.Itoa(v.NumberOfPeople))
		if len(v.Destinations) > 0 {
			stops := make([]string, len(v.Destinations))
			for i, d := range v.Destinations {
				stops[i] = fmt.Sprintf("%s (%d days)", d.Name, d.Days)
			}
			n.Details = appendDetail(n.Details, "Itinerary", strings.Join(stops, ", "))
		}
	case *models.ContactMessage:
		n.Subject = v.Subject
		n.Message = v.Message
	case *models.PackageBundleRequest:
		n.Message = v.SpecialRequests
		n.Details = appendDetail(n.Details, "People", strconv.Itoa(v.NumberOfPeople))
		n.Details = appendDetail(n.Details, "Travel date", v.TravelDate)
	case *models.CustomPackageRequest:
		n.Message = v.SpecialRequests
		n.Details = appendDetail(n.Details, "Travelers", strconv.Itoa(v.NumberOfTravelers))
		n.Details = appendDetail(n.Details, "Travel dates", v.TravelDateFrom+" to "+v.TravelDateTo)
	}
	return n
}

func appendDetail(details []notify.Detail, label, value string) []notify.Detail {
	if value == "" {
		return details
	}
	return append(details, notify.Detail{Label: label, Value: value})
}
