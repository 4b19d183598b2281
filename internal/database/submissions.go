// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/metrics"
	"github.com/tomtom215/tourdesk/internal/models"
)

// ErrRecordNotFound is returned by the lookups by code.
var ErrRecordNotFound = errors.New("record not found")

// InsertBooking stores b and fills in its ID, ConfirmationNumber and
// CreatedAt. Status and PaymentStatus default to PENDING.
func (db *DB) InsertBooking(ctx context.Context, b *models.Booking) error {
	if b.Status == "" {
		b.Status = models.BookingStatusPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = models.PaymentStatusPending
	}
	createdAt := db.now().UTC()

	code, id, err := db.insertWithCode(ctx, models.KindBooking, "bookings", func(tx *sql.Tx, code string) (int64, error) {
		var id int64
		err := tx.QueryRowContext(ctx, `INSERT INTO bookings (
				confirmation_number, first_name, last_name, email, phone, country,
				booking_type, package_id, destination_id, item_name, number_of_travelers,
				travel_date_from, travel_date_to, special_requests, payment_method, payment_reference,
				price_per_person, total_price, currency, status, payment_status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			code, b.FirstName, b.LastName, b.Email, b.Phone, b.Country,
			string(b.BookingType), b.PackageID, b.DestinationID, b.ItemName, b.NumberOfTravelers,
			b.TravelDateFrom, b.TravelDateTo, b.SpecialRequests, b.PaymentMethod, b.PaymentReference,
			b.PricePerPerson.Amount, b.TotalPrice.Amount, b.TotalPrice.Currency,
			string(b.Status), string(b.PaymentStatus), createdAt,
		).Scan(&id)
		return id, err
	})
	if err != nil {
		return err
	}

	b.ID = id
	b.ConfirmationNumber = code
	b.CreatedAt = createdAt
	return nil
}

// InsertSubmission stores s and its item snapshots in one transaction and
// fills in ID, ReferenceCode, Status and CreatedAt.
func (db *DB) InsertSubmission(ctx context.Context, s *models.Submission) error {
	if !s.Kind.Valid() || s.Kind == models.KindBooking {
		return fmt.Errorf("%w: unsupported submission kind %q", ErrPersistence, s.Kind)
	}
	if s.Status == "" {
		s.Status = "PENDING"
	}
	payload := string(s.Payload)
	if payload == "" {
		payload = "{}"
	}
	createdAt := db.now().UTC()

	code, id, err := db.insertWithCode(ctx, s.Kind, "submissions", func(tx *sql.Tx, code string) (int64, error) {
		var id int64
		err := tx.QueryRowContext(ctx, `INSERT INTO submissions (
				kind, reference_code, name, email, phone, subject,
				total_amount, currency, payload, status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			string(s.Kind), code, s.Name, s.Email, s.Phone, s.Subject,
			s.Total.Amount, s.Total.Currency, payload, s.Status, createdAt,
		).Scan(&id)
		if err != nil {
			return 0, err
		}

		for i, item := range s.Items {
			if _, err := tx.ExecContext(ctx, `INSERT INTO submission_items (
					submission_id, item_index, item_kind, item_id, name,
					unit_price, currency, quantity, days, notes
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, i, string(item.ItemKind), item.ItemID, item.Name,
				item.UnitPrice.Amount, item.UnitPrice.Currency, item.Quantity, item.Days, item.Notes,
			); err != nil {
				return 0, fmt.Errorf("item %d: %w", i, err)
			}
		}
		return id, nil
	})
	if err != nil {
		return err
	}

	s.ID = id
	s.ReferenceCode = code
	s.CreatedAt = createdAt
	return nil
}

// insertWithCode runs insert in a transaction with a freshly generated
// code. A unique violation rolls back and retries with a new code, up to
// maxCodeAttempts times.
func (db *DB) insertWithCode(
	ctx context.Context,
	kind models.Kind,
	table string,
	insert func(tx *sql.Tx, code string) (int64, error),
) (string, int64, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	if db.isClosed() {
		return "", 0, fmt.Errorf("%w: %w", ErrPersistence, ErrClosed)
	}

	log := logging.Ctx(ctx)
	start := time.Now()
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := db.codes.Generate(kind)

		id, err := db.inTx(ctx, func(tx *sql.Tx) (int64, error) { return insert(tx, code) })
		if err == nil {
			metrics.RecordDBQuery("insert", table, time.Since(start), nil)
			return code, id, nil
		}

		if isUniqueViolation(err) {
			metrics.ConfirmationCodeCollisions.Inc()
			log.Warn().Str("table", table).Int("attempt", attempt).Msg("Confirmation code collision, regenerating")
			continue
		}

		metrics.RecordDBQuery("insert", table, time.Since(start), err)
		log.Error().Err(err).Str("table", table).Str("kind", string(kind)).Msg("Insert failed")
		return "", 0, fmt.Errorf("%w: insert %s: %w", ErrPersistence, table, err)
	}

	metrics.RecordDBQuery("insert", table, time.Since(start), ErrCodeExhausted)
	log.Error().Str("table", table).Int("attempts", maxCodeAttempts).Msg("Could not allocate a unique confirmation code")
	return "", 0, fmt.Errorf("%w: %w", ErrPersistence, ErrCodeExhausted)
}

// inTx commits when fn succeeds and rolls back otherwise.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) (int64, error)) (id int64, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	id, err = fn(tx)
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// BookingByCode loads a booking by confirmation number.
func (db *DB) BookingByCode(ctx context.Context, code string) (*models.Booking, error) {
	var (
		b             models.Booking
		bookingType   string
		status        string
		paymentStatus string
		packageID     sql.NullInt64
		destinationID sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx, `SELECT
			id, confirmation_number, first_name, last_name, email, phone, country,
			booking_type, package_id, destination_id, item_name, number_of_travelers,
			travel_date_from, travel_date_to, special_requests, payment_method, payment_reference,
			price_per_person, total_price, currency, status, payment_status, created_at
		FROM bookings WHERE confirmation_number = ?`, code,
	).Scan(
		&b.ID, &b.ConfirmationNumber, &b.FirstName, &b.LastName, &b.Email, &b.Phone, &b.Country,
		&bookingType, &packageID, &destinationID, &b.ItemName, &b.NumberOfTravelers,
		&b.TravelDateFrom, &b.TravelDateTo, &b.SpecialRequests, &b.PaymentMethod, &b.PaymentReference,
		&b.PricePerPerson.Amount, &b.TotalPrice.Amount, &b.TotalPrice.Currency, &status, &paymentStatus, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load booking: %w", ErrPersistence, err)
	}

	b.BookingType = models.BookingType(bookingType)
	b.Status = models.BookingStatus(status)
	b.PaymentStatus = models.PaymentStatus(paymentStatus)
	b.PricePerPerson.Currency = b.TotalPrice.Currency
	if packageID.Valid {
		b.PackageID = &packageID.Int64
	}
	if destinationID.Valid {
		b.DestinationID = &destinationID.Int64
	}
	return &b, nil
}

// SubmissionByCode loads a submission and its items by reference code.
func (db *DB) SubmissionByCode(ctx context.Context, code string) (*models.Submission, error) {
	var (
		s       models.Submission
		kind    string
		payload string
	)
	err := db.conn.QueryRowContext(ctx, `SELECT
			id, kind, reference_code, name, email, phone, subject,
			total_amount, currency, payload, status, created_at
		FROM submissions WHERE reference_code = ?`, code,
	).Scan(
		&s.ID, &kind, &s.ReferenceCode, &s.Name, &s.Email, &s.Phone, &s.Subject,
		&s.Total.Amount, &s.Total.Currency, &payload, &s.Status, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load submission: %w", ErrPersistence, err)
	}
	s.Kind = models.Kind(kind)
	s.Payload = []byte(payload)

	rows, err := db.conn.QueryContext(ctx, `SELECT item_kind, item_id, name, unit_price, currency, quantity, days, notes
		FROM submission_items WHERE submission_id = ? ORDER BY item_index`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load submission items: %w", ErrPersistence, err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			item     models.PricedItem
			itemKind string
		)
		if err := rows.Scan(&itemKind, &item.ItemID, &item.Name, &item.UnitPrice.Amount,
			&item.UnitPrice.Currency, &item.Quantity, &item.Days, &item.Notes); err != nil {
			return nil, fmt.Errorf("%w: scan submission item: %w", ErrPersistence, err)
		}
		item.ItemKind = models.ItemKind(itemKind)
		s.Items = append(s.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate submission items: %w", ErrPersistence, err)
	}
	return &s, nil
}

// Counts is the number of stored rows per table.
type Counts struct {
	Bookings        int
	Submissions     int
	SubmissionItems int
}

// CountRecords returns the row count of every record table.
func (db *DB) CountRecords(ctx context.Context) (Counts, error) {
	var c Counts
	err := db.conn.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM bookings),
			(SELECT COUNT(*) FROM submissions),
			(SELECT COUNT(*) FROM submission_items)`,
	).Scan(&c.Bookings, &c.Submissions, &c.SubmissionItems)
	if err != nil {
		return Counts{}, fmt.Errorf("count records: %w", err)
	}
	return c, nil
}
