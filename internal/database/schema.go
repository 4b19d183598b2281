// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

/*
schema.go - Database Schema

Tables:
  - packages, destinations: the catalog; prices in minor units
  - bookings: booking records with their price snapshot inline
  - submissions: quote, contact, bundle and custom-package records
  - submission_items: immutable price snapshots of a submission

DuckDB has no AUTOINCREMENT, so ids come from sequences and inserts use
RETURNING id. Confirmation and reference codes are UNIQUE so concurrent
writers can never share a code.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"strings"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS packages (
		id BIGINT PRIMARY KEY,
		slug VARCHAR NOT NULL,
		name VARCHAR NOT NULL,
		price_amount BIGINT NOT NULL CHECK (price_amount >= 0),
		currency VARCHAR NOT NULL,
		active BOOLEAN NOT NULL DEFAULT true,
		updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,

	`CREATE TABLE IF NOT EXISTS destinations (
		id BIGINT PRIMARY KEY,
		slug VARCHAR NOT NULL,
		name VARCHAR NOT NULL,
		price_amount BIGINT NOT NULL CHECK (price_amount >= 0),
		currency VARCHAR NOT NULL,
		active BOOLEAN NOT NULL DEFAULT true,
		updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,

	`CREATE SEQUENCE IF NOT EXISTS bookings_id_seq`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT PRIMARY KEY DEFAULT nextval('bookings_id_seq'),
		confirmation_number VARCHAR NOT NULL UNIQUE,
		first_name VARCHAR NOT NULL,
		last_name VARCHAR NOT NULL,
		email VARCHAR NOT NULL,
		phone VARCHAR NOT NULL,
		country VARCHAR NOT NULL DEFAULT '',
		booking_type VARCHAR NOT NULL CHECK (booking_type IN ('PACKAGE', 'DESTINATION')),
		package_id BIGINT,
		destination_id BIGINT,
		item_name VARCHAR NOT NULL,
		number_of_travelers INTEGER NOT NULL CHECK (number_of_travelers > 0),
		travel_date_from DATE NOT NULL,
		travel_date_to DATE NOT NULL,
		special_requests VARCHAR NOT NULL DEFAULT '',
		payment_method VARCHAR NOT NULL DEFAULT '',
		payment_reference VARCHAR NOT NULL DEFAULT '',
		price_per_person BIGINT NOT NULL,
		total_price BIGINT NOT NULL,
		currency VARCHAR NOT NULL,
		status VARCHAR NOT NULL DEFAULT 'PENDING',
		payment_status VARCHAR NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMP NOT NULL,
		CHECK ((package_id IS NULL) != (destination_id IS NULL))
	)`,

	`CREATE SEQUENCE IF NOT EXISTS submissions_id_seq`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id BIGINT PRIMARY KEY DEFAULT nextval('submissions_id_seq'),
		kind VARCHAR NOT NULL,
		reference_code VARCHAR NOT NULL UNIQUE,
		name VARCHAR NOT NULL DEFAULT '',
		email VARCHAR NOT NULL,
		phone VARCHAR NOT NULL DEFAULT '',
		subject VARCHAR NOT NULL DEFAULT '',
		total_amount BIGINT NOT NULL DEFAULT 0,
		currency VARCHAR NOT NULL DEFAULT '',
		payload VARCHAR NOT NULL,
		status VARCHAR NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE SEQUENCE IF NOT EXISTS submission_items_id_seq`,
	`CREATE TABLE IF NOT EXISTS submission_items (
		id BIGINT PRIMARY KEY DEFAULT nextval('submission_items_id_seq'),
		submission_id BIGINT NOT NULL REFERENCES submissions(id),
		item_index INTEGER NOT NULL,
		item_kind VARCHAR NOT NULL,
		item_id BIGINT NOT NULL,
		name VARCHAR NOT NULL,
		unit_price BIGINT NOT NULL,
		currency VARCHAR NOT NULL,
		quantity INTEGER NOT NULL,
		days INTEGER NOT NULL DEFAULT 0,
		notes VARCHAR NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_submission_items_submission ON submission_items(submission_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_created ON bookings(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_kind_created ON submissions(kind, created_at)`,
}

// createSchema creates every table, sequence and index if missing.
func (db *DB) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return strings.TrimSuffix(strings.TrimSpace(line), " (")
}
