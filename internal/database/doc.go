// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package database is the submission store and catalog for Tourdesk.
//
// # Overview
//
// The package wraps a DuckDB database (github.com/duckdb/duckdb-go/v2)
// through database/sql. It owns the persisted records created by the
// submission pipeline and the package and destination catalog the pricing
// resolver reads.
//
// Files:
//   - database.go: connection lifecycle, pool settings, Ping
//   - schema.go: table and sequence DDL
//   - codes.go: confirmation code generation and checking
//   - catalog.go: catalog reads (pricing.Catalog) and upserts for seeding
//   - submissions.go: atomic booking and submission inserts, lookups by code
//   - seed.go: YAML catalog seed loading through koanf
//   - errors.go: sentinel errors and close helpers
//
// # Atomicity
//
// A booking row, or a submission row together with its submission_items
// snapshot, is written in one transaction. Either every row commits or none
// does. Writes are serialized with a mutex because DuckDB allows a single
// writer per database.
//
// # Confirmation Codes
//
// Codes have the form PREFIX-XXXXXXXX-C (for example BK-7KQ2M9XD-P). The
// body is Crockford base32 drawn from a random v4 UUID and C is a Luhn mod 32
// check character. Both code columns are UNIQUE; a collision rolls the
// transaction back and the insert is retried with a fresh code.
//
// # Errors
//
// Failures other than a missing catalog row are wrapped in ErrPersistence.
// The underlying text is logged here and never shown to callers.
package database
