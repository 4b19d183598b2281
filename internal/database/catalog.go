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
	"github.com/tomtom215/tourdesk/internal/pricing"
)

// DB implements the pricing resolver's catalog.
var _ pricing.Catalog = (*DB)(nil)

func catalogTable(kind models.ItemKind) string {
	if kind == models.ItemDestination {
		return "destinations"
	}
	return "packages"
}

// Package returns the package with id, or pricing.ErrNotFound.
func (db *DB) Package(ctx context.Context, id int64) (models.CatalogItem, error) {
	return db.catalogItem(ctx, models.ItemPackage, "id = ?", id)
}

// PackageBySlug returns the package with slug, or pricing.ErrNotFound.
func (db *DB) PackageBySlug(ctx context.Context, slug string) (models.CatalogItem, error) {
	return db.catalogItem(ctx, models.ItemPackage, "slug = ?", slug)
}

// Destination returns the destination with id, or pricing.ErrNotFound.
func (db *DB) Destination(ctx context.Context, id int64) (models.CatalogItem, error) {
	return db.catalogItem(ctx, models.ItemDestination, "id = ?", id)
}

func (db *DB) catalogItem(ctx context.Context, kind models.ItemKind, where string, arg any) (models.CatalogItem, error) {
	if db.isClosed() {
		return models.CatalogItem{}, fmt.Errorf("%w: %w", ErrPersistence, ErrClosed)
	}
	table := catalogTable(kind)
	start := time.Now()

	// The table name comes from catalogTable, never from input.
	query := fmt.Sprintf(`SELECT id, slug, name, price_amount, currency, active
		FROM %s WHERE %s ORDER BY id LIMIT 1`, table, where)

	item := models.CatalogItem{Kind: kind}
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&item.ID, &item.Slug, &item.Name, &item.Price.Amount, &item.Price.Currency, &item.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("select", table, time.Since(start), nil)
		return models.CatalogItem{}, pricing.ErrNotFound
	}
	metrics.RecordDBQuery("select", table, time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("table", table).Msg("Catalog read failed")
		return models.CatalogItem{}, fmt.Errorf("%w: read %s: %w", ErrPersistence, table, err)
	}
	return item, nil
}

// UpsertPackage inserts or replaces a package by id.
func (db *DB) UpsertPackage(ctx context.Context, item models.CatalogItem) error {
	item.Kind = models.ItemPackage
	return db.upsertCatalogItem(ctx, item)
}

// UpsertDestination inserts or replaces a destination by id.
func (db *DB) UpsertDestination(ctx context.Context, item models.CatalogItem) error {
	item.Kind = models.ItemDestination
	return db.upsertCatalogItem(ctx, item)
}

func (db *DB) upsertCatalogItem(ctx context.Context, item models.CatalogItem) error {
	if item.ID <= 0 {
		return fmt.Errorf("%s id must be positive, got %d", item.Kind, item.ID)
	}
	if item.Price.Amount < 0 || item.Price.Currency == "" {
		return fmt.Errorf("%s %d: %w", item.Kind, item.ID, models.ErrInvalidAmount)
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	if db.isClosed() {
		return ErrClosed
	}

	table := catalogTable(item.Kind)
	query := fmt.Sprintf(`INSERT INTO %s (id, slug, name, price_amount, currency, active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			slug = excluded.slug,
			name = excluded.name,
			price_amount = excluded.price_amount,
			currency = excluded.currency,
			active = excluded.active,
			updated_at = excluded.updated_at`, table)

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		item.ID, item.Slug, item.Name, item.Price.Amount, item.Price.Currency, item.Active, db.now().UTC())
	metrics.RecordDBQuery("upsert", table, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upsert %s %d: %w", item.Kind, item.ID, err)
	}
	return nil
}
