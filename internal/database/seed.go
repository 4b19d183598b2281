// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/models"
)

// SeedItem is one catalog row in a seed file. Price is a decimal string
// such as "200" or "149.50".
type SeedItem struct {
	ID       int64  `koanf:"id"`
	Slug     string `koanf:"slug"`
	Name     string `koanf:"name"`
	Price    string `koanf:"price"`
	Currency string `koanf:"currency"`
	// Active defaults to true when omitted.
	Active *bool `koanf:"active"`
}

// Seed is the catalog seed file:
//
//	packages:
//	  - id: 5
//	    slug: serengeti-safari
//	    name: Serengeti Safari
//	    price: "200.00"
//	    currency: USD
//	destinations:
//	  - id: 3
//	    ...
type Seed struct {
	Packages     []SeedItem `koanf:"packages"`
	Destinations []SeedItem `koanf:"destinations"`
}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) (*Seed, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load seed file %s: %w", path, err)
	}
	var seed Seed
	if err := k.Unmarshal("", &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// ApplySeed upserts every package and destination in seed.
func (db *DB) ApplySeed(ctx context.Context, seed *Seed) error {
	for _, s := range seed.Packages {
		item, err := s.catalogItem(models.ItemPackage)
		if err != nil {
			return err
		}
		if err := db.UpsertPackage(ctx, item); err != nil {
			return err
		}
	}
	for _, s := range seed.Destinations {
		item, err := s.catalogItem(models.ItemDestination)
		if err != nil {
			return err
		}
		if err := db.UpsertDestination(ctx, item); err != nil {
			return err
		}
	}
	logging.Info().
		Int("packages", len(seed.Packages)).
		Int("destinations", len(seed.Destinations)).
		Msg("Catalog seed applied")
	return nil
}

// SeedFromFile loads path and applies it. An empty path is a no-op.
func (db *DB) SeedFromFile(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	seed, err := LoadSeedFile(path)
	if err != nil {
		return err
	}
	return db.ApplySeed(ctx, seed)
}

func (s SeedItem) catalogItem(kind models.ItemKind) (models.CatalogItem, error) {
	amount, err := models.ParseAmount(s.Price)
	if err != nil {
		return models.CatalogItem{}, fmt.Errorf("seed %s %d: %w", kind, s.ID, err)
	}
	if s.Name == "" {
		return models.CatalogItem{}, fmt.Errorf("seed %s %d: name is required", kind, s.ID)
	}
	active := true
	if s.Active != nil {
		active = *s.Active
	}
	return models.CatalogItem{
		ID:     s.ID,
		Kind:   kind,
		Slug:   strings.TrimSpace(s.Slug),
		Name:   s.Name,
		Price:  models.Money{Amount: amount, Currency: strings.ToUpper(strings.TrimSpace(s.Currency))},
		Active: active,
	}, nil
}
