// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/tourdesk/internal/config"
	"github.com/tomtom215/tourdesk/internal/logging"
)

// maxCodeAttempts bounds the regenerate-and-retry loop on code collisions.
const maxCodeAttempts = 5

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// writeMu serializes write transactions.
	writeMu sync.Mutex
	codes   *CodeGenerator
	now     func() time.Time

	closeOnce sync.Once
	closed    atomic.Bool
}

// Option customizes a DB.
type Option func(*DB)

// WithCodeGenerator replaces the confirmation code generator.
func WithCodeGenerator(g *CodeGenerator) Option {
	return func(db *DB) { db.codes = g }
}

// WithClock sets the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// New opens the database at cfg.Path and creates the schema.
func New(cfg *config.DatabaseConfig, opts ...Option) (*DB, error) {
	if cfg.Path != ":memory:" && cfg.Path != "" {
		dir := filepath.Dir(cfg.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:  conn,
		cfg:   cfg,
		codes: NewCodeGenerator(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}

	db.configureConnectionPool()

	ctx, cancel := schemaContext()
	defer cancel()
	if err := db.createSchema(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Database ready")
	return db, nil
}

func connString(cfg *config.DatabaseConfig) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}
	// Extension autoloading stays off so startup never reaches the network.
	return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, threads, maxMemory)
}

// configureConnectionPool sizes the pool. DuckDB shares one database
// instance across all pooled connections of a connector.
func (db *DB) configureConnectionPool() {
	maxConns := runtime.NumCPU()
	if maxConns < 2 {
		maxConns = 2
	}
	db.conn.SetMaxOpenConns(maxConns)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Conn returns the underlying SQL connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks that the database answers a query. It backs the readiness
// probe.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil || db.isClosed() {
		return ErrClosed
	}
	var one int
	if err := db.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close checkpoints and closes the connection. It is safe to call more
// than once.
func (db *DB) Close() error {
	var err error
	db.closeOnce.Do(func() {
		db.closed.Store(true)
		// Wait for an in-flight write to finish.
		db.writeMu.Lock()
		defer db.writeMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, cpErr := db.conn.ExecContext(ctx, "CHECKPOINT"); cpErr != nil {
			logging.Warn().Err(cpErr).Msg("Failed to checkpoint database before close")
		}
		cancel()
		err = db.conn.Close()
	})
	return err
}

func (db *DB) isClosed() bool {
	return db.closed.Load()
}

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}
