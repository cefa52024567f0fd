package postgres

import (
	"context"
	"fmt"
	"log"
)

// Schema migrations run in order at startup, each inside its own
// transaction, and are recorded in schema_migrations. A failed
// migration aborts startup; rerunning after a fix resumes from the
// first unapplied version.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial schema",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS categories (
				id         TEXT PRIMARY KEY,
				name       TEXT NOT NULL UNIQUE,
				parent_id  TEXT REFERENCES categories(id) ON DELETE SET NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS products (
				id                  TEXT PRIMARY KEY,
				category_id         TEXT REFERENCES categories(id) ON DELETE CASCADE,
				name                TEXT NOT NULL,
				description         TEXT NOT NULL DEFAULT '',
				image               TEXT NOT NULL DEFAULT '',
				cost_price          NUMERIC(12,2) NOT NULL DEFAULT 0,
				selling_price       NUMERIC(12,2) NOT NULL,
				quantity_on_hand    INTEGER NOT NULL DEFAULT 0 CHECK (quantity_on_hand >= 0),
				low_stock_threshold INTEGER NOT NULL DEFAULT 0,
				is_archived         BOOLEAN NOT NULL DEFAULT false,
				created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS product_variants (
				id               TEXT PRIMARY KEY,
				product_id       TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
				name             TEXT NOT NULL,
				additional_price NUMERIC(12,2) NOT NULL DEFAULT 0,
				quantity_on_hand INTEGER NOT NULL DEFAULT 0 CHECK (quantity_on_hand >= 0),
				created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (product_id, name)
			)`,
			`CREATE TABLE IF NOT EXISTS stock_movements (
				id                TEXT PRIMARY KEY,
				product_id        TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
				variant_id        TEXT REFERENCES product_variants(id) ON DELETE CASCADE,
				movement_type     TEXT NOT NULL CHECK (movement_type IN ('SALE','STOCK_IN','ADJUSTMENT','WASTAGE')),
				quantity_change   INTEGER NOT NULL,
				previous_quantity INTEGER NOT NULL,
				new_quantity      INTEGER NOT NULL CHECK (new_quantity >= 0),
				notes             TEXT NOT NULL DEFAULT '',
				created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
				CHECK (new_quantity = previous_quantity + quantity_change)
			)`,
			`CREATE TABLE IF NOT EXISTS orders (
				id             TEXT PRIMARY KEY,
				order_number   TEXT NOT NULL UNIQUE,
				receipt_number TEXT NOT NULL UNIQUE,
				table_number   TEXT NOT NULL DEFAULT '',
				order_type     TEXT NOT NULL,
				order_status   TEXT NOT NULL,
				payment_status TEXT NOT NULL,
				payment_method TEXT NOT NULL,
				subtotal       NUMERIC(12,2) NOT NULL,
				tax            NUMERIC(12,2) NOT NULL,
				discount       NUMERIC(12,2) NOT NULL,
				service_charge NUMERIC(12,2) NOT NULL,
				total_amount   NUMERIC(12,2) NOT NULL,
				cash_tendered  NUMERIC(12,2),
				change_due     NUMERIC(12,2),
				status_log     JSONB NOT NULL DEFAULT '[]',
				created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
				completed_at   TIMESTAMPTZ
			)`,
			`CREATE TABLE IF NOT EXISTS order_items (
				id         TEXT PRIMARY KEY,
				order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
				product_id TEXT NOT NULL,
				variant_id TEXT,
				item_name  TEXT NOT NULL,
				quantity   INTEGER NOT NULL CHECK (quantity > 0),
				price      NUMERIC(12,2) NOT NULL,
				modifiers  JSONB NOT NULL DEFAULT '[]',
				subtotal   NUMERIC(12,2) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS order_counters (
				scope TEXT PRIMARY KEY,
				value INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				username      TEXT NOT NULL UNIQUE,
				name          TEXT NOT NULL,
				role          TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
		},
	},
	{
		version: 2,
		name:    "reporting indexes",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_payment_created ON orders (payment_status, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_movements_product_created ON stock_movements (product_id, created_at DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
			`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id)`,
		},
	},
}

// Migrate applies all pending migrations. Safe to call on every boot.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM schema_migrations
	`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		log.Printf("[postgres] applied migration %d: %s", m.version, m.name)
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, name) VALUES ($1, $2)
	`, m.version, m.name); err != nil {
		return err
	}
	return tx.Commit()
}
