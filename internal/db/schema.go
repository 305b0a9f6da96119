package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'viewer' CHECK (role IN ('admin', 'operator', 'viewer')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS customers (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    discord_handle TEXT NOT NULL DEFAULT '',
    created_at     DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS quotes (
    id                  TEXT PRIMARY KEY,
    customer_name       TEXT NOT NULL,
    customer_handle     TEXT NOT NULL DEFAULT '',
    order_id            TEXT NOT NULL DEFAULT '',
    customer_id         TEXT REFERENCES customers(id) ON DELETE SET NULL,
    status              TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'sent', 'paid', 'shipped', 'complete')),
    notes               TEXT NOT NULL DEFAULT '',
    exchange_rate       REAL NOT NULL CHECK (exchange_rate > 0),
    fixed_fee_usd       REAL NOT NULL DEFAULT 0,
    shipping_per_kg_usd REAL NOT NULL,
    insurance_rate      REAL NOT NULL,
    haul_fee_usd        REAL NOT NULL,
    created_at          DATETIME NOT NULL,
    updated_at          DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quotes_updated_at ON quotes(updated_at);

CREATE TABLE IF NOT EXISTS items (
    id           TEXT PRIMARY KEY,
    quote_id     TEXT NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
    link         TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL,
    yuan         REAL NOT NULL CHECK (yuan >= 0),
    type         TEXT NOT NULL CHECK (type IN ('tee', 'hoodie', 'pants', 'shoes', 'accessory', 'custom')),
    weight_grams REAL,
    include      INTEGER NOT NULL DEFAULT 1,
    status       TEXT,
    position     INTEGER NOT NULL,
    image        BLOB,
    image_mime   TEXT,
    created_at   DATETIME NOT NULL,
    updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_quote_position ON items(quote_id, position);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: index revocations by expiry so the opportunistic cleanup
	// in RevokeToken does not scan the table.
	`CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires_at ON revoked_tokens(expires_at)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
