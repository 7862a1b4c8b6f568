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
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id              INTEGER PRIMARY KEY,
    title           TEXT NOT NULL,
    category        TEXT NOT NULL,
    owner_id        INTEGER NOT NULL REFERENCES users(id),
    visibility      TEXT NOT NULL DEFAULT 'public' CHECK (visibility IN ('public', 'hidden')),
    screenshot_ref  TEXT,
    screenshot      BLOB,
    screenshot_mime TEXT,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);

CREATE TABLE IF NOT EXISTS item_status (
    item_id               INTEGER PRIMARY KEY REFERENCES items(id),
    status                TEXT NOT NULL DEFAULT 'available'
                          CHECK (status IN ('available', 'requested', 'reserved', 'given', 'confirmed', 'flagged_dupe')),
    status_since          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    claimant_id           INTEGER REFERENCES users(id),
    claimant_contact      TEXT,
    claimed_at            DATETIME,
    donor_confirmed       INTEGER NOT NULL DEFAULT 0,
    donor_confirmed_at    DATETIME,
    receiver_confirmed    INTEGER NOT NULL DEFAULT 0,
    receiver_confirmed_at DATETIME,
    CHECK ((claimant_id IS NOT NULL) = (status IN ('requested', 'reserved', 'given', 'confirmed'))),
    CHECK ((donor_confirmed = 0 AND receiver_confirmed = 0) OR status IN ('reserved', 'given', 'confirmed'))
);

CREATE INDEX IF NOT EXISTS idx_item_status_status ON item_status(status);

CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid        TEXT NOT NULL UNIQUE,
    actor_id    INTEGER,
    target_type TEXT NOT NULL,
    target_id   INTEGER NOT NULL,
    action      TEXT NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_log_target ON audit_log(target_type, target_id);

CREATE TRIGGER IF NOT EXISTS audit_log_no_update
    BEFORE UPDATE ON audit_log
BEGIN
    SELECT RAISE(ABORT, 'audit_log is append-only');
END;

CREATE TRIGGER IF NOT EXISTS audit_log_no_delete
    BEFORE DELETE ON audit_log
BEGIN
    SELECT RAISE(ABORT, 'audit_log is append-only');
END;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
