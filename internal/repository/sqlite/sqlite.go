// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary needs no
// C toolchain. One *DB owns the connection pool; per-entity stores (Users(),
// Donations(), ...) share it and each satisfy one repository interface.
//
// TIME STORAGE:
// Every timestamp is written in UTC using the driver's "sqlite" time format
// (2006-01-02 15:04:05.999999999-07:00). With a fixed offset the text sorts
// chronologically, which is what the date-range queries rely on.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/caridad-unsta/caridad/internal/apperror"
)

// DB wraps a sql.DB connection pool and hands out the per-entity stores.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/caridad.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite serializes writers anyway. A single connection also keeps an
	// in-memory database alive and shared for the lifetime of the pool.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn appends the connection parameters the driver applies to every
// connection it opens: foreign keys on, UTC-sortable time format, and
// BEGIN IMMEDIATE for transactions so a read-then-write transaction holds the
// write lock from its first statement.
func dsn(dbPath string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_time_format=sqlite",
		"_txlock=immediate",
	}
	if dbPath != ":memory:" {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	return dbPath + "?" + strings.Join(params, "&")
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() *UserDB                 { return &UserDB{db: db} }
func (db *DB) Sections() *SectionDB           { return &SectionDB{db: db} }
func (db *DB) Campaigns() *CampaignDB         { return &CampaignDB{db: db} }
func (db *DB) Donations() *DonationDB         { return &DonationDB{db: db} }
func (db *DB) Activities() *ActivityDB        { return &ActivityDB{db: db} }
func (db *DB) Notifications() *NotificationDB { return &NotificationDB{db: db} }
func (db *DB) Reports() *ReportDB             { return &ReportDB{db: db} }

// migrate creates every table. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	phases := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				external_id   TEXT UNIQUE,
				email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
				name          TEXT NOT NULL,
				role          TEXT NOT NULL DEFAULT 'Member' CHECK (role IN ('Admin', 'Member')),
				member_code   TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL DEFAULT '',
				created_at    DATETIME NOT NULL,
				updated_at    DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);
		`},
		{"donation_sections", `
			CREATE TABLE IF NOT EXISTS donation_sections (
				id                  TEXT PRIMARY KEY,
				name                TEXT NOT NULL UNIQUE COLLATE NOCASE,
				slug                TEXT NOT NULL UNIQUE,
				description         TEXT NOT NULL DEFAULT '',
				is_active           INTEGER NOT NULL DEFAULT 1,
				festive_campaign_id TEXT,
				created_at          DATETIME NOT NULL,
				updated_at          DATETIME NOT NULL
			);
		`},
		{"festive_campaigns", `
			CREATE TABLE IF NOT EXISTS festive_campaigns (
				id          TEXT PRIMARY KEY,
				name        TEXT NOT NULL UNIQUE COLLATE NOCASE,
				description TEXT NOT NULL DEFAULT '',
				start_date  TEXT NOT NULL,
				end_date    TEXT NOT NULL,
				is_enabled  INTEGER NOT NULL DEFAULT 1,
				icon        TEXT NOT NULL DEFAULT '',
				gradient    TEXT NOT NULL DEFAULT '',
				bg_gradient TEXT NOT NULL DEFAULT '',
				items       TEXT NOT NULL DEFAULT '[]',
				section_id  TEXT REFERENCES donation_sections(id) ON DELETE SET NULL,
				created_at  DATETIME NOT NULL,
				updated_at  DATETIME NOT NULL
			);
		`},
		{"donations", `
			CREATE TABLE IF NOT EXISTS donations (
				id           TEXT PRIMARY KEY,
				amount       REAL NOT NULL DEFAULT 0 CHECK (amount >= 0),
				description  TEXT NOT NULL DEFAULT '',
				is_anonymous INTEGER NOT NULL DEFAULT 0,
				status       TEXT NOT NULL DEFAULT 'Pending'
				             CHECK (status IN ('Pending', 'Confirmed', 'Rejected')),
				user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
				section_id   TEXT NOT NULL REFERENCES donation_sections(id) ON DELETE RESTRICT,
				donor_name   TEXT NOT NULL DEFAULT '',
				donor_email  TEXT NOT NULL DEFAULT '',
				created_at   DATETIME NOT NULL,
				updated_at   DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_donations_created_at ON donations(created_at);
			CREATE INDEX IF NOT EXISTS idx_donations_section_id ON donations(section_id);
			CREATE INDEX IF NOT EXISTS idx_donations_user_id ON donations(user_id);
		`},
		{"activities", `
			CREATE TABLE IF NOT EXISTS activities (
				id               TEXT PRIMARY KEY,
				title            TEXT NOT NULL UNIQUE COLLATE NOCASE,
				description      TEXT NOT NULL DEFAULT '',
				date             DATETIME NOT NULL,
				location         TEXT NOT NULL DEFAULT '',
				max_participants INTEGER CHECK (max_participants IS NULL OR max_participants > 0),
				is_active        INTEGER NOT NULL DEFAULT 1,
				created_at       DATETIME NOT NULL,
				updated_at       DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date);

			CREATE TABLE IF NOT EXISTS activity_participants (
				user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
				joined_at   DATETIME NOT NULL,
				PRIMARY KEY (user_id, activity_id)
			);
			CREATE INDEX IF NOT EXISTS idx_participants_activity ON activity_participants(activity_id);
		`},
		{"notifications", `
			CREATE TABLE IF NOT EXISTS notifications (
				id         TEXT PRIMARY KEY,
				title      TEXT NOT NULL,
				message    TEXT NOT NULL DEFAULT '',
				type       TEXT NOT NULL DEFAULT 'General',
				is_global  INTEGER NOT NULL DEFAULT 0,
				user_id    TEXT REFERENCES users(id) ON DELETE CASCADE,
				is_active  INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				CHECK ((is_global = 1 AND user_id IS NULL) OR (is_global = 0 AND user_id IS NOT NULL))
			);
			CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);

			CREATE TABLE IF NOT EXISTS notification_reads (
				user_id         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				notification_id TEXT NOT NULL REFERENCES notifications(id) ON DELETE CASCADE,
				read_at         DATETIME NOT NULL,
				PRIMARY KEY (user_id, notification_id)
			);
		`},
	}

	for _, p := range phases {
		if _, err := db.conn.Exec(p.sql); err != nil {
			return fmt.Errorf("creating %s: %w", p.name, err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// constraintError translates SQLite constraint violations into domain
// errors. It returns nil when err is not a constraint violation.
func constraintError(err error, resource, key string) error {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return nil
	}

	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return apperror.Conflict(resource, key)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return apperror.ConflictMessage(resource + " is referenced by, or references, missing records")
	}

	// Extended codes disabled: fall back to the primary code and message.
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := se.Error()
		switch {
		case strings.Contains(msg, "UNIQUE"), strings.Contains(msg, "PRIMARY KEY"):
			return apperror.Conflict(resource, key)
		case strings.Contains(msg, "FOREIGN KEY"):
			return apperror.ConflictMessage(resource + " is referenced by, or references, missing records")
		}
	}
	return nil
}

// checkAffected converts "zero rows affected" into a NotFound error.
func checkAffected(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// nullString stores "" as NULL, for nullable unique columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullStringPtr stores a nil or empty pointer as NULL.
func nullStringPtr(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// stringPtr converts a scanned sql.NullString into an optional string.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := ns.String
	return &s
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
