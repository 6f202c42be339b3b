package migration

import (
	"context"
	"fmt"
	"log"

	"bhss/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations. The DDL sticks to types
// both PostgreSQL and SQLite accept.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// step is one named schema change
type step struct {
	name string
	sql  string
}

var tables = []step{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'user',
			municipality VARCHAR(255) NOT NULL DEFAULT '',
			school VARCHAR(255) NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"attendance_records", `
		CREATE TABLE IF NOT EXISTS attendance_records (
			id TEXT PRIMARY KEY,
			date_key VARCHAR(10) NOT NULL,
			municipality VARCHAR(255) NOT NULL,
			school VARCHAR(255) NOT NULL,
			grade VARCHAR(50) NOT NULL,
			present INTEGER NOT NULL DEFAULT 0,
			absent INTEGER NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"delivery_records", `
		CREATE TABLE IF NOT EXISTS delivery_records (
			id TEXT PRIMARY KEY,
			date_key VARCHAR(10) NOT NULL,
			municipality VARCHAR(255) NOT NULL,
			school VARCHAR(255) NOT NULL,
			category_key VARCHAR(100) NOT NULL,
			category_label VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'Pending',
			status_reason TEXT NOT NULL DEFAULT '',
			uploaded_at TIMESTAMP,
			images TEXT NOT NULL DEFAULT '[]',
			concerns TEXT NOT NULL DEFAULT '[]',
			remarks TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"schools", `
		CREATE TABLE IF NOT EXISTS schools (
			id TEXT PRIMARY KEY,
			municipality VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			school_year VARCHAR(20) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"school_beneficiaries", `
		CREATE TABLE IF NOT EXISTS school_beneficiaries (
			id TEXT PRIMARY KEY,
			municipality VARCHAR(255) NOT NULL,
			school_year VARCHAR(20) NOT NULL DEFAULT '',
			kitchen VARCHAR(255) NOT NULL DEFAULT '',
			school VARCHAR(255) NOT NULL,
			grade2 INTEGER NOT NULL DEFAULT 0,
			grade3 INTEGER NOT NULL DEFAULT 0,
			grade4 INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"school_details", `
		CREATE TABLE IF NOT EXISTS school_details (
			id TEXT PRIMARY KEY,
			municipality VARCHAR(255) NOT NULL,
			school_year VARCHAR(20) NOT NULL DEFAULT '',
			school VARCHAR(255) NOT NULL,
			contacts TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"calendar_events", `
		CREATE TABLE IF NOT EXISTS calendar_events (
			id TEXT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date_key VARCHAR(10) NOT NULL,
			start_time VARCHAR(5) NOT NULL DEFAULT '',
			end_time VARCHAR(5) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'Scheduled',
			attachment TEXT,
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"announcements", `
		CREATE TABLE IF NOT EXISTS announcements (
			id TEXT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`},
	{"push_subscriptions", `
		CREATE TABLE IF NOT EXISTS push_subscriptions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			endpoint TEXT UNIQUE NOT NULL,
			p256dh TEXT NOT NULL,
			auth TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`},
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance_records(date_key)",
	"CREATE INDEX IF NOT EXISTS idx_attendance_school ON attendance_records(municipality, school)",
	"CREATE INDEX IF NOT EXISTS idx_delivery_date ON delivery_records(date_key)",
	"CREATE INDEX IF NOT EXISTS idx_delivery_school ON delivery_records(municipality, school)",
	"CREATE INDEX IF NOT EXISTS idx_delivery_status ON delivery_records(status)",
	"CREATE INDEX IF NOT EXISTS idx_schools_municipality ON schools(municipality)",
	"CREATE INDEX IF NOT EXISTS idx_beneficiaries_municipality ON school_beneficiaries(municipality, school_year)",
	"CREATE INDEX IF NOT EXISTS idx_details_municipality ON school_details(municipality, school_year)",
	"CREATE INDEX IF NOT EXISTS idx_events_date ON calendar_events(date_key)",
	"CREATE INDEX IF NOT EXISTS idx_announcements_created_at ON announcements(created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_push_user ON push_subscriptions(user_id)",
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, t.sql); err != nil {
			return errors.Wrapf(err, "failed to create %s table", t.name)
		}
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	log.Printf("[Migration] schema %s applied (%d tables)", r.version, len(tables))
	return nil
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}
	return nil
}

// Reset drops every table in reverse dependency order
func (r *MigrationRunner) Reset(ctx context.Context, db *sqlx.DB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+tables[i].name); err != nil {
			return errors.Wrapf(err, "failed to drop %s table", tables[i].name)
		}
	}
	log.Printf("[Migration] all tables dropped")
	return nil
}

// Tables lists the managed table names in creation order
func Tables() []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.name
	}
	return names
}
