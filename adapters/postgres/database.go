package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "bhss/internal/errors"
	"bhss/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Connect opens and pings a database for driver ("postgres" or "sqlite3").
// The driver packages are registered by the caller.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to connect to %s database", driver)
	}
	if driver == "sqlite3" {
		// a single connection keeps ":memory:" databases shared across queries
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
	return db, nil
}

// isUniqueViolation reports whether err is a unique constraint failure on
// either supported driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFoundOr maps sql.ErrNoRows to a NOT_FOUND error and wraps anything else
func notFoundOr(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource)
	}
	return apperrors.DatabaseError(fmt.Sprintf("failed to get %s", resource), err)
}

// requireAffected turns a zero-row update or delete into NOT_FOUND
func requireAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.DatabaseError("failed to read affected rows", err)
	}
	if n == 0 {
		return apperrors.NotFound(resource)
	}
	return nil
}

// filterColumns names the columns a RecordFilter field applies to. Empty
// names are not filterable on that table.
type filterColumns struct {
	date         string
	municipality string
	school       string
	schoolYear   string
	status       string
}

// whereClause renders filter as a WHERE clause with ? bindvars
func whereClause(f models.RecordFilter, cols filterColumns) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if cols.date != "" && !f.From.IsZero() {
		add(cols.date+" >= ?", f.From.String())
	}
	if cols.date != "" && !f.To.IsZero() {
		add(cols.date+" <= ?", f.To.String())
	}
	if cols.municipality != "" && f.Municipality != "" {
		add("LOWER("+cols.municipality+") = LOWER(?)", f.Municipality)
	}
	if cols.school != "" && f.School != "" {
		add("LOWER("+cols.school+") = LOWER(?)", f.School)
	}
	if cols.schoolYear != "" && f.SchoolYear != "" {
		add(cols.schoolYear+" = ?", f.SchoolYear)
	}
	if cols.status != "" && f.Status != "" {
		add(cols.status+" = ?", string(f.Status))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// inTx runs fn in a transaction, rolling back when fn fails
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.DatabaseError("failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.DatabaseError("failed to commit transaction", err)
	}
	return nil
}

// now is the timestamp stored in created_at/updated_at
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
