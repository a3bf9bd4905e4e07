package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Open opens or creates the SQLite database at the given path.
// It sets pragmas for WAL mode, foreign key enforcement, and busy timeout.
func Open(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite is single-writer.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return db, nil
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func WithTx(ctx context.Context, conn *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertOrLookup runs an INSERT OR IGNORE and returns the new row id. When the
// insert was ignored because of a uniqueness conflict, lookup is queried for
// the id of the existing row instead. The boolean reports whether a row was
// inserted.
func insertOrLookup(ctx context.Context, q sqlx.ExtContext, insert string, insertArgs []any, lookup string, lookupArgs []any) (int64, bool, error) {
	res, err := q.ExecContext(ctx, insert, insertArgs...)
	if err != nil {
		return 0, false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("getting inserted id: %w", err)
		}
		return id, true, nil
	}

	var id int64
	if err := sqlx.GetContext(ctx, q, &id, lookup, lookupArgs...); err != nil {
		return 0, false, fmt.Errorf("looking up existing row: %w", err)
	}
	return id, false, nil
}

// selectIn expands the slice arguments of an IN query and selects into dest.
func selectIn(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return fmt.Errorf("expanding IN query: %w", err)
	}
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
