package db

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

const currentSchemaVersion = 2

// schemaDDL contains the CREATE TABLE statements for the initial schema.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);

CREATE TABLE IF NOT EXISTS accounts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	username   TEXT NOT NULL,
	domain     TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	signature  TEXT NOT NULL DEFAULT '',
	has_footer INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	UNIQUE(username, domain)
);

CREATE TABLE IF NOT EXISTS contacts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	email      TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	is_trusted INTEGER NOT NULL DEFAULT 0,
	spam_score INTEGER NOT NULL DEFAULT 0,
	UNIQUE(account_id, email)
);

CREATE TABLE IF NOT EXISTS labels (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER REFERENCES accounts(id) ON DELETE CASCADE,
	text       TEXT NOT NULL,
	type       TEXT NOT NULL DEFAULT 'custom',
	color      TEXT NOT NULL DEFAULT '',
	uuid       TEXT NOT NULL UNIQUE,
	visible    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS emails (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id   INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	email_key    INTEGER NOT NULL,
	message_id   TEXT NOT NULL DEFAULT '',
	thread_id    TEXT NOT NULL DEFAULT '',
	date         TEXT NOT NULL,
	unread       INTEGER NOT NULL DEFAULT 1,
	status       INTEGER NOT NULL DEFAULT 0,
	secure       INTEGER NOT NULL DEFAULT 0,
	subject      TEXT NOT NULL DEFAULT '',
	reply_to     TEXT NOT NULL DEFAULT '',
	preview      TEXT NOT NULL DEFAULT '',
	boundary     TEXT NOT NULL DEFAULT '',
	from_address TEXT NOT NULL DEFAULT '',
	UNIQUE(account_id, email_key)
);

CREATE TABLE IF NOT EXISTS email_labels (
	email_id INTEGER NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
	label_id INTEGER NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
	PRIMARY KEY (email_id, label_id)
);

CREATE TABLE IF NOT EXISTS email_contacts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	email_id   INTEGER NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
	contact_id INTEGER NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	type       TEXT NOT NULL,
	UNIQUE(email_id, contact_id, type)
);

CREATE TABLE IF NOT EXISTS files (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	email_id  INTEGER NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
	name      TEXT NOT NULL,
	size      INTEGER NOT NULL DEFAULT 0,
	date      TEXT NOT NULL,
	mime_type TEXT NOT NULL DEFAULT '',
	status    INTEGER NOT NULL DEFAULT 0,
	token     TEXT NOT NULL DEFAULT '',
	file_key  TEXT NOT NULL DEFAULT '',
	UNIQUE(email_id, token, name)
);

CREATE INDEX IF NOT EXISTS idx_emails_thread_id ON emails(account_id, thread_id);
CREATE INDEX IF NOT EXISTS idx_emails_date ON emails(account_id, date);
CREATE INDEX IF NOT EXISTS idx_email_contacts_email_id ON email_contacts(email_id);
CREATE INDEX IF NOT EXISTS idx_files_email_id ON files(email_id);

CREATE TABLE IF NOT EXISTS aliases (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	row_id     INTEGER NOT NULL DEFAULT 0,
	name       TEXT NOT NULL,
	domain     TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 1,
	UNIQUE(account_id, name, domain)
);

CREATE TABLE IF NOT EXISTS custom_domains (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	validated  INTEGER NOT NULL DEFAULT 0,
	UNIQUE(account_id, name)
);
`

// Initialize creates all tables if they don't exist, seeds the system labels
// and sets the schema version.
func Initialize(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaDDL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for _, s := range model.SystemLabels {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO labels (id, account_id, text, type, color, uuid, visible)
			 VALUES (?, NULL, ?, ?, '', ?, 1)`,
			int64(s), s.Name(), string(model.LabelTypeSystem), "system-"+strconv.FormatInt(int64(s), 10),
		)
		if err != nil {
			return fmt.Errorf("seeding system label %s: %w", s.Name(), err)
		}
	}

	// Set schema version only if not already set.
	_, err = tx.Exec(
		`INSERT OR IGNORE INTO meta (key, value) VALUES ('schema_version', ?)`,
		strconv.Itoa(currentSchemaVersion),
	)
	if err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}

	return tx.Commit()
}

// SchemaVersion returns the current schema version from the meta table.
func SchemaVersion(db *sqlx.DB) (int, error) {
	var val string
	if err := db.Get(&val, `SELECT value FROM meta WHERE key = 'schema_version'`); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	v, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing schema version %q: %w", val, err)
	}

	return v, nil
}

// migrations is a list of migration functions keyed by the version they migrate TO.
// For example, migrations[2] migrates from version 1 to version 2.
var migrations = map[int]func(ctx context.Context, tx *sqlx.Tx) error{
	2: func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS aliases (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	row_id     INTEGER NOT NULL DEFAULT 0,
	name       TEXT NOT NULL,
	domain     TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 1,
	UNIQUE(account_id, name, domain)
);
CREATE TABLE IF NOT EXISTS custom_domains (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	validated  INTEGER NOT NULL DEFAULT 0,
	UNIQUE(account_id, name)
);
`)
		return err
	},
}

// Migrate checks the current schema version and applies any pending migrations
// sequentially. It is a no-op when already at the latest version.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	version, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for v := version + 1; v <= currentSchemaVersion; v++ {
		migrateFn, ok := migrations[v]
		if !ok {
			return fmt.Errorf("missing migration for version %d", v)
		}

		err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
			if err := migrateFn(ctx, tx); err != nil {
				return fmt.Errorf("applying migration %d: %w", v, err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE meta SET value = ? WHERE key = 'schema_version'`,
				strconv.Itoa(v),
			); err != nil {
				return fmt.Errorf("updating schema version to %d: %w", v, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
