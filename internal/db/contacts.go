package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

const contactColumns = `id, account_id, email, name, is_trusted, spam_score`

// UpsertContact inserts a contact for the account, keyed by email address.
// When the address already exists the existing row is kept and its ID is
// returned. The boolean reports whether a row was inserted.
func UpsertContact(ctx context.Context, q sqlx.ExtContext, accountID int64, c *model.Contact) (int64, bool, error) {
	id, inserted, err := insertOrLookup(ctx, q,
		`INSERT OR IGNORE INTO contacts (account_id, email, name, is_trusted, spam_score)
		 VALUES (?, ?, ?, ?, ?)`,
		[]any{accountID, c.Email, c.Name, boolToInt(c.IsTrusted), c.SpamScore},
		`SELECT id FROM contacts WHERE account_id = ? AND email = ?`,
		[]any{accountID, c.Email},
	)
	if err != nil {
		return 0, false, fmt.Errorf("upserting contact %q: %w", c.Email, err)
	}
	c.ID = id
	c.AccountID = accountID
	return id, inserted, nil
}

// GetContactByEmail retrieves an account's contact by address.
func GetContactByEmail(ctx context.Context, q sqlx.QueryerContext, accountID int64, email string) (*model.Contact, error) {
	var c model.Contact
	err := sqlx.GetContext(ctx, q, &c,
		`SELECT `+contactColumns+` FROM contacts WHERE account_id = ? AND email = ?`,
		accountID, email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying contact: %w", err)
	}
	return &c, nil
}

// ListContacts returns all contacts of an account ordered by ID.
func ListContacts(ctx context.Context, q sqlx.QueryerContext, accountID int64) ([]*model.Contact, error) {
	var contacts []*model.Contact
	err := sqlx.SelectContext(ctx, q, &contacts,
		`SELECT `+contactColumns+` FROM contacts WHERE account_id = ? ORDER BY id`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	return contacts, nil
}
