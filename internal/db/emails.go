package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

type emailRecord struct {
	ID          int64  `db:"id"`
	AccountID   int64  `db:"account_id"`
	Key         int64  `db:"email_key"`
	MessageID   string `db:"message_id"`
	ThreadID    string `db:"thread_id"`
	Date        string `db:"date"`
	Unread      bool   `db:"unread"`
	Status      int    `db:"status"`
	Secure      bool   `db:"secure"`
	Subject     string `db:"subject"`
	ReplyTo     string `db:"reply_to"`
	Preview     string `db:"preview"`
	Boundary    string `db:"boundary"`
	FromAddress string `db:"from_address"`
}

func (r *emailRecord) toModel() (*model.Email, error) {
	t, err := model.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	return &model.Email{
		ID:          r.ID,
		AccountID:   r.AccountID,
		Key:         r.Key,
		MessageID:   r.MessageID,
		ThreadID:    r.ThreadID,
		Date:        t,
		Unread:      r.Unread,
		Status:      model.EmailStatus(r.Status),
		Secure:      r.Secure,
		Subject:     r.Subject,
		ReplyTo:     r.ReplyTo,
		Preview:     r.Preview,
		Boundary:    r.Boundary,
		FromAddress: r.FromAddress,
	}, nil
}

func toEmails(records []emailRecord) ([]*model.Email, error) {
	emails := make([]*model.Email, 0, len(records))
	for i := range records {
		e, err := records[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("email %d: %w", records[i].ID, err)
		}
		emails = append(emails, e)
	}
	return emails, nil
}

const emailColumns = `id, account_id, email_key, message_id, thread_id, date, unread, status, secure,
	subject, reply_to, preview, boundary, from_address`

const insertEmailSQL = `INSERT OR IGNORE INTO emails
	(account_id, email_key, message_id, thread_id, date, unread, status, secure, subject, reply_to, preview, boundary, from_address)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func emailArgs(accountID int64, e *model.Email) []any {
	return []any{
		accountID, e.Key, e.MessageID, e.ThreadID, model.FormatDate(e.Date),
		boolToInt(e.Unread), int(e.Status), boolToInt(e.Secure),
		e.Subject, e.ReplyTo, e.Preview, e.Boundary, e.FromAddress,
	}
}

// CreateEmail inserts a message for the account and returns its ID. Returns
// an error when the account already has a message with the same key.
func CreateEmail(ctx context.Context, q sqlx.ExtContext, accountID int64, e *model.Email) (int64, error) {
	res, err := q.ExecContext(ctx, insertEmailSQL, emailArgs(accountID, e)...)
	if err != nil {
		return 0, fmt.Errorf("inserting email %d: %w", e.Key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("email key %d already exists", e.Key)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting email id: %w", err)
	}
	e.ID = id
	e.AccountID = accountID
	return id, nil
}

// UpsertEmail inserts a message keyed by (account, key). When the key already
// exists the stored message is left untouched and its ID is returned.
func UpsertEmail(ctx context.Context, q sqlx.ExtContext, accountID int64, e *model.Email) (int64, bool, error) {
	id, inserted, err := insertOrLookup(ctx, q,
		insertEmailSQL, emailArgs(accountID, e),
		`SELECT id FROM emails WHERE account_id = ? AND email_key = ?`,
		[]any{accountID, e.Key},
	)
	if err != nil {
		return 0, false, fmt.Errorf("upserting email %d: %w", e.Key, err)
	}
	e.ID = id
	e.AccountID = accountID
	return id, inserted, nil
}

// GetEmailByKey retrieves a message by its account-scoped key.
func GetEmailByKey(ctx context.Context, q sqlx.QueryerContext, accountID, key int64) (*model.Email, error) {
	var r emailRecord
	err := sqlx.GetContext(ctx, q, &r,
		`SELECT `+emailColumns+` FROM emails WHERE account_id = ? AND email_key = ?`, accountID, key,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying email: %w", err)
	}
	return r.toModel()
}

// CountEmails returns the number of messages stored for the account.
func CountEmails(ctx context.Context, q sqlx.QueryerContext, accountID int64) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM emails WHERE account_id = ?`, accountID); err != nil {
		return 0, fmt.Errorf("counting emails: %w", err)
	}
	return n, nil
}

// AddEmailLabels attaches labels to a message, ignoring labels that are
// already attached.
func AddEmailLabels(ctx context.Context, q sqlx.ExtContext, emailID int64, labelIDs ...int64) error {
	for _, labelID := range labelIDs {
		if _, err := InsertEmailLabel(ctx, q, emailID, labelID); err != nil {
			return err
		}
	}
	return nil
}

// InsertEmailLabel inserts a single email-label mapping using INSERT OR IGNORE.
// Returns true if inserted, false if already existed.
func InsertEmailLabel(ctx context.Context, q sqlx.ExtContext, emailID, labelID int64) (bool, error) {
	res, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO email_labels (email_id, label_id) VALUES (?, ?)`,
		emailID, labelID,
	)
	if err != nil {
		return false, fmt.Errorf("inserting email-label mapping (email=%d, label=%d): %w", emailID, labelID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// InsertEmailContact links a contact to a message in the given role. Returns
// true if inserted, false if the same link already existed.
func InsertEmailContact(ctx context.Context, q sqlx.ExtContext, emailID, contactID int64, ct model.ContactType) (bool, error) {
	res, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO email_contacts (email_id, contact_id, type) VALUES (?, ?, ?)`,
		emailID, contactID, string(ct),
	)
	if err != nil {
		return false, fmt.Errorf("inserting email-contact mapping (email=%d, contact=%d): %w", emailID, contactID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CountEmailContacts returns the number of contact links of a message.
func CountEmailContacts(ctx context.Context, q sqlx.QueryerContext, emailID int64) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM email_contacts WHERE email_id = ?`, emailID); err != nil {
		return 0, fmt.Errorf("counting email contacts: %w", err)
	}
	return n, nil
}
