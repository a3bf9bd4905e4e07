package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

type fileRecord struct {
	ID       int64  `db:"id"`
	EmailID  int64  `db:"email_id"`
	EmailKey int64  `db:"email_key"`
	Name     string `db:"name"`
	Size     int64  `db:"size"`
	Date     string `db:"date"`
	MimeType string `db:"mime_type"`
	Status   int    `db:"status"`
	Token    string `db:"token"`
	FileKey  string `db:"file_key"`
}

func toFiles(records []fileRecord) ([]*model.File, error) {
	files := make([]*model.File, 0, len(records))
	for _, r := range records {
		t, err := model.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("file %d: %w", r.ID, err)
		}
		files = append(files, &model.File{
			ID:       r.ID,
			EmailID:  r.EmailID,
			EmailKey: r.EmailKey,
			Name:     r.Name,
			Size:     r.Size,
			Date:     t,
			MimeType: r.MimeType,
			Status:   model.FileStatus(r.Status),
			Token:    r.Token,
			FileKey:  r.FileKey,
		})
	}
	return files, nil
}

const fileSelect = `SELECT f.id, f.email_id, e.email_key, f.name, f.size, f.date, f.mime_type, f.status, f.token, f.file_key
	FROM files f JOIN emails e ON e.id = f.email_id`

// InsertFile attaches file metadata to a message using INSERT OR IGNORE keyed
// by (email, token, name). Returns true if inserted.
func InsertFile(ctx context.Context, q sqlx.ExtContext, emailID int64, f *model.File) (bool, error) {
	res, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO files (email_id, name, size, date, mime_type, status, token, file_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		emailID, f.Name, f.Size, model.FormatDate(f.Date), f.MimeType, int(f.Status), f.Token, f.FileKey,
	)
	if err != nil {
		return false, fmt.Errorf("inserting file %q (email=%d): %w", f.Name, emailID, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		if id, err := res.LastInsertId(); err == nil {
			f.ID = id
		}
		f.EmailID = emailID
	}
	return n > 0, nil
}

// ListFiles returns all attachment metadata of the account, grouped by
// message and ordered by ID within a message.
func ListFiles(ctx context.Context, q sqlx.QueryerContext, accountID int64) ([]*model.File, error) {
	var records []fileRecord
	err := sqlx.SelectContext(ctx, q, &records,
		fileSelect+` WHERE e.account_id = ? ORDER BY f.email_id, f.id`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	return toFiles(records)
}

// ListFilesForEmails returns attachment metadata of the given messages.
func ListFilesForEmails(ctx context.Context, q sqlx.ExtContext, emailIDs []int64) ([]*model.File, error) {
	if len(emailIDs) == 0 {
		return nil, nil
	}
	var records []fileRecord
	if err := selectIn(ctx, q, &records, fileSelect+` WHERE f.email_id IN (?) ORDER BY f.email_id, f.id`, emailIDs); err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	return toFiles(records)
}
