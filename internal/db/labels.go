package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

const labelColumns = `id, account_id, text, type, color, uuid, visible`

// CreateLabel inserts a custom label for the account and returns its ID. A
// UUID is generated when the label has none.
func CreateLabel(ctx context.Context, q sqlx.ExtContext, accountID int64, l *model.Label) (int64, error) {
	if strings.TrimSpace(l.Text) == "" {
		return 0, fmt.Errorf("label text must not be empty")
	}
	if l.UUID == "" {
		l.UUID = strings.ToUpper(uuid.New().String())
	}
	if l.Type == "" {
		l.Type = model.LabelTypeCustom
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO labels (account_id, text, type, color, uuid, visible) VALUES (?, ?, ?, ?, ?, ?)`,
		accountID, l.Text, string(l.Type), l.Color, l.UUID, boolToInt(l.Visible),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting label %q: %w", l.Text, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting label id: %w", err)
	}
	l.ID = id
	l.AccountID = &accountID
	return id, nil
}

// UpsertLabel inserts a custom label keyed by UUID, returning the ID of the
// existing label when the UUID is already present.
func UpsertLabel(ctx context.Context, q sqlx.ExtContext, accountID int64, l *model.Label) (int64, bool, error) {
	if l.UUID == "" {
		l.UUID = strings.ToUpper(uuid.New().String())
	}
	id, inserted, err := insertOrLookup(ctx, q,
		`INSERT OR IGNORE INTO labels (account_id, text, type, color, uuid, visible) VALUES (?, ?, ?, ?, ?, ?)`,
		[]any{accountID, l.Text, string(model.LabelTypeCustom), l.Color, l.UUID, boolToInt(l.Visible)},
		`SELECT id FROM labels WHERE uuid = ?`,
		[]any{l.UUID},
	)
	if err != nil {
		return 0, false, fmt.Errorf("upserting label %q: %w", l.Text, err)
	}
	l.ID = id
	return id, inserted, nil
}

// ListCustomLabels returns the account's custom labels ordered by ID.
func ListCustomLabels(ctx context.Context, q sqlx.QueryerContext, accountID int64) ([]*model.Label, error) {
	var labels []*model.Label
	err := sqlx.SelectContext(ctx, q, &labels,
		`SELECT `+labelColumns+` FROM labels WHERE account_id = ? AND type = ? ORDER BY id`,
		accountID, string(model.LabelTypeCustom),
	)
	if err != nil {
		return nil, fmt.Errorf("querying labels: %w", err)
	}
	return labels, nil
}

// GetLabels returns labels by ID, keyed by ID.
func GetLabels(ctx context.Context, q sqlx.ExtContext, ids []int64) (map[int64]*model.Label, error) {
	out := make(map[int64]*model.Label, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var labels []*model.Label
	if err := selectIn(ctx, q, &labels, `SELECT `+labelColumns+` FROM labels WHERE id IN (?)`, ids); err != nil {
		return nil, fmt.Errorf("querying labels: %w", err)
	}
	for _, l := range labels {
		out[l.ID] = l
	}
	return out, nil
}
