package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

// UpsertAlias inserts an alias keyed by (account, name, domain).
func UpsertAlias(ctx context.Context, q sqlx.ExtContext, accountID int64, a *model.Alias) (int64, bool, error) {
	id, inserted, err := insertOrLookup(ctx, q,
		`INSERT OR IGNORE INTO aliases (account_id, row_id, name, domain, active) VALUES (?, ?, ?, ?, ?)`,
		[]any{accountID, a.RowID, a.Name, a.Domain, boolToInt(a.Active)},
		`SELECT id FROM aliases WHERE account_id = ? AND name = ? AND domain = ?`,
		[]any{accountID, a.Name, a.Domain},
	)
	if err != nil {
		return 0, false, fmt.Errorf("upserting alias %q: %w", a.Address(), err)
	}
	a.ID = id
	a.AccountID = accountID
	return id, inserted, nil
}

// ListAliases returns the account's aliases ordered by ID.
func ListAliases(ctx context.Context, q sqlx.QueryerContext, accountID int64) ([]*model.Alias, error) {
	var aliases []*model.Alias
	err := sqlx.SelectContext(ctx, q, &aliases,
		`SELECT id, account_id, row_id, name, domain, active FROM aliases WHERE account_id = ? ORDER BY id`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying aliases: %w", err)
	}
	return aliases, nil
}

// UpsertCustomDomain inserts a custom domain keyed by (account, name).
func UpsertCustomDomain(ctx context.Context, q sqlx.ExtContext, accountID int64, d *model.CustomDomain) (int64, bool, error) {
	id, inserted, err := insertOrLookup(ctx, q,
		`INSERT OR IGNORE INTO custom_domains (account_id, name, validated) VALUES (?, ?, ?)`,
		[]any{accountID, d.Name, boolToInt(d.Validated)},
		`SELECT id FROM custom_domains WHERE account_id = ? AND name = ?`,
		[]any{accountID, d.Name},
	)
	if err != nil {
		return 0, false, fmt.Errorf("upserting custom domain %q: %w", d.Name, err)
	}
	d.ID = id
	d.AccountID = accountID
	return id, inserted, nil
}

// ListCustomDomains returns the account's custom domains ordered by ID.
func ListCustomDomains(ctx context.Context, q sqlx.QueryerContext, accountID int64) ([]*model.CustomDomain, error) {
	var domains []*model.CustomDomain
	err := sqlx.SelectContext(ctx, q, &domains,
		`SELECT id, account_id, name, validated FROM custom_domains WHERE account_id = ? ORDER BY id`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying custom domains: %w", err)
	}
	return domains, nil
}
