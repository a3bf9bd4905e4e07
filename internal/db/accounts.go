package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

// ErrAccountExists is returned when an account with the same address exists.
var ErrAccountExists = errors.New("account already exists")

type accountRecord struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	Domain    string `db:"domain"`
	Name      string `db:"name"`
	Signature string `db:"signature"`
	HasFooter bool   `db:"has_footer"`
	CreatedAt string `db:"created_at"`
}

func (r *accountRecord) toModel() (*model.Account, error) {
	t, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &model.Account{
		ID:        r.ID,
		Username:  r.Username,
		Domain:    r.Domain,
		Name:      r.Name,
		Signature: r.Signature,
		HasFooter: r.HasFooter,
		CreatedAt: t,
	}, nil
}

const accountColumns = `id, username, domain, name, signature, has_footer, created_at`

// CreateAccount inserts a new account and returns its ID.
func CreateAccount(ctx context.Context, q sqlx.ExtContext, a *model.Account) (int64, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO accounts (username, domain, name, signature, has_footer, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.Username, a.Domain, a.Name, a.Signature, boolToInt(a.HasFooter),
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("%s: %w", a.Email(), ErrAccountExists)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting account id: %w", err)
	}
	a.ID = id
	return id, nil
}

// GetAccount retrieves an account by ID. Returns ErrNotFound if it does not
// exist.
func GetAccount(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Account, error) {
	var r accountRecord
	err := sqlx.GetContext(ctx, q, &r, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying account: %w", err)
	}
	return r.toModel()
}

// GetAccountByEmail retrieves an account by its user@domain address.
func GetAccountByEmail(ctx context.Context, q sqlx.QueryerContext, addr string) (*model.Account, error) {
	username, domain, err := model.ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	var r accountRecord
	err = sqlx.GetContext(ctx, q, &r,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ? AND domain = ?`,
		username, domain,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying account: %w", err)
	}
	return r.toModel()
}

// ListAccounts returns every account ordered by ID.
func ListAccounts(ctx context.Context, q sqlx.QueryerContext) ([]*model.Account, error) {
	var records []accountRecord
	if err := sqlx.SelectContext(ctx, q, &records, `SELECT `+accountColumns+` FROM accounts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	accounts := make([]*model.Account, 0, len(records))
	for i := range records {
		a, err := records[i].toModel()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}
