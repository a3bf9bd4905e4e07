package model

// Alias is an additional sending address owned by an account. RowID is the
// server-side identifier of the alias.
type Alias struct {
	ID        int64  `json:"id" db:"id"`
	AccountID int64  `json:"account_id" db:"account_id"`
	RowID     int64  `json:"row_id" db:"row_id"`
	Name      string `json:"name" db:"name"`
	Domain    string `json:"domain" db:"domain"`
	Active    bool   `json:"active" db:"active"`
}

// Address returns the alias as name@domain.
func (a *Alias) Address() string {
	return a.Name + "@" + a.Domain
}

// CustomDomain is a domain the account has registered for aliases.
type CustomDomain struct {
	ID        int64  `json:"id" db:"id"`
	AccountID int64  `json:"account_id" db:"account_id"`
	Name      string `json:"name" db:"name"`
	Validated bool   `json:"validated" db:"validated"`
}
