package model

import (
	"fmt"
	"strings"
	"time"
)

// Account is a local mailbox owner. Every mail entity belongs to exactly one
// account.
type Account struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Domain    string    `json:"domain" db:"domain"`
	Name      string    `json:"name" db:"name"`
	Signature string    `json:"signature" db:"signature"`
	HasFooter bool      `json:"has_footer" db:"has_footer"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Email returns the account address in username@domain form.
func (a *Account) Email() string {
	return a.Username + "@" + a.Domain
}

// ParseAddress splits "user@domain" into its two halves. Both halves must be
// non-empty.
func ParseAddress(addr string) (username, domain string, err error) {
	addr = strings.TrimSpace(addr)
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return "", "", fmt.Errorf("invalid address %q: expected user@domain", addr)
	}
	return addr[:at], addr[at+1:], nil
}
