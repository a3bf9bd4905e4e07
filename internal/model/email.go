package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for every timestamp in a link file.
const DateLayout = "2006-01-02 15:04:05"

// FormatDate renders t in UTC using DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a DateLayout timestamp as UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// EmailStatus is the delivery state of a message.
type EmailStatus int

const (
	EmailStatusNone      EmailStatus = 0
	EmailStatusSending   EmailStatus = 1
	EmailStatusFailed    EmailStatus = 2
	EmailStatusDelivered EmailStatus = 3
	EmailStatusRead      EmailStatus = 4
	EmailStatusUnsent    EmailStatus = 5
)

// Email is a single message. Key is the message's stable identifier within
// its account; ID is the store's row id. Content and Headers are not kept in
// the database and are filled from per-message storage when needed.
type Email struct {
	ID          int64       `json:"id" db:"id"`
	AccountID   int64       `json:"account_id" db:"account_id"`
	Key         int64       `json:"key" db:"key"`
	MessageID   string      `json:"message_id" db:"message_id"`
	ThreadID    string      `json:"thread_id" db:"thread_id"`
	Date        time.Time   `json:"date" db:"date"`
	Unread      bool        `json:"unread" db:"unread"`
	Status      EmailStatus `json:"status" db:"status"`
	Secure      bool        `json:"secure" db:"secure"`
	Subject     string      `json:"subject" db:"subject"`
	ReplyTo     string      `json:"reply_to" db:"reply_to"`
	Preview     string      `json:"preview" db:"preview"`
	Boundary    string      `json:"boundary" db:"boundary"`
	FromAddress string      `json:"from_address" db:"from_address"`
	Content     string      `json:"content,omitempty" db:"-"`
	Headers     string      `json:"headers,omitempty" db:"-"`
}

// EmailLabel represents a row in the email_labels join table.
type EmailLabel struct {
	EmailID  int64 `json:"email_id" db:"email_id"`
	EmailKey int64 `json:"email_key" db:"email_key"`
	LabelID  int64 `json:"label_id" db:"label_id"`
}
