package model

import "fmt"

// Contact is a correspondent address known to an account.
type Contact struct {
	ID        int64  `json:"id" db:"id"`
	AccountID int64  `json:"account_id" db:"account_id"`
	Email     string `json:"email" db:"email"`
	Name      string `json:"name" db:"name"`
	IsTrusted bool   `json:"is_trusted" db:"is_trusted"`
	SpamScore int    `json:"spam_score" db:"spam_score"`
}

// ContactType is the role a contact plays on a message.
type ContactType string

const (
	ContactFrom ContactType = "from"
	ContactTo   ContactType = "to"
	ContactCC   ContactType = "cc"
	ContactBCC  ContactType = "bcc"
)

var validContactTypes = []ContactType{
	ContactFrom,
	ContactTo,
	ContactCC,
	ContactBCC,
}

// ValidateContactType returns an error if ct is not a recognized contact role.
func ValidateContactType(ct ContactType) error {
	for _, v := range validContactTypes {
		if ct == v {
			return nil
		}
	}
	return fmt.Errorf("invalid contact type %q: must be one of %v", ct, validContactTypes)
}

// EmailContact links a message to a contact in a given role.
type EmailContact struct {
	ID           int64       `json:"id" db:"id"`
	EmailID      int64       `json:"email_id" db:"email_id"`
	EmailKey     int64       `json:"email_key" db:"email_key"`
	ContactID    int64       `json:"contact_id" db:"contact_id"`
	ContactEmail string      `json:"contact_email" db:"contact_email"`
	Type         ContactType `json:"type" db:"type"`
}
