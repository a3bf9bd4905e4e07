package linkfile

import (
	"time"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

// Table names a row variant in a link file.
type Table string

const (
	TableContact      Table = "contact"
	TableLabel        Table = "label"
	TableEmail        Table = "email"
	TableEmailLabel   Table = "email_label"
	TableEmailContact Table = "email_contact"
	TableFile         Table = "file"
	TableAlias        Table = "alias"
	TableCustomDomain Table = "custom_domain"
)

// Tables lists every table in emission order.
var Tables = []Table{
	TableContact,
	TableLabel,
	TableEmail,
	TableEmailLabel,
	TableEmailContact,
	TableFile,
	TableAlias,
	TableCustomDomain,
}

// Row is one data line of a link file. The set of implementations is closed;
// each carries the typed fields of one table.
type Row interface {
	Table() Table
	isRow()
}

// ContactRow is a contact with its synthetic id.
type ContactRow struct {
	Email     string `json:"email"`
	IsTrusted bool   `json:"isTrusted"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SpamScore int    `json:"spamScore"`
}

// LabelRow is a custom label with its synthetic id.
type LabelRow struct {
	Type    string `json:"type"`
	UUID    string `json:"uuid"`
	Visible bool   `json:"visible"`
	Color   string `json:"color"`
	ID      int64  `json:"id"`
	Text    string `json:"text"`
}

// EmailRow is a message with its body and raw headers inlined.
type EmailRow struct {
	FromAddress string `json:"fromAddress"`
	Headers     string `json:"headers"`
	Date        string `json:"date"`
	MessageID   string `json:"messageId"`
	ThreadID    string `json:"threadId"`
	Unread      bool   `json:"unread"`
	ID          int64  `json:"id"`
	Status      int    `json:"status"`
	Key         int64  `json:"key"`
	Secure      bool   `json:"secure"`
	Content     string `json:"content"`
	Subject     string `json:"subject"`
	ReplyTo     string `json:"replyTo"`
	Preview     string `json:"preview"`
	Boundary    string `json:"boundary"`
}

// EmailLabelRow links a message to a label. LabelID is a synthetic label id
// unless SystemLabel is set, in which case it is a built-in label id.
type EmailLabelRow struct {
	EmailID     int64 `json:"emailId"`
	LabelID     int64 `json:"labelId"`
	SystemLabel bool  `json:"systemLabel,omitempty"`
}

// EmailContactRow links a message to a contact in a role.
type EmailContactRow struct {
	EmailID   int64  `json:"emailId"`
	ContactID int64  `json:"contactId"`
	ID        int64  `json:"id"`
	Type      string `json:"type"`
}

// FileRow is attachment metadata. Key and IV are the two halves of the
// stored file key.
type FileRow struct {
	Date     string `json:"date"`
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	EmailID  int64  `json:"emailId"`
	MimeType string `json:"mimeType"`
	Status   int    `json:"status"`
	Token    string `json:"token"`
	IV       string `json:"iv"`
	Key      string `json:"key"`
}

// AliasRow is an account alias.
type AliasRow struct {
	ID     int64  `json:"id"`
	RowID  int64  `json:"rowId"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Active bool   `json:"active"`
}

// CustomDomainRow is a custom domain registered by the account.
type CustomDomainRow struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Validated bool   `json:"validated"`
}

func (ContactRow) Table() Table      { return TableContact }
func (LabelRow) Table() Table        { return TableLabel }
func (EmailRow) Table() Table        { return TableEmail }
func (EmailLabelRow) Table() Table   { return TableEmailLabel }
func (EmailContactRow) Table() Table { return TableEmailContact }
func (FileRow) Table() Table         { return TableFile }
func (AliasRow) Table() Table        { return TableAlias }
func (CustomDomainRow) Table() Table { return TableCustomDomain }

func (ContactRow) isRow()      {}
func (LabelRow) isRow()        {}
func (EmailRow) isRow()        {}
func (EmailLabelRow) isRow()   {}
func (EmailContactRow) isRow() {}
func (FileRow) isRow()         {}
func (AliasRow) isRow()        {}
func (CustomDomainRow) isRow() {}

// NewContactRow flattens a contact under synthetic id.
func NewContactRow(id int64, c *model.Contact) ContactRow {
	return ContactRow{
		Email:     c.Email,
		IsTrusted: c.IsTrusted,
		ID:        id,
		Name:      c.Name,
		SpamScore: c.SpamScore,
	}
}

// Contact rebuilds the contact. The synthetic id is not carried over.
func (r ContactRow) Contact() *model.Contact {
	return &model.Contact{
		Email:     r.Email,
		Name:      r.Name,
		IsTrusted: r.IsTrusted,
		SpamScore: r.SpamScore,
	}
}

// NewLabelRow flattens a custom label under synthetic id.
func NewLabelRow(id int64, l *model.Label) LabelRow {
	return LabelRow{
		Type:    string(l.Type),
		UUID:    l.UUID,
		Visible: l.Visible,
		Color:   l.Color,
		ID:      id,
		Text:    l.Text,
	}
}

// Label rebuilds the label as a custom label.
func (r LabelRow) Label() *model.Label {
	return &model.Label{
		Text:    r.Text,
		Type:    model.LabelTypeCustom,
		Color:   r.Color,
		UUID:    r.UUID,
		Visible: r.Visible,
	}
}

// NewEmailRow flattens a message under synthetic id. e.Content and e.Headers
// must already be loaded.
func NewEmailRow(id int64, e *model.Email) EmailRow {
	return EmailRow{
		FromAddress: e.FromAddress,
		Headers:     e.Headers,
		Date:        model.FormatDate(e.Date),
		MessageID:   e.MessageID,
		ThreadID:    e.ThreadID,
		Unread:      e.Unread,
		ID:          id,
		Status:      int(e.Status),
		Key:         e.Key,
		Secure:      e.Secure,
		Content:     e.Content,
		Subject:     e.Subject,
		ReplyTo:     e.ReplyTo,
		Preview:     e.Preview,
		Boundary:    e.Boundary,
	}
}

// Email rebuilds the message. An empty date decodes as the zero time.
func (r EmailRow) Email() (*model.Email, error) {
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return nil, err
	}
	return &model.Email{
		Key:         r.Key,
		MessageID:   r.MessageID,
		ThreadID:    r.ThreadID,
		Date:        date,
		Unread:      r.Unread,
		Status:      model.EmailStatus(r.Status),
		Secure:      r.Secure,
		Subject:     r.Subject,
		ReplyTo:     r.ReplyTo,
		Preview:     r.Preview,
		Boundary:    r.Boundary,
		FromAddress: r.FromAddress,
		Content:     r.Content,
		Headers:     r.Headers,
	}, nil
}

// NewEmailContactRow flattens a message-contact link.
func NewEmailContactRow(id, emailID, contactID int64, ct model.ContactType) EmailContactRow {
	return EmailContactRow{
		EmailID:   emailID,
		ContactID: contactID,
		ID:        id,
		Type:      string(ct),
	}
}

// NewFileRow flattens attachment metadata under synthetic id.
func NewFileRow(id, emailID int64, f *model.File) FileRow {
	key, iv := model.SplitFileKey(f.FileKey)
	return FileRow{
		Date:     model.FormatDate(f.Date),
		ID:       id,
		Name:     f.Name,
		Size:     f.Size,
		EmailID:  emailID,
		MimeType: f.MimeType,
		Status:   int(f.Status),
		Token:    f.Token,
		IV:       iv,
		Key:      key,
	}
}

// File rebuilds the attachment metadata, joining key and iv back together.
func (r FileRow) File() (*model.File, error) {
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return nil, err
	}
	return &model.File{
		Name:     r.Name,
		Size:     r.Size,
		Date:     date,
		MimeType: r.MimeType,
		Status:   model.FileStatus(r.Status),
		Token:    r.Token,
		FileKey:  model.JoinFileKey(r.Key, r.IV),
	}, nil
}

// NewAliasRow flattens an alias under synthetic id.
func NewAliasRow(id int64, a *model.Alias) AliasRow {
	return AliasRow{ID: id, RowID: a.RowID, Name: a.Name, Domain: a.Domain, Active: a.Active}
}

// Alias rebuilds the alias.
func (r AliasRow) Alias() *model.Alias {
	return &model.Alias{RowID: r.RowID, Name: r.Name, Domain: r.Domain, Active: r.Active}
}

// NewCustomDomainRow flattens a custom domain under synthetic id.
func NewCustomDomainRow(id int64, d *model.CustomDomain) CustomDomainRow {
	return CustomDomainRow{ID: id, Name: d.Name, Validated: d.Validated}
}

// CustomDomain rebuilds the custom domain.
func (r CustomDomainRow) CustomDomain() *model.CustomDomain {
	return &model.CustomDomain{Name: r.Name, Validated: r.Validated}
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(s)
}
