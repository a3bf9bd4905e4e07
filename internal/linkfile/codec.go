package linkfile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// CurrentVersion is the file version written by this package.
//
// Version history:
//   - 5: contacts, labels, emails, email labels, email contacts, files
//   - 6: adds aliases and custom domains
const CurrentVersion = 6

var (
	// ErrUnsupportedVersion is returned for a fileVersion with no codec.
	ErrUnsupportedVersion = errors.New("unsupported link file version")

	// ErrUnknownTable is returned for a row whose table is not recognized by
	// the codec reading it.
	ErrUnknownTable = errors.New("unknown table")

	// ErrMalformedRow is returned for a line that is not a row record.
	ErrMalformedRow = errors.New("malformed row")
)

// Codec encodes and decodes the rows of one file version.
type Codec struct {
	version int
	tables  map[Table]struct{}
}

var codecs = map[int]*Codec{
	5: newCodec(5, TableContact, TableLabel, TableEmail, TableEmailLabel, TableEmailContact, TableFile),
	6: newCodec(6, Tables...),
}

func newCodec(version int, tables ...Table) *Codec {
	c := &Codec{version: version, tables: make(map[Table]struct{}, len(tables))}
	for _, t := range tables {
		c.tables[t] = struct{}{}
	}
	return c
}

// CodecFor returns the codec for a file version.
func CodecFor(version int) (*Codec, error) {
	c, ok := codecs[version]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	return c, nil
}

// Version returns the file version the codec handles.
func (c *Codec) Version() int {
	return c.version
}

// Supports reports whether rows of table t exist in this version.
func (c *Codec) Supports(t Table) bool {
	_, ok := c.tables[t]
	return ok
}

// Encode renders a row as {"object":{...},"table":"..."} without the
// trailing newline.
func (c *Codec) Encode(r Row) ([]byte, error) {
	if !c.Supports(r.Table()) {
		return nil, fmt.Errorf("%w %q for version %d", ErrUnknownTable, r.Table(), c.version)
	}
	line, err := marshalLine(struct {
		Object Row   `json:"object"`
		Table  Table `json:"table"`
	}{r, r.Table()})
	if err != nil {
		return nil, fmt.Errorf("encoding %s row: %w", r.Table(), err)
	}
	return line, nil
}

// Decode parses a row line. Missing fields take their zero value and flags
// accept either booleans or 0/1.
func (c *Codec) Decode(line []byte) (Row, error) {
	line = bytes.TrimSpace(line)
	if !gjson.ValidBytes(line) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformedRow)
	}
	doc := gjson.ParseBytes(line)
	obj := doc.Get("object")
	if !obj.IsObject() {
		return nil, fmt.Errorf("%w: missing object", ErrMalformedRow)
	}
	table := Table(doc.Get("table").String())
	if !c.Supports(table) {
		return nil, fmt.Errorf("%w %q for version %d", ErrUnknownTable, table, c.version)
	}

	switch table {
	case TableContact:
		return ContactRow{
			Email:     obj.Get("email").String(),
			IsTrusted: obj.Get("isTrusted").Bool(),
			ID:        obj.Get("id").Int(),
			Name:      obj.Get("name").String(),
			SpamScore: int(obj.Get("spamScore").Int()),
		}, nil
	case TableLabel:
		return LabelRow{
			Type:    obj.Get("type").String(),
			UUID:    obj.Get("uuid").String(),
			Visible: obj.Get("visible").Bool(),
			Color:   obj.Get("color").String(),
			ID:      obj.Get("id").Int(),
			Text:    obj.Get("text").String(),
		}, nil
	case TableEmail:
		return EmailRow{
			FromAddress: obj.Get("fromAddress").String(),
			Headers:     obj.Get("headers").String(),
			Date:        obj.Get("date").String(),
			MessageID:   obj.Get("messageId").String(),
			ThreadID:    obj.Get("threadId").String(),
			Unread:      obj.Get("unread").Bool(),
			ID:          obj.Get("id").Int(),
			Status:      int(obj.Get("status").Int()),
			Key:         obj.Get("key").Int(),
			Secure:      obj.Get("secure").Bool(),
			Content:     obj.Get("content").String(),
			Subject:     obj.Get("subject").String(),
			ReplyTo:     obj.Get("replyTo").String(),
			Preview:     obj.Get("preview").String(),
			Boundary:    obj.Get("boundary").String(),
		}, nil
	case TableEmailLabel:
		return EmailLabelRow{
			EmailID:     obj.Get("emailId").Int(),
			LabelID:     obj.Get("labelId").Int(),
			SystemLabel: obj.Get("systemLabel").Bool(),
		}, nil
	case TableEmailContact:
		return EmailContactRow{
			EmailID:   obj.Get("emailId").Int(),
			ContactID: obj.Get("contactId").Int(),
			ID:        obj.Get("id").Int(),
			Type:      obj.Get("type").String(),
		}, nil
	case TableFile:
		return FileRow{
			Date:     obj.Get("date").String(),
			ID:       obj.Get("id").Int(),
			Name:     obj.Get("name").String(),
			Size:     obj.Get("size").Int(),
			EmailID:  obj.Get("emailId").Int(),
			MimeType: obj.Get("mimeType").String(),
			Status:   int(obj.Get("status").Int()),
			Token:    obj.Get("token").String(),
			IV:       obj.Get("iv").String(),
			Key:      obj.Get("key").String(),
		}, nil
	case TableAlias:
		return AliasRow{
			ID:     obj.Get("id").Int(),
			RowID:  obj.Get("rowId").Int(),
			Name:   obj.Get("name").String(),
			Domain: obj.Get("domain").String(),
			Active: obj.Get("active").Bool(),
		}, nil
	case TableCustomDomain:
		return CustomDomainRow{
			ID:        obj.Get("id").Int(),
			Name:      obj.Get("name").String(),
			Validated: obj.Get("validated").Bool(),
		}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownTable, table)
}

// PeekTable returns the table name of a row line without decoding it.
func PeekTable(line []byte) Table {
	return Table(gjson.GetBytes(line, "table").String())
}
