package mailfs

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

// previewLength is the number of characters kept in a message preview.
const previewLength = 100

// HeaderInfo holds the fields derived from a raw header block.
type HeaderInfo struct {
	FromAddress string
	ReplyTo     string
	Subject     string
	MessageID   string
	Boundary    string
	Date        time.Time
}

// ParseHeaders parses a raw RFC 5322 header block. Fields that are absent or
// unparseable are left empty.
func ParseHeaders(raw string) (HeaderInfo, error) {
	block := strings.TrimRight(raw, "\r\n") + "\r\n\r\n"
	th, err := textproto.ReadHeader(bufio.NewReader(strings.NewReader(block)))
	if err != nil {
		return HeaderInfo{}, fmt.Errorf("reading headers: %w", err)
	}
	return headerInfo(mail.Header{Header: message.Header{Header: th}}), nil
}

func headerInfo(h mail.Header) HeaderInfo {
	var info HeaderInfo
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		info.FromAddress = from[0].String()
	}
	if replyTo, err := h.AddressList("Reply-To"); err == nil && len(replyTo) > 0 {
		info.ReplyTo = replyTo[0].Address
	}
	info.Subject, _ = h.Subject()
	if id, err := h.MessageID(); err == nil && id != "" {
		info.MessageID = "<" + id + ">"
	}
	if _, params, err := h.ContentType(); err == nil {
		info.Boundary = params["boundary"]
	}
	info.Date, _ = h.Date()
	return info
}

// Participant is a contact appearing on a message in a given role.
type Participant struct {
	Type    model.ContactType
	Contact *model.Contact
}

// Message is a parsed RFC 5322 message ready to be stored.
type Message struct {
	Email        *model.Email
	Participants []Participant
	Files        []*model.File
}

// ParseMessage reads a full message: headers, the HTML or plain text body and
// attachment metadata. Attachment bytes are only counted. The returned email
// has no key.
func ParseMessage(r io.Reader) (*Message, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && mr == nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}
	defer mr.Close()

	info := headerInfo(mr.Header)
	email := &model.Email{
		MessageID:   info.MessageID,
		ThreadID:    threadID(mr.Header, info.MessageID),
		Date:        info.Date.UTC().Truncate(time.Second),
		Unread:      true,
		Subject:     info.Subject,
		ReplyTo:     info.ReplyTo,
		Boundary:    info.Boundary,
		FromAddress: info.FromAddress,
		Headers:     rawHeaders(raw),
	}
	if info.Date.IsZero() {
		email.Date = time.Now().UTC().Truncate(time.Second)
	}

	msg := &Message{Email: email}
	for _, role := range []struct {
		field string
		ct    model.ContactType
	}{
		{"From", model.ContactFrom},
		{"To", model.ContactTo},
		{"Cc", model.ContactCC},
		{"Bcc", model.ContactBCC},
	} {
		addrs, err := mr.Header.AddressList(role.field)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			msg.Participants = append(msg.Participants, Participant{
				Type:    role.ct,
				Contact: &model.Contact{Email: strings.ToLower(a.Address), Name: a.Name},
			})
		}
	}

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			switch {
			case strings.HasPrefix(contentType, "text/html"):
				htmlBody = string(body)
			case strings.HasPrefix(contentType, "text/plain") || contentType == "":
				textBody = string(body)
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			n, copyErr := io.Copy(io.Discard, part.Body)
			if copyErr != nil {
				continue
			}
			msg.Files = append(msg.Files, &model.File{
				Name:     filename,
				Size:     n,
				Date:     email.Date,
				MimeType: contentType,
				Status:   model.FileStatusUploaded,
			})
		}
	}

	email.Content = htmlBody
	if email.Content == "" {
		email.Content = textBody
	}
	email.Preview = preview(textBody)
	return msg, nil
}

// threadID is the first id of References, then In-Reply-To, then the message
// id itself.
func threadID(h mail.Header, messageID string) string {
	for _, field := range []string{"References", "In-Reply-To"} {
		if ids, err := h.MsgIDList(field); err == nil && len(ids) > 0 {
			return "<" + ids[0] + ">"
		}
	}
	return messageID
}

func rawHeaders(raw []byte) string {
	for _, sep := range []string{"\r\n\r\n", "\n\n"} {
		if i := bytes.Index(raw, []byte(sep)); i >= 0 {
			return string(raw[:i+len(sep)/2])
		}
	}
	return string(raw)
}

func preview(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) > previewLength {
		return string(runes[:previewLength])
	}
	return collapsed
}
