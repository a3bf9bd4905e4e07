package mailfs

import (
	"strings"
	"testing"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

func TestStoreSaveLoadDelete(t *testing.T) {
	s := New(t.TempDir())

	if err := s.Save("test@criptext.com", 123, "<p>hi</p>", "Subject: hi\r\n"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	body, headers, err := s.Load("test@criptext.com", 123)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if body != "<p>hi</p>" || headers != "Subject: hi\r\n" {
		t.Errorf("Load = (%q, %q)", body, headers)
	}

	if err := s.Save("test@criptext.com", 123, "again", ""); err != nil {
		t.Fatalf("Save without headers: %v", err)
	}
	body, headers, _ = s.Load("test@criptext.com", 123)
	if body != "again" || headers != "" {
		t.Errorf("Load after overwrite = (%q, %q)", body, headers)
	}

	if err := s.Delete("test@criptext.com", 123); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	body, headers, err = s.Load("test@criptext.com", 123)
	if err != nil || body != "" || headers != "" {
		t.Errorf("Load after delete = (%q, %q, %v), want empty", body, headers, err)
	}
}

func TestStoreSeparatesAccounts(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Save("a@x.com", 1, "a", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Save("b@x.com", 1, "b", ""); err != nil {
		t.Fatal(err)
	}
	body, _, _ := s.Load("a@x.com", 1)
	if body != "a" {
		t.Errorf("body = %q, want %q", body, "a")
	}
}

func TestParseHeaders(t *testing.T) {
	raw := "From: \"Test 2\" <test2@criptext.com>\r\n" +
		"Reply-To: replies@criptext.com\r\n" +
		"Subject: Hello\r\n" +
		"Message-ID: <abc@criptext.com>\r\n" +
		"Date: Tue, 17 Jul 2018 15:09:36 +0000\r\n" +
		"Content-Type: multipart/alternative; boundary=\"b1\"\r\n"

	info, err := ParseHeaders(raw)
	if err != nil {
		t.Fatalf("ParseHeaders: %v", err)
	}
	if !strings.Contains(info.FromAddress, "test2@criptext.com") || !strings.Contains(info.FromAddress, "Test 2") {
		t.Errorf("FromAddress = %q", info.FromAddress)
	}
	if info.ReplyTo != "replies@criptext.com" {
		t.Errorf("ReplyTo = %q", info.ReplyTo)
	}
	if info.Subject != "Hello" || info.MessageID != "<abc@criptext.com>" || info.Boundary != "b1" {
		t.Errorf("ParseHeaders = %+v", info)
	}
	if model.FormatDate(info.Date) != "2018-07-17 15:09:36" {
		t.Errorf("Date = %v", info.Date)
	}
}

func TestParseHeadersEmpty(t *testing.T) {
	info, err := ParseHeaders("")
	if err != nil {
		t.Fatalf("ParseHeaders: %v", err)
	}
	if info != (HeaderInfo{}) {
		t.Errorf("ParseHeaders(\"\") = %+v, want zero", info)
	}
}

const multipartMessage = "From: Alice <Alice@Example.com>\r\n" +
	"To: Bob <bob@example.com>, carol@example.com\r\n" +
	"Cc: dave@example.com\r\n" +
	"Subject: Report\r\n" +
	"Message-ID: <m2@example.com>\r\n" +
	"In-Reply-To: <m1@example.com>\r\n" +
	"Date: Tue, 17 Jul 2018 15:09:36 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"outer\"\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please   find\r\nthe report attached.\r\n" +
	"--outer\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\r\n" +
	"\r\n" +
	"0123456789\r\n" +
	"--outer--\r\n"

func TestParseMessage(t *testing.T) {
	msg, err := ParseMessage(strings.NewReader(multipartMessage))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}

	e := msg.Email
	if e.Subject != "Report" || e.MessageID != "<m2@example.com>" || e.ThreadID != "<m1@example.com>" {
		t.Errorf("email = %+v", e)
	}
	if e.Boundary != "outer" {
		t.Errorf("Boundary = %q, want outer", e.Boundary)
	}
	if e.Preview != "Please find the report attached." {
		t.Errorf("Preview = %q", e.Preview)
	}
	if !strings.HasPrefix(e.Headers, "From: Alice") || strings.Contains(e.Headers, "--outer") {
		t.Errorf("Headers = %q", e.Headers)
	}
	if model.FormatDate(e.Date) != "2018-07-17 15:09:36" {
		t.Errorf("Date = %v", e.Date)
	}

	var got []string
	for _, p := range msg.Participants {
		got = append(got, string(p.Type)+":"+p.Contact.Email)
	}
	want := []string{"from:alice@example.com", "to:bob@example.com", "to:carol@example.com", "cc:dave@example.com"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("participants = %v, want %v", got, want)
	}

	if len(msg.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(msg.Files))
	}
	f := msg.Files[0]
	if f.Name != "report.pdf" || f.MimeType != "application/pdf" || f.Size == 0 {
		t.Errorf("file = %+v", f)
	}
}
