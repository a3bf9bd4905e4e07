package linkfile

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

var testDate = time.Unix(1531840176, 0).UTC()

func mustCodec(t *testing.T, version int) *Codec {
	t.Helper()
	c, err := CodecFor(version)
	if err != nil {
		t.Fatalf("CodecFor(%d): %v", version, err)
	}
	return c
}

func TestEncodeHeader(t *testing.T) {
	a := &model.Account{Username: "test", Domain: "criptext.com", HasFooter: true}
	line, err := EncodeHeader(NewHeader(a, Preferences{}))
	if err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	want := `{"recipientId":"test","language":"en","hasCriptextFooter":true,"fileVersion":6,"domain":"criptext.com","darkTheme":false,"signature":""}`
	if string(line) != want {
		t.Errorf("header =\n%s\nwant\n%s", line, want)
	}
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]byte(`{"recipientId":"test","domain":"criptext.com","fileVersion":5,"darkTheme":1}`))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Address() != "test@criptext.com" || h.FileVersion != 5 || !h.DarkTheme {
		t.Errorf("ParseHeader = %+v", h)
	}
	if h.Language != "" || h.Signature != "" {
		t.Errorf("absent fields should default, got %+v", h)
	}
}

func TestParseHeaderRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", `recipientId=test`},
		{"array", `[1,2]`},
		{"missing recipient", `{"domain":"criptext.com","fileVersion":6}`},
		{"missing domain", `{"recipientId":"test","fileVersion":6}`},
		{"missing version", `{"recipientId":"test","domain":"criptext.com"}`},
		{"string version", `{"recipientId":"test","domain":"criptext.com","fileVersion":"6"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader([]byte(tt.line))
			if !errors.Is(err, ErrMalformedHeader) {
				t.Errorf("err = %v, want ErrMalformedHeader", err)
			}
		})
	}
}

func TestEncodeRows(t *testing.T) {
	c := mustCodec(t, CurrentVersion)

	email := &model.Email{
		Key:       123,
		MessageID: "<dsfsfd.dsfsdfs@ddsfs.fsdfs>",
		ThreadID:  "<dsfsfd.dsfsdfs@ddsfs.fsdfs>",
		Date:      testDate,
		Unread:    true,
		Status:    model.EmailStatusDelivered,
		Secure:    true,
		Content:   "test 1",
		Preview:   "test 1",
	}
	file := &model.File{
		Name:     "test.pdf",
		Date:     testDate,
		MimeType: "application/pdf",
		Status:   model.FileStatusUploaded,
		FileKey:  "fgsfgfgsfdafa:afdsfsagdfgsdf",
	}

	tests := []struct {
		row  Row
		want string
	}{
		{
			NewContactRow(1, &model.Contact{Email: "test1@criptext.com", Name: "Test 1"}),
			`{"object":{"email":"test1@criptext.com","isTrusted":false,"id":1,"name":"Test 1","spamScore":0},"table":"contact"}`,
		},
		{
			NewLabelRow(1, &model.Label{Text: "Test 1", Type: model.LabelTypeCustom, Color: "fff000", UUID: "430A9A0B-8028-4907-827C-11D6AEFD5803", Visible: true}),
			`{"object":{"type":"custom","uuid":"430A9A0B-8028-4907-827C-11D6AEFD5803","visible":true,"color":"fff000","id":1,"text":"Test 1"},"table":"label"}`,
		},
		{
			NewEmailRow(1, email),
			`{"object":{"fromAddress":"","headers":"","date":"2018-07-17 15:09:36","messageId":"<dsfsfd.dsfsdfs@ddsfs.fsdfs>","threadId":"<dsfsfd.dsfsdfs@ddsfs.fsdfs>","unread":true,"id":1,"status":3,"key":123,"secure":true,"content":"test 1","subject":"","replyTo":"","preview":"test 1","boundary":""},"table":"email"}`,
		},
		{
			EmailLabelRow{EmailID: 1, LabelID: 1},
			`{"object":{"emailId":1,"labelId":1},"table":"email_label"}`,
		},
		{
			EmailLabelRow{EmailID: 1, LabelID: 3, SystemLabel: true},
			`{"object":{"emailId":1,"labelId":3,"systemLabel":true},"table":"email_label"}`,
		},
		{
			NewEmailContactRow(1, 1, 2, model.ContactFrom),
			`{"object":{"emailId":1,"contactId":2,"id":1,"type":"from"},"table":"email_contact"}`,
		},
		{
			NewFileRow(1, 1, file),
			`{"object":{"date":"2018-07-17 15:09:36","id":1,"name":"test.pdf","size":0,"emailId":1,"mimeType":"application/pdf","status":1,"token":"","iv":"afdsfsagdfgsdf","key":"fgsfgfgsfdafa"},"table":"file"}`,
		},
		{
			NewAliasRow(1, &model.Alias{RowID: 4, Name: "me", Domain: "custom.com", Active: true}),
			`{"object":{"id":1,"rowId":4,"name":"me","domain":"custom.com","active":true},"table":"alias"}`,
		},
		{
			NewCustomDomainRow(1, &model.CustomDomain{Name: "custom.com", Validated: true}),
			`{"object":{"id":1,"name":"custom.com","validated":true},"table":"custom_domain"}`,
		},
	}

	for _, tt := range tests {
		got, err := c.Encode(tt.row)
		if err != nil {
			t.Errorf("Encode(%s): %v", tt.row.Table(), err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("Encode(%s) =\n%s\nwant\n%s", tt.row.Table(), got, tt.want)
		}
	}
}

func TestDecodeReversesEncode(t *testing.T) {
	c := mustCodec(t, CurrentVersion)
	rows := []Row{
		ContactRow{Email: "a@b.com", IsTrusted: true, ID: 3, Name: "A", SpamScore: 2},
		LabelRow{Type: "custom", UUID: "U", Visible: true, Color: "ff00ff", ID: 2, Text: "Work"},
		EmailRow{FromAddress: "A <a@b.com>", Headers: "Subject: hi\r\n", Date: "2018-07-17 15:09:36", MessageID: "<m>", ThreadID: "<t>", Unread: true, ID: 1, Status: 3, Key: 9, Secure: true, Content: "<p>body</p>", Subject: "hi", ReplyTo: "r@b.com", Preview: "body", Boundary: "b1"},
		EmailLabelRow{EmailID: 1, LabelID: 7, SystemLabel: true},
		EmailContactRow{EmailID: 1, ContactID: 3, ID: 1, Type: "cc"},
		FileRow{Date: "2018-07-17 15:09:36", ID: 1, Name: "x.png", Size: 42, EmailID: 1, MimeType: "image/png", Status: 1, Token: "tok", IV: "iv", Key: "key"},
		AliasRow{ID: 1, RowID: 5, Name: "me", Domain: "x.com", Active: true},
		CustomDomainRow{ID: 1, Name: "x.com", Validated: true},
	}

	for _, want := range rows {
		line, err := c.Encode(want)
		if err != nil {
			t.Fatalf("Encode(%s): %v", want.Table(), err)
		}
		got, err := c.Decode(line)
		if err != nil {
			t.Fatalf("Decode(%s): %v", line, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Decode(Encode(%s)) = %+v, want %+v", want.Table(), got, want)
		}
	}
}

func TestDecodeIsTolerant(t *testing.T) {
	c := mustCodec(t, CurrentVersion)
	row, err := c.Decode([]byte(`{"table":"email","object":{"id":4,"key":12,"unread":0,"secure":1,"extra":"ignored"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	e, ok := row.(EmailRow)
	if !ok {
		t.Fatalf("Decode returned %T, want EmailRow", row)
	}
	if e.ID != 4 || e.Key != 12 || e.Unread || !e.Secure || e.Subject != "" {
		t.Errorf("Decode = %+v", e)
	}

	m, err := e.Email()
	if err != nil {
		t.Fatalf("Email(): %v", err)
	}
	if !m.Date.IsZero() {
		t.Errorf("missing date should decode to zero time, got %v", m.Date)
	}
}

func TestDecodeErrors(t *testing.T) {
	v6 := mustCodec(t, 6)
	v5 := mustCodec(t, 5)

	tests := []struct {
		name  string
		codec *Codec
		line  string
		want  error
	}{
		{"invalid json", v6, `{"table":"contact",`, ErrMalformedRow},
		{"missing object", v6, `{"table":"contact"}`, ErrMalformedRow},
		{"unknown table", v6, `{"table":"device","object":{}}`, ErrUnknownTable},
		{"alias in v5", v5, `{"table":"alias","object":{"id":1}}`, ErrUnknownTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.Decode([]byte(tt.line))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCodecFor(t *testing.T) {
	for _, v := range []int{5, 6} {
		c := mustCodec(t, v)
		if c.Version() != v {
			t.Errorf("Version() = %d, want %d", c.Version(), v)
		}
	}
	for _, v := range []int{0, 4, 7} {
		if _, err := CodecFor(v); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("CodecFor(%d) err = %v, want ErrUnsupportedVersion", v, err)
		}
	}
	if mustCodec(t, 5).Supports(TableCustomDomain) {
		t.Error("version 5 should not support custom_domain")
	}
}

func TestFileRowJoinsKey(t *testing.T) {
	f, err := FileRow{Date: "2018-07-17 15:09:36", Key: "k", IV: "iv", Name: "a"}.File()
	if err != nil {
		t.Fatalf("File(): %v", err)
	}
	if f.FileKey != "k:iv" || !f.Date.Equal(testDate) {
		t.Errorf("File() = %+v", f)
	}

	for _, key := range []string{"abc", "k:iv", ""} {
		f, err := NewFileRow(1, 1, &model.File{FileKey: key, Date: testDate, Name: "a"}).File()
		if err != nil {
			t.Fatalf("File(): %v", err)
		}
		if f.FileKey != key {
			t.Errorf("file key %q came back as %q", key, f.FileKey)
		}
	}

	if _, err := (FileRow{Date: "yesterday"}).File(); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestPeekTable(t *testing.T) {
	if got := PeekTable([]byte(`{"object":{"id":1},"table":"label"}`)); got != TableLabel {
		t.Errorf("PeekTable = %q, want %q", got, TableLabel)
	}
}
