// Package testutil provides a seeded mail store for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ALT-F4-LLC/mailvault/internal/db"
	"github.com/ALT-F4-LLC/mailvault/internal/mailfs"
	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

// ScenarioDate is the timestamp used for every seeded message and file.
var ScenarioDate = time.Unix(1531840176, 0).UTC()

// NewTestDB opens an in-memory database with the schema applied. It is
// closed when the test completes.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})
	if err := db.Initialize(conn); err != nil {
		t.Fatalf("initializing test database: %v", err)
	}
	return conn
}

// NewMailStore returns a message store under a temporary directory.
func NewMailStore(t *testing.T) *mailfs.Store {
	t.Helper()
	return mailfs.New(filepath.Join(t.TempDir(), "mail"))
}

// NewAccount creates the account addr ("user@domain") with the footer flag
// set.
func NewAccount(t *testing.T, conn *sqlx.DB, addr string) *model.Account {
	t.Helper()

	user, domain, err := model.ParseAddress(addr)
	if err != nil {
		t.Fatal(err)
	}
	a := &model.Account{Username: user, Domain: domain, Name: "Test", HasFooter: true}
	if _, err := db.CreateAccount(context.Background(), conn, a); err != nil {
		t.Fatalf("creating account %s: %v", addr, err)
	}
	return a
}

// SeedScenario stores two contacts, two custom labels and one message with
// an attachment, a "from" and a "to" link and the first custom label.
func SeedScenario(t *testing.T, conn *sqlx.DB, mail *mailfs.Store, acct *model.Account) *model.Email {
	t.Helper()
	ctx := context.Background()

	c1 := &model.Contact{Email: "test1@criptext.com", Name: "Test 1"}
	c2 := &model.Contact{Email: "test2@criptext.com", Name: "Test 2"}
	for _, c := range []*model.Contact{c1, c2} {
		if _, _, err := db.UpsertContact(ctx, conn, acct.ID, c); err != nil {
			t.Fatal(err)
		}
	}

	l1 := &model.Label{Text: "Test 1", Color: "fff000", UUID: "430A9A0B-8028-4907-827C-11D6AEFD5803", Visible: true}
	l2 := &model.Label{Text: "Test 2", Color: "ff00ff", UUID: "430A9A0B-8028-4907-827C-11D6AEFD5802", Visible: true}
	for _, l := range []*model.Label{l1, l2} {
		if _, err := db.CreateLabel(ctx, conn, acct.ID, l); err != nil {
			t.Fatal(err)
		}
	}

	email := &model.Email{
		Key:       123,
		MessageID: "<dsfsfd.dsfsdfs@ddsfs.fsdfs>",
		ThreadID:  "<dsfsfd.dsfsdfs@ddsfs.fsdfs>",
		Date:      ScenarioDate,
		Unread:    true,
		Status:    model.EmailStatusDelivered,
		Secure:    true,
		Preview:   "test 1",
	}
	if _, err := db.CreateEmail(ctx, conn, acct.ID, email); err != nil {
		t.Fatal(err)
	}
	if err := mail.Save(acct.Email(), email.Key, "test 1", ""); err != nil {
		t.Fatal(err)
	}
	if err := db.AddEmailLabels(ctx, conn, email.ID, l1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertEmailContact(ctx, conn, email.ID, c2.ID, model.ContactFrom); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertEmailContact(ctx, conn, email.ID, c1.ID, model.ContactTo); err != nil {
		t.Fatal(err)
	}
	f := &model.File{
		Name:     "test.pdf",
		Date:     ScenarioDate,
		MimeType: "application/pdf",
		Status:   model.FileStatusUploaded,
		FileKey:  "fgsfgfgsfdafa:afdsfsagdfgsdf",
	}
	if _, err := db.InsertFile(ctx, conn, email.ID, f); err != nil {
		t.Fatal(err)
	}
	return email
}

// SeedEmail stores a message with body text in thread at date and attaches
// the given labels.
func SeedEmail(t *testing.T, conn *sqlx.DB, mail *mailfs.Store, acct *model.Account, key int64, thread string, date time.Time, labels ...int64) *model.Email {
	t.Helper()
	ctx := context.Background()

	e := &model.Email{
		Key:       key,
		MessageID: thread,
		ThreadID:  thread,
		Date:      date,
		Subject:   thread,
		Preview:   "body",
	}
	if _, err := db.CreateEmail(ctx, conn, acct.ID, e); err != nil {
		t.Fatal(err)
	}
	if err := mail.Save(acct.Email(), key, "body", "Subject: "+thread); err != nil {
		t.Fatal(err)
	}
	if err := db.AddEmailLabels(ctx, conn, e.ID, labels...); err != nil {
		t.Fatal(err)
	}
	return e
}
