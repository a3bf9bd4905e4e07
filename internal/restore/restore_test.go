package restore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ALT-F4-LLC/mailvault/internal/archive"
	"github.com/ALT-F4-LLC/mailvault/internal/db"
	"github.com/ALT-F4-LLC/mailvault/internal/export"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/mailfs"
	"github.com/ALT-F4-LLC/mailvault/internal/model"
	"github.com/ALT-F4-LLC/mailvault/internal/testutil"
)

const header = `{"recipientId":"test","language":"en","hasCriptextFooter":true,"fileVersion":6,"domain":"criptext.com","darkTheme":false,"signature":""}`

type target struct {
	conn *sqlx.DB
	mail *mailfs.Store
	acct *model.Account
}

func newTarget(t *testing.T) target {
	t.Helper()
	conn := testutil.NewTestDB(t)
	return target{
		conn: conn,
		mail: testutil.NewMailStore(t),
		acct: testutil.NewAccount(t, conn, "test@criptext.com"),
	}
}

func writeFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "link.db")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func contactLines(n int) []string {
	lines := []string{header}
	for i := 1; i <= n; i++ {
		lines = append(lines, fmt.Sprintf(
			`{"object":{"email":"c%d@criptext.com","isTrusted":false,"id":%d,"name":"C %d","spamScore":0},"table":"contact"}`, i, i, i))
	}
	return lines
}

func countRows(t *testing.T, conn *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := conn.Get(&n, query, args...); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}

func exportComplete(t *testing.T, src target) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "complete.db")
	x := export.New(src.conn, src.mail, export.Options{})
	if _, err := x.Complete(context.Background(), src.acct.ID, path, nil, nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	return path
}

func TestRoundTrip(t *testing.T) {
	src := newTarget(t)
	testutil.SeedScenario(t, src.conn, src.mail, src.acct)
	if _, _, err := db.UpsertAlias(context.Background(), src.conn, src.acct.ID, &model.Alias{RowID: 4, Name: "me", Domain: "custom.com", Active: true}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := db.UpsertCustomDomain(context.Background(), src.conn, src.acct.ID, &model.CustomDomain{Name: "custom.com", Validated: true}); err != nil {
		t.Fatal(err)
	}
	path := exportComplete(t, src)
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	dst := newTarget(t)
	res, err := New(dst.conn, dst.mail, Options{}).Restore(context.Background(), path, dst.acct.ID, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if res.Total() != 11 || res.Skipped != 0 || res.Unparsed != 0 || res.Batches != 1 {
		t.Errorf("result = %+v", res)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("source file should be removed, stat err = %v", err)
	}

	e, err := db.GetEmailByKey(context.Background(), dst.conn, dst.acct.ID, 123)
	if err != nil {
		t.Fatalf("GetEmailByKey: %v", err)
	}
	body, _, err := dst.mail.Load(dst.acct.Email(), 123)
	if err != nil || body != "test 1" {
		t.Errorf("body = (%q, %v), want test 1", body, err)
	}
	if n, _ := db.CountEmailContacts(context.Background(), dst.conn, e.ID); n != 2 {
		t.Errorf("email contacts = %d, want 2", n)
	}

	again := exportComplete(t, dst)
	restored, err := os.ReadFile(again)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != string(original) {
		t.Errorf("re-exported file differs:\n%s\nwant\n%s", restored, original)
	}
}

func TestRoundTripKeepsEmptyHeaderFields(t *testing.T) {
	ctx := context.Background()
	src := newTarget(t)
	e := &model.Email{
		Key:       77,
		MessageID: "<m77@x.com>",
		ThreadID:  "<m77@x.com>",
		Date:      time.Date(2018, 7, 17, 15, 9, 36, 0, time.UTC),
		Subject:   "multipart",
		Preview:   "hi",
	}
	if _, err := db.CreateEmail(ctx, src.conn, src.acct.ID, e); err != nil {
		t.Fatal(err)
	}
	headers := "From: Alice <alice@x.com>\r\nContent-Type: multipart/alternative; boundary=\"XYZ\""
	if err := src.mail.Save(src.acct.Email(), 77, "hi", headers); err != nil {
		t.Fatal(err)
	}
	path := exportComplete(t, src)
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	dst := newTarget(t)
	if _, err := New(dst.conn, dst.mail, Options{}).Restore(ctx, path, dst.acct.ID, nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := db.GetEmailByKey(ctx, dst.conn, dst.acct.ID, 77)
	if err != nil {
		t.Fatal(err)
	}
	if got.Boundary != "" || got.FromAddress != "" {
		t.Errorf("boundary = %q, from = %q, want both empty", got.Boundary, got.FromAddress)
	}
	_, storedHeaders, err := dst.mail.Load(dst.acct.Email(), 77)
	if err != nil || storedHeaders != headers {
		t.Errorf("headers = (%q, %v), want %q", storedHeaders, err, headers)
	}

	restored, err := os.ReadFile(exportComplete(t, dst))
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != string(original) {
		t.Errorf("re-exported file differs:\n%s\nwant\n%s", restored, original)
	}
}

func TestExistingEmailKeepsBody(t *testing.T) {
	ctx := context.Background()
	dst := newTarget(t)
	testutil.SeedEmail(t, dst.conn, dst.mail, dst.acct, 5, "<a@b>", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC))

	path := writeFile(t,
		header,
		`{"object":{"fromAddress":"","headers":"Subject: old","date":"2018-07-17 15:09:36","messageId":"<a@b>","threadId":"<a@b>","unread":false,"id":1,"status":3,"key":5,"secure":true,"content":"old body","subject":"old","replyTo":"","preview":"old","boundary":""},"table":"email"}`,
		`{"object":{"fromAddress":"","headers":"Subject: new","date":"2018-07-17 15:09:36","messageId":"<c@d>","threadId":"<c@d>","unread":false,"id":2,"status":3,"key":6,"secure":true,"content":"new body","subject":"new","replyTo":"","preview":"new","boundary":""},"table":"email"}`,
	)
	res, err := New(dst.conn, dst.mail, Options{}).Restore(ctx, path, dst.acct.ID, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if res.Rows[linkfile.TableEmail] != 2 {
		t.Errorf("email rows = %d, want 2", res.Rows[linkfile.TableEmail])
	}

	body, headers, err := dst.mail.Load(dst.acct.Email(), 5)
	if err != nil || body != "body" || headers != "Subject: <a@b>" {
		t.Errorf("existing message = (%q, %q, %v), want untouched", body, headers, err)
	}
	body, _, err = dst.mail.Load(dst.acct.Email(), 6)
	if err != nil || body != "new body" {
		t.Errorf("new message body = (%q, %v), want new body", body, err)
	}
}

func TestHeaderMismatch(t *testing.T) {
	dst := newTarget(t)
	lines := contactLines(3)
	lines[0] = strings.Replace(header, `"recipientId":"test"`, `"recipientId":"other"`, 1)
	path := writeFile(t, lines...)

	_, err := New(dst.conn, dst.mail, Options{}).Restore(context.Background(), path, dst.acct.ID, nil)
	if !errors.Is(err, ErrMetadata) {
		t.Fatalf("Restore err = %v, want ErrMetadata", err)
	}
	var me *MetadataError
	if !errors.As(err, &me) || !strings.Contains(me.Reason, "other@criptext.com") {
		t.Errorf("MetadataError = %+v", me)
	}
	if n := countRows(t, dst.conn, `SELECT COUNT(*) FROM contacts`); n != 0 {
		t.Errorf("contacts = %d, want 0", n)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("source file should be kept on failure: %v", err)
	}
}

func TestHeaderErrors(t *testing.T) {
	dst := newTarget(t)
	tests := []struct {
		name    string
		lines   []string
		wantErr error
	}{
		{"unsupported version", []string{strings.Replace(header, `"fileVersion":6`, `"fileVersion":9`, 1)}, linkfile.ErrUnsupportedVersion},
		{"malformed header", []string{`not json`}, linkfile.ErrMalformedHeader},
		{"empty file", nil, ErrMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "link.db")
			data := ""
			if len(tt.lines) > 0 {
				data = strings.Join(tt.lines, "\n") + "\n"
			}
			if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := New(dst.conn, dst.mail, Options{}).Restore(context.Background(), path, dst.acct.ID, nil)
			if !errors.Is(err, ErrMetadata) || !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want ErrMetadata wrapping %v", err, tt.wantErr)
			}
		})
	}
}

func TestMissingFileAndAccount(t *testing.T) {
	dst := newTarget(t)
	r := New(dst.conn, dst.mail, Options{})
	if _, err := r.Restore(context.Background(), filepath.Join(t.TempDir(), "missing.db"), dst.acct.ID, nil); err == nil || errors.Is(err, ErrMetadata) {
		t.Errorf("missing file err = %v, want a non-metadata error", err)
	}
	path := writeFile(t, header)
	if _, err := r.Restore(context.Background(), path, 99, nil); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("missing account err = %v, want ErrAccountNotFound", err)
	}
}

func TestBatchBoundaries(t *testing.T) {
	tests := []struct {
		rows        int
		wantBatches int
	}{
		{0, 0},
		{1, 1},
		{30, 1},
		{31, 2},
		{59, 2},
		{60, 2},
		{61, 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.rows), func(t *testing.T) {
			dst := newTarget(t)
			path := writeFile(t, contactLines(tt.rows)...)

			var flushed []int
			r := New(dst.conn, dst.mail, Options{OnFlush: func(batch, rows int) { flushed = append(flushed, rows) }})
			res, err := r.Restore(context.Background(), path, dst.acct.ID, nil)
			if err != nil {
				t.Fatalf("Restore: %v", err)
			}
			if res.Batches != tt.wantBatches || len(flushed) != tt.wantBatches {
				t.Errorf("batches = %d (flushes %v), want %d", res.Batches, flushed, tt.wantBatches)
			}
			if n := countRows(t, dst.conn, `SELECT COUNT(*) FROM contacts`); n != tt.rows {
				t.Errorf("contacts = %d, want %d", n, tt.rows)
			}
		})
	}
}

func TestUnresolvedEmailContactSkipped(t *testing.T) {
	dst := newTarget(t)
	path := writeFile(t,
		header,
		`{"object":{"email":"test1@criptext.com","isTrusted":false,"id":1,"name":"Test 1","spamScore":0},"table":"contact"}`,
		`{"object":{"fromAddress":"","headers":"","date":"2018-07-17 15:09:36","messageId":"<a@b>","threadId":"<a@b>","unread":true,"id":1,"status":3,"key":5,"secure":true,"content":"hi","subject":"","replyTo":"","preview":"hi","boundary":""},"table":"email"}`,
		`{"object":{"emailId":2,"contactId":1,"id":1,"type":"from"},"table":"email_contact"}`,
	)

	var skipped []error
	r := New(dst.conn, dst.mail, Options{OnSkip: func(_ linkfile.Table, err error) { skipped = append(skipped, err) }})
	res, err := r.Restore(context.Background(), path, dst.acct.ID, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if res.Skipped != 1 || len(skipped) != 1 || !errors.Is(skipped[0], ErrUnresolved) {
		t.Errorf("skipped = %d %v, want one unresolved row", res.Skipped, skipped)
	}
	if n := countRows(t, dst.conn, `SELECT COUNT(*) FROM email_contacts`); n != 0 {
		t.Errorf("email_contacts = %d, want 0", n)
	}
	if n := countRows(t, dst.conn, `SELECT COUNT(*) FROM emails`); n != 1 {
		t.Errorf("emails = %d, want 1", n)
	}
}

func TestDependentsOrderedWithinBatch(t *testing.T) {
	dst := newTarget(t)
	// The link row precedes its message and contact in the file.
	path := writeFile(t,
		header,
		`{"object":{"emailId":1,"contactId":1,"id":1,"type":"to"},"table":"email_contact"}`,
		`{"object":{"emailId":1,"labelId":3,"systemLabel":true},"table":"email_label"}`,
		`{"object":{"fromAddress":"","headers":"From: Alice <alice@criptext.com>\r\nContent-Type: multipart/alternative; boundary=\"b1\"","date":"2018-07-17 15:09:36","messageId":"<a@b>","threadId":"<a@b>","unread":false,"id":1,"status":3,"key":5,"secure":true,"content":"hi","subject":"","replyTo":"","preview":"hi","boundary":""},"table":"email"}`,
		`{"object":{"email":"test1@criptext.com","isTrusted":false,"id":1,"name":"Test 1","spamScore":0},"table":"contact"}`,
	)
	res, err := New(dst.conn, dst.mail, Options{}).Restore(context.Background(), path, dst.acct.ID, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if res.Skipped != 0 || res.Total() != 4 {
		t.Errorf("result = %+v", res)
	}
	e, err := db.GetEmailByKey(context.Background(), dst.conn, dst.acct.ID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if e.Boundary != "" || e.FromAddress != "" {
		t.Errorf("boundary = %q, from = %q, want both as stored in the row", e.Boundary, e.FromAddress)
	}
	if n := countRows(t, dst.conn, `SELECT COUNT(*) FROM email_labels WHERE email_id = ? AND label_id = 3`, e.ID); n != 1 {
		t.Errorf("sent label links = %d, want 1", n)
	}
}

func TestLabelResolution(t *testing.T) {
	dst := newTarget(t)
	path := writeFile(t,
		header,
		`{"object":{"type":"custom","uuid":"L1","visible":true,"color":"fff000","id":1,"text":"Work"},"table":"label"}`,
		`{"object":{"fromAddress":"","headers":"","date":"2018-07-17 15:09:36","messageId":"<a@b>","threadId":"<a@b>","unread":false,"id":1,"status":3,"key":5,"secure":true,"content":"hi","subject":"","replyTo":"","preview":"hi","boundary":""},"table":"email"}`,
		`{"object":{"emailId":1,"labelId":1},"table":"email_label"}`,
		`{"object":{"emailId":1,"labelId":2},"table":"email_label"}`,
		`{"object":{"emailId":1,"labelId":8,"systemLabel":true},"table":"email_label"}`,
		`{"object":{"emailId":1,"labelId":9},"table":"email_label"}`,
	)
	res, err := New(dst.conn, dst.mail, Options{}).Restore(context.Background(), path, dst.acct.ID, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	// labelId 1 is the custom label, 2 falls back to the spam seed, 8 is not
	// a built-in label and 9 is unknown.
	if res.Rows[linkfile.TableEmailLabel] != 2 || res.Skipped != 2 {
		t.Errorf("result = %+v", res)
	}
	labels, err := db.ListCustomLabels(context.Background(), dst.conn, dst.acct.ID)
	if err != nil || len(labels) != 1 {
		t.Fatalf("custom labels = %v, %v", labels, err)
	}
	if n := countRows(t, dst.conn, `SELECT COUNT(*) FROM email_labels WHERE label_id IN (?, 2)`, labels[0].ID); n != 2 {
		t.Errorf("label links = %d, want 2", n)
	}
}

func TestUnparsedAndUnknownLines(t *testing.T) {
	dst := newTarget(t)
	lines := contactLines(2)
	lines = append(lines, `not json`, `{"table":"device","object":{"id":1}}`, ``)
	path := writeFile(t, lines...)

	res, err := New(dst.conn, dst.mail, Options{}).Restore(context.Background(), path, dst.acct.ID, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if res.Unparsed != 1 || res.Skipped != 1 || res.Rows[linkfile.TableContact] != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestVersion5SkipsAliases(t *testing.T) {
	dst := newTarget(t)
	path := writeFile(t,
		strings.Replace(header, `"fileVersion":6`, `"fileVersion":5`, 1),
		`{"object":{"email":"test1@criptext.com","isTrusted":false,"id":1,"name":"Test 1","spamScore":0},"table":"contact"}`,
		`{"object":{"id":1,"rowId":4,"name":"me","domain":"custom.com","active":true},"table":"alias"}`,
	)
	res, err := New(dst.conn, dst.mail, Options{}).Restore(context.Background(), path, dst.acct.ID, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if res.Header.FileVersion != 5 || res.Skipped != 1 || res.Total() != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestProgressFromInitial(t *testing.T) {
	dst := newTarget(t)
	path := writeFile(t, contactLines(95)...)

	var seen []int
	r := New(dst.conn, dst.mail, Options{InitialProgress: 50})
	if _, err := r.Restore(context.Background(), path, dst.acct.ID, func(p int) { seen = append(seen, p) }); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	// Full batches report a byte ratio, the end of the file reports 100.
	if len(seen) < 2 || seen[len(seen)-1] != 100 {
		t.Fatalf("progress = %v", seen)
	}
	for i, p := range seen[:len(seen)-1] {
		if p < 50 || p > 99 || (i > 0 && p < seen[i-1]) {
			t.Errorf("progress = %v, want non-decreasing values in [50, 99]", seen)
		}
	}
}

func TestCancelBetweenBatches(t *testing.T) {
	dst := newTarget(t)
	path := writeFile(t, contactLines(70)...)

	ctx, cancel := context.WithCancel(context.Background())
	r := New(dst.conn, dst.mail, Options{OnFlush: func(batch, rows int) {
		if batch == 1 {
			cancel()
		}
	}})
	res, err := r.Restore(ctx, path, dst.acct.ID, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Restore err = %v, want context.Canceled", err)
	}
	if res.Batches != 1 {
		t.Errorf("batches = %d, want 1", res.Batches)
	}
	if n := countRows(t, dst.conn, `SELECT COUNT(*) FROM contacts`); n != 30 {
		t.Errorf("contacts = %d, want the first batch only", n)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("source file should be kept after cancellation: %v", err)
	}
}

func TestResumeWithMaps(t *testing.T) {
	dst := newTarget(t)
	first := writeFile(t,
		header,
		`{"object":{"fromAddress":"","headers":"","date":"2018-07-17 15:09:36","messageId":"<a@b>","threadId":"<a@b>","unread":false,"id":1,"status":3,"key":5,"secure":true,"content":"hi","subject":"","replyTo":"","preview":"hi","boundary":""},"table":"email"}`,
	)
	second := writeFile(t,
		header,
		`{"object":{"date":"2018-07-17 15:09:36","id":1,"name":"a.pdf","size":3,"emailId":1,"mimeType":"application/pdf","status":1,"token":"t","iv":"iv","key":"k"},"table":"file"}`,
	)

	maps := NewMaps()
	r := New(dst.conn, dst.mail, Options{Maps: maps})
	if _, err := r.Restore(context.Background(), first, dst.acct.ID, nil); err != nil {
		t.Fatalf("first Restore: %v", err)
	}
	if len(maps.Emails) != 1 {
		t.Fatalf("maps.Emails = %v", maps.Emails)
	}
	res, err := r.Restore(context.Background(), second, dst.acct.ID, nil)
	if err != nil {
		t.Fatalf("second Restore: %v", err)
	}
	if res.Rows[linkfile.TableFile] != 1 {
		t.Errorf("result = %+v", res)
	}
	files, err := db.ListFiles(context.Background(), dst.conn, dst.acct.ID)
	if err != nil || len(files) != 1 || files[0].FileKey != "k:iv" {
		t.Errorf("files = %+v, %v", files, err)
	}
}

func TestRestoreArchive(t *testing.T) {
	src := newTarget(t)
	email := testutil.SeedScenario(t, src.conn, src.mail, src.acct)
	if err := db.AddEmailLabels(context.Background(), src.conn, email.ID, int64(model.SystemLabelInbox)); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "backup.db")
	x := export.New(src.conn, src.mail, export.Options{
		Password: "secret",
		Params:   archive.Params{Time: 1, Memory: 64, Threads: 1},
	})
	if _, err := x.Run(context.Background(), src.acct.ID, out, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	dst := newTarget(t)
	work := filepath.Join(dir, "work")
	r := New(dst.conn, dst.mail, Options{KeepSource: true})

	if _, err := r.RestoreArchive(context.Background(), out, dst.acct.ID, "", work, nil, nil); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("no password err = %v, want ErrPasswordRequired", err)
	}
	if _, err := r.RestoreArchive(context.Background(), out, dst.acct.ID, "wrong", work, nil, nil); !errors.Is(err, archive.ErrWrongPassword) {
		t.Errorf("wrong password err = %v, want ErrWrongPassword", err)
	}

	var liteDone bool
	var seen []int
	res, err := r.RestoreArchive(context.Background(), out, dst.acct.ID, "secret", work,
		func(p int) { seen = append(seen, p) },
		func(*Result) { liteDone = true },
	)
	if err != nil {
		t.Fatalf("RestoreArchive: %v", err)
	}
	if !liteDone {
		t.Error("lite callback not called")
	}
	if res.Lite.Total() == 0 || res.Complete.Total() != 10 {
		t.Errorf("lite = %+v, complete = %+v", res.Lite, res.Complete)
	}
	if len(seen) == 0 || seen[len(seen)-1] != 100 {
		t.Errorf("progress = %v", seen)
	}
	if n := countRows(t, dst.conn, `SELECT COUNT(*) FROM email_contacts`); n != 2 {
		t.Errorf("email_contacts = %d, want 2 after restoring both parts", n)
	}

	entries, err := os.ReadDir(work)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("restore folders left behind: %v", entries)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("archive should be kept with KeepSource: %v", err)
	}
}

func TestScan(t *testing.T) {
	lines := contactLines(3)
	lines = append(lines,
		`{"object":{"id":1,"name":"custom.com","validated":true},"table":"custom_domain"}`,
		`{"table":"device","object":{"id":1}}`,
		`{broken`,
	)
	path := writeFile(t, lines...)

	s, err := Scan(context.Background(), path)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if s.Header.Address() != "test@criptext.com" || s.Header.FileVersion != 6 {
		t.Errorf("header = %+v", s.Header)
	}
	if s.Rows[linkfile.TableContact] != 3 || s.Rows[linkfile.TableCustomDomain] != 1 || s.Total() != 4 {
		t.Errorf("rows = %v", s.Rows)
	}
	if s.Unknown != 1 || s.Unparsed != 1 {
		t.Errorf("unknown = %d, unparsed = %d, want 1, 1", s.Unknown, s.Unparsed)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Scan must not remove the file: %v", err)
	}
}
