// Package export writes an account's mail store as link files: a lite file
// with the most recent threads, a complete file with the whole mailbox, and
// an archive bundling both.
package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ALT-F4-LLC/mailvault/internal/archive"
	"github.com/ALT-F4-LLC/mailvault/internal/db"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/logging"
	"github.com/ALT-F4-LLC/mailvault/internal/mailfs"
	"github.com/ALT-F4-LLC/mailvault/internal/model"
	"github.com/ALT-F4-LLC/mailvault/internal/progress"
)

var (
	// ErrAccountNotFound is returned when the exported account does not
	// exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrUnresolved is passed to Options.OnDrop for rows whose message,
	// contact or label was not emitted earlier in the same file.
	ErrUnresolved = errors.New("unresolved reference")
)

// Kind selects the default output file name of an export.
type Kind string

const (
	KindLink   Kind = "link"
	KindBackup Kind = "backup"
	KindShare  Kind = "share"
)

// FileName returns the default output file name for the kind.
func (k Kind) FileName() string {
	switch k {
	case KindLink:
		return "link.db"
	case KindShare:
		return "share.db"
	default:
		return "backup.db"
	}
}

// ParseKind validates an export kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindLink, KindBackup, KindShare:
		return k, nil
	default:
		return "", fmt.Errorf("invalid export kind %q: must be one of link, backup, share", s)
	}
}

// Options configure an Exporter.
type Options struct {
	Preferences   linkfile.Preferences
	LiteThreads   int       // threads in the lite file (0 = filter.DefaultThreadLimit)
	LiteLabel     int64     // lite candidates must carry this label (0 = any)
	Before        time.Time // lite candidates are older than this (zero = now)
	ProgressEvery int       // report every N rows (0 = about once per percent)
	Kind          Kind
	Password      string // encrypts the archive when set
	Params        archive.Params
	WorkDir       string // parts directory, removed after Run unless KeepParts
	KeepParts     bool
	OnDrop        func(table linkfile.Table, err error)
	Logger        logrus.FieldLogger
}

// DefaultOptions returns the options used by the CLI before settings are
// applied.
func DefaultOptions() Options {
	return Options{
		Preferences: linkfile.Preferences{Language: "en"},
		LiteLabel:   int64(model.SystemLabelInbox),
		Kind:        KindBackup,
		Params:      archive.DefaultParams(),
	}
}

// Stats describes one written link file.
type Stats struct {
	Path    string
	Account string
	Rows    map[linkfile.Table]int
	Dropped int
	Threads []string // lite only: thread ids in the file
	Keys    []int64  // message keys in the file
}

// Total returns the number of data rows written.
func (s *Stats) Total() int {
	n := 0
	for _, c := range s.Rows {
		n += c
	}
	return n
}

// Exporter reads from a mail store and its message files.
type Exporter struct {
	conn *sqlx.DB
	mail *mailfs.Store
	opts Options
	log  logrus.FieldLogger
}

// New returns an exporter over conn and mail.
func New(conn *sqlx.DB, mail *mailfs.Store, opts Options) *Exporter {
	if opts.Kind == "" {
		opts.Kind = KindBackup
	}
	if opts.Params == (archive.Params{}) {
		opts.Params = archive.DefaultParams()
	}
	return &Exporter{conn: conn, mail: mail, opts: opts, log: logging.OrDiscard(opts.Logger)}
}

func (x *Exporter) account(ctx context.Context, accountID int64) (*model.Account, error) {
	a, err := db.GetAccount(ctx, x.conn, accountID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading account %d: %w", accountID, err)
	}
	return a, nil
}

// Lite writes the most recent threads of the account to path, skipping
// threads in excludeThreads. The returned stats list the picked threads and
// emitted message keys.
func (x *Exporter) Lite(ctx context.Context, accountID int64, path string, excludeThreads []string, report progress.Func) (*Stats, error) {
	acct, err := x.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	emails, threads, err := db.GetThreads(ctx, x.conn, accountID, db.ThreadQuery{
		Label:            x.opts.LiteLabel,
		Before:           x.opts.Before,
		Limit:            x.opts.LiteThreads,
		ExcludeThreadIDs: excludeThreads,
	})
	if err != nil {
		return nil, fmt.Errorf("selecting recent threads: %w", err)
	}
	mb, err := db.MailboxForEmails(ctx, x.conn, accountID, emails)
	if err != nil {
		return nil, fmt.Errorf("loading recent threads: %w", err)
	}
	stats, err := x.write(ctx, "lite", acct, mb, path, report)
	if err != nil {
		return nil, err
	}
	stats.Threads = threads
	return stats, nil
}

// Complete writes the account's entire mailbox to path, leaving out
// messages whose key is in excludedKeys.
func (x *Exporter) Complete(ctx context.Context, accountID int64, path string, excludedKeys []int64, report progress.Func) (*Stats, error) {
	acct, err := x.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	mb, err := db.GetEntireMailbox(ctx, x.conn, accountID, excludedKeys)
	if err != nil {
		return nil, fmt.Errorf("loading mailbox: %w", err)
	}
	return x.write(ctx, "complete", acct, mb, path, report)
}

func (x *Exporter) write(ctx context.Context, stage string, acct *model.Account, mb *model.Mailbox, path string, report progress.Func) (*Stats, error) {
	log := x.log.WithFields(logrus.Fields{"account": acct.Email(), "stage": stage, "path": path})

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("removing previous %s: %w", path, err)
	}

	total := mb.Total()
	every := x.opts.ProgressEvery
	if every <= 0 {
		every = progress.DefaultEvery(total)
	}
	tracker := progress.NewTracker(total, every, report)

	em, err := newEmitter(ctx, path, acct, x.mail, tracker, log, x.opts.OnDrop)
	if err != nil {
		return nil, err
	}
	if err := em.header(linkfile.NewHeader(acct, x.opts.Preferences)); err != nil {
		em.close()
		return nil, err
	}
	if err := em.mailbox(mb); err != nil {
		em.close()
		return nil, err
	}
	if err := em.close(); err != nil {
		return nil, fmt.Errorf("closing %s: %w", path, err)
	}
	tracker.Done()

	log.WithFields(logrus.Fields{"rows": em.stats.Total(), "dropped": em.stats.Dropped}).Info("link file written")
	return em.stats, nil
}
