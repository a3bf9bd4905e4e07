// Package restore reads link files back into a mail store, remapping the
// synthetic ids of the file onto the ids the store assigns.
package restore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ALT-F4-LLC/mailvault/internal/db"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/logging"
	"github.com/ALT-F4-LLC/mailvault/internal/mailfs"
	"github.com/ALT-F4-LLC/mailvault/internal/model"
	"github.com/ALT-F4-LLC/mailvault/internal/planner"
	"github.com/ALT-F4-LLC/mailvault/internal/progress"
	"github.com/ALT-F4-LLC/mailvault/internal/stream"
)

// DefaultBatchSize is the number of rows committed per transaction.
const DefaultBatchSize = 30

var (
	// ErrMetadata is matched by every *MetadataError.
	ErrMetadata = errors.New("link file metadata error")

	// ErrAccountNotFound is returned when the target account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrUnresolved is passed to Options.OnSkip for rows referencing a
	// message, contact or label that is not known yet.
	ErrUnresolved = errors.New("unresolved reference")
)

// MetadataError reports a header that cannot be restored into the target
// account. Err carries the underlying cause when there is one, such as
// linkfile.ErrUnsupportedVersion.
type MetadataError struct {
	Reason string
	Err    error
}

func (e *MetadataError) Error() string {
	return "link file metadata error: " + e.Reason
}

// Is matches ErrMetadata.
func (e *MetadataError) Is(target error) bool {
	return target == ErrMetadata
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// Options configure a Restorer.
type Options struct {
	BatchSize       int   // rows per transaction (0 = DefaultBatchSize)
	InitialProgress int   // progress already reported by the caller
	KeepSource      bool  // keep the file after a successful restore
	Maps            *Maps // remaps to resume from (nil = fresh, seeded with system labels)
	OnFlush         func(batch, rows int)
	OnSkip          func(table linkfile.Table, err error)
	Logger          logrus.FieldLogger
}

// Result describes one restored file.
type Result struct {
	Header   linkfile.Header
	Rows     map[linkfile.Table]int
	Skipped  int // rows decoded but not applied
	Unparsed int // lines that were not rows
	Batches  int
}

// Total returns the number of applied rows.
func (r *Result) Total() int {
	n := 0
	for _, c := range r.Rows {
		n += c
	}
	return n
}

// Restorer applies link files to a mail store.
type Restorer struct {
	conn  *sqlx.DB
	mail  *mailfs.Store
	opts  Options
	log   logrus.FieldLogger
	order []linkfile.Table
}

// New returns a restorer writing to conn and mail.
func New(conn *sqlx.DB, mail *mailfs.Store, opts Options) *Restorer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Restorer{
		conn:  conn,
		mail:  mail,
		opts:  opts,
		log:   logging.OrDiscard(opts.Logger),
		order: planner.DefaultOrder(),
	}
}

// run is the state of one Restore call.
type run struct {
	ctx        context.Context
	account    *model.Account
	maps       *Maps
	contactIDs map[string]int64
	result     *Result
	log        logrus.FieldLogger
}

// Restore streams the link file at path into the account. The header must
// name the account and carry a supported version, otherwise nothing is
// written. Rows are committed in batches; the file is deleted afterwards
// unless KeepSource is set.
func (r *Restorer) Restore(ctx context.Context, path string, accountID int64, report progress.Func) (*Result, error) {
	acct, err := db.GetAccount(ctx, r.conn, accountID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading account %d: %w", accountID, err)
	}

	rd, err := stream.Open(path)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	header, codec, err := readHeader(rd, acct)
	if err != nil {
		return nil, err
	}

	maps := r.opts.Maps
	if maps == nil {
		maps = NewMaps()
	}
	maps.ensure()
	st := &run{
		ctx:        ctx,
		account:    acct,
		maps:       maps,
		contactIDs: make(map[string]int64),
		result:     &Result{Header: header, Rows: make(map[linkfile.Table]int)},
		log:        r.log.WithFields(logrus.Fields{"account": acct.Email(), "path": path}),
	}
	tracker := progress.NewTracker(0, 0, report)

	batch := make([]linkfile.Row, 0, r.opts.BatchSize)
	for {
		if err := ctx.Err(); err != nil {
			return st.result, err
		}
		line, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st.result, err
		}
		if len(line) == 0 {
			continue
		}

		row, err := codec.Decode(line)
		if err != nil {
			if errors.Is(err, linkfile.ErrUnknownTable) {
				st.skip(linkfile.PeekTable(line), err, r.opts.OnSkip)
			} else {
				st.result.Unparsed++
				st.log.WithError(err).Debug("line skipped")
			}
			continue
		}
		batch = append(batch, row)

		if len(batch) >= r.opts.BatchSize {
			if err := r.flush(st, batch); err != nil {
				return st.result, err
			}
			batch = batch[:0]
			tracker.Report(progress.ByteRatio(rd.Offset(), rd.Size(), r.opts.InitialProgress))
		}
	}
	if len(batch) > 0 {
		if err := r.flush(st, batch); err != nil {
			return st.result, err
		}
	}
	tracker.Done()

	if !r.opts.KeepSource {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			st.log.WithError(err).Warn("removing restored file")
		}
	}

	st.log.WithFields(logrus.Fields{
		"rows":    st.result.Total(),
		"skipped": st.result.Skipped,
		"batches": st.result.Batches,
	}).Info("link file restored")
	return st.result, nil
}

// readHeader validates the first line against the account and returns the
// codec for the rest of the file.
func readHeader(rd *stream.Reader, acct *model.Account) (linkfile.Header, *linkfile.Codec, error) {
	line, err := rd.Next()
	if errors.Is(err, io.EOF) {
		return linkfile.Header{}, nil, &MetadataError{Reason: "file is empty"}
	}
	if err != nil {
		return linkfile.Header{}, nil, err
	}
	header, err := linkfile.ParseHeader(line)
	if err != nil {
		return linkfile.Header{}, nil, &MetadataError{Reason: err.Error(), Err: err}
	}
	if header.Address() != acct.Email() {
		return header, nil, &MetadataError{
			Reason: fmt.Sprintf("file belongs to %s, not %s", header.Address(), acct.Email()),
		}
	}
	codec, err := linkfile.CodecFor(header.FileVersion)
	if err != nil {
		return header, nil, &MetadataError{Reason: err.Error(), Err: err}
	}
	return header, codec, nil
}

func (st *run) skip(table linkfile.Table, err error, onSkip func(linkfile.Table, error)) {
	st.result.Skipped++
	st.log.WithField("table", table).WithError(err).Debug("row skipped")
	if onSkip != nil {
		onSkip(table, err)
	}
}
