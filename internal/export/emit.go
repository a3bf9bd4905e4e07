package export

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/mailfs"
	"github.com/ALT-F4-LLC/mailvault/internal/model"
	"github.com/ALT-F4-LLC/mailvault/internal/progress"
	"github.com/ALT-F4-LLC/mailvault/internal/stream"
)

// emitter writes one link file. Its remap tables live only as long as the
// file being written.
type emitter struct {
	ctx     context.Context
	codec   *linkfile.Codec
	w       *stream.Writer
	account *model.Account
	mail    *mailfs.Store
	tracker *progress.Tracker
	log     logrus.FieldLogger
	onDrop  func(linkfile.Table, error)

	next     map[linkfile.Table]int64
	contacts map[string]int64 // contact email -> synthetic id
	labels   map[string]int64 // label uuid -> synthetic id
	labelIDs map[int64]int64  // store label id -> synthetic id
	emails   map[int64]int64  // message key -> synthetic id

	stats *Stats
}

func newEmitter(ctx context.Context, path string, acct *model.Account, mail *mailfs.Store, tracker *progress.Tracker, log logrus.FieldLogger, onDrop func(linkfile.Table, error)) (*emitter, error) {
	codec, err := linkfile.CodecFor(linkfile.CurrentVersion)
	if err != nil {
		return nil, err
	}
	return &emitter{
		ctx:      ctx,
		codec:    codec,
		w:        stream.NewWriter(path),
		account:  acct,
		mail:     mail,
		tracker:  tracker,
		log:      log,
		onDrop:   onDrop,
		next:     make(map[linkfile.Table]int64),
		contacts: make(map[string]int64),
		labels:   make(map[string]int64),
		labelIDs: make(map[int64]int64),
		emails:   make(map[int64]int64),
		stats: &Stats{
			Path:    path,
			Account: acct.Email(),
			Rows:    make(map[linkfile.Table]int),
		},
	}, nil
}

func (e *emitter) close() error {
	return e.w.Close()
}

// header writes the first line. Failing to write it aborts the file.
func (e *emitter) header(h linkfile.Header) error {
	line, err := linkfile.EncodeHeader(h)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	if err := e.w.WriteLine(line); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// id returns the synthetic id the next row of table will get.
func (e *emitter) id(table linkfile.Table) int64 {
	return e.next[table] + 1
}

// emit writes row and reports whether it reached the file. A row that fails
// to encode or write is dropped and does not consume its id.
func (e *emitter) emit(row linkfile.Row) bool {
	line, err := e.codec.Encode(row)
	if err == nil {
		err = e.w.WriteLine(line)
	}
	if err != nil {
		e.drop(row.Table(), err)
		return false
	}
	e.next[row.Table()]++
	e.stats.Rows[row.Table()]++
	return true
}

func (e *emitter) drop(table linkfile.Table, err error) {
	e.stats.Dropped++
	e.log.WithField("table", table).WithError(err).Debug("row dropped")
	if e.onDrop != nil {
		e.onDrop(table, err)
	}
}

// step runs before every candidate row.
func (e *emitter) step() error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	e.tracker.Advance()
	return nil
}

// mailbox writes every row of mb in table order.
func (e *emitter) mailbox(mb *model.Mailbox) error {
	for _, c := range mb.Contacts {
		if err := e.step(); err != nil {
			return err
		}
		e.contact(c)
	}
	for _, l := range mb.Labels {
		if err := e.step(); err != nil {
			return err
		}
		e.label(l)
	}
	for _, m := range mb.Emails {
		if err := e.step(); err != nil {
			return err
		}
		e.email(m)
	}
	for _, el := range mb.EmailLabels {
		if err := e.step(); err != nil {
			return err
		}
		e.emailLabel(el)
	}
	for _, ec := range mb.EmailContacts {
		if err := e.step(); err != nil {
			return err
		}
		e.emailContact(ec)
	}
	for _, f := range mb.Files {
		if err := e.step(); err != nil {
			return err
		}
		e.file(f)
	}
	for _, a := range mb.Aliases {
		if err := e.step(); err != nil {
			return err
		}
		e.emit(linkfile.NewAliasRow(e.id(linkfile.TableAlias), a))
	}
	for _, d := range mb.CustomDomains {
		if err := e.step(); err != nil {
			return err
		}
		e.emit(linkfile.NewCustomDomainRow(e.id(linkfile.TableCustomDomain), d))
	}
	return nil
}

// contact emits a contact once per email address.
func (e *emitter) contact(c *model.Contact) {
	if _, ok := e.contacts[c.Email]; ok {
		return
	}
	id := e.id(linkfile.TableContact)
	if e.emit(linkfile.NewContactRow(id, c)) {
		e.contacts[c.Email] = id
	}
}

// label emits a custom label once per uuid. System labels are never written.
func (e *emitter) label(l *model.Label) {
	if l.IsSystem() {
		return
	}
	if id, ok := e.labels[l.UUID]; ok {
		e.labelIDs[l.ID] = id
		return
	}
	id := e.id(linkfile.TableLabel)
	if e.emit(linkfile.NewLabelRow(id, l)) {
		e.labels[l.UUID] = id
		e.labelIDs[l.ID] = id
	}
}

func (e *emitter) email(m *model.Email) {
	body, headers, err := e.mail.Load(e.account.Email(), m.Key)
	if err != nil {
		e.drop(linkfile.TableEmail, err)
		return
	}
	full := *m
	full.Content = body
	full.Headers = headers

	id := e.id(linkfile.TableEmail)
	if e.emit(linkfile.NewEmailRow(id, &full)) {
		e.emails[m.Key] = id
		e.stats.Keys = append(e.stats.Keys, m.Key)
	}
}

func (e *emitter) emailLabel(el model.EmailLabel) {
	emailID, ok := e.emails[el.EmailKey]
	if !ok {
		e.drop(linkfile.TableEmailLabel, fmt.Errorf("%w: email %d", ErrUnresolved, el.EmailKey))
		return
	}
	if model.IsSystemLabel(el.LabelID) {
		e.emit(linkfile.EmailLabelRow{EmailID: emailID, LabelID: el.LabelID, SystemLabel: true})
		return
	}
	labelID, ok := e.labelIDs[el.LabelID]
	if !ok {
		e.drop(linkfile.TableEmailLabel, fmt.Errorf("%w: label %d", ErrUnresolved, el.LabelID))
		return
	}
	e.emit(linkfile.EmailLabelRow{EmailID: emailID, LabelID: labelID})
}

func (e *emitter) emailContact(ec *model.EmailContact) {
	emailID, ok := e.emails[ec.EmailKey]
	if !ok {
		e.drop(linkfile.TableEmailContact, fmt.Errorf("%w: email %d", ErrUnresolved, ec.EmailKey))
		return
	}
	contactID, ok := e.contacts[ec.ContactEmail]
	if !ok {
		e.drop(linkfile.TableEmailContact, fmt.Errorf("%w: contact %s", ErrUnresolved, ec.ContactEmail))
		return
	}
	e.emit(linkfile.NewEmailContactRow(e.id(linkfile.TableEmailContact), emailID, contactID, ec.Type))
}

func (e *emitter) file(f *model.File) {
	emailID, ok := e.emails[f.EmailKey]
	if !ok {
		e.drop(linkfile.TableFile, fmt.Errorf("%w: email %d", ErrUnresolved, f.EmailKey))
		return
	}
	e.emit(linkfile.NewFileRow(e.id(linkfile.TableFile), emailID, f))
}
