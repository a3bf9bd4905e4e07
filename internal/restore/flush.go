package restore

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ALT-F4-LLC/mailvault/internal/db"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/model"
	"github.com/ALT-F4-LLC/mailvault/internal/planner"
)

type body struct {
	key     int64
	content string
	headers string
}

// batch is the work of one flush. Nothing in it reaches the shared state
// until the transaction commits.
type batch struct {
	*run
	tx      *sqlx.Tx
	pending *pending
	applied map[linkfile.Table]int
	bodies  []body
	onSkip  func(linkfile.Table, error)
}

// flush applies rows in dependency order inside one transaction.
func (r *Restorer) flush(st *run, rows []linkfile.Row) error {
	b := &batch{
		run:     st,
		pending: newPending(st.maps),
		applied: make(map[linkfile.Table]int),
		onSkip:  r.opts.OnSkip,
	}

	err := db.WithTx(st.ctx, r.conn, func(tx *sqlx.Tx) error {
		b.tx = tx
		for _, row := range planner.Order(rows, r.order) {
			if err := b.apply(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flushing batch %d: %w", st.result.Batches+1, err)
	}

	b.pending.commit(st.contactIDs)
	for t, n := range b.applied {
		st.result.Rows[t] += n
	}
	st.result.Batches++

	for _, bd := range b.bodies {
		if err := r.mail.Save(st.account.Email(), bd.key, bd.content, bd.headers); err != nil {
			return fmt.Errorf("saving message %d: %w", bd.key, err)
		}
	}

	st.log.WithFields(logrus.Fields{"batch": st.result.Batches, "rows": len(rows)}).Debug("batch committed")
	if r.opts.OnFlush != nil {
		r.opts.OnFlush(st.result.Batches, len(rows))
	}
	return nil
}

// apply inserts one row. Rows whose references cannot be resolved are
// skipped; store errors abort the batch.
func (b *batch) apply(row linkfile.Row) error {
	ctx, acct := b.ctx, b.account
	switch row := row.(type) {
	case linkfile.ContactRow:
		c := row.Contact()
		id, _, err := db.UpsertContact(ctx, b.tx, acct.ID, c)
		if err != nil {
			return err
		}
		b.pending.contacts[row.ID] = c.Email
		b.pending.contactIDs[c.Email] = id

	case linkfile.LabelRow:
		id, _, err := db.UpsertLabel(ctx, b.tx, acct.ID, row.Label())
		if err != nil {
			return err
		}
		b.pending.labels[row.ID] = id

	case linkfile.EmailRow:
		e, err := row.Email()
		if err != nil {
			b.skip(row.Table(), err)
			return nil
		}
		id, inserted, err := db.UpsertEmail(ctx, b.tx, acct.ID, e)
		if err != nil {
			return err
		}
		b.pending.emails[row.ID] = id
		// An existing message keeps its stored body.
		if inserted {
			b.bodies = append(b.bodies, body{key: e.Key, content: e.Content, headers: e.Headers})
		}

	case linkfile.EmailLabelRow:
		emailID, ok := b.pending.email(row.EmailID)
		if !ok {
			b.skip(row.Table(), fmt.Errorf("%w: email %d", ErrUnresolved, row.EmailID))
			return nil
		}
		labelID, ok := b.labelID(row)
		if !ok {
			b.skip(row.Table(), fmt.Errorf("%w: label %d", ErrUnresolved, row.LabelID))
			return nil
		}
		if _, err := db.InsertEmailLabel(ctx, b.tx, emailID, labelID); err != nil {
			return err
		}

	case linkfile.EmailContactRow:
		emailID, ok := b.pending.email(row.EmailID)
		if !ok {
			b.skip(row.Table(), fmt.Errorf("%w: email %d", ErrUnresolved, row.EmailID))
			return nil
		}
		address, ok := b.pending.contact(row.ContactID)
		if !ok {
			b.skip(row.Table(), fmt.Errorf("%w: contact %d", ErrUnresolved, row.ContactID))
			return nil
		}
		ct := model.ContactType(row.Type)
		if err := model.ValidateContactType(ct); err != nil {
			b.skip(row.Table(), err)
			return nil
		}
		contactID, err := b.contactID(address)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				b.skip(row.Table(), fmt.Errorf("%w: contact %s", ErrUnresolved, address))
				return nil
			}
			return err
		}
		if _, err := db.InsertEmailContact(ctx, b.tx, emailID, contactID, ct); err != nil {
			return err
		}

	case linkfile.FileRow:
		emailID, ok := b.pending.email(row.EmailID)
		if !ok {
			b.skip(row.Table(), fmt.Errorf("%w: email %d", ErrUnresolved, row.EmailID))
			return nil
		}
		f, err := row.File()
		if err != nil {
			b.skip(row.Table(), err)
			return nil
		}
		if _, err := db.InsertFile(ctx, b.tx, emailID, f); err != nil {
			return err
		}

	case linkfile.AliasRow:
		if _, _, err := db.UpsertAlias(ctx, b.tx, acct.ID, row.Alias()); err != nil {
			return err
		}

	case linkfile.CustomDomainRow:
		if _, _, err := db.UpsertCustomDomain(ctx, b.tx, acct.ID, row.CustomDomain()); err != nil {
			return err
		}

	default:
		b.skip(row.Table(), linkfile.ErrUnknownTable)
		return nil
	}

	b.applied[row.Table()]++
	return nil
}

// labelID resolves the label of an email_label row. Flagged rows name a
// built-in label directly; others go through the file's label remap, which
// also holds the built-in seed.
func (b *batch) labelID(row linkfile.EmailLabelRow) (int64, bool) {
	if row.SystemLabel {
		return row.LabelID, model.IsSystemLabel(row.LabelID)
	}
	return b.pending.label(row.LabelID)
}

func (b *batch) contactID(address string) (int64, error) {
	if id, ok := b.pending.contactIDs[address]; ok {
		return id, nil
	}
	if id, ok := b.contactIDs[address]; ok {
		return id, nil
	}
	c, err := db.GetContactByEmail(b.ctx, b.tx, b.account.ID, address)
	if err != nil {
		return 0, err
	}
	b.pending.contactIDs[address] = c.ID
	return c.ID, nil
}

func (b *batch) skip(table linkfile.Table, err error) {
	b.run.skip(table, err, b.onSkip)
}
