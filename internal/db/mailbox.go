package db

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ALT-F4-LLC/mailvault/internal/filter"
	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

// ThreadQuery selects the most recent threads of an account.
type ThreadQuery struct {
	Label            int64     // restrict candidates to messages carrying this label (0 = any)
	Before           time.Time // only messages strictly older than this are candidates (zero = now)
	Limit            int       // max new threads (0 = filter.DefaultThreadLimit)
	ExcludeThreadIDs []string  // threads already emitted
}

// GetThreads returns the messages of up to q.Limit distinct threads, most
// recent thread first. Messages within a thread are in ascending date order.
// The picked thread ids are returned alongside.
func GetThreads(ctx context.Context, q sqlx.QueryerContext, accountID int64, tq ThreadQuery) ([]*model.Email, []string, error) {
	before := tq.Before
	if before.IsZero() {
		before = time.Now()
	}

	query := `SELECT thread_id FROM emails e WHERE e.account_id = ? AND e.date < ?`
	args := []any{accountID, model.FormatDate(before)}
	if tq.Label != 0 {
		query += ` AND EXISTS (SELECT 1 FROM email_labels el WHERE el.email_id = e.id AND el.label_id = ?)`
		args = append(args, tq.Label)
	}
	query += ` ORDER BY e.date DESC, e.id DESC`

	picker := filter.NewThreadPicker(tq.Limit, tq.ExcludeThreadIDs)
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("querying recent threads: %w", err)
	}
	for rows.Next() {
		var threadID string
		if err := rows.Scan(&threadID); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scanning thread id: %w", err)
		}
		if picker.Offer(threadID) {
			break
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, fmt.Errorf("iterating thread rows: %w", err)
	}
	rows.Close()

	var emails []*model.Email
	for _, threadID := range picker.Threads() {
		var records []emailRecord
		err := sqlx.SelectContext(ctx, q, &records,
			`SELECT `+emailColumns+` FROM emails WHERE account_id = ? AND thread_id = ? ORDER BY date ASC, id ASC`,
			accountID, threadID,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("querying thread %q: %w", threadID, err)
		}
		threadEmails, err := toEmails(records)
		if err != nil {
			return nil, nil, err
		}
		emails = append(emails, threadEmails...)
	}

	return emails, picker.Threads(), nil
}

// GetEntireMailbox returns every row the account owns, excluding messages
// whose key is in excludedKeys along with their labels, contacts links and
// files.
func GetEntireMailbox(ctx context.Context, q sqlx.QueryerContext, accountID int64, excludedKeys []int64) (*model.Mailbox, error) {
	var err error
	mb := &model.Mailbox{}

	if mb.Contacts, err = ListContacts(ctx, q, accountID); err != nil {
		return nil, err
	}
	if mb.Labels, err = ListCustomLabels(ctx, q, accountID); err != nil {
		return nil, err
	}

	var records []emailRecord
	if err := sqlx.SelectContext(ctx, q, &records,
		`SELECT `+emailColumns+` FROM emails WHERE account_id = ? ORDER BY id`, accountID,
	); err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}
	emails, err := toEmails(records)
	if err != nil {
		return nil, err
	}
	excluded := filter.ToSet(excludedKeys)
	mb.Emails = filter.WithoutKeys(emails, excluded)

	var labels []model.EmailLabel
	if err := sqlx.SelectContext(ctx, q, &labels,
		`SELECT el.email_id, e.email_key, el.label_id
		 FROM email_labels el JOIN emails e ON e.id = el.email_id
		 WHERE e.account_id = ? ORDER BY el.email_id, el.label_id`, accountID,
	); err != nil {
		return nil, fmt.Errorf("querying email labels: %w", err)
	}
	var contacts []*model.EmailContact
	if err := sqlx.SelectContext(ctx, q, &contacts,
		emailContactSelect+` WHERE e.account_id = ? ORDER BY ec.id`, accountID,
	); err != nil {
		return nil, fmt.Errorf("querying email contacts: %w", err)
	}
	files, err := ListFiles(ctx, q, accountID)
	if err != nil {
		return nil, err
	}

	for _, el := range labels {
		if _, skip := excluded[el.EmailKey]; !skip {
			mb.EmailLabels = append(mb.EmailLabels, el)
		}
	}
	for _, ec := range contacts {
		if _, skip := excluded[ec.EmailKey]; !skip {
			mb.EmailContacts = append(mb.EmailContacts, ec)
		}
	}
	for _, f := range files {
		if _, skip := excluded[f.EmailKey]; !skip {
			mb.Files = append(mb.Files, f)
		}
	}

	if mb.Aliases, err = ListAliases(ctx, q, accountID); err != nil {
		return nil, err
	}
	if mb.CustomDomains, err = ListCustomDomains(ctx, q, accountID); err != nil {
		return nil, err
	}
	return mb, nil
}

const emailContactSelect = `SELECT ec.id, ec.email_id, e.email_key, ec.contact_id, c.email AS contact_email, ec.type
	FROM email_contacts ec
	JOIN emails e ON e.id = ec.email_id
	JOIN contacts c ON c.id = ec.contact_id`

// MailboxForEmails builds the snapshot reachable from a set of messages:
// their contacts in first-seen order, their custom labels in first-seen
// order, their label and contact links, their files, and the account's
// aliases and custom domains. Message order is preserved.
func MailboxForEmails(ctx context.Context, q sqlx.ExtContext, accountID int64, emails []*model.Email) (*model.Mailbox, error) {
	mb := &model.Mailbox{Emails: emails}
	if len(emails) > 0 {
		ids := make([]int64, len(emails))
		position := make(map[int64]int, len(emails))
		for i, e := range emails {
			ids[i] = e.ID
			position[e.ID] = i
		}

		var links []*model.EmailContact
		if err := selectIn(ctx, q, &links, emailContactSelect+` WHERE ec.email_id IN (?) ORDER BY ec.id`, ids); err != nil {
			return nil, fmt.Errorf("querying email contacts: %w", err)
		}
		sortByEmail(links, position, func(ec *model.EmailContact) int64 { return ec.EmailID })
		mb.EmailContacts = links

		seenContacts := make(map[string]struct{})
		var contactIDs []int64
		for _, ec := range links {
			if _, ok := seenContacts[ec.ContactEmail]; ok {
				continue
			}
			seenContacts[ec.ContactEmail] = struct{}{}
			contactIDs = append(contactIDs, ec.ContactID)
		}
		var contacts []*model.Contact
		if len(contactIDs) > 0 {
			if err := selectIn(ctx, q, &contacts, `SELECT `+contactColumns+` FROM contacts WHERE id IN (?)`, contactIDs); err != nil {
				return nil, fmt.Errorf("querying contacts: %w", err)
			}
		}
		byID := make(map[int64]*model.Contact, len(contacts))
		for _, c := range contacts {
			byID[c.ID] = c
		}
		for _, id := range contactIDs {
			if c, ok := byID[id]; ok {
				mb.Contacts = append(mb.Contacts, c)
			}
		}

		var labelLinks []model.EmailLabel
		if err := selectIn(ctx, q, &labelLinks,
			`SELECT el.email_id, e.email_key, el.label_id
			 FROM email_labels el JOIN emails e ON e.id = el.email_id
			 WHERE el.email_id IN (?) ORDER BY el.label_id`, ids,
		); err != nil {
			return nil, fmt.Errorf("querying email labels: %w", err)
		}
		ptrs := make([]*model.EmailLabel, len(labelLinks))
		for i := range labelLinks {
			ptrs[i] = &labelLinks[i]
		}
		sortByEmail(ptrs, position, func(el *model.EmailLabel) int64 { return el.EmailID })
		var labelIDs []int64
		seenLabels := make(map[int64]struct{})
		for _, el := range ptrs {
			mb.EmailLabels = append(mb.EmailLabels, *el)
			if _, ok := seenLabels[el.LabelID]; !ok {
				seenLabels[el.LabelID] = struct{}{}
				labelIDs = append(labelIDs, el.LabelID)
			}
		}
		labels, err := GetLabels(ctx, q, labelIDs)
		if err != nil {
			return nil, err
		}
		for _, id := range labelIDs {
			if l, ok := labels[id]; ok && !l.IsSystem() {
				mb.Labels = append(mb.Labels, l)
			}
		}

		files, err := ListFilesForEmails(ctx, q, ids)
		if err != nil {
			return nil, err
		}
		sortByEmail(files, position, func(f *model.File) int64 { return f.EmailID })
		mb.Files = files
	}

	var err error
	if mb.Aliases, err = ListAliases(ctx, q, accountID); err != nil {
		return nil, err
	}
	if mb.CustomDomains, err = ListCustomDomains(ctx, q, accountID); err != nil {
		return nil, err
	}
	return mb, nil
}

// sortByEmail stably orders items by the position of their owning message.
func sortByEmail[T any](items []T, position map[int64]int, emailID func(T) int64) {
	slices.SortStableFunc(items, func(a, b T) int {
		return position[emailID(a)] - position[emailID(b)]
	})
}
