package restore

import "github.com/ALT-F4-LLC/mailvault/internal/model"

// Maps translate the synthetic ids of one link file into destination store
// ids. A Maps value belongs to a single restore of a single file; pass it in
// Options to resume a file whose earlier part was already applied.
type Maps struct {
	Emails   map[int64]int64  // synthetic email id -> store email id
	Contacts map[int64]string // synthetic contact id -> contact address
	Labels   map[int64]int64  // synthetic label id -> store label id
}

// NewMaps returns maps whose label table is seeded with the built-in labels,
// which every store shares under the same ids.
func NewMaps() *Maps {
	m := &Maps{
		Emails:   make(map[int64]int64),
		Contacts: make(map[int64]string),
		Labels:   make(map[int64]int64, len(model.SystemLabels)),
	}
	for _, s := range model.SystemLabels {
		m.Labels[int64(s)] = int64(s)
	}
	return m
}

func (m *Maps) ensure() {
	if m.Emails == nil {
		m.Emails = make(map[int64]int64)
	}
	if m.Contacts == nil {
		m.Contacts = make(map[int64]string)
	}
	if m.Labels == nil {
		m.Labels = make(map[int64]int64)
	}
}

// pending collects the remaps produced by one batch. They are merged into
// the shared maps only after the batch commits, so a rolled back batch
// leaves no trace.
type pending struct {
	base       *Maps
	emails     map[int64]int64
	contacts   map[int64]string
	labels     map[int64]int64
	contactIDs map[string]int64 // address -> store contact id
}

func newPending(base *Maps) *pending {
	return &pending{
		base:       base,
		emails:     make(map[int64]int64),
		contacts:   make(map[int64]string),
		labels:     make(map[int64]int64),
		contactIDs: make(map[string]int64),
	}
}

func (p *pending) email(id int64) (int64, bool) {
	if v, ok := p.emails[id]; ok {
		return v, true
	}
	v, ok := p.base.Emails[id]
	return v, ok
}

func (p *pending) contact(id int64) (string, bool) {
	if v, ok := p.contacts[id]; ok {
		return v, true
	}
	v, ok := p.base.Contacts[id]
	return v, ok
}

func (p *pending) label(id int64) (int64, bool) {
	if v, ok := p.labels[id]; ok {
		return v, true
	}
	v, ok := p.base.Labels[id]
	return v, ok
}

func (p *pending) commit(contactIDs map[string]int64) {
	for k, v := range p.contactIDs {
		contactIDs[k] = v
	}
	for k, v := range p.emails {
		p.base.Emails[k] = v
	}
	for k, v := range p.contacts {
		p.base.Contacts[k] = v
	}
	for k, v := range p.labels {
		p.base.Labels[k] = v
	}
}
