package model

// Mailbox is a full snapshot of an account's mail data, in the order the
// export pipeline emits it.
type Mailbox struct {
	Contacts      []*Contact
	Labels        []*Label
	Emails        []*Email
	EmailLabels   []EmailLabel
	EmailContacts []*EmailContact
	Files         []*File
	Aliases       []*Alias
	CustomDomains []*CustomDomain
}

// Total returns the number of rows the snapshot will produce, excluding the
// header.
func (m *Mailbox) Total() int {
	return len(m.Contacts) + len(m.Labels) + len(m.Emails) + len(m.EmailLabels) +
		len(m.EmailContacts) + len(m.Files) + len(m.Aliases) + len(m.CustomDomains)
}

// FilesByEmail groups attachment metadata by the owning email's store id.
func (m *Mailbox) FilesByEmail() map[int64][]*File {
	out := make(map[int64][]*File)
	for _, f := range m.Files {
		out[f.EmailID] = append(out[f.EmailID], f)
	}
	return out
}
