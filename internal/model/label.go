package model

// LabelType distinguishes built-in labels from user-created ones.
type LabelType string

const (
	LabelTypeSystem LabelType = "system"
	LabelTypeCustom LabelType = "custom"
)

// SystemLabel identifies a built-in label. The value is also the label's
// constant primary key in every store.
type SystemLabel int64

const (
	SystemLabelInbox   SystemLabel = 1
	SystemLabelSpam    SystemLabel = 2
	SystemLabelSent    SystemLabel = 3
	SystemLabelStarred SystemLabel = 5
	SystemLabelDraft   SystemLabel = 6
	SystemLabelTrash   SystemLabel = 7
)

// SystemLabels lists every built-in label in id order.
var SystemLabels = []SystemLabel{
	SystemLabelInbox,
	SystemLabelSpam,
	SystemLabelSent,
	SystemLabelStarred,
	SystemLabelDraft,
	SystemLabelTrash,
}

// Name returns the display text of the system label.
func (s SystemLabel) Name() string {
	switch s {
	case SystemLabelInbox:
		return "Inbox"
	case SystemLabelSpam:
		return "Spam"
	case SystemLabelSent:
		return "Sent"
	case SystemLabelStarred:
		return "Starred"
	case SystemLabelDraft:
		return "Draft"
	case SystemLabelTrash:
		return "Trash"
	default:
		return ""
	}
}

// IsSystemLabel reports whether id is the primary key of a built-in label.
func IsSystemLabel(id int64) bool {
	for _, s := range SystemLabels {
		if int64(s) == id {
			return true
		}
	}
	return false
}

// Label is a tag that can be attached to messages. System labels have no
// owning account.
type Label struct {
	ID        int64     `json:"id" db:"id"`
	AccountID *int64    `json:"account_id,omitempty" db:"account_id"`
	Text      string    `json:"text" db:"text"`
	Type      LabelType `json:"type" db:"type"`
	Color     string    `json:"color" db:"color"`
	UUID      string    `json:"uuid" db:"uuid"`
	Visible   bool      `json:"visible" db:"visible"`
}

// IsSystem reports whether the label is one of the built-in labels.
func (l *Label) IsSystem() bool {
	return l.Type == LabelTypeSystem
}
