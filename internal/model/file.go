package model

import (
	"strings"
	"time"
)

// FileStatus is the upload state of an attachment.
type FileStatus int

const (
	FileStatusPending  FileStatus = 0
	FileStatusUploaded FileStatus = 1
	FileStatusFailed   FileStatus = 2
)

// File is attachment metadata. The attachment bytes live remotely and are
// addressed by Token; FileKey holds the per-file cipher material as "key:iv".
type File struct {
	ID       int64      `json:"id" db:"id"`
	EmailID  int64      `json:"email_id" db:"email_id"`
	EmailKey int64      `json:"email_key" db:"email_key"`
	Name     string     `json:"name" db:"name"`
	Size     int64      `json:"size" db:"size"`
	Date     time.Time  `json:"date" db:"date"`
	MimeType string     `json:"mime_type" db:"mime_type"`
	Status   FileStatus `json:"status" db:"status"`
	Token    string     `json:"token" db:"token"`
	FileKey  string     `json:"file_key" db:"file_key"`
}

// SplitFileKey returns the key and iv halves of a "key:iv" file key. A key
// without a separator has an empty iv.
func SplitFileKey(fileKey string) (key, iv string) {
	key, iv, _ = strings.Cut(fileKey, ":")
	return key, iv
}

// JoinFileKey is the inverse of SplitFileKey. A key without an iv is
// returned unchanged.
func JoinFileKey(key, iv string) string {
	if iv == "" {
		return key
	}
	return key + ":" + iv
}
