package documents

import "time"

// Subdocument is a PDF document record owned by a user, either uploaded
// as-is or derived from another subdocument by page extraction. Records
// are immutable once created; extraction always creates a sibling.
type Subdocument struct {
	PublicID     string
	UserID       string
	OriginalName string
	StorageKey   string
	SizeBytes    int64
	PageCount    int
	CreatedAt    time.Time
}
