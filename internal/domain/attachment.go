package domain

import "time"

// Attachment stores metadata for a file kept in the blob store.
type Attachment struct {
	ID         string
	TicketID   string
	CommentID  *string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	UploadedBy string
	CreatedAt  time.Time
	URL        string
}
