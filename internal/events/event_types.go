package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventFileUploaded EventType = "file_uploaded"
	EventFileDeleted  EventType = "file_deleted"
	EventUserDeleted  EventType = "user_deleted"
)

// Event represents a domain event emitted after a record commit.
// FileID and SizeBytes are zero for user-scoped events.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	FileID    string    `json:"file_id"`
	OwnerID   string    `json:"owner_id"`
	SizeBytes int64     `json:"size_bytes"`
	Timestamp time.Time `json:"timestamp"`
}
