package domain

import "time"

type NoteEventType string

const (
	NoteCreated NoteEventType = "note_created"
	NoteUpdated NoteEventType = "note_updated"
	NoteDeleted NoteEventType = "note_deleted"
)

// NoteEvent describes a committed change to one of a user's notes.
type NoteEvent struct {
	Type       NoteEventType
	OwnerID    string
	NoteID     string
	Title      string
	OccurredAt time.Time
}
