package domain

import "time"

// NoteVersion is an immutable snapshot of a note's title and content taken
// just before an edit replaced them. CreatedAt is the moment that content
// was last current, not the moment of the edit.
type NoteVersion struct {
	ID        string
	NoteID    string
	Title     string
	Content   string
	CreatedAt time.Time
}
