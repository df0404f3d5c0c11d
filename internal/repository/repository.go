package repository

import (
	"context"
	"errors"
	"time"

	"notes-server/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

// NoteMutation runs against the locked current state of a note inside the
// store transaction. It edits note in place and returns the snapshot to
// persist alongside it. Returning a nil version leaves the note untouched;
// returning an error aborts the transaction with that error.
type NoteMutation func(note *domain.Note) (*domain.NoteVersion, error)

// NoteCheck runs against the locked current state of a note before it is
// removed. A non-nil error aborts the delete.
type NoteCheck func(note *domain.Note) error

type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	// FindByID returns the note without its versions.
	FindByID(ctx context.Context, id string) (*domain.Note, error)
	// FindWithVersions returns the note with Versions ordered newest first.
	FindWithVersions(ctx context.Context, id string) (*domain.Note, error)
	// ListByOwner returns notes of ownerID not expired at now, newest
	// CreatedAt first, at most limit entries.
	ListByOwner(ctx context.Context, ownerID string, now time.Time, limit int) ([]*domain.Note, error)
	Update(ctx context.Context, id string, mutate NoteMutation) (*domain.Note, error)
	// Delete removes the note and all of its versions.
	Delete(ctx context.Context, id string, check NoteCheck) error
}
