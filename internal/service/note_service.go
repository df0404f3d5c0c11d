package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notes-server/internal/domain"
	"notes-server/internal/repository"

	"github.com/google/uuid"
)

// MaxListedNotes caps how many notes ListByOwner returns.
const MaxListedNotes = 1000

// NoteNotifier receives an event after each committed note change.
type NoteNotifier interface {
	PublishNoteEvent(event domain.NoteEvent)
}

type NoteService struct {
	repo     repository.NoteRepository
	notifier NoteNotifier
	now      func() time.Time
}

type NoteOption func(*NoteService)

func WithClock(now func() time.Time) NoteOption {
	return func(s *NoteService) {
		s.now = now
	}
}

func WithNotifier(notifier NoteNotifier) NoteOption {
	return func(s *NoteService) {
		s.notifier = notifier
	}
}

func NewNoteService(repo repository.NoteRepository, opts ...NoteOption) *NoteService {
	s := &NoteService{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock returns the current instant at storage precision.
func (s *NoteService) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *NoteService) Create(ctx context.Context, user *domain.User, req *domain.CreateNoteRequest) (*domain.Note, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}

	var violations []string
	if req.Title == nil {
		violations = append(violations, "title is required.")
	}
	if req.Content == nil {
		violations = append(violations, "content is required.")
	}
	if len(violations) > 0 {
		return nil, newValidationError(violations...)
	}

	note := &domain.Note{
		ID:        uuid.New().String(),
		OwnerID:   user.ID,
		Title:     *req.Title,
		Content:   *req.Content,
		CreatedAt: s.clock(),
	}
	if req.ExpiresAt != nil {
		expiresAt := req.ExpiresAt.UTC().Truncate(time.Millisecond)
		note.ExpiresAt = &expiresAt
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.publish(domain.NoteCreated, note)
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, user *domain.User, noteID string) (*domain.Note, error) {
	return s.load(ctx, user, noteID, s.repo.FindByID)
}

// GetWithVersions returns the note with its snapshots, newest first.
func (s *NoteService) GetWithVersions(ctx context.Context, user *domain.User, noteID string) (*domain.Note, error) {
	return s.load(ctx, user, noteID, s.repo.FindWithVersions)
}

// Update applies the provided fields. A request that provides neither field,
// or only values equal to the current ones, returns the note unchanged.
// Otherwise the prior title and content are kept as one snapshot.
func (s *NoteService) Update(ctx context.Context, user *domain.User, noteID string, req *domain.UpdateNoteRequest) (*domain.Note, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}

	var changed bool
	note, err := s.repo.Update(ctx, noteID, func(note *domain.Note) (*domain.NoteVersion, error) {
		changed = false
		now := s.clock()
		if err := checkAccess(user, note, now); err != nil {
			return nil, err
		}

		titleChanged := req.Title != nil && *req.Title != note.Title
		contentChanged := req.Content != nil && *req.Content != note.Content
		if !titleChanged && !contentChanged {
			return nil, nil
		}

		version := &domain.NoteVersion{
			ID:        uuid.New().String(),
			NoteID:    note.ID,
			Title:     note.Title,
			Content:   note.Content,
			CreatedAt: note.LastModified(),
		}

		if titleChanged {
			note.Title = *req.Title
		}
		if contentChanged {
			note.Content = *req.Content
		}
		note.UpdatedAt = &now
		changed = true

		return version, nil
	})
	if err != nil {
		return nil, translateRepoError("update note", err)
	}

	if changed {
		s.publish(domain.NoteUpdated, note)
	}
	return note, nil
}

// Delete removes the note together with all of its versions.
func (s *NoteService) Delete(ctx context.Context, user *domain.User, noteID string) error {
	if user == nil {
		return ErrUnauthorized
	}

	var deleted *domain.Note
	err := s.repo.Delete(ctx, noteID, func(note *domain.Note) error {
		if err := checkAccess(user, note, s.clock()); err != nil {
			return err
		}
		deleted = note
		return nil
	})
	if err != nil {
		return translateRepoError("delete note", err)
	}

	s.publish(domain.NoteDeleted, deleted)
	return nil
}

// ListByOwner returns the caller's live notes, newest first.
func (s *NoteService) ListByOwner(ctx context.Context, user *domain.User) ([]*domain.Note, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}

	now := s.clock()
	notes, err := s.repo.ListByOwner(ctx, user.ID, now, MaxListedNotes)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	live := make([]*domain.Note, 0, len(notes))
	for _, n := range notes {
		if n.OwnerID == user.ID && !n.IsExpired(now) {
			live = append(live, n)
		}
	}

	return live, nil
}

func (s *NoteService) load(
	ctx context.Context,
	user *domain.User,
	noteID string,
	find func(context.Context, string) (*domain.Note, error),
) (*domain.Note, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}

	note, err := find(ctx, noteID)
	if err != nil {
		return nil, translateRepoError("find note", err)
	}

	if err := checkAccess(user, note, s.clock()); err != nil {
		return nil, err
	}

	return note, nil
}

func (s *NoteService) publish(eventType domain.NoteEventType, note *domain.Note) {
	if s.notifier == nil || note == nil {
		return
	}
	s.notifier.PublishNoteEvent(domain.NoteEvent{
		Type:       eventType,
		OwnerID:    note.OwnerID,
		NoteID:     note.ID,
		Title:      note.Title,
		OccurredAt: s.clock(),
	})
}

// checkAccess runs the expiry check before the ownership check, so a
// non-owner cannot tell an expired note from a missing one.
func checkAccess(user *domain.User, note *domain.Note, now time.Time) error {
	if note.IsExpired(now) {
		return ErrNotFound
	}
	if note.OwnerID != user.ID {
		return ErrForbidden
	}
	return nil
}

func translateRepoError(action string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		return err
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
