package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
	// createErr, when set, is returned by Create instead of storing the user.
	createErr error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user, ok := m.users[id]; ok {
		u := *user
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type mockNoteRepo struct {
	mu    sync.Mutex
	notes map[string]*domain.Note
	// versions holds snapshots oldest first.
	versions map[string][]domain.NoteVersion
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{
		notes:    make(map[string]*domain.Note),
		versions: make(map[string][]domain.NoteVersion),
	}
}

func copyNote(n *domain.Note) *domain.Note {
	c := *n
	c.Versions = nil
	return &c
}

func (m *mockNoteRepo) Create(ctx context.Context, note *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.notes[note.ID]; exists {
		return repository.ErrDuplicate
	}
	m.notes[note.ID] = copyNote(note)
	return nil
}

func (m *mockNoteRepo) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, exists := m.notes[id]; exists {
		return copyNote(n), nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockNoteRepo) FindWithVersions(ctx context.Context, id string) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, exists := m.notes[id]
	if !exists {
		return nil, repository.ErrNotFound
	}

	note := copyNote(n)
	stored := m.versions[id]
	note.Versions = make([]domain.NoteVersion, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		note.Versions = append(note.Versions, stored[i])
	}
	return note, nil
}

func (m *mockNoteRepo) ListByOwner(ctx context.Context, ownerID string, now time.Time, limit int) ([]*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var notes []*domain.Note
	for _, n := range m.notes {
		if n.OwnerID == ownerID && !n.IsExpired(now) {
			notes = append(notes, copyNote(n))
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	if len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

func (m *mockNoteRepo) Update(ctx context.Context, id string, mutate repository.NoteMutation) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, exists := m.notes[id]
	if !exists {
		return nil, repository.ErrNotFound
	}

	note := copyNote(n)
	version, err := mutate(note)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return copyNote(n), nil
	}

	m.versions[id] = append(m.versions[id], *version)
	m.notes[id] = copyNote(note)
	return note, nil
}

func (m *mockNoteRepo) Delete(ctx context.Context, id string, check repository.NoteCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, exists := m.notes[id]
	if !exists {
		return repository.ErrNotFound
	}
	if check != nil {
		if err := check(copyNote(n)); err != nil {
			return err
		}
	}

	delete(m.notes, id)
	delete(m.versions, id)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.NoteEvent
}

func (r *recordingNotifier) PublishNoteEvent(event domain.NoteEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) types() []domain.NoteEventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]domain.NoteEventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}
