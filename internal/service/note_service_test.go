package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"notes-server/internal/domain"
)

var (
	owner    = &domain.User{ID: "user1", Username: "user1"}
	stranger = &domain.User{ID: "user2", Username: "user2"}
)

func strPtr(s string) *string { return &s }

func newTestNoteService() (*NoteService, *mockNoteRepo, *fakeClock, *recordingNotifier) {
	repo := newMockNoteRepo()
	clock := newFakeClock()
	notifier := &recordingNotifier{}
	service := NewNoteService(repo, WithClock(clock.Now), WithNotifier(notifier))
	return service, repo, clock, notifier
}

func TestNoteService_Create(t *testing.T) {
	service, _, clock, _ := newTestNoteService()

	note, err := service.Create(context.Background(), owner, &domain.CreateNoteRequest{
		Title:   strPtr("title1"),
		Content: strPtr("content1"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if note.ID == "" {
		t.Error("expected note ID to be generated")
	}
	if note.OwnerID != owner.ID {
		t.Errorf("expected owner %s, got %s", owner.ID, note.OwnerID)
	}
	if !note.CreatedAt.Equal(clock.Now()) {
		t.Errorf("expected createdAt %v, got %v", clock.Now(), note.CreatedAt)
	}
	if note.UpdatedAt != nil {
		t.Errorf("expected no updatedAt, got %v", *note.UpdatedAt)
	}

	withVersions, err := service.GetWithVersions(context.Background(), owner, note.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(withVersions.Versions) != 0 {
		t.Errorf("expected no versions, got %d", len(withVersions.Versions))
	}
}

func TestNoteService_RequiresUser(t *testing.T) {
	service, _, _, _ := newTestNoteService()
	ctx := context.Background()

	if _, err := service.Create(ctx, nil, &domain.CreateNoteRequest{}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Create: expected ErrUnauthorized, got %v", err)
	}
	if _, err := service.Get(ctx, nil, "id"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Get: expected ErrUnauthorized, got %v", err)
	}
	if _, err := service.Update(ctx, nil, "id", &domain.UpdateNoteRequest{}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Update: expected ErrUnauthorized, got %v", err)
	}
	if err := service.Delete(ctx, nil, "id"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Delete: expected ErrUnauthorized, got %v", err)
	}
	if _, err := service.ListByOwner(ctx, nil); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ListByOwner: expected ErrUnauthorized, got %v", err)
	}
}

func TestNoteService_CreateRequiresTitleAndContent(t *testing.T) {
	service, repo, _, _ := newTestNoteService()

	tests := []struct {
		name string
		req  *domain.CreateNoteRequest
		want []string
	}{
		{"both missing", &domain.CreateNoteRequest{}, []string{"title is required.", "content is required."}},
		{"content missing", &domain.CreateNoteRequest{Title: strPtr("x")}, []string{"content is required."}},
		{"title missing", &domain.CreateNoteRequest{Content: strPtr("x")}, []string{"title is required."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), owner, tt.req)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(validationErr.Violations) != len(tt.want) {
				t.Fatalf("expected violations %v, got %v", tt.want, validationErr.Violations)
			}
			for i, want := range tt.want {
				if validationErr.Violations[i] != want {
					t.Errorf("expected violation %q, got %q", want, validationErr.Violations[i])
				}
			}
		})
	}

	if len(repo.notes) != 0 {
		t.Errorf("expected nothing stored, got %d notes", len(repo.notes))
	}

	note, err := service.Create(context.Background(), owner, &domain.CreateNoteRequest{Title: strPtr(""), Content: strPtr("")})
	if err != nil {
		t.Fatalf("expected empty strings to be accepted, got %v", err)
	}
	if note.Title != "" || note.Content != "" {
		t.Errorf("expected empty title and content, got %q / %q", note.Title, note.Content)
	}
}

func TestNoteService_NonExpiringNoteStaysReadable(t *testing.T) {
	service, _, clock, _ := newTestNoteService()

	note, _ := service.Create(context.Background(), owner, &domain.CreateNoteRequest{Title: strPtr("keep"), Content: strPtr("")})

	for _, elapsed := range []time.Duration{time.Minute, 24 * time.Hour, 10 * 365 * 24 * time.Hour} {
		clock.Advance(elapsed)
		if _, err := service.Get(context.Background(), owner, note.ID); err != nil {
			t.Fatalf("after %v: expected note to be readable, got %v", elapsed, err)
		}
	}
}

func TestNoteService_ExpiredNoteBehavesAsMissing(t *testing.T) {
	service, repo, clock, _ := newTestNoteService()
	ctx := context.Background()

	expiresAt := clock.Now().Add(time.Minute)
	note, err := service.Create(ctx, owner, &domain.CreateNoteRequest{Title: strPtr("temp"), Content: strPtr(""), ExpiresAt: &expiresAt})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	clock.Advance(time.Minute)
	if _, err := service.Get(ctx, owner, note.ID); err != nil {
		t.Fatalf("note expiring exactly now must still be readable, got %v", err)
	}

	clock.Advance(time.Millisecond)

	for _, user := range []*domain.User{owner, stranger} {
		if _, err := service.Get(ctx, user, note.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%s): expected ErrNotFound, got %v", user.ID, err)
		}
		if _, err := service.GetWithVersions(ctx, user, note.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetWithVersions(%s): expected ErrNotFound, got %v", user.ID, err)
		}
		if _, err := service.Update(ctx, user, note.ID, &domain.UpdateNoteRequest{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Update(%s): expected ErrNotFound, got %v", user.ID, err)
		}
		if err := service.Delete(ctx, user, note.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete(%s): expected ErrNotFound, got %v", user.ID, err)
		}
	}

	list, err := service.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected expired note to be unlisted, got %d notes", len(list))
	}

	if _, ok := repo.notes[note.ID]; !ok {
		t.Error("expiry must not physically delete the note")
	}
	if len(repo.versions[note.ID]) != 0 {
		t.Error("rejected update must not write a version")
	}
}

func TestNoteService_UpdateTitleOnly(t *testing.T) {
	service, _, clock, _ := newTestNoteService()
	ctx := context.Background()

	note, _ := service.Create(ctx, owner, &domain.CreateNoteRequest{Title: strPtr("title1"), Content: strPtr("content1")})
	createdAt := note.CreatedAt

	clock.Advance(time.Minute)
	updated, err := service.Update(ctx, owner, note.ID, &domain.UpdateNoteRequest{Title: strPtr("title2")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if updated.Title != "title2" {
		t.Errorf("expected title title2, got %s", updated.Title)
	}
	if updated.Content != "content1" {
		t.Errorf("expected content to be unchanged, got %s", updated.Content)
	}
	if !updated.CreatedAt.Equal(createdAt) {
		t.Errorf("expected createdAt to be unchanged")
	}
	if updated.UpdatedAt == nil || !updated.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("expected updatedAt %v, got %v", clock.Now(), updated.UpdatedAt)
	}

	withVersions, _ := service.GetWithVersions(ctx, owner, note.ID)
	if len(withVersions.Versions) != 1 {
		t.Fatalf("expected 1 version, got %d", len(withVersions.Versions))
	}
	v := withVersions.Versions[0]
	if v.Title != "title1" || v.Content != "content1" {
		t.Errorf("expected snapshot of pre-update state, got %q/%q", v.Title, v.Content)
	}
	if !v.CreatedAt.Equal(createdAt) {
		t.Errorf("expected first snapshot to carry createdAt %v, got %v", createdAt, v.CreatedAt)
	}
}

func TestNoteService_AlternatingUpdatesVersionHistory(t *testing.T) {
	service, _, clock, _ := newTestNoteService()
	ctx := context.Background()

	note, _ := service.Create(ctx, owner, &domain.CreateNoteRequest{Title: strPtr("t0"), Content: strPtr("c0")})

	edits := []*domain.UpdateNoteRequest{
		{Title: strPtr("t1")},
		{Content: strPtr("c1")},
		{Title: strPtr("t2")},
	}
	var editTimes []time.Time
	for _, edit := range edits {
		clock.Advance(time.Minute)
		editTimes = append(editTimes, clock.Now())
		if _, err := service.Update(ctx, owner, note.ID, edit); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	got, err := service.GetWithVersions(ctx, owner, note.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Title != "t2" || got.Content != "c1" {
		t.Errorf("expected current t2/c1, got %s/%s", got.Title, got.Content)
	}

	want := []struct {
		title, content string
		at             time.Time
	}{
		{"t1", "c1", editTimes[1]},
		{"t1", "c0", editTimes[0]},
		{"t0", "c0", note.CreatedAt},
	}
	if len(got.Versions) != len(want) {
		t.Fatalf("expected %d versions, got %d", len(want), len(got.Versions))
	}
	for i, w := range want {
		v := got.Versions[i]
		if v.Title != w.title || v.Content != w.content {
			t.Errorf("version %d: expected %s/%s, got %s/%s", i, w.title, w.content, v.Title, v.Content)
		}
		if !v.CreatedAt.Equal(w.at) {
			t.Errorf("version %d: expected createdAt %v, got %v", i, w.at, v.CreatedAt)
		}
	}
}

func TestNoteService_UpdateNoOp(t *testing.T) {
	service, _, clock, notifier := newTestNoteService()
	ctx := context.Background()

	note, _ := service.Create(ctx, owner, &domain.CreateNoteRequest{Title: strPtr("title1"), Content: strPtr("content1")})
	clock.Advance(time.Minute)

	tests := []struct {
		name string
		req  *domain.UpdateNoteRequest
	}{
		{name: "no fields", req: &domain.UpdateNoteRequest{}},
		{name: "same title", req: &domain.UpdateNoteRequest{Title: strPtr("title1")}},
		{name: "same title and content", req: &domain.UpdateNoteRequest{Title: strPtr("title1"), Content: strPtr("content1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.Update(ctx, owner, note.ID, tt.req)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got.UpdatedAt != nil {
				t.Errorf("expected note to be unchanged, got updatedAt %v", *got.UpdatedAt)
			}
		})
	}

	withVersions, _ := service.GetWithVersions(ctx, owner, note.ID)
	if len(withVersions.Versions) != 0 {
		t.Errorf("expected no versions, got %d", len(withVersions.Versions))
	}
	if types := notifier.types(); len(types) != 1 || types[0] != domain.NoteCreated {
		t.Errorf("expected only the create event, got %v", types)
	}
}

func TestNoteService_Ownership(t *testing.T) {
	service, _, _, _ := newTestNoteService()
	ctx := context.Background()

	note, _ := service.Create(ctx, owner, &domain.CreateNoteRequest{Title: strPtr("mine"), Content: strPtr("")})

	if _, err := service.Get(ctx, stranger, note.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Get: expected ErrForbidden, got %v", err)
	}
	if _, err := service.GetWithVersions(ctx, stranger, note.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("GetWithVersions: expected ErrForbidden, got %v", err)
	}
	if _, err := service.Update(ctx, stranger, note.ID, &domain.UpdateNoteRequest{Title: strPtr("theirs")}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Update: expected ErrForbidden, got %v", err)
	}
	if err := service.Delete(ctx, stranger, note.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete: expected ErrForbidden, got %v", err)
	}

	got, err := service.Get(ctx, owner, note.ID)
	if err != nil {
		t.Fatalf("expected owner to still read the note, got %v", err)
	}
	if got.Title != "mine" {
		t.Errorf("expected forbidden update to leave title, got %s", got.Title)
	}

	if _, err := service.Get(ctx, stranger, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: expected ErrNotFound, got %v", err)
	}
	if _, err := service.Update(ctx, stranger, "missing", &domain.UpdateNoteRequest{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing: expected ErrNotFound, got %v", err)
	}
	if err := service.Delete(ctx, stranger, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete missing: expected ErrNotFound, got %v", err)
	}
}

func TestNoteService_Delete(t *testing.T) {
	service, repo, _, notifier := newTestNoteService()
	ctx := context.Background()

	note, _ := service.Create(ctx, owner, &domain.CreateNoteRequest{Title: strPtr("del"), Content: strPtr("")})
	service.Update(ctx, owner, note.ID, &domain.UpdateNoteRequest{Content: strPtr("edited")})

	if err := service.Delete(ctx, owner, note.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := service.Get(ctx, owner, note.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if len(repo.versions[note.ID]) != 0 {
		t.Error("expected versions to be deleted with the note")
	}

	want := []domain.NoteEventType{domain.NoteCreated, domain.NoteUpdated, domain.NoteDeleted}
	got := notifier.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestNoteService_ListByOwner(t *testing.T) {
	service, _, clock, _ := newTestNoteService()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		service.Create(ctx, owner, &domain.CreateNoteRequest{Title: strPtr("n"), Content: strPtr("")})
	}
	service.Create(ctx, stranger, &domain.CreateNoteRequest{Title: strPtr("other"), Content: strPtr("")})

	list, err := service.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(list) != 10 {
		t.Fatalf("expected 10 notes, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].CreatedAt.Before(list[i].CreatedAt) {
			t.Fatalf("expected newest first, got %v before %v", list[i-1].CreatedAt, list[i].CreatedAt)
		}
	}
}

func TestNoteService_CreateTruncatesToStoragePrecision(t *testing.T) {
	repo := newMockNoteRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 123_456_789, time.UTC)
	service := NewNoteService(repo, WithClock(func() time.Time { return now }))

	expiresAt := now.Add(time.Hour)
	note, err := service.Create(context.Background(), owner, &domain.CreateNoteRequest{Title: strPtr(""), Content: strPtr(""), ExpiresAt: &expiresAt})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if note.CreatedAt.Nanosecond() != 123_000_000 {
		t.Errorf("expected millisecond createdAt, got %v", note.CreatedAt)
	}
	if note.ExpiresAt.Nanosecond() != 123_000_000 {
		t.Errorf("expected millisecond expiresAt, got %v", note.ExpiresAt)
	}
}
