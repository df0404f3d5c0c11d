package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"notes-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

const (
	noteDocType = "note"

	// maxConflictRetries bounds how often a revision-checked write is retried
	// after losing a race with another writer.
	maxConflictRetries = 5
)

// ErrTooManyConflicts is returned once every revision-checked write attempt
// has lost to a concurrent writer.
var ErrTooManyConflicts = errors.New("too many concurrent writers")

// noteDoc stores a note and its versions as one document, so a single
// revision-checked Put covers the snapshot and the new state together.
type noteDoc struct {
	DocID     string           `json:"_id,omitempty"`
	Rev       string           `json:"_rev,omitempty"`
	Type      string           `json:"type"`
	ID        string           `json:"id"`
	OwnerID   string           `json:"owner_id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	CreatedAt int64            `json:"created_at"`
	UpdatedAt *int64           `json:"updated_at,omitempty"`
	ExpiresAt *int64           `json:"expires_at,omitempty"`
	Versions  []noteVersionDoc `json:"versions"`
}

// noteVersionDoc entries are kept oldest first.
type noteVersionDoc struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

func noteDocID(id string) string {
	return fmt.Sprintf("note:%s", id)
}

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UTC().UnixMilli()
	return &ms
}

func timePtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

func newNoteDoc(note *domain.Note) noteDoc {
	return noteDoc{
		Type:      noteDocType,
		ID:        note.ID,
		OwnerID:   note.OwnerID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt.UTC().UnixMilli(),
		UpdatedAt: millisPtr(note.UpdatedAt),
		ExpiresAt: millisPtr(note.ExpiresAt),
		Versions:  []noteVersionDoc{},
	}
}

func (d *noteDoc) toDomain(withVersions bool) *domain.Note {
	note := &domain.Note{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: time.UnixMilli(d.CreatedAt).UTC(),
		UpdatedAt: timePtr(d.UpdatedAt),
		ExpiresAt: timePtr(d.ExpiresAt),
	}
	if withVersions {
		note.Versions = make([]domain.NoteVersion, 0, len(d.Versions))
		for i := len(d.Versions) - 1; i >= 0; i-- {
			v := d.Versions[i]
			note.Versions = append(note.Versions, domain.NoteVersion{
				ID:        v.ID,
				NoteID:    d.ID,
				Title:     v.Title,
				Content:   v.Content,
				CreatedAt: time.UnixMilli(v.CreatedAt).UTC(),
			})
		}
	}
	return note
}

type noteRepository struct {
	db *kivik.DB
}

func NewNoteRepository(client *kivik.Client, dbName string) NoteRepository {
	return &noteRepository{db: client.DB(dbName)}
}

// EnsureIndexes creates the Mango index used to list a user's notes.
func EnsureIndexes(ctx context.Context, client *kivik.Client, dbName string) error {
	db := client.DB(dbName)

	index := map[string]interface{}{
		"fields": []string{"owner_id", "created_at"},
	}
	if err := db.CreateIndex(ctx, "notes-by-owner", "owner-created", index); err != nil {
		return fmt.Errorf("failed to create note index: %w", err)
	}

	return nil
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	_, err := r.db.Put(ctx, noteDocID(note.ID), newNoteDoc(note))
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

func (r *noteRepository) get(ctx context.Context, id string) (*noteDoc, error) {
	var doc noteDoc
	if err := r.db.Get(ctx, noteDocID(id)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find note: %w", err)
	}

	return &doc, nil
}

func (r *noteRepository) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(false), nil
}

func (r *noteRepository) FindWithVersions(ctx context.Context, id string) (*domain.Note, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(true), nil
}

func (r *noteRepository) ListByOwner(ctx context.Context, ownerID string, now time.Time, limit int) ([]*domain.Note, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"type":       noteDocType,
			"owner_id":   ownerID,
			"created_at": map[string]interface{}{"$gt": nil},
			"$or": []interface{}{
				map[string]interface{}{"expires_at": map[string]interface{}{"$exists": false}},
				map[string]interface{}{"expires_at": map[string]interface{}{"$gte": now.UTC().UnixMilli()}},
			},
		},
		"sort": []interface{}{
			map[string]string{"owner_id": "desc"},
			map[string]string{"created_at": "desc"},
		},
		"limit": limit,
	}

	rows := r.db.Find(ctx, query)
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		var doc noteDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, doc.toDomain(false))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	return notes, nil
}

// Update re-reads the document and retries when the revision-checked Put
// loses to a concurrent writer, so every snapshot is taken from the state it
// replaces.
func (r *noteRepository) Update(ctx context.Context, id string, mutate NoteMutation) (*domain.Note, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		doc, err := r.get(ctx, id)
		if err != nil {
			return nil, err
		}

		note := doc.toDomain(false)
		version, err := mutate(note)
		if err != nil {
			return nil, err
		}
		if version == nil {
			return note, nil
		}

		doc.Versions = append(doc.Versions, noteVersionDoc{
			ID:        version.ID,
			Title:     version.Title,
			Content:   version.Content,
			CreatedAt: version.CreatedAt.UTC().UnixMilli(),
		})
		doc.Title = note.Title
		doc.Content = note.Content
		doc.UpdatedAt = millisPtr(note.UpdatedAt)

		_, err = r.db.Put(ctx, noteDocID(id), doc)
		if err == nil {
			return note, nil
		}
		if kivik.HTTPStatus(err) != http.StatusConflict {
			return nil, fmt.Errorf("failed to update note: %w", err)
		}
	}

	return nil, fmt.Errorf("failed to update note: %w", ErrTooManyConflicts)
}

func (r *noteRepository) Delete(ctx context.Context, id string, check NoteCheck) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		doc, err := r.get(ctx, id)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(doc.toDomain(false)); err != nil {
				return err
			}
		}

		_, err = r.db.Delete(ctx, noteDocID(id), doc.Rev)
		if err == nil {
			return nil
		}
		if kivik.HTTPStatus(err) != http.StatusConflict {
			return fmt.Errorf("failed to delete note: %w", err)
		}
	}

	return fmt.Errorf("failed to delete note: %w", ErrTooManyConflicts)
}
