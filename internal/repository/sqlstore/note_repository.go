package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
)

const noteColumns = `id, user_id, title, content, created_at, updated_at, expires_at`

type noteRepository struct {
	store *Store
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*domain.Note, error) {
	var (
		note      domain.Note
		createdAt int64
		updatedAt sql.NullInt64
		expiresAt sql.NullInt64
	)
	if err := row.Scan(&note.ID, &note.OwnerID, &note.Title, &note.Content, &createdAt, &updatedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}
	note.CreatedAt = fromMillis(createdAt)
	note.UpdatedAt = fromNullMillis(updatedAt)
	note.ExpiresAt = fromNullMillis(expiresAt)
	return &note, nil
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	_, err := r.store.sqlDB.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.OwnerID,
		note.Title,
		note.Content,
		toMillis(note.CreatedAt),
		toNullMillis(note.UpdatedAt),
		toNullMillis(note.ExpiresAt),
	)
	if err != nil {
		if r.store.dialect.isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *noteRepository) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	row := r.store.sqlDB.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	return scanNote(row)
}

func (r *noteRepository) FindWithVersions(ctx context.Context, id string) (*domain.Note, error) {
	note, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.store.sqlDB.QueryContext(ctx,
		`SELECT id, note_id, title, content, created_at FROM note_versions
		 WHERE note_id = ? ORDER BY position DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query note versions: %w", err)
	}
	defer rows.Close()

	note.Versions = []domain.NoteVersion{}
	for rows.Next() {
		var (
			version   domain.NoteVersion
			createdAt int64
		)
		if err := rows.Scan(&version.ID, &version.NoteID, &version.Title, &version.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan note version: %w", err)
		}
		version.CreatedAt = fromMillis(createdAt)
		note.Versions = append(note.Versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate note versions: %w", err)
	}

	return note, nil
}

func (r *noteRepository) ListByOwner(ctx context.Context, ownerID string, now time.Time, limit int) ([]*domain.Note, error) {
	rows, err := r.store.sqlDB.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE user_id = ? AND (expires_at IS NULL OR expires_at >= ?)
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		ownerID, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, nil
}

func (r *noteRepository) Update(ctx context.Context, id string, mutate repository.NoteMutation) (*domain.Note, error) {
	var updated *domain.Note

	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		note, err := r.lockNote(ctx, tx, id)
		if err != nil {
			return err
		}

		version, err := mutate(note)
		if err != nil {
			return err
		}
		updated = note
		if version == nil {
			return nil
		}

		var position int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position), 0) + 1 FROM note_versions WHERE note_id = ?`, id,
		).Scan(&position); err != nil {
			return fmt.Errorf("failed to allocate version position: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO note_versions (id, note_id, position, title, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			version.ID, id, position, version.Title, version.Content, toMillis(version.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to save note version: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
			note.Title, note.Content, toNullMillis(note.UpdatedAt), id,
		); err != nil {
			return fmt.Errorf("failed to update note: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *noteRepository) Delete(ctx context.Context, id string, check repository.NoteCheck) error {
	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		note, err := r.lockNote(ctx, tx, id)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(note); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM note_versions WHERE note_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete note versions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		return nil
	})
}

func (r *noteRepository) lockNote(ctx context.Context, tx *sql.Tx, id string) (*domain.Note, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`+r.store.dialect.lockSuffix, id)
	return scanNote(row)
}
