package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.store.sqlDB.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Name,
		toMillis(user.CreatedAt),
	)
	if err != nil {
		if r.store.dialect.isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.store.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, name, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.store.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, name, created_at FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user      domain.User
		createdAt int64
	)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}
