package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"notes-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

const userDocType = "user"

// userDoc is keyed by username so CouchDB's document-level conflict detection
// enforces username uniqueness.
type userDoc struct {
	DocID        string `json:"_id,omitempty"`
	Rev          string `json:"_rev,omitempty"`
	Type         string `json:"type"`
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Name         string `json:"name"`
	CreatedAt    int64  `json:"created_at"`
}

func userDocID(username string) string {
	return fmt.Sprintf("user:%s", username)
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		CreatedAt:    time.UnixMilli(d.CreatedAt).UTC(),
	}
}

type userRepository struct {
	db *kivik.DB
}

func NewUserRepository(client *kivik.Client, dbName string) UserRepository {
	return &userRepository{db: client.DB(dbName)}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	doc := userDoc{
		Type:         userDocType,
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		CreatedAt:    user.CreatedAt.UTC().UnixMilli(),
	}
	_, err := r.db.Put(ctx, userDocID(user.Username), doc)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"type": userDocType,
			"id":   id,
		},
		"limit": 1,
	}

	rows := r.db.Find(ctx, query)
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query user by id: %w", err)
		}
		return nil, ErrNotFound
	}

	var doc userDoc
	if err := rows.ScanDoc(&doc); err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return doc.toDomain(), nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var doc userDoc
	if err := r.db.Get(ctx, userDocID(username)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	return doc.toDomain(), nil
}
