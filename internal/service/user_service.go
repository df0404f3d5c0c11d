package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
	"notes-server/pkg/hash"
	"notes-server/pkg/password"

	"github.com/google/uuid"
)

type UserService struct {
	userRepo repository.UserRepository
	hashCost int
	now      func() time.Time
}

type UserOption func(*UserService)

// WithHashCost overrides the bcrypt cost, letting tests trade strength for speed.
func WithHashCost(cost int) UserOption {
	return func(s *UserService) {
		s.hashCost = cost
	}
}

func WithUserClock(now func() time.Time) UserOption {
	return func(s *UserService) {
		s.now = now
	}
}

func NewUserService(userRepo repository.UserRepository, opts ...UserOption) *UserService {
	s := &UserService{
		userRepo: userRepo,
		hashCost: hash.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the password policy, hashes the password and stores a
// new user. A taken username yields ErrConflict.
func (s *UserService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	username := req.Username
	if strings.TrimSpace(username) == "" {
		return nil, newValidationError("Username is required.")
	}
	// Basic credentials are matched byte for byte, so padding would make the
	// account unreachable.
	if username != strings.TrimSpace(username) {
		return nil, newValidationError("Username must not begin or end with whitespace.")
	}

	if violations := password.Validate(req.Password); len(violations) > 0 {
		return nil, newValidationError(violations...)
	}

	_, err := s.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrConflict
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}

	hashedPassword, err := hash.HashWithCost(req.Password, s.hashCost)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, newValidationError(err.Error())
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hashedPassword,
		Name:         req.Name,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByID re-reads a stored profile.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
