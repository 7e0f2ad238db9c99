package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// store is the persistence surface the service needs; *Repository satisfies it.
type store interface {
	Create(ctx context.Context, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service contains business logic for user management.
type Service struct {
	repo      store
	directory Directory
}

// NewService creates a new user Service. directory serves handle lookups and
// is invalidated whenever an account is created.
func NewService(repo store, directory Directory) *Service {
	return &Service{repo: repo, directory: directory}
}

// Create registers a new user account.
func (s *Service) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	u, err := s.repo.Create(ctx, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if inv, ok := s.directory.(invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("identity cache not invalidated")
		}
	}
	return u, nil
}

// GetByID returns a user by their UUID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns a user by their email address.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Handles returns the id -> email map of every known user.
func (s *Service) Handles(ctx context.Context) (map[uuid.UUID]string, error) {
	return s.directory.Handles(ctx)
}

// IsNotFound returns true when the error indicates a user was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists returns true when the error indicates a duplicate email.
func (s *Service) IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
