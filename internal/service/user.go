package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/moot/internal/bitfield"
	"github.com/sakif/moot/internal/model"
	"github.com/sakif/moot/internal/repository"
)

// UserService handles user lookups and moderation actions. Account creation
// is not here — users come into existence only through auth.Resolver.Login.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// GetByID returns the user with the given Discord ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching user %d: %w", id, err)
	}
	return user, nil
}

// SetBanned bans or unbans a user. Moderation-only; the caller enforces the
// admin gate. Banning does not revoke the user's sessions — they remain
// authenticated but fail the active gate on content mutations.
func (s *UserService) SetBanned(ctx context.Context, id int64, banned bool) error {
	if err := s.users.SetBanned(ctx, id, banned); err != nil {
		return fmt.Errorf("service/user: setting banned=%t on user %d: %w", banned, id, err)
	}
	s.logger.Info("user ban state changed",
		slog.Int64("userID", id),
		slog.Bool("banned", banned),
	)
	return nil
}

// SetAdmin grants or revokes the admin privilege bit. The read-modify-write
// goes through the bitfield codec so reserved bits survive untouched.
func (s *UserService) SetAdmin(ctx context.Context, id int64, admin bool) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service/user: fetching user %d: %w", id, err)
	}

	flags := bitfield.New(user.Flags)
	flags.Set(model.FlagAdmin, admin)
	if err := s.users.SetFlags(ctx, id, flags.Value()); err != nil {
		return fmt.Errorf("service/user: setting flags on user %d: %w", id, err)
	}

	s.logger.Info("user admin state changed",
		slog.Int64("userID", id),
		slog.Bool("admin", admin),
	)
	return nil
}
