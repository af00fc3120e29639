// Package repository declares the storage interfaces consumed by the service
// and auth layers. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/moot/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository stores user accounts keyed by their externally-issued
// Discord ID. Implementations return apperror.ErrNotFound (wrapped) for
// missing rows.
type UserRepository interface {
	// Create inserts a new user. ID, Username, and AvatarHash must be set by
	// the caller; CreatedAt/UpdatedAt are filled in by the repository.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// UpdateProfile refreshes the mutable profile fields (username, avatar,
	// bio) of an existing user.
	UpdateProfile(ctx context.Context, user *model.User) error
	SetBanned(ctx context.Context, id int64, banned bool) error
	SetFlags(ctx context.Context, id int64, flags uint64) error
}

// SessionRepository stores bearer sessions keyed by token.
//
// GetByToken returns the row whether or not it has expired — expiry is an
// auth-layer decision, not a storage one. Delete is idempotent: deleting an
// absent token is not an error, which makes the lazy-expiry double-delete
// race benign.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
}

// PostRepository stores posts. Listings exclude hidden posts.
type PostRepository interface {
	// Create inserts a post. The caller supplies the ID (minted by the ids
	// package); CreatedAt is filled in by the repository.
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id uint64) (*model.Post, error)
	// ListRecent returns visible posts, newest first.
	ListRecent(ctx context.Context, opts ListOptions) ([]model.Post, error)
	// ListByAuthor returns an author's visible posts, newest first.
	ListByAuthor(ctx context.Context, authorID int64, opts ListOptions) ([]model.Post, error)
	SetHidden(ctx context.Context, id uint64, hidden bool) error
}
