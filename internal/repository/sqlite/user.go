package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/moot/internal/apperror"
	"github.com/sakif/moot/internal/model"
	"github.com/sakif/moot/internal/repository"
)

// UserDB implements repository.UserRepository over the shared connection
// pool. Obtain one with DB.Users().
type UserDB struct {
	conn *sql.DB
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// Create inserts a new user. The ID comes from Discord, so unlike posts
// there is no local generation step. Fails on a duplicate ID — callers doing
// find-or-create must check GetByID first.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, avatar_hash, bio, banned, flags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.AvatarHash,
		user.Bio,
		user.Banned,
		int64(user.Flags),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %d: %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves a user by their Discord ID.
// Returns apperror.ErrNotFound (wrapped) if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var usr model.User
	var flags int64

	err := u.conn.QueryRowContext(ctx,
		`SELECT id, username, avatar_hash, bio, banned, flags, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&usr.ID,
		&usr.Username,
		&usr.AvatarHash,
		&usr.Bio,
		&usr.Banned,
		&flags,
		&usr.CreatedAt,
		&usr.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}

	usr.Flags = uint64(flags)
	return &usr, nil
}

// UpdateProfile refreshes username, avatar, and bio for an existing user.
func (u *UserDB) UpdateProfile(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, avatar_hash = ?, bio = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.AvatarHash,
		user.Bio,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}
	return requireRow(res, "user", strconv.FormatInt(user.ID, 10))
}

// SetBanned flips the moderation ban bit on a user.
func (u *UserDB) SetBanned(ctx context.Context, id int64, banned bool) error {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET banned = ?, updated_at = ? WHERE id = ?`,
		banned, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting banned=%t on user %d: %w", banned, id, err)
	}
	return requireRow(res, "user", strconv.FormatInt(id, 10))
}

// SetFlags stores a user's full flags bit vector. Callers compute the new
// value through the bitfield package; the repository persists it verbatim.
func (u *UserDB) SetFlags(ctx context.Context, id int64, flags uint64) error {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET flags = ?, updated_at = ? WHERE id = ?`,
		int64(flags), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting flags on user %d: %w", id, err)
	}
	return requireRow(res, "user", strconv.FormatInt(id, 10))
}

// requireRow converts a zero-rows-affected UPDATE into a not-found error.
func requireRow(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
