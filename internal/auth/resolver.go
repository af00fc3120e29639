package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/moot/internal/apperror"
	"github.com/sakif/moot/internal/model"
	"github.com/sakif/moot/internal/repository"
)

// SessionTTL is the fixed validity window of a session, set once at login
// and never extended.
const SessionTTL = 14 * 24 * time.Hour

// tokenBytes is the entropy of a session token: 64 random bytes, hex-encoded
// to a 128-character string.
const tokenBytes = 64

// Resolver turns raw tokens into identities and mints sessions at login.
//
// Resolutions for different tokens are fully independent; the resolver holds
// no mutable state of its own. Two concurrent resolutions of the same
// expired token may both attempt the lazy delete; the delete is idempotent,
// so both succeed.
type Resolver struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	logger   *slog.Logger

	// now is swapped out in tests to control expiry decisions.
	now func() time.Time
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(sessions repository.SessionRepository, users repository.UserRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		sessions: sessions,
		users:    users,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve converts a client-presented token into a State.
//
// Misses are not errors: an unknown, empty, or expired token resolves to
// Anonymous. An expired session is deleted on the way out (lazy cleanup,
// best-effort) and is indistinguishable from no session at all. A session
// whose owner is missing — users are never hard-deleted, so this indicates
// a data-integrity problem — is logged and resolved to Anonymous rather
// than failing the request.
//
// Store infrastructure failures do propagate as errors; a broken store must
// surface as a failed request, never silently downgrade to Anonymous.
func (r *Resolver) Resolve(ctx context.Context, token string) (State, error) {
	if token == "" {
		return Anonymous(), nil
	}

	session, err := r.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return Anonymous(), nil
		}
		return Anonymous(), fmt.Errorf("auth: looking up session: %w", err)
	}

	if session.Expired(r.now()) {
		if err := r.sessions.Delete(ctx, token); err != nil {
			r.logger.Warn("auth: failed to delete expired session",
				slog.Int64("ownerID", session.OwnerID),
				slog.String("error", err.Error()),
			)
		}
		return Anonymous(), nil
	}

	user, err := r.users.GetByID(ctx, session.OwnerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			r.logger.Warn("auth: session references missing user",
				slog.Int64("ownerID", session.OwnerID),
			)
			return Anonymous(), nil
		}
		return Anonymous(), fmt.Errorf("auth: looking up session owner %d: %w", session.OwnerID, err)
	}

	return Authenticated(user, session)
}

// Identity is the verified profile handed back by the external OAuth
// exchange: Discord's stable numeric user ID plus the mutable profile
// fields we mirror locally.
type Identity struct {
	ID         int64
	Username   string
	AvatarHash string
}

// Login completes an external login: find-or-create the local user for the
// identity, then mint a brand-new session valid for SessionTTL.
//
// Every login produces a new session — prior sessions for the same user are
// neither reused nor revoked, so a user accumulates one session per login
// until each expires. The caller is responsible for delivering the returned
// token to the client.
func (r *Resolver) Login(ctx context.Context, identity Identity) (*model.Session, error) {
	user, err := r.users.GetByID(ctx, identity.ID)
	switch {
	case err == nil:
		// Known user: mirror the profile fields Discord may have changed.
		user.Username = identity.Username
		user.AvatarHash = identity.AvatarHash
		if err := r.users.UpdateProfile(ctx, user); err != nil {
			return nil, fmt.Errorf("auth: refreshing profile for user %d: %w", user.ID, err)
		}
	case errors.Is(err, apperror.ErrNotFound):
		// First login: create the account with default flags and no ban.
		user = &model.User{
			ID:         identity.ID,
			Username:   identity.Username,
			AvatarHash: identity.AvatarHash,
		}
		if err := r.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("auth: creating user %d: %w", identity.ID, err)
		}
		r.logger.Info("auth: new user registered",
			slog.Int64("userID", user.ID),
			slog.String("username", user.Username),
		)
	default:
		return nil, fmt.Errorf("auth: looking up user %d: %w", identity.ID, err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("auth: generating session token: %w", err)
	}

	session := &model.Session{
		Token:     token,
		OwnerID:   user.ID,
		ExpiresAt: r.now().Add(SessionTTL),
	}
	if err := r.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("auth: creating session for user %d: %w", user.ID, err)
	}

	r.logger.Info("auth: session created",
		slog.Int64("userID", user.ID),
		slog.Time("expiresAt", session.ExpiresAt),
	)
	return session, nil
}

// generateToken returns a hex-encoded token with tokenBytes of
// cryptographically secure entropy.
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
