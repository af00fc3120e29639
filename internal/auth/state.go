// Package auth implements the session lifecycle: minting sessions at login,
// resolving a client-presented token into an identity on every request, and
// the authorization gates built on the resolved identity.
package auth

import (
	"fmt"

	"github.com/sakif/moot/internal/apperror"
	"github.com/sakif/moot/internal/model"
)

// State is the per-request resolved identity: either anonymous or bound to a
// user and the session that authenticated them. It is a value, recomputed on
// every request and never persisted.
//
// The two fields are never set independently — construction goes through
// Anonymous or Authenticated, so a user can never appear without its session
// or vice versa.
type State struct {
	user    *model.User
	session *model.Session
}

// Anonymous returns the identity-free state. Unknown, expired, and absent
// tokens all collapse to this; callers cannot distinguish them.
func Anonymous() State {
	return State{}
}

// Authenticated binds a user and the session that proved their identity.
// The session must belong to the user.
func Authenticated(user *model.User, session *model.Session) (State, error) {
	if user == nil || session == nil {
		return State{}, fmt.Errorf("auth: authenticated state requires both user and session")
	}
	if session.OwnerID != user.ID {
		return State{}, fmt.Errorf("auth: session owner %d does not match user %d", session.OwnerID, user.ID)
	}
	return State{user: user, session: session}, nil
}

// IsAuthenticated reports whether the state carries an identity.
func (s State) IsAuthenticated() bool {
	return s.user != nil
}

// User returns the authenticated user, or nil for the anonymous state.
func (s State) User() *model.User {
	return s.user
}

// Session returns the session backing the identity, or nil for the anonymous
// state.
func (s State) Session() *model.Session {
	return s.session
}

// RequireUser is the identity gate: it rejects the anonymous state.
func (s State) RequireUser() error {
	if !s.IsAuthenticated() {
		return apperror.Unauthorized("authentication required")
	}
	return nil
}

// RequireActive is the gate for content-mutating operations: the caller must
// be authenticated and not banned. A banned user gets a forbidden error,
// distinct from the not-authenticated case.
func (s State) RequireActive() error {
	if err := s.RequireUser(); err != nil {
		return err
	}
	if s.user.Banned {
		return apperror.Forbidden("account is banned")
	}
	return nil
}

// RequireAdmin is the moderation gate: the caller must be authenticated and
// carry the admin flag bit.
func (s State) RequireAdmin() error {
	if err := s.RequireUser(); err != nil {
		return err
	}
	if !s.user.IsAdmin() {
		return apperror.Forbidden("administrator privileges required")
	}
	return nil
}
