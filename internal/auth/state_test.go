package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/sakif/moot/internal/apperror"
	"github.com/sakif/moot/internal/bitfield"
	"github.com/sakif/moot/internal/model"
)

func authedState(t *testing.T, user *model.User) State {
	t.Helper()
	state, err := Authenticated(user, &model.Session{
		Token:     "tok",
		OwnerID:   user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Authenticated() error = %v", err)
	}
	return state
}

func TestAnonymous(t *testing.T) {
	state := Anonymous()

	if state.IsAuthenticated() {
		t.Error("Anonymous() should not be authenticated")
	}
	if state.User() != nil || state.Session() != nil {
		t.Error("Anonymous() must carry neither user nor session")
	}
}

func TestAuthenticated_RejectsPartialState(t *testing.T) {
	user := &model.User{ID: 42}
	session := &model.Session{Token: "tok", OwnerID: 42}

	if _, err := Authenticated(nil, session); err == nil {
		t.Error("Authenticated(nil, session) should fail")
	}
	if _, err := Authenticated(user, nil); err == nil {
		t.Error("Authenticated(user, nil) should fail")
	}
}

func TestAuthenticated_RejectsOwnerMismatch(t *testing.T) {
	user := &model.User{ID: 42}
	session := &model.Session{Token: "tok", OwnerID: 43}

	if _, err := Authenticated(user, session); err == nil {
		t.Error("Authenticated() should reject a session owned by another user")
	}
}

func TestRequireUser(t *testing.T) {
	if err := Anonymous().RequireUser(); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("anonymous RequireUser() = %v, want ErrUnauthorized", err)
	}

	state := authedState(t, &model.User{ID: 42})
	if err := state.RequireUser(); err != nil {
		t.Errorf("authenticated RequireUser() = %v, want nil", err)
	}
}

func TestRequireActive(t *testing.T) {
	// Anonymous fails the identity check, not the ban check.
	if err := Anonymous().RequireActive(); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("anonymous RequireActive() = %v, want ErrUnauthorized", err)
	}

	banned := authedState(t, &model.User{ID: 42, Banned: true})
	err := banned.RequireActive()
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("banned RequireActive() = %v, want ErrForbidden", err)
	}
	if errors.Is(err, apperror.ErrUnauthorized) {
		t.Error("banned must be distinct from not-authenticated")
	}

	active := authedState(t, &model.User{ID: 42})
	if err := active.RequireActive(); err != nil {
		t.Errorf("active RequireActive() = %v, want nil", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	regular := authedState(t, &model.User{ID: 42})
	if err := regular.RequireAdmin(); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("non-admin RequireAdmin() = %v, want ErrForbidden", err)
	}

	flags := bitfield.New(0)
	flags.Set(model.FlagAdmin, true)
	admin := authedState(t, &model.User{ID: 42, Flags: flags.Value()})
	if err := admin.RequireAdmin(); err != nil {
		t.Errorf("admin RequireAdmin() = %v, want nil", err)
	}
}
