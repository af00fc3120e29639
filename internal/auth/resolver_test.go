package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakif/moot/internal/apperror"
	"github.com/sakif/moot/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeSessionRepo is an in-memory repository.SessionRepository. Plain fakes
// keep these tests free of mock frameworks and easy to read.
type fakeSessionRepo struct {
	sessions map[string]*model.Session
	// set to a non-nil error to simulate a store failure
	getErr    error
	deleteErr error
	deletes   int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *model.Session) error {
	session.CreatedAt = time.Now()
	copied := *session
	f.sessions[session.Token] = &copied
	return nil
}

func (f *fakeSessionRepo) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[token]
	if !ok {
		return nil, apperror.NotFound("session", "<token>")
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, token string) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.sessions, token)
	return nil
}

type fakeUserRepo struct {
	users     map[int64]*model.User
	getErr    error
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", "?")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	existing, ok := f.users[user.ID]
	if !ok {
		return apperror.NotFound("user", "?")
	}
	existing.Username = user.Username
	existing.AvatarHash = user.AvatarHash
	existing.Bio = user.Bio
	return nil
}

func (f *fakeUserRepo) SetBanned(ctx context.Context, id int64, banned bool) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", "?")
	}
	u.Banned = banned
	return nil
}

func (f *fakeUserRepo) SetFlags(ctx context.Context, id int64, flags uint64) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", "?")
	}
	u.Flags = flags
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestResolver wires a Resolver against fresh fakes with a frozen clock.
func newTestResolver(t *testing.T) (*Resolver, *fakeSessionRepo, *fakeUserRepo) {
	t.Helper()
	sessions := newFakeSessionRepo()
	users := newFakeUserRepo()
	r := NewResolver(sessions, users, testLogger())
	return r, sessions, users
}

func seedUser(t *testing.T, users *fakeUserRepo, id int64) *model.User {
	t.Helper()
	user := &model.User{ID: id, Username: "alice#0001"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func seedSession(t *testing.T, sessions *fakeSessionRepo, token string, ownerID int64, expiresAt time.Time) {
	t.Helper()
	err := sessions.Create(context.Background(), &model.Session{
		Token:     token,
		OwnerID:   ownerID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		t.Fatalf("seeding session: %v", err)
	}
}

// =========================================================================
// Resolve TESTS
// =========================================================================

func TestResolve_UnknownTokensAreAnonymous(t *testing.T) {
	r, _, _ := newTestResolver(t)

	for _, token := range []string{"", "nope", "deadbeef"} {
		state, err := r.Resolve(context.Background(), token)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", token, err)
		}
		if state.IsAuthenticated() {
			t.Errorf("Resolve(%q) should be anonymous", token)
		}
	}
}

func TestResolve_ValidSession(t *testing.T) {
	r, sessions, users := newTestResolver(t)
	seedUser(t, users, 42)
	seedSession(t, sessions, "tok", 42, time.Now().Add(time.Hour))

	state, err := r.Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !state.IsAuthenticated() {
		t.Fatal("Resolve() should be authenticated")
	}
	if state.User().ID != 42 {
		t.Errorf("User().ID = %d, want 42", state.User().ID)
	}
	if state.Session().OwnerID != state.User().ID {
		t.Error("session owner and user must be consistent")
	}
}

func TestResolve_ExpiredSessionIsDeletedLazily(t *testing.T) {
	r, sessions, users := newTestResolver(t)
	seedUser(t, users, 42)
	seedSession(t, sessions, "stale", 42, time.Now().Add(-time.Minute))

	state, err := r.Resolve(context.Background(), "stale")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if state.IsAuthenticated() {
		t.Error("expired session should resolve anonymous")
	}

	// The row is gone: a subsequent store lookup misses.
	if _, err := sessions.GetByToken(context.Background(), "stale"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expired session should be deleted, got %v", err)
	}
}

func TestResolve_ExpiredDeleteFailureStillAnonymous(t *testing.T) {
	r, sessions, users := newTestResolver(t)
	seedUser(t, users, 42)
	seedSession(t, sessions, "stale", 42, time.Now().Add(-time.Minute))
	sessions.deleteErr = errors.New("store down")

	// The delete is best-effort; its failure must not fail the request.
	state, err := r.Resolve(context.Background(), "stale")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if state.IsAuthenticated() {
		t.Error("expired session should resolve anonymous even when delete fails")
	}
}

func TestResolve_MissingOwnerIsAnonymous(t *testing.T) {
	r, sessions, _ := newTestResolver(t)
	// Session points at a user that does not exist — integrity anomaly.
	seedSession(t, sessions, "orphan", 7, time.Now().Add(time.Hour))

	state, err := r.Resolve(context.Background(), "orphan")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if state.IsAuthenticated() {
		t.Error("session with a missing owner should resolve anonymous")
	}
}

func TestResolve_StoreFailurePropagates(t *testing.T) {
	r, sessions, _ := newTestResolver(t)
	sessions.getErr = errors.New("connection refused")

	_, err := r.Resolve(context.Background(), "any")
	if err == nil {
		t.Fatal("Resolve() should propagate store failures, not default to anonymous")
	}
}

func TestResolve_UserStoreFailurePropagates(t *testing.T) {
	r, sessions, users := newTestResolver(t)
	seedSession(t, sessions, "tok", 42, time.Now().Add(time.Hour))
	users.getErr = errors.New("connection refused")

	if _, err := r.Resolve(context.Background(), "tok"); err == nil {
		t.Fatal("Resolve() should propagate user store failures")
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_CreatesUserOnFirstLogin(t *testing.T) {
	r, _, users := newTestResolver(t)

	session, err := r.Login(context.Background(), Identity{ID: 42, Username: "alice#0001"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.OwnerID != 42 {
		t.Errorf("OwnerID = %d, want 42", session.OwnerID)
	}

	user, err := users.GetByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("user should exist after login: %v", err)
	}
	if user.Banned {
		t.Error("new user must not be banned")
	}
	if user.Flags != 0 {
		t.Errorf("new user Flags = %d, want 0", user.Flags)
	}
}

func TestLogin_TokenFormatAndTTL(t *testing.T) {
	r, _, _ := newTestResolver(t)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return start }

	session, err := r.Login(context.Background(), Identity{ID: 42, Username: "alice#0001"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// 64 random bytes hex-encoded.
	if len(session.Token) != 128 {
		t.Errorf("len(Token) = %d, want 128", len(session.Token))
	}
	want := start.Add(14 * 24 * time.Hour)
	if !session.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", session.ExpiresAt, want)
	}
}

func TestLogin_RepeatLoginsShareUserButNotSessions(t *testing.T) {
	r, sessions, users := newTestResolver(t)

	first, err := r.Login(context.Background(), Identity{ID: 42, Username: "alice#0001"})
	if err != nil {
		t.Fatalf("first Login() error = %v", err)
	}
	second, err := r.Login(context.Background(), Identity{ID: 42, Username: "alice#0001"})
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	if first.Token == second.Token {
		t.Error("each login must mint a distinct session token")
	}
	if len(users.users) != 1 {
		t.Errorf("user count = %d, want 1", len(users.users))
	}
	if len(sessions.sessions) != 2 {
		t.Errorf("session count = %d, want 2", len(sessions.sessions))
	}
}

func TestLogin_RefreshesProfileForKnownUser(t *testing.T) {
	r, _, users := newTestResolver(t)
	seedUser(t, users, 42)

	_, err := r.Login(context.Background(), Identity{ID: 42, Username: "alice#0002", AvatarHash: "newhash"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	user, _ := users.GetByID(context.Background(), 42)
	if user.Username != "alice#0002" || user.AvatarHash != "newhash" {
		t.Errorf("profile not refreshed: %q %q", user.Username, user.AvatarHash)
	}
}

// =========================================================================
// END-TO-END
// =========================================================================

func TestLoginThenResolveThenAdminGate(t *testing.T) {
	r, _, users := newTestResolver(t)

	session, err := r.Login(context.Background(), Identity{ID: 42, Username: "alice#0001"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	state, err := r.Resolve(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !state.IsAuthenticated() || state.User().ID != 42 {
		t.Fatal("resolved state should be authenticated as user 42")
	}
	if err := state.RequireAdmin(); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("RequireAdmin() before grant = %v, want ErrForbidden", err)
	}

	// Grant the admin bit, resolve again, and the gate passes.
	if err := users.SetFlags(context.Background(), 42, 1); err != nil {
		t.Fatalf("SetFlags() error = %v", err)
	}
	state, err = r.Resolve(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !state.User().IsAdmin() {
		t.Error("user should report IsAdmin after flag grant")
	}
	if err := state.RequireAdmin(); err != nil {
		t.Errorf("RequireAdmin() after grant = %v, want nil", err)
	}
}
