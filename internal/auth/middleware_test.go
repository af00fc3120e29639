package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// okHandler records whether it ran and echoes the resolved user ID.
func okHandler(t *testing.T, ran *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*ran = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_ResolvesCookieIntoContext(t *testing.T) {
	r, sessions, users := newTestResolver(t)
	seedUser(t, users, 42)
	seedSession(t, sessions, "tok", 42, time.Now().Add(time.Hour))

	var got State
	next := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = StateFromContext(req.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
	rr := httptest.NewRecorder()

	Middleware(r, testLogger())(next).ServeHTTP(rr, req)

	require.True(t, got.IsAuthenticated())
	assert.Equal(t, int64(42), got.User().ID)
}

func TestMiddleware_NoCookieIsAnonymousNotRejected(t *testing.T) {
	r, _, _ := newTestResolver(t)

	ran := false
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	Middleware(r, testLogger())(okHandler(t, &ran)).ServeHTTP(rr, req)

	assert.True(t, ran, "anonymous requests must pass through")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMiddleware_StoreFailureIs500(t *testing.T) {
	r, sessions, _ := newTestResolver(t)
	sessions.getErr = assert.AnError

	ran := false
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
	rr := httptest.NewRecorder()

	Middleware(r, testLogger())(okHandler(t, &ran)).ServeHTTP(rr, req)

	assert.False(t, ran)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGates(t *testing.T) {
	tests := []struct {
		name       string
		gate       func(http.Handler) http.Handler
		state      State
		wantStatus int
	}{
		{"RequireUser anonymous", RequireUser, Anonymous(), http.StatusUnauthorized},
		{"RequireActive anonymous", RequireActive, Anonymous(), http.StatusUnauthorized},
		{"RequireAdmin anonymous", RequireAdmin, Anonymous(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), stateKey, tt.state))
			rr := httptest.NewRecorder()

			tt.gate(okHandler(t, &ran)).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.False(t, ran)
		})
	}
}

func TestGates_AuthenticatedUsers(t *testing.T) {
	r, sessions, users := newTestResolver(t)

	// Banned user: identity passes, active gate fails with 403.
	seedUser(t, users, 1)
	require.NoError(t, users.SetBanned(context.Background(), 1, true))
	seedSession(t, sessions, "banned-tok", 1, time.Now().Add(time.Hour))

	// Admin user.
	seedUser(t, users, 2)
	require.NoError(t, users.SetFlags(context.Background(), 2, 1))
	seedSession(t, sessions, "admin-tok", 2, time.Now().Add(time.Hour))

	mw := Middleware(r, testLogger())

	tests := []struct {
		name       string
		token      string
		gate       func(http.Handler) http.Handler
		wantStatus int
	}{
		{"banned user passes identity gate", "banned-tok", RequireUser, http.StatusOK},
		{"banned user fails active gate", "banned-tok", RequireActive, http.StatusForbidden},
		{"banned user fails admin gate", "banned-tok", RequireAdmin, http.StatusForbidden},
		{"admin passes admin gate", "admin-tok", RequireAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.token})
			rr := httptest.NewRecorder()

			mw(tt.gate(okHandler(t, &ran))).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, ran)
		})
	}
}
