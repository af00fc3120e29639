package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/moot/internal/apperror"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "moot_session_token"

// contextKey is an unexported type for context keys, so no other package can
// read or shadow the auth state stored in a request context.
type contextKey struct{}

var stateKey contextKey

// Middleware resolves the session cookie into a State on every request and
// stores it in the request context. It never rejects: requests without a
// valid session simply continue as Anonymous, and it is the gate middlewares
// below (or the handlers) that decide what anonymity means for a route.
//
// A store failure is the one case that stops the request — per the error
// taxonomy, infrastructure errors surface as failed requests rather than
// silently downgrading the caller to Anonymous.
func Middleware(resolver *Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				token = cookie.Value
			}

			state, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Error("auth: resolving session", slog.String("error", err.Error()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"internal_error","message":"An internal error occurred"}`))
				return
			}

			ctx := context.WithValue(r.Context(), stateKey, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StateFromContext returns the State resolved for this request, or Anonymous
// if the resolution middleware did not run.
func StateFromContext(ctx context.Context) State {
	if state, ok := ctx.Value(stateKey).(State); ok {
		return state
	}
	return Anonymous()
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return requireGate(next, State.RequireUser)
}

// RequireActive rejects anonymous requests with 401 and banned users with
// 403.
func RequireActive(next http.Handler) http.Handler {
	return requireGate(next, State.RequireActive)
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return requireGate(next, State.RequireAdmin)
}

func requireGate(next http.Handler, gate func(State) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := gate(StateFromContext(r.Context())); err != nil {
			writeGateError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeGateError maps gate errors to 401/403 without pulling in the handler
// package (which imports this one).
func writeGateError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized","message":"` + err.Error() + `"}`))
	case errors.Is(err, apperror.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"forbidden","message":"` + err.Error() + `"}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal_error","message":"An internal error occurred"}`))
	}
}
