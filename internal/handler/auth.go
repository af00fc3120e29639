package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/moot/internal/auth"
)

// AuthHandler drives the Discord OAuth login flow and exposes the current
// identity.
//
//	GET /auth/login    → redirect the browser to Discord's authorize page
//	GET /api/callback  → exchange the code, mint a session, set the cookie
//	GET /api/me        → the logged-in user's own record
type AuthHandler struct {
	discord  *auth.DiscordProvider
	resolver *auth.Resolver
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(discord *auth.DiscordProvider, resolver *auth.Resolver, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		discord:  discord,
		resolver: resolver,
		logger:   logger,
	}
}

// HandleLogin redirects the user to Discord's authorization page.
//
// The random state value is stored in a short-lived HttpOnly cookie and
// checked on callback, so a forged callback can't complete a login the user
// never started.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.discord.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth login flow: verify state, exchange the
// code for the Discord profile, run Login (find-or-create user, mint
// session), and hand the session token to the browser as a cookie.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// State cookies are single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	discordUser, err := h.discord.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	identity, err := discordUser.Identity()
	if err != nil {
		h.logger.Error("auth callback: bad Discord profile", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	session, err := h.resolver.Login(r.Context(), identity)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleMe returns the authenticated user's own record.
// Route is behind the identity gate, so the state is always authenticated.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	state := auth.StateFromContext(r.Context())
	if err := state.RequireUser(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state.User())
}
