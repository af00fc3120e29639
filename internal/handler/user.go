package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/moot/internal/service"
)

// UserHandler exposes public profiles and the moderation endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// publicUser is the profile shape exposed to other users: no flags, no ban
// state.
type publicUser struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	AvatarHash string `json:"avatarHash"`
	Bio        string `json:"bio"`
}

// HandleGetUser returns a user's public profile.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, publicUser{
		ID:         user.ID,
		Username:   user.Username,
		AvatarHash: user.AvatarHash,
		Bio:        user.Bio,
	})
}

// HandleBan bans a user.
//
// HTTP: POST /api/users/{id}/ban — behind the admin gate.
func (h *UserHandler) HandleBan(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

// HandleUnban lifts a ban.
//
// HTTP: POST /api/users/{id}/unban — behind the admin gate.
func (h *UserHandler) HandleUnban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *UserHandler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.users.SetBanned(r.Context(), id, banned); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"banned": banned})
}

// HandleSetAdmin grants or revokes the admin privilege bit.
//
// HTTP: POST /api/users/{id}/admin — behind the admin gate.
func (h *UserHandler) HandleSetAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Admin *bool `json:"admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Admin == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: `body must be {"admin": true|false}`,
		})
		return
	}

	if err := h.users.SetAdmin(r.Context(), id, *req.Admin); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"admin": *req.Admin})
}
