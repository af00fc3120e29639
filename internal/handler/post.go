package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/moot/internal/auth"
	"github.com/sakif/moot/internal/service"
)

// PostHandler exposes post creation and reads.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:  posts,
		logger: logger,
	}
}

// createPostRequest is the body of POST /api/posts. IDs travel as strings in
// JSON because they can exceed the integer range JavaScript handles exactly.
type createPostRequest struct {
	Content     string  `json:"content"`
	ReferenceID *uint64 `json:"referenceId,string,omitempty"`
}

// HandleCreate creates a post authored by the current user.
//
// HTTP: POST /api/posts — behind the active (non-banned) gate.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	state := auth.StateFromContext(r.Context())
	if err := state.RequireActive(); err != nil {
		writeError(w, err)
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid JSON body",
		})
		return
	}

	post, err := h.posts.Create(r.Context(), state.User().ID, req.Content, req.ReferenceID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandleGetByID returns a single visible post.
//
// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleListRecent returns the latest visible posts.
//
// HTTP: GET /api/posts?limit=n
func (h *PostHandler) HandleListRecent(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListRecent(r.Context(), parseLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleListByAuthor returns a user's latest visible posts.
//
// HTTP: GET /api/users/{id}/posts?limit=n
func (h *PostHandler) HandleListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.ListByAuthor(r.Context(), authorID, parseLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleHide hides or unhides a post.
//
// HTTP: POST /api/posts/{id}/hide — behind the admin gate.
func (h *PostHandler) HandleHide(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(w, r)
	if !ok {
		return
	}

	var req struct {
		Hidden *bool `json:"hidden"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Hidden == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: `body must be {"hidden": true|false}`,
		})
		return
	}

	if err := h.posts.Hide(r.Context(), id, *req.Hidden); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hidden": *req.Hidden})
}

func parsePostID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "post id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "user id must be an integer",
		})
		return 0, false
	}
	return id, true
}

func parseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0 // service applies the default
	}
	return limit
}
