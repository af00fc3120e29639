// Package service contains the business logic layer: validation, permission
// decisions, and orchestration between handlers and repositories.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/moot/internal/apperror"
	"github.com/sakif/moot/internal/ids"
	"github.com/sakif/moot/internal/model"
	"github.com/sakif/moot/internal/repository"
)

const (
	// MaxContentLength caps post content at the classic 280 characters.
	MaxContentLength = 280

	DefaultListLimit = 15
	MaxListLimit     = 100
)

// PostService handles business logic for posts. It owns the service's single
// ID generator instance — all post IDs are minted here.
type PostService struct {
	posts  repository.PostRepository
	ids    *ids.Generator
	logger *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(posts repository.PostRepository, gen *ids.Generator, logger *slog.Logger) *PostService {
	return &PostService{
		posts:  posts,
		ids:    gen,
		logger: logger,
	}
}

// Create validates content, mints a new ID, and stores the post.
//
// referenceID, when non-nil, must name a visible existing post — replies to
// hidden or unknown posts are rejected as validation failures.
func (s *PostService) Create(ctx context.Context, authorID int64, content string, referenceID *uint64) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content must not be empty")
	}
	if len([]rune(content)) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be at most %d characters", MaxContentLength))
	}

	if referenceID != nil {
		if _, err := s.GetByID(ctx, *referenceID); err != nil {
			return nil, apperror.ValidationFailed("referenceId", "referenced post does not exist")
		}
	}

	post := &model.Post{
		ID:       s.ids.Next(),
		AuthorID: authorID,
		Content:  content,
	}
	if referenceID != nil {
		ref := *referenceID
		post.ReferenceID = &ref
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("service/post: creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Uint64("postID", post.ID),
		slog.Int64("authorID", authorID),
	)
	return post, nil
}

// GetByID returns a visible post. Hidden posts are indistinguishable from
// absent ones to ordinary callers.
func (s *PostService) GetByID(ctx context.Context, id uint64) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/post: fetching post %d: %w", id, err)
	}
	if post.Hidden {
		return nil, apperror.NotFound("post", strconv.FormatUint(id, 10))
	}
	return post, nil
}

// ListRecent returns the latest visible posts, newest first.
func (s *PostService) ListRecent(ctx context.Context, limit int) ([]model.Post, error) {
	posts, err := s.posts.ListRecent(ctx, repository.ListOptions{Limit: clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("service/post: listing recent posts: %w", err)
	}
	return posts, nil
}

// ListByAuthor returns an author's latest visible posts, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID int64, limit int) ([]model.Post, error) {
	posts, err := s.posts.ListByAuthor(ctx, authorID, repository.ListOptions{Limit: clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("service/post: listing posts by author %d: %w", authorID, err)
	}
	return posts, nil
}

// Hide marks a post hidden (or visible again). Moderation-only; the caller
// enforces the admin gate.
func (s *PostService) Hide(ctx context.Context, id uint64, hidden bool) error {
	if err := s.posts.SetHidden(ctx, id, hidden); err != nil {
		return fmt.Errorf("service/post: setting hidden=%t on post %d: %w", hidden, id, err)
	}
	s.logger.Info("post visibility changed",
		slog.Uint64("postID", id),
		slog.Bool("hidden", hidden),
	)
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
