package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/moot/internal/apperror"
	"github.com/sakif/moot/internal/model"
	"github.com/sakif/moot/internal/repository"
)

// PostDB implements repository.PostRepository over the shared connection
// pool. Obtain one with DB.Posts().
type PostDB struct {
	conn *sql.DB
}

// Posts returns the post repository backed by this database.
func (db *DB) Posts() *PostDB {
	return &PostDB{conn: db.conn}
}

// compile-time check that *PostDB implements repository.PostRepository
var _ repository.PostRepository = (*PostDB)(nil)

// Create inserts a new post. The ID is minted by the caller (service layer)
// from the ids generator; its bit pattern is stored verbatim via an int64
// conversion.
func (p *PostDB) Create(ctx context.Context, post *model.Post) error {
	post.CreatedAt = time.Now()

	var ref sql.NullInt64
	if post.ReferenceID != nil {
		ref = sql.NullInt64{Int64: int64(*post.ReferenceID), Valid: true}
	}

	_, err := p.conn.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content, reference_id, hidden, flags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(post.ID),
		post.AuthorID,
		post.Content,
		ref,
		post.Hidden,
		int64(post.Flags),
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting post %d: %w", post.ID, err)
	}
	return nil
}

// GetByID retrieves a post by ID, hidden or not — visibility filtering is a
// service-layer decision. Returns apperror.ErrNotFound (wrapped) if absent.
func (p *PostDB) GetByID(ctx context.Context, id uint64) (*model.Post, error) {
	row := p.conn.QueryRowContext(ctx,
		`SELECT id, author_id, content, reference_id, hidden, flags, created_at
		 FROM posts WHERE id = ?`,
		int64(id),
	)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", strconv.FormatUint(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}
	return post, nil
}

// ListRecent returns visible posts, newest first. Post IDs embed their
// creation time in the high bits, so ORDER BY id DESC is creation order.
func (p *PostDB) ListRecent(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	rows, err := p.conn.QueryContext(ctx,
		`SELECT id, author_id, content, reference_id, hidden, flags, created_at
		 FROM posts WHERE hidden = 0
		 ORDER BY id DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recent posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ListByAuthor returns an author's visible posts, newest first.
func (p *PostDB) ListByAuthor(ctx context.Context, authorID int64, opts repository.ListOptions) ([]model.Post, error) {
	rows, err := p.conn.QueryContext(ctx,
		`SELECT id, author_id, content, reference_id, hidden, flags, created_at
		 FROM posts WHERE author_id = ? AND hidden = 0
		 ORDER BY id DESC
		 LIMIT ? OFFSET ?`,
		authorID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts by author %d: %w", authorID, err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// SetHidden flips the moderation visibility bit on a post.
func (p *PostDB) SetHidden(ctx context.Context, id uint64, hidden bool) error {
	res, err := p.conn.ExecContext(ctx,
		`UPDATE posts SET hidden = ? WHERE id = ?`,
		hidden, int64(id),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting hidden=%t on post %d: %w", hidden, id, err)
	}
	return requireRow(res, "post", strconv.FormatUint(id, 10))
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*model.Post, error) {
	var post model.Post
	var id, flags int64
	var ref sql.NullInt64

	err := row.Scan(
		&id,
		&post.AuthorID,
		&post.Content,
		&ref,
		&post.Hidden,
		&flags,
		&post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.ID = uint64(id)
	post.Flags = uint64(flags)
	if ref.Valid {
		r := uint64(ref.Int64)
		post.ReferenceID = &r
	}
	return &post, nil
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	posts := []model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating post rows: %w", err)
	}
	return posts, nil
}
