package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/moot/internal/apperror"
	"github.com/sakif/moot/internal/model"
	"github.com/sakif/moot/internal/repository"
)

// SessionDB implements repository.SessionRepository over the shared
// connection pool. Obtain one with DB.Sessions().
type SessionDB struct {
	conn *sql.DB
}

// Sessions returns the session repository backed by this database.
func (db *DB) Sessions() *SessionDB {
	return &SessionDB{conn: db.conn}
}

// compile-time check that *SessionDB implements repository.SessionRepository
var _ repository.SessionRepository = (*SessionDB)(nil)

// Create inserts a new session row. Token, OwnerID, and ExpiresAt must
// already be set by the auth layer; CreatedAt is filled in here.
func (s *SessionDB) Create(ctx context.Context, session *model.Session) error {
	session.CreatedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sessions (token, owner_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		session.Token,
		session.OwnerID,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session for user %d: %w", session.OwnerID, err)
	}
	return nil
}

// GetByToken retrieves a session by exact token match. The row is returned
// even if it has already expired — the auth layer owns the expiry decision.
// Returns apperror.ErrNotFound (wrapped) for unknown tokens. Tokens are
// credentials, so they never appear in error messages.
func (s *SessionDB) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	var sess model.Session

	err := s.conn.QueryRowContext(ctx,
		`SELECT token, owner_id, expires_at, created_at
		 FROM sessions WHERE token = ?`,
		token,
	).Scan(
		&sess.Token,
		&sess.OwnerID,
		&sess.ExpiresAt,
		&sess.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", "<token>")
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}

	return &sess, nil
}

// Delete removes a session by token. Idempotent: deleting a token that is
// already gone succeeds, so two concurrent lazy-expiry deletes of the same
// session are harmless.
func (s *SessionDB) Delete(ctx context.Context, token string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE token = ?`,
		token,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}
