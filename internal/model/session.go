package model

import "time"

// Session is a server-issued bearer credential: an opaque high-entropy token
// mapped to the user who owns it, valid until ExpiresAt.
//
// ExpiresAt is fixed at creation (14 days out, see auth.SessionTTL) and never
// extended in place. Expired sessions are removed lazily, on the first lookup
// after expiry — there is no background sweep. A user holds one session per
// login; concurrent sessions are permitted and never deduplicated.
//
// The token never appears in JSON responses — it travels only in the session
// cookie.
type Session struct {
	Token     string    `json:"-"         db:"token"`
	OwnerID   int64     `json:"ownerId"   db:"owner_id"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Expired reports whether the session is no longer valid at the given time.
func (s *Session) Expired(at time.Time) bool {
	return s.ExpiresAt.Before(at)
}
