// Package model defines the data structures used throughout the application.
package model

import (
	"time"

	"github.com/sakif/moot/internal/bitfield"
)

// User flag bit indices. Flags is a bit vector addressed through the
// bitfield package; only FlagAdmin carries assigned semantics today, all
// other bits are reserved.
const (
	FlagAdmin uint = 0
)

// User represents a registered account.
//
// Identity comes from Discord OAuth: ID is Discord's numeric user ID, issued
// externally, stable, and used directly as our primary key. A user row is
// created on first successful login and never hard-deleted.
//
// Banned is kept separate from Flags: it is moderation state, not a
// privilege bit, and the two are toggled by different operations.
type User struct {
	ID         int64     `json:"id"         db:"id"`
	Username   string    `json:"username"   db:"username"`
	AvatarHash string    `json:"avatarHash" db:"avatar_hash"` // Discord avatar hash, may be empty
	Bio        string    `json:"bio"        db:"bio"`
	Banned     bool      `json:"banned"     db:"banned"`
	Flags      uint64    `json:"flags"      db:"flags"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

// IsAdmin reports whether the admin privilege bit is set in Flags.
func (u *User) IsAdmin() bool {
	return bitfield.New(u.Flags).Get(FlagAdmin)
}
