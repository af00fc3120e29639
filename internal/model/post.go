package model

import "time"

// Post is a user-authored message ("moot").
//
// ID is a packed 64-bit identifier minted by the ids package — the creation
// time is recoverable from the ID itself, so there is no stored timestamp
// column driving recency; CreatedAt exists for display only. ReferenceID
// optionally points at the post this one replies to.
//
// Hidden is set by moderators; hidden posts are excluded from listings and
// lookups. Flags is a reserved per-post bit vector with no assigned bits yet.
type Post struct {
	ID          uint64    `json:"id,string"    db:"id"`
	AuthorID    int64     `json:"authorId"     db:"author_id"`
	Content     string    `json:"content"      db:"content"`
	ReferenceID *uint64   `json:"referenceId,string,omitempty" db:"reference_id"`
	Hidden      bool      `json:"hidden"       db:"hidden"`
	Flags       uint64    `json:"flags"        db:"flags"`
	CreatedAt   time.Time `json:"createdAt"    db:"created_at"`
}
