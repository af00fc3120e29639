// Package ids generates the 64-bit identifiers used for posts.
//
// An ID packs three fields into one unsigned integer:
//
//	bits 14-63  milliseconds since the service epoch (2021-01-01T00:00:00Z)
//	bits  6-13  generator tag (identifies the generator instance)
//	bits  0-5   per-process sequence counter, modulo 64
//
// Because the timestamp occupies the high bits, IDs sort by creation time
// without a separate timestamp column, and any consumer can recover the
// creation time with Decode — no side channel needed. The layout is persisted
// verbatim by the storage layer and must not change.
//
// Known limitations:
//   - The sequence is 6 bits wide and the generator does not wait for the
//     clock to advance, so more than 64 calls within one millisecond can
//     produce colliding IDs. No error is reported.
//   - There is no guard against backward clock jumps; if the system clock
//     regresses, new IDs can compare less than or equal to earlier ones.
//   - Uniqueness across multiple concurrently running generator instances is
//     not guaranteed unless each instance is configured with a distinct tag.
//     The service runs a single generator with the default tag.
package ids

import (
	"sync/atomic"
	"time"
)

// Epoch is the service epoch in Unix milliseconds: 2021-01-01T00:00:00Z.
// Timestamps embedded in IDs are offsets from this point.
const Epoch int64 = 1609459200000

const (
	timestampShift = 14
	tagShift       = 6
	tagMask        = 0xFF
	sequenceMask   = 0x3F
)

// DefaultTag is the generator tag used when none is configured. It matches
// the value embedded in every ID issued since the service launched.
const DefaultTag uint8 = 1

// Generator mints time-ordered 64-bit identifiers. It is safe for concurrent
// use; the only shared state is an atomic sequence counter.
type Generator struct {
	tag uint8
	seq atomic.Uint64

	// now is swapped out in tests to control the clock.
	now func() time.Time
}

// New returns a Generator carrying DefaultTag.
func New() *Generator {
	return NewWithTag(DefaultTag)
}

// NewWithTag returns a Generator whose IDs carry the given tag. Deployments
// running more than one instance must assign each a distinct tag; otherwise
// cross-instance uniqueness is not guaranteed.
func NewWithTag(tag uint8) *Generator {
	return &Generator{
		tag: tag,
		now: time.Now,
	}
}

// Next mints a new identifier from the current wall-clock time and the next
// sequence value. It never blocks and never fails; see the package comment
// for the collision and clock-regression caveats.
func (g *Generator) Next() uint64 {
	t := g.now().UnixMilli() - Epoch
	seq := g.seq.Add(1) & sequenceMask
	return uint64(t)<<timestampShift | uint64(g.tag)<<tagShift | seq
}

// Decode unpacks any 64-bit value into its timestamp offset (milliseconds
// since Epoch), generator tag, and sequence fields. It is total: inputs that
// were never produced by a Generator still decode without error.
func Decode(id uint64) (timestampMs int64, tag uint8, seq uint8) {
	return int64(id >> timestampShift),
		uint8(id >> tagShift & tagMask),
		uint8(id & sequenceMask)
}

// Timestamp returns the creation time embedded in id, in UTC.
func Timestamp(id uint64) time.Time {
	return time.UnixMilli(Epoch + int64(id>>timestampShift)).UTC()
}
