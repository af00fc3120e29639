// Package bitfield views a stored integer as an indexable vector of boolean
// flags, so call sites don't repeat bit-twiddling by hand.
//
// Indices are zero-based from the least-significant bit. The backing value is
// a fixed-width uint64, so indices 0 through 63 are addressable. Reads and
// writes at or beyond Width are silently ignored: Get reports false and Set
// leaves the value untouched. Callers introducing a new flag must pick an
// index below Width.
package bitfield

// Width is the number of addressable bits in a Field.
const Width = 64

// Field wraps an integer as a mutable bit vector. The zero value has all
// flags cleared.
type Field struct {
	value uint64
}

// New returns a Field backed by value.
func New(value uint64) *Field {
	return &Field{value: value}
}

// Get reports whether bit index is set. Indices at or beyond Width report
// false.
func (f *Field) Get(index uint) bool {
	if index >= Width {
		return false
	}
	return f.value>>index&1 == 1
}

// Set sets (on=true) or clears (on=false) bit index and returns the updated
// backing value, which is what the storage layer persists. Indices at or
// beyond Width are ignored.
func (f *Field) Set(index uint, on bool) uint64 {
	if index >= Width {
		return f.value
	}
	if on {
		f.value |= 1 << index
	} else {
		f.value &^= 1 << index
	}
	return f.value
}

// Value returns the backing integer for storage.
func (f *Field) Value() uint64 {
	return f.value
}
