// Package ahocorasick provides a multi-pattern string matcher backed by an
// Aho-Corasick automaton in the double-array trie representation. All keywords
// of a dictionary are matched against input text in a single linear pass, in
// O(n + z) time where n is the input length and z is the number of matches.
//
// The automaton keys on UTF-16 code units. Supplementary-plane characters are
// matched as surrogate pairs, i.e. as two-unit sequences. Hit offsets count
// code units, not bytes or runes.
//
// A built Trie is immutable; concurrent readers need no synchronization.
package ahocorasick

import "errors"

var (
	// ErrCapacityExceeded is returned when the double-array cannot grow any
	// further during build.
	ErrCapacityExceeded = errors.New("ahocorasick: double-array capacity exceeded")

	// ErrUnsupportedValueType is returned by Save when the dictionary carries
	// values outside the primitive type table.
	ErrUnsupportedValueType = errors.New("ahocorasick: unsupported value type")

	// ErrCorruptStream is returned by Load on malformed input.
	ErrCorruptStream = errors.New("ahocorasick: corrupt stream")

	// ErrNotBuilt is returned when an operation needs a built automaton.
	ErrNotBuilt = errors.New("ahocorasick: automaton not built")
)

// Entry is a single dictionary entry. The position of an Entry in the slice
// passed to Build determines its keyword index.
type Entry[V any] struct {
	// Key is the keyword to match.
	Key string

	// Value is reported with every hit of Key.
	Value V
}

// Hit is a single reported match.
type Hit[V any] struct {
	// Begin is the inclusive start offset of the match, in code units.
	Begin int32

	// End is the exclusive end offset of the match, in code units.
	End int32

	// Value is the dictionary value of the matched keyword. It is the zero
	// value when the automaton was loaded without values.
	Value V

	// Index is the keyword index of the matched entry.
	Index int32
}

// Length returns the matched keyword length in code units.
func (h Hit[V]) Length() int32 {
	return h.End - h.Begin
}
