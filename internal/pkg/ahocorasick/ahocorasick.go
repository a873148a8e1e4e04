package ahocorasick

import (
	"unicode"
	"unicode/utf16"
)

// Trie is an Aho-Corasick automaton over a keyword dictionary, packed into
// the double-array representation: the child of state s on unit c lives at
// slot base[s]+c+1 iff check[base[s]+c+1] == base[s]. Negative base values
// mark terminal slots and carry the keyword index as -(index+1).
//
// The zero value is an empty automaton: every scan emits nothing and Count
// is 0. Build and Load replace the automaton wholesale; a Trie that has been
// published after either call is safe for concurrent readers.
type Trie[V any] struct {
	base   []int32
	check  []int32
	fail   []int32
	output [][]int32

	// l holds per-keyword lengths in code units, v the dictionary values.
	// v may be absent after a values-less load.
	l         []int32
	v         []V
	hasValues bool

	size       int
	ignoreCase bool
	built      bool
}

// New returns an empty Trie. When ignoreCase is set, keywords and input are
// folded before matching: ASCII letters by bit twiddling, everything else by
// the invariant single-unit lowercase mapping.
func New[V any](ignoreCase bool) *Trie[V] {
	return &Trie[V]{ignoreCase: ignoreCase}
}

// Build compiles the automaton from the given entries. Keyword indices are
// assigned from slice order; duplicate keys keep every index but exact-match
// lookups resolve to the largest one. Any previous automaton is discarded.
func (t *Trie[V]) Build(entries []Entry[V]) error {
	ignoreCase := t.ignoreCase
	*t = Trie[V]{ignoreCase: ignoreCase}
	return newBuilder(t).build(entries)
}

// Count returns the number of keywords in the dictionary.
func (t *Trie[V]) Count() int {
	return len(t.l)
}

// Size returns the logical length of the packed arrays.
func (t *Trie[V]) Size() int {
	return t.size
}

// IgnoreCase reports the case-folding policy the automaton was built with.
func (t *Trie[V]) IgnoreCase() bool {
	return t.ignoreCase
}

// transitionWithRoot resolves one transition on the packed arrays. The root
// swallows unmatched units by looping to itself; everywhere else a miss
// returns -1 and the caller follows the failure link.
func (t *Trie[V]) transitionWithRoot(s int32, c uint16) int32 {
	if len(t.base) == 0 {
		if s == 0 {
			return 0
		}
		return -1
	}
	b := t.base[s]
	p := b + int32(c) + 1
	if int(p) < len(t.check) && t.check[p] == b {
		return p
	}
	if s == 0 {
		return 0
	}
	return -1
}

// getState resolves a transition with failure chasing. Termination is
// guaranteed: each failure link strictly reduces depth and the root never
// reports a miss.
func (t *Trie[V]) getState(s int32, c uint16) int32 {
	next := t.transitionWithRoot(s, c)
	for next == -1 {
		s = t.fail[s]
		next = t.transitionWithRoot(s, c)
	}
	return next
}

// scan drives the automaton over units, delivering hits to pred in order of
// ascending end offset. A false return from pred stops the scan.
func (t *Trie[V]) scan(units []uint16, pred func(Hit[V]) bool) {
	if t.size == 0 {
		return
	}
	current := int32(0)
	position := int32(1)
	for _, c := range units {
		if t.ignoreCase {
			c = foldUnit(c)
		}
		current = t.getState(current, c)
		for _, k := range t.output[current] {
			h := Hit[V]{Begin: position - t.l[k], End: position, Index: k}
			if t.hasValues {
				h.Value = t.v[k]
			}
			if !pred(h) {
				return
			}
		}
		position++
	}
}

// ParseText scans text and returns every hit, ordered by end offset; hits
// ending at the same offset come out in output-table order.
func (t *Trie[V]) ParseText(text string) []Hit[V] {
	var hits []Hit[V]
	t.scan(encodeUnits(text), func(h Hit[V]) bool {
		hits = append(hits, h)
		return true
	})
	return hits
}

// ParseTextFunc scans text, invoking visit for every hit.
func (t *Trie[V]) ParseTextFunc(text string, visit func(Hit[V])) {
	t.scan(encodeUnits(text), func(h Hit[V]) bool {
		visit(h)
		return true
	})
}

// ParseTextUntil scans text, invoking pred for every hit. The scan stops as
// soon as pred returns false.
func (t *Trie[V]) ParseTextUntil(text string, pred func(Hit[V]) bool) {
	t.scan(encodeUnits(text), pred)
}

// ParseUnits scans length code units of units starting at start. Hit offsets
// are relative to start, not to the beginning of the buffer.
func (t *Trie[V]) ParseUnits(units []uint16, start, length int, pred func(Hit[V]) bool) {
	if start < 0 || length < 0 || start+length > len(units) {
		return
	}
	t.scan(units[start:start+length], pred)
}

// Matches reports whether any keyword occurs in text.
func (t *Trie[V]) Matches(text string) bool {
	found := false
	t.scan(encodeUnits(text), func(Hit[V]) bool {
		found = true
		return false
	})
	return found
}

// FindFirst returns the first hit in text, if any.
func (t *Trie[V]) FindFirst(text string) (Hit[V], bool) {
	var first Hit[V]
	found := false
	t.scan(encodeUnits(text), func(h Hit[V]) bool {
		first = h
		found = true
		return false
	})
	return first, found
}

// ExactMatch walks the double array for key and returns its keyword index,
// or -1 when key is not in the dictionary. For duplicate keys the largest
// index wins; that is the one the terminal slot encodes.
func (t *Trie[V]) ExactMatch(key string) int {
	if t.size == 0 {
		return -1
	}
	units := encodeUnits(key)
	if t.ignoreCase {
		foldUnits(units)
	}
	b := t.base[0]
	var p int32
	for _, c := range units {
		p = b + int32(c) + 1
		if int(p) >= len(t.check) || t.check[p] != b {
			return -1
		}
		b = t.base[p]
	}
	p = b
	if int(p) >= len(t.base) || p < 0 {
		return -1
	}
	if n := t.base[p]; t.check[p] == b && n < 0 {
		return int(-n - 1)
	}
	return -1
}

// Get returns the value stored for key. The second return is false when key
// is not in the dictionary; it is true with a zero value when the automaton
// was loaded without values.
func (t *Trie[V]) Get(key string) (V, bool) {
	var zero V
	i := t.ExactMatch(key)
	if i < 0 {
		return zero, false
	}
	if !t.hasValues {
		return zero, true
	}
	return t.v[i], true
}

// encodeUnits transcodes a string to UTF-16 code units.
func encodeUnits(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// foldUnit lowercases a single code unit: the ASCII fast path sets bit 0x20,
// anything else goes through the invariant single-unit mapping. Surrogate
// halves fold to themselves.
func foldUnit(c uint16) uint16 {
	if c >= 'A' && c <= 'Z' {
		return c | 0x20
	}
	if c < 0x80 {
		return c
	}
	return uint16(unicode.ToLower(rune(c)))
}

func foldUnits(units []uint16) {
	for i, c := range units {
		units[i] = foldUnit(c)
	}
}
