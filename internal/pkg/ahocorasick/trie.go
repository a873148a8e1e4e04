package ahocorasick

import "sort"

// buildState is a node in the transient keyword tree. The tree only exists
// while Build runs; once the states are packed into the double array and the
// failure links are compiled, the whole tree is released.
type buildState struct {
	// depth is the length of the path from the root (root = 0).
	depth int

	// units and children hold the outgoing transitions, ordered by code
	// unit. Deterministic sibling order is what makes packing reproducible:
	// two builds over the same dictionary yield byte-identical arrays.
	units    []uint16
	children []*buildState

	// emits holds the keyword indices accepted at this state, largest first.
	// While packing it is non-empty only at keyword terminals; duplicates of
	// the same keyword all land here. Failure compilation then merges in the
	// emits inherited through failure links.
	emits []int32

	// largestEmit is the largest index in emits, or -1. It is the one index
	// a terminal slot can carry in its negative base encoding.
	largestEmit int32

	// index is the slot assigned to this state by the packer.
	index int
}

func newBuildState(depth int) *buildState {
	return &buildState{depth: depth, largestEmit: -1}
}

// child returns the state reached on unit c, or nil.
func (s *buildState) child(c uint16) *buildState {
	i := sort.Search(len(s.units), func(i int) bool { return s.units[i] >= c })
	if i < len(s.units) && s.units[i] == c {
		return s.children[i]
	}
	return nil
}

// ensureChild returns the state reached on unit c, creating it if needed.
func (s *buildState) ensureChild(c uint16) *buildState {
	i := sort.Search(len(s.units), func(i int) bool { return s.units[i] >= c })
	if i < len(s.units) && s.units[i] == c {
		return s.children[i]
	}
	next := newBuildState(s.depth + 1)
	s.units = append(s.units, 0)
	copy(s.units[i+1:], s.units[i:])
	s.units[i] = c
	s.children = append(s.children, nil)
	copy(s.children[i+1:], s.children[i:])
	s.children[i] = next
	return next
}

// addEmit records keyword index k at this state. Emits are kept sorted in
// descending order without duplicates; the first element is the one reported
// first during scans and the one encoded into a terminal slot.
func (s *buildState) addEmit(k int32) {
	if k > s.largestEmit {
		s.largestEmit = k
	}
	i := sort.Search(len(s.emits), func(i int) bool { return s.emits[i] <= k })
	if i < len(s.emits) && s.emits[i] == k {
		return
	}
	s.emits = append(s.emits, 0)
	copy(s.emits[i+1:], s.emits[i:])
	s.emits[i] = k
}

// mergeEmits folds another state's emit set into this one, preserving the
// descending order. Used when failure links inherit suffix matches.
func (s *buildState) mergeEmits(other []int32) {
	for _, k := range other {
		s.addEmit(k)
	}
}

// accepting reports whether at least one keyword terminates here.
func (s *buildState) accepting() bool {
	return len(s.emits) > 0
}
