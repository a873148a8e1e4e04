package ahocorasick

import (
	"fmt"
	"math"
)

// maxAllocSize caps double-array growth at 95% of the int32 index space.
// Running into it means the dictionary cannot be packed and the build fails.
const maxAllocSize = math.MaxInt32 / 100 * 95

// headroom is the padding appended past the last occupied slot so the scan
// loop can compute base[s]+c+1 for any 16-bit unit without overrunning the
// arrays.
const headroom = 0x10000 - 1

// sibling is one entry of an ordered sibling group handed to the packer.
// key is the code unit shifted by one; key 0 is the synthetic leaf that marks
// an accepting parent and carries its largest emit.
type sibling struct {
	key   int
	state *buildState
}

// siblingGroup is a packer work item: an ordered sibling list waiting for a
// begin slot, together with the parent slot whose base receives it.
type siblingGroup struct {
	parent   int
	siblings []sibling
}

// builder packs the transient keyword tree into the double-array form and
// compiles the failure and output tables. It is discarded when Build returns.
type builder[V any] struct {
	trie *Trie[V]

	root *buildState

	base  []int32
	check []int32
	used  []bool

	allocSize    int
	size         int
	keySize      int
	progress     int
	nextCheckPos int

	queue []siblingGroup
}

func newBuilder[V any](t *Trie[V]) *builder[V] {
	return &builder[V]{trie: t, root: newBuildState(0)}
}

// build runs the full pipeline: keyword tree, slot allocation, failure and
// output compilation, then the final copy into right-sized arrays.
func (b *builder[V]) build(entries []Entry[V]) error {
	t := b.trie

	t.l = make([]int32, len(entries))
	t.v = make([]V, len(entries))
	t.hasValues = true

	totalUnits := 0
	for i, e := range entries {
		units := encodeUnits(e.Key)
		if t.ignoreCase {
			foldUnits(units)
		}
		s := b.root
		for _, c := range units {
			s = s.ensureChild(c)
		}
		s.addEmit(int32(i))
		t.l[i] = int32(len(units))
		t.v[i] = e.Value
		totalUnits += len(units)
	}

	if err := b.packDoubleArray(len(entries), totalUnits); err != nil {
		return err
	}
	b.compileFailures()
	b.loseWeight()

	b.root = nil
	b.used = nil
	t.built = true
	return nil
}

// packDoubleArray maps every tree state to a slot, breadth-first over sibling
// groups. A hand-rolled work queue keeps the depth bounded no matter how long
// the common prefixes run.
func (b *builder[V]) packDoubleArray(keySize, totalUnits int) error {
	b.keySize = keySize
	if err := b.resize(0x10000 + 2*totalUnits + 1); err != nil {
		return err
	}
	b.base[0] = 1
	b.nextCheckPos = 0

	if sibs := fetch(b.root); len(sibs) > 0 {
		b.queue = append(b.queue, siblingGroup{parent: 0, siblings: sibs})
	}
	for len(b.queue) > 0 {
		group := b.queue[0]
		b.queue = b.queue[1:]
		if err := b.insert(group); err != nil {
			return err
		}
	}
	return nil
}

// fetch collects the ordered sibling group of parent. When parent accepts, a
// synthetic leaf with key 0 is prepended; its slot will carry the parent's
// largest emit as a negative base, which is what exact-match lookups read.
func fetch(parent *buildState) []sibling {
	var sibs []sibling
	if parent.accepting() {
		leaf := newBuildState(parent.depth + 1)
		leaf.largestEmit = parent.largestEmit
		sibs = append(sibs, sibling{key: 0, state: leaf})
	}
	for i, c := range parent.units {
		sibs = append(sibs, sibling{key: int(c) + 1, state: parent.children[i]})
	}
	return sibs
}

// insert finds a begin slot for one sibling group such that every slot
// begin+key is free and begin itself has not been handed out as a base value
// before, then commits the group.
func (b *builder[V]) insert(group siblingGroup) error {
	sibs := group.siblings
	firstKey := sibs[0].key
	lastKey := sibs[len(sibs)-1].key

	begin := 0
	pos := max(firstKey+1, b.nextCheckPos) - 1
	nonzero := 0
	first := true

	if b.allocSize <= pos {
		if err := b.resize(pos + 1); err != nil {
			return err
		}
	}

outer:
	for {
		pos++
		if b.allocSize <= pos {
			if err := b.resize(pos + 1); err != nil {
				return err
			}
		}
		if b.check[pos] != 0 {
			nonzero++
			continue
		}
		if first {
			b.nextCheckPos = pos
			first = false
		}

		begin = pos - firstKey
		if b.allocSize <= begin+lastKey {
			factor := max(1.05, float64(b.keySize)/float64(b.progress+1))
			grown := max(int(float64(b.allocSize)*factor), begin+lastKey+1)
			if err := b.resize(grown); err != nil {
				return err
			}
		}
		if b.used[begin] {
			continue
		}
		for _, s := range sibs[1:] {
			if b.check[begin+s.key] != 0 {
				continue outer
			}
		}
		break
	}

	// Dense-region heuristic: when 95% of the scanned window is occupied,
	// future searches start past it.
	if float64(nonzero)/float64(pos-b.nextCheckPos+1) >= 0.95 {
		b.nextCheckPos = pos
	}
	b.used[begin] = true
	if end := begin + lastKey + 1; end > b.size {
		b.size = end
	}

	for _, s := range sibs {
		b.check[begin+s.key] = int32(begin)
	}
	for _, s := range sibs {
		s.state.index = begin + s.key
		if next := fetch(s.state); len(next) == 0 {
			b.base[s.state.index] = -s.state.largestEmit - 1
			b.progress++
		} else {
			b.queue = append(b.queue, siblingGroup{parent: s.state.index, siblings: next})
		}
	}
	b.base[group.parent] = int32(begin)
	return nil
}

func (b *builder[V]) resize(n int) error {
	if n > maxAllocSize {
		return fmt.Errorf("%w: need %d slots", ErrCapacityExceeded, n)
	}
	base := make([]int32, n)
	check := make([]int32, n)
	used := make([]bool, n)
	copy(base, b.base)
	copy(check, b.check)
	copy(used, b.used)
	b.base = base
	b.check = check
	b.used = used
	b.allocSize = n
	return nil
}

// compileFailures walks the tree breadth-first and fills fail and output.
// Transitions are resolved against the freshly packed arrays, so the failure
// chase here exercises the same code path the scanner uses.
func (b *builder[V]) compileFailures() {
	t := b.trie
	t.base = b.base
	t.check = b.check
	t.size = b.size
	t.fail = make([]int32, b.size+1)
	t.output = make([][]int32, b.size+1)

	queue := make([]*buildState, 0, len(b.root.children))
	for _, depthOne := range b.root.children {
		t.fail[depthOne.index] = 0
		if depthOne.accepting() {
			t.output[depthOne.index] = depthOne.emits
		}
		queue = append(queue, depthOne)
	}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for i, c := range parent.units {
			target := parent.children[i]
			queue = append(queue, target)

			fp := t.fail[parent.index]
			for t.transitionWithRoot(fp, c) == -1 {
				fp = t.fail[fp]
			}
			failTo := t.transitionWithRoot(fp, c)
			t.fail[target.index] = failTo
			target.mergeEmits(t.output[failTo])
			if target.accepting() {
				t.output[target.index] = target.emits
			}
		}
	}
}

// loseWeight trims base and check to the occupied prefix plus the fixed
// headroom the scanner relies on.
func (b *builder[V]) loseWeight() {
	t := b.trie
	base := make([]int32, b.size+headroom)
	check := make([]int32, b.size+headroom)
	copy(base, b.base[:min(b.size, len(b.base))])
	copy(check, b.check[:min(b.size, len(b.check))])
	if b.size == 0 {
		base[0] = b.base[0]
	}
	t.base = base
	t.check = check
}
