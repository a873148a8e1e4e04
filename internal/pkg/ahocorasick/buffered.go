package ahocorasick

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/endorses/datmatch/internal/pkg/logger"
)

// BufferedMatcher wraps a Trie behind an atomic pointer so readers scan
// lock-free while replacement automata are compiled on the side. A built
// Trie is immutable, so an update never mutates what readers hold; it swaps
// in a whole new automaton, which is the required publication barrier.
type BufferedMatcher[V any] struct {
	trie atomic.Pointer[Trie[V]]

	// entries is the dictionary behind the current automaton, kept for
	// rebuilds.
	entries    []Entry[V]
	entriesMu  sync.RWMutex
	ignoreCase bool

	// buildMu serializes rebuilds; readers are never blocked by it.
	buildMu sync.Mutex

	lastBuildTime     atomic.Value // time.Time
	lastBuildDuration atomic.Value // time.Duration
}

// NewBufferedMatcher creates a BufferedMatcher with no automaton yet; scans
// emit nothing until the first successful Update.
func NewBufferedMatcher[V any](ignoreCase bool) *BufferedMatcher[V] {
	bm := &BufferedMatcher[V]{ignoreCase: ignoreCase}
	bm.lastBuildTime.Store(time.Time{})
	bm.lastBuildDuration.Store(time.Duration(0))
	return bm
}

// Update replaces the dictionary and compiles a new automaton before
// swapping it in. Readers keep scanning the old automaton until the swap.
func (bm *BufferedMatcher[V]) Update(entries []Entry[V]) error {
	bm.entriesMu.Lock()
	bm.entries = make([]Entry[V], len(entries))
	copy(bm.entries, entries)
	bm.entriesMu.Unlock()

	return bm.rebuild()
}

// UpdateAsync is Update with the compile pushed to a goroutine. Use it when
// the caller must not stall on large dictionaries.
func (bm *BufferedMatcher[V]) UpdateAsync(entries []Entry[V]) {
	bm.entriesMu.Lock()
	bm.entries = make([]Entry[V], len(entries))
	copy(bm.entries, entries)
	bm.entriesMu.Unlock()

	go func() {
		if err := bm.rebuild(); err != nil {
			logger.Error("Background automaton rebuild failed", "error", err)
		}
	}()
}

func (bm *BufferedMatcher[V]) rebuild() error {
	bm.buildMu.Lock()
	defer bm.buildMu.Unlock()

	bm.entriesMu.RLock()
	entries := make([]Entry[V], len(bm.entries))
	copy(entries, bm.entries)
	bm.entriesMu.RUnlock()

	if len(entries) == 0 {
		bm.trie.Store(nil)
		logger.Debug("Cleared automaton (empty dictionary)")
		return nil
	}

	start := time.Now()
	next := New[V](bm.ignoreCase)
	if err := next.Build(entries); err != nil {
		logger.Error("Failed to build automaton", "error", err, "keyword_count", len(entries))
		return err
	}
	elapsed := time.Since(start)

	bm.trie.Store(next)
	bm.lastBuildTime.Store(time.Now())
	bm.lastBuildDuration.Store(elapsed)

	logger.Info("Automaton rebuilt",
		"keyword_count", len(entries),
		"build_duration", elapsed,
		"array_size", next.Size())
	return nil
}

// Current returns the automaton readers should scan, or nil before the first
// successful Update and after an Update with an empty dictionary.
func (bm *BufferedMatcher[V]) Current() *Trie[V] {
	return bm.trie.Load()
}

// ParseText scans text with the current automaton.
func (bm *BufferedMatcher[V]) ParseText(text string) []Hit[V] {
	t := bm.trie.Load()
	if t == nil {
		return nil
	}
	return t.ParseText(text)
}

// Matches reports whether any keyword occurs in text.
func (bm *BufferedMatcher[V]) Matches(text string) bool {
	t := bm.trie.Load()
	return t != nil && t.Matches(text)
}

// Count returns the keyword count of the current automaton.
func (bm *BufferedMatcher[V]) Count() int {
	t := bm.trie.Load()
	if t == nil {
		return 0
	}
	return t.Count()
}

// LastBuild reports when the automaton was last rebuilt and how long the
// compile took.
func (bm *BufferedMatcher[V]) LastBuild() (time.Time, time.Duration) {
	return bm.lastBuildTime.Load().(time.Time), bm.lastBuildDuration.Load().(time.Duration)
}
