// Package cmdutil holds helpers shared by the CLI commands.
package cmdutil

import (
	"fmt"
	"os"

	"github.com/endorses/datmatch/internal/pkg/ahocorasick"
	"github.com/endorses/datmatch/internal/pkg/dictionary"
	"github.com/endorses/datmatch/internal/pkg/dictstore"
	"github.com/endorses/datmatch/internal/pkg/logger"
)

// AutomatonSource names the ways a command can obtain an automaton: compile
// a dictionary file on the fly, load a serialized automaton, or fetch one
// from a store.
type AutomatonSource struct {
	DictPath      string
	AutomatonPath string
	StorePath     string
	StoreName     string
	IgnoreCase    bool
}

// Resolve produces an automaton from whichever source is set. Exactly one of
// the three must be given.
func (src AutomatonSource) Resolve() (*ahocorasick.Trie[string], error) {
	set := 0
	for _, s := range []string{src.DictPath, src.AutomatonPath, src.StoreName} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of --dict, --automaton or --name must be given")
	}

	switch {
	case src.DictPath != "":
		entries, err := dictionary.Load(src.DictPath)
		if err != nil {
			return nil, err
		}
		trie := ahocorasick.New[string](src.IgnoreCase)
		if err := trie.Build(entries); err != nil {
			return nil, fmt.Errorf("build automaton: %w", err)
		}
		logger.Debug("Compiled dictionary", "path", src.DictPath, "keywords", trie.Count())
		return trie, nil

	case src.AutomatonPath != "":
		f, err := os.Open(src.AutomatonPath)
		if err != nil {
			return nil, fmt.Errorf("open automaton: %w", err)
		}
		defer f.Close()
		trie := ahocorasick.New[string](false)
		if err := trie.Load(f); err != nil {
			return nil, fmt.Errorf("load automaton: %w", err)
		}
		return trie, nil

	default:
		if src.StorePath == "" {
			return nil, fmt.Errorf("--name requires --store")
		}
		store, err := dictstore.Open(src.StorePath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Get(src.StoreName)
	}
}
