package watch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/endorses/datmatch/internal/pkg/ahocorasick"
	"github.com/endorses/datmatch/internal/pkg/dictionary"
	"github.com/endorses/datmatch/internal/pkg/logger"
)

var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scan stdin lines, reloading the dictionary when it changes",
	Long: `Read lines from stdin and print every keyword hit. The dictionary file
is watched; edits swap in a freshly compiled automaton without interrupting
the stream.`,
	RunE: runWatch,
}

var (
	dictPath   string
	ignoreCase bool
)

func runWatch(cmd *cobra.Command, args []string) error {
	matcher := ahocorasick.NewBufferedMatcher[string](ignoreCase)
	if err := reload(matcher); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and
	// the inode-level watch would go stale.
	if err := watcher.Add(filepath.Dir(dictPath)); err != nil {
		return fmt.Errorf("watch %s: %w", dictPath, err)
	}

	go watchLoop(watcher, matcher)

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		for _, h := range matcher.ParseText(line) {
			fmt.Fprintf(out, "%d:%d\t%s\n", h.Begin, h.End, h.Value)
		}
	}
	return scanner.Err()
}

func watchLoop(watcher *fsnotify.Watcher, matcher *ahocorasick.BufferedMatcher[string]) {
	target := filepath.Clean(dictPath)

	// Editors often fire several events per save; collapse bursts.
	var lastReload time.Time
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastReload) < debounceInterval {
				continue
			}
			lastReload = time.Now()
			if err := reload(matcher); err != nil {
				logger.Error("Dictionary reload failed", "path", dictPath, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("Watcher error", "error", err)
		}
	}
}

func reload(matcher *ahocorasick.BufferedMatcher[string]) error {
	entries, err := dictionary.Load(dictPath)
	if err != nil {
		return err
	}
	if err := matcher.Update(entries); err != nil {
		return err
	}
	logger.Info("Dictionary loaded", "path", dictPath, "keywords", len(entries))
	return nil
}

func init() {
	WatchCmd.Flags().StringVarP(&dictPath, "dict", "d", "", "dictionary file to watch")
	WatchCmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "fold case")
	WatchCmd.MarkFlagRequired("dict")
}
