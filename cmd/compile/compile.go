package compile

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/endorses/datmatch/internal/pkg/ahocorasick"
	"github.com/endorses/datmatch/internal/pkg/dictionary"
	"github.com/endorses/datmatch/internal/pkg/dictstore"
	"github.com/endorses/datmatch/internal/pkg/logger"
)

var CompileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a keyword dictionary into an automaton",
	Long: `Compile a keyword dictionary into a double-array Aho-Corasick automaton
and write it to a file or into a dictionary store.`,
	RunE: runCompile,
}

var (
	dictPath   string
	outPath    string
	storePath  string
	storeName  string
	ignoreCase bool
	noValues   bool
)

func runCompile(cmd *cobra.Command, args []string) error {
	entries, err := dictionary.Load(dictPath)
	if err != nil {
		return err
	}

	trie := ahocorasick.New[string](ignoreCase)
	if err := trie.Build(entries); err != nil {
		return fmt.Errorf("build automaton: %w", err)
	}
	logger.Info("Compiled dictionary",
		"path", dictPath,
		"keywords", trie.Count(),
		"array_size", trie.Size(),
		"ignore_case", ignoreCase)

	if storeName != "" {
		if storePath == "" {
			return fmt.Errorf("--name requires --store")
		}
		store, err := dictstore.Open(storePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Put(storeName, trie); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %q (%d keywords) in %s\n", storeName, trie.Count(), storePath)
		return nil
	}

	if outPath == "" {
		return fmt.Errorf("either --out or --store with --name is required")
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	if err := trie.Save(f, !noValues); err != nil {
		return fmt.Errorf("save automaton: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d keywords)\n", outPath, trie.Count())
	return nil
}

func init() {
	CompileCmd.Flags().StringVarP(&dictPath, "dict", "d", "", "dictionary file (text or yaml)")
	CompileCmd.Flags().StringVarP(&outPath, "out", "o", "", "output automaton file")
	CompileCmd.Flags().StringVar(&storePath, "store", "", "dictionary store to write into")
	CompileCmd.Flags().StringVar(&storeName, "name", "", "name inside the dictionary store")
	CompileCmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "fold case at build and scan time")
	CompileCmd.Flags().BoolVar(&noValues, "no-values", false, "do not serialize keyword values")
	CompileCmd.MarkFlagRequired("dict")
}
