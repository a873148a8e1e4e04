package lookup

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/endorses/datmatch/internal/pkg/cmdutil"
)

var LookupCmd = &cobra.Command{
	Use:   "lookup key [key...]",
	Short: "Exact-match keys against a dictionary",
	Long: `Walk the double array for each key and print its keyword index and
value. Keys not in the dictionary print as absent.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

var (
	dictPath      string
	automatonPath string
	storePath     string
	storeName     string
	ignoreCase    bool
)

func runLookup(cmd *cobra.Command, args []string) error {
	trie, err := cmdutil.AutomatonSource{
		DictPath:      dictPath,
		AutomatonPath: automatonPath,
		StorePath:     storePath,
		StoreName:     storeName,
		IgnoreCase:    ignoreCase,
	}.Resolve()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, key := range args {
		idx := trie.ExactMatch(key)
		if idx < 0 {
			fmt.Fprintf(out, "%s\tabsent\n", key)
			continue
		}
		value, _ := trie.Get(key)
		fmt.Fprintf(out, "%s\t%d\t%s\n", key, idx, value)
	}
	return nil
}

func init() {
	LookupCmd.Flags().StringVarP(&dictPath, "dict", "d", "", "dictionary file to compile")
	LookupCmd.Flags().StringVarP(&automatonPath, "automaton", "a", "", "serialized automaton")
	LookupCmd.Flags().StringVar(&storePath, "store", "", "dictionary store to load from")
	LookupCmd.Flags().StringVar(&storeName, "name", "", "automaton name inside the dictionary store")
	LookupCmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "fold case (only with --dict)")
}
