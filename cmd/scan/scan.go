package scan

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"unicode/utf16"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/endorses/datmatch/internal/pkg/ahocorasick"
	"github.com/endorses/datmatch/internal/pkg/cmdutil"
	"github.com/endorses/datmatch/internal/pkg/logger"
)

var ScanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Scan files or stdin for dictionary keywords",
	Long: `Scan input for dictionary keywords and report every hit. Files are
scanned concurrently; without file arguments stdin is scanned. With --pcap
the inputs are packet captures and the transport payloads are scanned.`,
	RunE: runScan,
}

var (
	dictPath      string
	automatonPath string
	storePath     string
	storeName     string
	ignoreCase    bool
	countOnly     bool
	pcapMode      bool
	maxHits       int
)

// match is one reported hit, tagged with where it came from.
type match struct {
	source string
	packet int
	hit    ahocorasick.Hit[string]
	text   string
}

func runScan(cmd *cobra.Command, args []string) error {
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

	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		matches := scanText(trie, "-", string(data))
		report(cmd.OutOrStdout(), matches)
		return nil
	}

	results := make([][]match, len(args))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, path := range args {
		g.Go(func() error {
			var (
				matches []match
				err     error
			)
			if pcapMode {
				matches, err = scanPcapFile(trie, path)
			} else {
				matches, err = scanFile(trie, path)
			}
			if err != nil {
				return err
			}
			results[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all []match
	for _, r := range results {
		all = append(all, r...)
	}
	report(cmd.OutOrStdout(), all)
	return nil
}

func scanFile(trie *ahocorasick.Trie[string], path string) ([]match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	logger.Debug("Scanning file", "path", path, "bytes", len(data))
	return scanText(trie, path, string(data)), nil
}

// scanText runs one scan and tags each hit with its source. The hit limit,
// when set, stops the scan mid-pass.
func scanText(trie *ahocorasick.Trie[string], source, text string) []match {
	units := utf16.Encode([]rune(text))
	var matches []match
	trie.ParseUnits(units, 0, len(units), func(h ahocorasick.Hit[string]) bool {
		matches = append(matches, match{
			source: source,
			packet: -1,
			hit:    h,
			text:   string(utf16.Decode(units[h.Begin:h.End])),
		})
		return maxHits <= 0 || len(matches) < maxHits
	})
	return matches
}

// reportMu serializes report calls so two tables never interleave.
var reportMu sync.Mutex

func report(w io.Writer, matches []match) {
	reportMu.Lock()
	defer reportMu.Unlock()

	if countOnly {
		counts := map[string]int{}
		var order []string
		for _, m := range matches {
			if _, seen := counts[m.source]; !seen {
				order = append(order, m.source)
			}
			counts[m.source]++
		}
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Source", "Hits"})
		for _, source := range order {
			tw.AppendRow(table.Row{source, counts[source]})
		}
		tw.Render()
		fmt.Fprintf(w, "%d hits total\n", len(matches))
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if pcapMode {
		tw.AppendHeader(table.Row{"Source", "Packet", "Begin", "End", "Match", "Value"})
	} else {
		tw.AppendHeader(table.Row{"Source", "Begin", "End", "Match", "Value"})
	}
	for _, m := range matches {
		if pcapMode {
			tw.AppendRow(table.Row{m.source, m.packet, m.hit.Begin, m.hit.End, m.text, m.hit.Value})
		} else {
			tw.AppendRow(table.Row{m.source, m.hit.Begin, m.hit.End, m.text, m.hit.Value})
		}
	}
	tw.Render()
}

func init() {
	ScanCmd.Flags().StringVarP(&dictPath, "dict", "d", "", "dictionary file to compile and scan with")
	ScanCmd.Flags().StringVarP(&automatonPath, "automaton", "a", "", "serialized automaton to scan with")
	ScanCmd.Flags().StringVar(&storePath, "store", "", "dictionary store to load from")
	ScanCmd.Flags().StringVar(&storeName, "name", "", "automaton name inside the dictionary store")
	ScanCmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "fold case (only with --dict)")
	ScanCmd.Flags().BoolVarP(&countOnly, "count", "c", false, "print hit counts instead of hits")
	ScanCmd.Flags().BoolVar(&pcapMode, "pcap", false, "treat inputs as pcap files and scan packet payloads")
	ScanCmd.Flags().IntVar(&maxHits, "max-hits", 0, "stop each scan after this many hits (0 = unlimited)")
}
