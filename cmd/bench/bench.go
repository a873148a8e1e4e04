package bench

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/endorses/datmatch/internal/pkg/ahocorasick"
	"github.com/endorses/datmatch/internal/pkg/dictionary"
)

var BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure build and scan performance for a dictionary",
	RunE:  runBench,
}

var (
	dictPath    string
	inputPath   string
	iterations  int
	ignoreCase  bool
	profileMode bool
)

func runBench(cmd *cobra.Command, args []string) error {
	if profileMode {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	entries, err := dictionary.Load(dictPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	input := string(data)

	buildStart := time.Now()
	trie := ahocorasick.New[string](ignoreCase)
	if err := trie.Build(entries); err != nil {
		return fmt.Errorf("build automaton: %w", err)
	}
	buildTime := time.Since(buildStart)

	durations := make([]float64, iterations)
	hits := 0
	for i := 0; i < iterations; i++ {
		hits = 0
		start := time.Now()
		trie.ParseTextUntil(input, func(ahocorasick.Hit[string]) bool {
			hits++
			return true
		})
		durations[i] = float64(time.Since(start).Microseconds())
	}
	sort.Float64s(durations)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "keywords:    %d\n", trie.Count())
	fmt.Fprintf(out, "array size:  %d\n", trie.Size())
	fmt.Fprintf(out, "build time:  %s\n", buildTime)
	fmt.Fprintf(out, "input size:  %d bytes, %d hits per pass\n", len(data), hits)
	fmt.Fprintf(out, "scan mean:   %.1fµs\n", stat.Mean(durations, nil))
	fmt.Fprintf(out, "scan p50:    %.1fµs\n", stat.Quantile(0.50, stat.Empirical, durations, nil))
	fmt.Fprintf(out, "scan p95:    %.1fµs\n", stat.Quantile(0.95, stat.Empirical, durations, nil))
	fmt.Fprintf(out, "scan p99:    %.1fµs\n", stat.Quantile(0.99, stat.Empirical, durations, nil))
	return nil
}

func init() {
	BenchCmd.Flags().StringVarP(&dictPath, "dict", "d", "", "dictionary file")
	BenchCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input file to scan")
	BenchCmd.Flags().IntVarP(&iterations, "iterations", "n", 100, "number of scan passes")
	BenchCmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "fold case")
	BenchCmd.Flags().BoolVar(&profileMode, "profile", false, "write a CPU profile to the current directory")
	BenchCmd.MarkFlagRequired("dict")
	BenchCmd.MarkFlagRequired("input")
}
