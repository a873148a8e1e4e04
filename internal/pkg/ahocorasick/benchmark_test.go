package ahocorasick

import (
	"fmt"
	"strings"
	"testing"
)

func benchmarkEntries(n int) []Entry[string] {
	entries := make([]Entry[string], n)
	for i := range entries {
		k := fmt.Sprintf("kw%04d", i)
		entries[i] = Entry[string]{Key: k, Value: k}
	}
	return entries
}

func benchmarkInput() string {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		sb.WriteString("some filler text kw0042 more filler kw0999 and on ")
	}
	return sb.String()
}

func BenchmarkBuild(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		entries := benchmarkEntries(n)
		b.Run(fmt.Sprintf("keywords_%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				trie := New[string](false)
				if err := trie.Build(entries); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkParseText(b *testing.B) {
	trie := New[string](false)
	if err := trie.Build(benchmarkEntries(1000)); err != nil {
		b.Fatal(err)
	}
	input := benchmarkInput()
	b.SetBytes(int64(len(input)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		count := 0
		trie.ParseTextUntil(input, func(Hit[string]) bool {
			count++
			return true
		})
		if count == 0 {
			b.Fatal("expected hits")
		}
	}
}

func BenchmarkExactMatch(b *testing.B) {
	entries := benchmarkEntries(10000)
	trie := New[string](false)
	if err := trie.Build(entries); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if trie.ExactMatch(entries[i%len(entries)].Key) < 0 {
			b.Fatal("miss")
		}
	}
}
