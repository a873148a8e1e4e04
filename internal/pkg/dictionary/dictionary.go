// Package dictionary loads keyword dictionaries from files. Two formats are
// supported: plain text (one keyword per line, optional tab-separated value)
// and YAML (a list of keywords or a keyword-to-value mapping). Entry order in
// the file is preserved, which pins down keyword indices and makes compiled
// automata reproducible.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/endorses/datmatch/internal/pkg/ahocorasick"
)

// maxLineSize bounds a single dictionary line; keywords can be long but not
// unbounded.
const maxLineSize = 1 << 20

// Load reads a dictionary file, dispatching on extension: .yaml/.yml parse
// as YAML, everything else as plain text.
func Load(path string) ([]ahocorasick.Entry[string], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return ParseText(f)
	}
}

// ParseText reads one keyword per line. A tab separates an optional value;
// without one the value is the keyword itself. Blank lines and lines starting
// with '#' are skipped.
func ParseText(r io.Reader) ([]ahocorasick.Entry[string], error) {
	var entries []ahocorasick.Entry[string]

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, hasValue := strings.Cut(line, "\t")
		if !hasValue {
			value = key
		}
		if key == "" {
			continue
		}
		entries = append(entries, ahocorasick.Entry[string]{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return entries, nil
}

// ParseYAML reads either a sequence of keywords or a keyword-to-value
// mapping. Decoding through yaml.Node keeps the document order of mapping
// keys, which a plain map would shuffle.
func ParseYAML(r io.Reader) ([]ahocorasick.Entry[string], error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse dictionary yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("parse dictionary yaml: unexpected document shape")
	}

	root := doc.Content[0]
	var entries []ahocorasick.Entry[string]
	switch root.Kind {
	case yaml.SequenceNode:
		for _, item := range root.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("parse dictionary yaml: line %d: expected scalar keyword", item.Line)
			}
			entries = append(entries, ahocorasick.Entry[string]{Key: item.Value, Value: item.Value})
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, value := root.Content[i], root.Content[i+1]
			if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("parse dictionary yaml: line %d: expected scalar pair", key.Line)
			}
			entries = append(entries, ahocorasick.Entry[string]{Key: key.Value, Value: value.Value})
		}
	default:
		return nil, fmt.Errorf("parse dictionary yaml: expected list or mapping")
	}
	return entries, nil
}
