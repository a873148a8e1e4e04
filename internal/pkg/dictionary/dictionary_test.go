package dictionary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorses/datmatch/internal/pkg/ahocorasick"
)

func TestParseText(t *testing.T) {
	input := strings.Join([]string{
		"# sensitive terms",
		"",
		"foo",
		"bar\tBAR-VALUE",
		"baz qux",
	}, "\n")

	entries, err := ParseText(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []ahocorasick.Entry[string]{
		{Key: "foo", Value: "foo"},
		{Key: "bar", Value: "BAR-VALUE"},
		{Key: "baz qux", Value: "baz qux"},
	}, entries)
}

func TestParseYAML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []ahocorasick.Entry[string]
	}{
		{
			name:  "sequence",
			input: "- he\n- she\n- hers\n",
			want: []ahocorasick.Entry[string]{
				{Key: "he", Value: "he"},
				{Key: "she", Value: "she"},
				{Key: "hers", Value: "hers"},
			},
		},
		{
			name:  "mapping keeps document order",
			input: "zulu: 1\nalpha: 2\nmike: 3\n",
			want: []ahocorasick.Entry[string]{
				{Key: "zulu", Value: "1"},
				{Key: "alpha", Value: "2"},
				{Key: "mike", Value: "3"},
			},
		},
		{
			name:  "empty document",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ParseYAML(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, entries)
		})
	}
}

func TestParseYAML_Invalid(t *testing.T) {
	_, err := ParseYAML(strings.NewReader("just a scalar"))
	assert.Error(t, err)

	_, err = ParseYAML(strings.NewReader("- [nested, list]\n"))
	assert.Error(t, err)
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	textPath := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("foo\nbar\n"), 0o644))
	yamlPath := filepath.Join(dir, "words.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("foo: 1\nbar: 2\n"), 0o644))

	fromText, err := Load(textPath)
	require.NoError(t, err)
	assert.Len(t, fromText, 2)
	assert.Equal(t, "foo", fromText[0].Value)

	fromYAML, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Len(t, fromYAML, 2)
	assert.Equal(t, "1", fromYAML[0].Value)

	_, err = Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
