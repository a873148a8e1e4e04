package ahocorasick

import (
	"bufio"
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrie_SaveLoadRoundTrip(t *testing.T) {
	trie := New[string](false)
	require.NoError(t, trie.Build(entriesFromKeys("hers", "his", "she", "he")))

	var buf bytes.Buffer
	require.NoError(t, trie.Save(&buf, true))

	loaded := New[string](false)
	require.NoError(t, loaded.Load(bytes.NewReader(buf.Bytes())))

	assert.Equal(t, trie.Count(), loaded.Count())
	assert.Equal(t, trie.Size(), loaded.Size())
	assert.Equal(t, trie.base, loaded.base)
	assert.Equal(t, trie.check, loaded.check)
	assert.Equal(t, trie.fail, loaded.fail)
	assert.Equal(t, trie.output, loaded.output)
	assert.Equal(t, trie.l, loaded.l)
	assert.Equal(t, trie.v, loaded.v)

	for _, input := range []string{"uhers", "ushers", "nothing", ""} {
		assert.Equal(t, trie.ParseText(input), loaded.ParseText(input), "input %q", input)
	}
	assert.Equal(t, 3, loaded.ExactMatch("he"))
}

func TestTrie_SaveLoadIgnoreCase(t *testing.T) {
	trie := New[int](true)
	require.NoError(t, trie.Build([]Entry[int]{
		{Key: "doLor", Value: 0},
		{Key: "iT", Value: 1},
	}))

	var buf bytes.Buffer
	require.NoError(t, trie.Save(&buf, true))

	loaded := New[int](false)
	require.NoError(t, loaded.Load(&buf))

	assert.True(t, loaded.IgnoreCase())
	assert.Equal(t, []int{0, 1, 1, 0}, hitValues(loaded.ParseText(loremText)))
}

func TestTrie_SaveWithoutValues(t *testing.T) {
	trie := New[string](false)
	require.NoError(t, trie.Build(entriesFromKeys("alpha", "beta")))

	var buf bytes.Buffer
	require.NoError(t, trie.Save(&buf, false))

	loaded := New[string](false)
	require.NoError(t, loaded.Load(bytes.NewReader(buf.Bytes())))

	// Structure survives; values come back as zero values.
	hits := loaded.ParseText("alpha and beta")
	require.Len(t, hits, 2)
	assert.Equal(t, []string{"", ""}, hitValues(hits))
	assert.Equal(t, 0, loaded.ExactMatch("alpha"))

	// A value handler reconstructs the table element by element.
	keys := []string{"alpha", "beta"}
	restored := New[string](false)
	require.NoError(t, restored.LoadWithValues(bytes.NewReader(buf.Bytes()), func(i int) string {
		return keys[i]
	}))
	assert.Equal(t, []string{"alpha", "beta"}, hitValues(restored.ParseText("alpha and beta")))
}

func TestTrie_SaveDeterministic(t *testing.T) {
	build := func() []byte {
		trie := New[string](false)
		require.NoError(t, trie.Build(entriesFromKeys("he", "she", "his", "hers", "平和")))
		var buf bytes.Buffer
		require.NoError(t, trie.Save(&buf, true))
		return buf.Bytes()
	}
	assert.Equal(t, build(), build())
}

func TestTrie_SaveValueTypes(t *testing.T) {
	tests := []struct {
		name   string
		values []any
	}{
		{"bool", []any{true, false}},
		{"integers", []any{int8(-1), uint8(2), int16(-3), uint16(4)}},
		{"wide integers", []any{int32(-5), uint32(6), int64(-7), uint64(8)}},
		{"floats", []any{float32(1.5), float64(-2.25)}},
		{"strings", []any{"x", "länger"}},
		{"timestamps", []any{time.Unix(0, 1700000000000000000), time.Unix(0, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := make([]Entry[any], len(tt.values))
			for i, v := range tt.values {
				entries[i] = Entry[any]{Key: string(rune('a' + i)), Value: v}
			}
			trie := New[any](false)
			require.NoError(t, trie.Build(entries))

			var buf bytes.Buffer
			require.NoError(t, trie.Save(&buf, true))

			loaded := New[any](false)
			require.NoError(t, loaded.Load(&buf))
			for i, v := range tt.values {
				got, ok := loaded.Get(entries[i].Key)
				require.True(t, ok)
				if want, isTime := v.(time.Time); isTime {
					assert.True(t, want.Equal(got.(time.Time)))
				} else {
					assert.Equal(t, v, got)
				}
			}
		})
	}
}

func TestTrie_SaveUnsupportedValueType(t *testing.T) {
	type opaque struct{ n int }

	trie := New[opaque](false)
	require.NoError(t, trie.Build([]Entry[opaque]{{Key: "k", Value: opaque{1}}}))

	var buf bytes.Buffer
	err := trie.Save(&buf, true)
	assert.ErrorIs(t, err, ErrUnsupportedValueType)

	// The same dictionary still saves fine without values.
	buf.Reset()
	require.NoError(t, trie.Save(&buf, false))
}

func TestTrie_SaveNotBuilt(t *testing.T) {
	var trie Trie[string]
	var buf bytes.Buffer
	assert.ErrorIs(t, trie.Save(&buf, true), ErrNotBuilt)
}

func TestTrie_LoadCorruptStream(t *testing.T) {
	trie := New[string](false)
	require.NoError(t, trie.Build(entriesFromKeys("he", "she")))

	var buf bytes.Buffer
	require.NoError(t, trie.Save(&buf, true))
	full := buf.Bytes()

	t.Run("empty stream", func(t *testing.T) {
		loaded := New[string](false)
		assert.ErrorIs(t, loaded.Load(bytes.NewReader(nil)), ErrCorruptStream)
	})

	t.Run("truncated", func(t *testing.T) {
		for _, cut := range []int{1, 5, len(full) / 2, len(full) - 1} {
			loaded := New[string](false)
			err := loaded.Load(bytes.NewReader(full[:cut]))
			assert.ErrorIs(t, err, ErrCorruptStream, "cut at %d", cut)
		}
	})

	t.Run("unterminated varint", func(t *testing.T) {
		loaded := New[string](false)
		stream := []byte{1, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
		assert.ErrorIs(t, loaded.Load(bytes.NewReader(stream)), ErrCorruptStream)
	})

	t.Run("value type mismatch", func(t *testing.T) {
		loaded := New[time.Time](false)
		err := loaded.Load(bytes.NewReader(full))
		assert.ErrorIs(t, err, ErrCorruptStream)
	})
}

func TestTrie_LoadEmptyDictionary(t *testing.T) {
	trie := New[string](false)
	require.NoError(t, trie.Build(nil))

	var buf bytes.Buffer
	require.NoError(t, trie.Save(&buf, true))

	loaded := New[string](false)
	require.NoError(t, loaded.Load(&buf))
	assert.Zero(t, loaded.Count())
	assert.Empty(t, loaded.ParseText("still nothing"))
}

func TestVarintRoundTrip(t *testing.T) {
	values := []int32{0, 1, 127, 128, 300, 1<<20 - 1, 1 << 28, -1, -128, -1 << 30}

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	for _, v := range values {
		writeVarint(bw, v)
	}
	require.NoError(t, bw.Flush())

	br := bufio.NewReader(&buf)
	for _, want := range values {
		got, err := readVarint(br)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
