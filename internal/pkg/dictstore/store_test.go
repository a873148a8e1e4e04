package dictstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorses/datmatch/internal/pkg/ahocorasick"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dict.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func buildTestTrie(t *testing.T, keys ...string) *ahocorasick.Trie[string] {
	t.Helper()
	entries := make([]ahocorasick.Entry[string], len(keys))
	for i, k := range keys {
		entries[i] = ahocorasick.Entry[string]{Key: k, Value: k}
	}
	trie := ahocorasick.New[string](false)
	require.NoError(t, trie.Build(entries))
	return trie
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	trie := buildTestTrie(t, "he", "she", "hers")

	require.NoError(t, s.Put("terms", trie))

	loaded, err := s.Get("terms")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Count())
	assert.Equal(t, trie.ParseText("ushers"), loaded.ParseText("ushers"))
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Meta("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Meta(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("terms", buildTestTrie(t, "a", "b")))

	info, err := s.Meta("terms")
	require.NoError(t, err)
	assert.Equal(t, "terms", info.Name)
	assert.Equal(t, 2, info.Keywords)
	assert.NotEmpty(t, info.ID)
	assert.False(t, info.StoredAt.IsZero())
	assert.Positive(t, info.ArraySize)
}

func TestStore_PutReplaces(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("terms", buildTestTrie(t, "one")))
	first, err := s.Meta("terms")
	require.NoError(t, err)

	require.NoError(t, s.Put("terms", buildTestTrie(t, "one", "two")))
	second, err := s.Meta("terms")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Keywords)
}

func TestStore_ListAndDelete(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("alpha", buildTestTrie(t, "a")))
	require.NoError(t, s.Put("beta", buildTestTrie(t, "b")))

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "beta", infos[1].Name)

	require.NoError(t, s.Delete("alpha"))
	infos, err = s.List()
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	assert.ErrorIs(t, s.Delete("alpha"), ErrNotFound)
}
