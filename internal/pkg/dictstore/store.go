// Package dictstore persists compiled automata in an embedded bbolt
// database. Each named dictionary holds the serialized automaton blob plus a
// JSON metadata record; both are written in one transaction, so a crash
// mid-write cannot leave a blob without its metadata.
package dictstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/endorses/datmatch/internal/pkg/ahocorasick"
)

var (
	bucketAutomata = []byte("automata")
	bucketMeta     = []byte("meta")
)

// ErrNotFound is returned when no dictionary with the given name exists.
var ErrNotFound = errors.New("dictstore: dictionary not found")

// Info describes one stored dictionary.
type Info struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Keywords   int       `json:"keywords"`
	ArraySize  int       `json:"array_size"`
	IgnoreCase bool      `json:"ignore_case"`
	StoredAt   time.Time `json:"stored_at"`
}

// Store is a bbolt-backed dictionary store.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) a store at the given path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("dictstore open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAutomata); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("dictstore init: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores the automaton under name, replacing any previous version.
func (s *Store) Put(name string, trie *ahocorasick.Trie[string]) error {
	var blob bytes.Buffer
	if err := trie.Save(&blob, true); err != nil {
		return fmt.Errorf("dictstore put %q: %w", name, err)
	}

	info := Info{
		ID:         uuid.NewString(),
		Name:       name,
		Keywords:   trie.Count(),
		ArraySize:  trie.Size(),
		IgnoreCase: trie.IgnoreCase(),
		StoredAt:   time.Now().UTC(),
	}
	metaJSON, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("dictstore put %q: %w", name, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketAutomata).Put([]byte(name), blob.Bytes()); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put([]byte(name), metaJSON)
	})
}

// Get loads the automaton stored under name.
func (s *Store) Get(name string) (*ahocorasick.Trie[string], error) {
	var blob []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketAutomata).Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		blob = make([]byte, len(v))
		copy(blob, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dictstore get %q: %w", name, err)
	}

	trie := ahocorasick.New[string](false)
	if err := trie.Load(bytes.NewReader(blob)); err != nil {
		return nil, fmt.Errorf("dictstore get %q: %w", name, err)
	}
	return trie, nil
}

// Meta returns the metadata record stored under name.
func (s *Store) Meta(name string) (Info, error) {
	var info Info
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &info)
	})
	if err != nil {
		return Info{}, fmt.Errorf("dictstore meta %q: %w", name, err)
	}
	return info, nil
}

// List returns metadata for every stored dictionary, in name order.
func (s *Store) List() ([]Info, error) {
	var infos []Info
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).ForEach(func(_, v []byte) error {
			var info Info
			if err := json.Unmarshal(v, &info); err != nil {
				return err
			}
			infos = append(infos, info)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("dictstore list: %w", err)
	}
	return infos, nil
}

// Delete removes the dictionary stored under name.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketAutomata).Get([]byte(name)) == nil {
			return ErrNotFound
		}
		if err := tx.Bucket(bucketAutomata).Delete([]byte(name)); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Delete([]byte(name))
	})
}
