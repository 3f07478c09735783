// Package mapcache persists register map documents across reconnects,
// keyed by device UUID.
//
// Storage is one plain text file per UUID, <uuid>.csv, holding the map
// text byte-for-byte as transferred. Loading a cached map is therefore
// equivalent to re-parsing a freshly transferred one. The directory is
// caller-owned; nothing else in the library touches the filesystem.
package mapcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/minimb/go-regmap/regmap"
)

// ErrMiss signals that no usable cached map exists for a UUID. It is a
// control-flow signal, not a failure: the caller falls back to a live
// transfer. Corrupt or unreadable cache files are reported as ErrMiss too.
var ErrMiss = errors.New("map cache miss")

// Store is a UUID-keyed cache of register map documents in a single
// directory. Concurrent loads are safe; concurrent saves are serialized,
// last writer wins.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a Store over the given directory. The directory is created
// on the first save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the cache file path for a UUID.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".csv")
}

// Load retrieves and parses the cached map for a UUID. Any failure along
// the way, including a malformed cached document, is reported as ErrMiss.
func (s *Store) Load(id string) (*regmap.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrMiss
	}
	raw, err := os.ReadFile(s.Path(id))
	if err != nil {
		return nil, ErrMiss
	}
	doc, err := regmap.ParseReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, ErrMiss
	}
	return doc, nil
}

// Save persists a document's verbatim text under its UUID. Documents
// without a UUID are silently skipped: they have no cache identity.
//
// The write is atomic (temp file, then rename), so an aborted transfer or
// a concurrent load never observes a half-written map.
func (s *Store) Save(doc *regmap.Document) error {
	if doc.UUID == "" {
		return nil
	}
	if _, err := uuid.Parse(doc.UUID); err != nil {
		return fmt.Errorf("invalid cache key %q: %w", doc.UUID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+doc.UUID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(doc.Raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(doc.UUID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit cache file: %w", err)
	}
	return nil
}
