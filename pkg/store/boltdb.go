package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/fleetglass/fleetglass/pkg/log"
)

var bucketSnapshots = []byte("snapshots")

// DefaultMaxEntryBytes bounds the serialized size of a persisted
// entry. Payloads above the bound stay in memory only.
const DefaultMaxEntryBytes = 2 << 20 // 2 MiB

// BoltStore implements Store using BoltDB.
type BoltStore struct {
	db            *bolt.DB
	maxEntryBytes int
	logger        zerolog.Logger
}

// NewBoltStore opens (or creates) the snapshot database in dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "fleetglass.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSnapshots); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketSnapshots, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{
		db:            db,
		maxEntryBytes: DefaultMaxEntryBytes,
		logger:        log.WithComponent("store"),
	}, nil
}

// SetMaxEntryBytes overrides the persisted-entry size bound.
func (s *BoltStore) SetMaxEntryBytes(n int) {
	if n > 0 {
		s.maxEntryBytes = n
	}
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Save writes the entry for a family, replacing any prior one.
func (s *BoltStore) Save(family string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry for %s: %w", family, err)
	}
	if len(data) > s.maxEntryBytes {
		s.logger.Debug().
			Str("family", family).
			Int("bytes", len(data)).
			Msg("entry exceeds size bound, not persisted")
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		return b.Put([]byte(family), data)
	})
}

// Load returns the entry for a family when its stored scope key
// matches wantKey.
func (s *BoltStore) Load(family, wantKey string) (Entry, error) {
	var entry Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		data := b.Get([]byte(family))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return Entry{}, err
	}
	if entry.Key != wantKey {
		// Stored under a different scope; stale for this request.
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// Delete removes the entry for a family.
func (s *BoltStore) Delete(family string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		return b.Delete([]byte(family))
	})
}
