package store

import (
	"errors"
	"time"

	"github.com/fleetglass/fleetglass/pkg/types"
)

// ErrNotFound is returned when no entry exists for a family, or the
// stored entry was written under a different scope key.
var ErrNotFound = errors.New("store: entry not found")

// Entry is the durable last-known-good payload for one resource
// family. Key records the scope the data was fetched under; a load is
// only honored when the requested scope key matches.
type Entry struct {
	Key       string           `json:"key"`
	Timestamp time.Time        `json:"timestamp"`
	Data      []types.Resource `json:"data"`
}

// Store persists last-known-good payloads across restarts. One entry
// per resource family, not per scope: the most recently fetched scope
// wins the slot.
type Store interface {
	// Save writes the entry for a family, replacing any prior one.
	// Oversized entries are silently skipped.
	Save(family string, entry Entry) error

	// Load returns the entry for a family if its stored key matches
	// wantKey, otherwise ErrNotFound.
	Load(family, wantKey string) (Entry, error)

	// Delete removes the entry for a family. Removing a missing
	// entry is not an error.
	Delete(family string) error

	// Close releases the underlying database.
	Close() error
}
