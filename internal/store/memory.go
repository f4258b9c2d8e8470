// internal/store/memory.go
//
// Record persistence keyed by device id.
//
// Characteristics of the in-memory implementation:
//   - Stores game.Record values keyed by device id in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Get returns ErrNotFound for unknown device ids.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/wordle/apps/unlimited-server/internal/game"
)

// ErrNotFound is returned when no record exists for a device.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for device records.
// Implementations may be backed by memory (this file) or SQLite.
type Store interface {
	// Save persists or overwrites the record for a device.
	Save(ctx context.Context, deviceID string, r game.Record) error

	// Get retrieves the record for a device.
	// Returns ErrNotFound if nothing was saved yet.
	Get(ctx context.Context, deviceID string) (game.Record, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex           // guards records map
	records map[string]game.Record // keyed by device id
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{records: make(map[string]game.Record)}
}

// Save adds or replaces the record in the map.
func (m *memory) Save(ctx context.Context, deviceID string, r game.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[deviceID] = r
	return nil
}

// Get looks up a record by device id.
func (m *memory) Get(ctx context.Context, deviceID string) (game.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.records[deviceID]; ok {
		return r, nil
	}
	return game.Record{}, ErrNotFound
}

// Bind returns a game.Persister for one device.
func Bind(st Store, deviceID string) game.Persister {
	return &bound{st: st, id: deviceID}
}

type bound struct {
	st Store
	id string
}

func (b *bound) Load(ctx context.Context) (game.Record, error) {
	r, err := b.st.Get(ctx, b.id)
	if errors.Is(err, ErrNotFound) {
		return game.Record{}, game.ErrNoRecord
	}
	return r, err
}

func (b *bound) Save(ctx context.Context, r game.Record) error {
	return b.st.Save(ctx, b.id, r)
}
