package memory

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/interfaces"
)

// Manager implements StorageManager entirely in process memory. Used for
// tests and for running without a data directory; contents do not survive
// a restart.
type Manager struct {
	cache *Store
	state *Store
	dedup *Store
}

// NewManager creates a new in-memory storage manager
func NewManager(logger arbor.ILogger) *Manager {
	logger.Info().Msg("In-memory storage manager initialized")
	return &Manager{
		cache: NewStore(),
		state: NewStore(),
		dedup: NewStore(),
	}
}

var _ interfaces.StorageManager = (*Manager)(nil)

func (m *Manager) CacheStore() interfaces.KeyValueStore {
	return m.cache
}

func (m *Manager) StateStore() interfaces.KeyValueStore {
	return m.state
}

func (m *Manager) DedupStore() interfaces.KeyValueStore {
	return m.dedup
}

// RunGC prunes expired entries from every store
func (m *Manager) RunGC() error {
	m.cache.Prune()
	m.state.Prune()
	m.dedup.Prune()
	return nil
}

func (m *Manager) Close() error {
	return nil
}
