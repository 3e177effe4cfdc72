package badger

import (
	"errors"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	cache  interfaces.KeyValueStore
	state  interfaces.KeyValueStore
	dedup  interfaces.KeyValueStore
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		cache:  NewKVStore(db, "cache", logger),
		state:  NewKVStore(db, "state", logger),
		dedup:  NewKVStore(db, "seen", logger),
		logger: logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// CacheStore returns the answer cache store
func (m *Manager) CacheStore() interfaces.KeyValueStore {
	return m.cache
}

// StateStore returns the user conversation state store
func (m *Manager) StateStore() interfaces.KeyValueStore {
	return m.state
}

// DedupStore returns the seen-message marker store
func (m *Manager) DedupStore() interfaces.KeyValueStore {
	return m.dedup
}

// RunGC runs one round of Badger value-log garbage collection.
// ErrNoRewrite means nothing needed collecting and is not an error.
func (m *Manager) RunGC() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Store().Badger().RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
		return err
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
