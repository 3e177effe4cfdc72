package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/interfaces"
)

// KVStore implements interfaces.KeyValueStore on raw Badger transactions.
// Entries use Badger's native TTL so expiry needs no sweeper; the namespace
// prefix keeps the cache, state and dedup keyspaces apart in one database.
type KVStore struct {
	db     *BadgerDB
	prefix string
	logger arbor.ILogger
}

// NewKVStore creates a namespaced key/value store on the shared connection
func NewKVStore(db *BadgerDB, namespace string, logger arbor.ILogger) *KVStore {
	return &KVStore{
		db:     db,
		prefix: namespace + ":",
		logger: logger,
	}
}

// Ensure interface compliance
var _ interfaces.KeyValueStore = (*KVStore)(nil)

func (s *KVStore) fullKey(key string) []byte {
	return []byte(s.prefix + strings.ToLower(strings.TrimSpace(key)))
}

// Get retrieves a value by key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.Store().Badger().View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(s.fullKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil, interfaces.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Set inserts or replaces a key, ttl of zero stores without expiry
func (s *KVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry(s.fullKey(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent atomically creates the key only when it does not already exist.
// The read and write share one transaction, so concurrent callers racing on
// the same key see exactly one winner: the loser's commit conflicts, which
// means the winner just created the key, and is reported as created=false.
func (s *KVStore) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	created := false
	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		created = false
		_, err := txn.Get(s.fullKey(key))
		if err == nil {
			return nil // key exists, nothing to do
		}
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}

		entry := badgerdb.NewEntry(s.fullKey(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create key %s: %w", key, err)
	}
	return created, nil
}

// Delete removes a key, deleting an absent key is not an error
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(s.fullKey(key))
	})
	if err != nil && !errors.Is(err, badgerdb.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
