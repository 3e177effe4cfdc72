package interfaces

// StorageManager provides access to the namespaced key/value stores backing
// the pipeline. The cache, state and dedup stores may share one physical
// database; callers only ever see the KeyValueStore contract.
type StorageManager interface {
	// CacheStore holds answer cache entries
	CacheStore() KeyValueStore

	// StateStore holds per-user conversation state
	StateStore() KeyValueStore

	// DedupStore holds seen-message markers
	DedupStore() KeyValueStore

	// RunGC triggers value-log garbage collection where the backend supports it
	RunGC() error

	Close() error
}
