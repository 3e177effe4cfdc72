package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/storage/memory"
)

var seen = []byte("1")

// Service keeps a short-lived record of provider message IDs so webhook
// redeliveries are dropped instead of answered twice. When the backing
// store fails, an in-process fallback keeps dedup working for the lifetime
// of the process rather than letting duplicates through.
type Service struct {
	store    interfaces.KeyValueStore
	fallback *memory.Store
	ttl      time.Duration
	logger   arbor.ILogger
}

// NewService creates a dedup service backed by the given store
func NewService(config *common.DedupConfig, store interfaces.KeyValueStore, logger arbor.ILogger) *Service {
	return &Service{
		store:    store,
		fallback: memory.NewStore(),
		ttl:      config.TTL,
		logger:   logger,
	}
}

// IsDuplicate records the message and reports whether it was already seen
// within the dedup window. The first caller for a given provider/message
// pair wins; all later callers within the TTL get true.
func (s *Service) IsDuplicate(ctx context.Context, provider, messageID string) bool {
	if messageID == "" {
		return false
	}

	key := fmt.Sprintf("%s:%s", provider, messageID)

	created, err := s.store.SetIfAbsent(ctx, key, seen, s.ttl)
	if err == nil {
		return !created
	}

	s.logger.Warn().
		Err(err).
		Str("provider", provider).
		Msg("Dedup store unavailable, using in-process fallback")

	created, err = s.fallback.SetIfAbsent(ctx, key, seen, s.ttl)
	if err != nil {
		return false
	}
	return !created
}

// Prune drops expired entries from the in-process fallback
func (s *Service) Prune() int {
	return s.fallback.Prune()
}
