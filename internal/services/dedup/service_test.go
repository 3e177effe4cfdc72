package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/storage/memory"
)

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("store down")
}

func (failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("store down")
}

func (failingStore) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return false, errors.New("store down")
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return errors.New("store down")
}

func testDedupConfig() *common.DedupConfig {
	return &common.DedupConfig{TTL: 5 * time.Minute, PruneInterval: time.Minute}
}

func TestIsDuplicateFirstSeenWins(t *testing.T) {
	svc := NewService(testDedupConfig(), memory.NewStore(), arbor.NewLogger())
	ctx := context.Background()

	assert.False(t, svc.IsDuplicate(ctx, "whatsapp", "msg-1"))
	assert.True(t, svc.IsDuplicate(ctx, "whatsapp", "msg-1"))
	assert.True(t, svc.IsDuplicate(ctx, "whatsapp", "msg-1"))
}

func TestIsDuplicateScopedByProvider(t *testing.T) {
	svc := NewService(testDedupConfig(), memory.NewStore(), arbor.NewLogger())
	ctx := context.Background()

	assert.False(t, svc.IsDuplicate(ctx, "whatsapp", "msg-1"))
	assert.False(t, svc.IsDuplicate(ctx, "telegram", "msg-1"))
}

func TestIsDuplicateEmptyIDNeverDuplicate(t *testing.T) {
	svc := NewService(testDedupConfig(), memory.NewStore(), arbor.NewLogger())
	ctx := context.Background()

	assert.False(t, svc.IsDuplicate(ctx, "whatsapp", ""))
	assert.False(t, svc.IsDuplicate(ctx, "whatsapp", ""))
}

func TestIsDuplicateFallsBackWhenStoreFails(t *testing.T) {
	svc := NewService(testDedupConfig(), failingStore{}, arbor.NewLogger())
	ctx := context.Background()

	assert.False(t, svc.IsDuplicate(ctx, "whatsapp", "msg-1"))
	assert.True(t, svc.IsDuplicate(ctx, "whatsapp", "msg-1"))
}
