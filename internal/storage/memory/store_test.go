package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/elo/internal/interfaces"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "v" {
		t.Errorf("Expected 'v', got %q", value)
	}
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}

	// Still live just before the deadline
	now = now.Add(59 * time.Second)
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("Expected key to be live before expiry: %v", err)
	}

	now = now.Add(2 * time.Second)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, interfaces.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound after expiry, got %v", err)
	}
}

func TestStoreSetIfAbsent(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	created, err := s.SetIfAbsent(ctx, "msg", []byte("1"), time.Minute)
	if err != nil || !created {
		t.Fatalf("Expected first SetIfAbsent to create (created=%v, err=%v)", created, err)
	}

	created, err = s.SetIfAbsent(ctx, "msg", []byte("1"), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("Expected second SetIfAbsent to report existing key")
	}

	// An expired marker can be claimed again
	now = now.Add(2 * time.Minute)
	created, err = s.SetIfAbsent(ctx, "msg", []byte("1"), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("Expected SetIfAbsent to reclaim an expired key")
	}
}

func TestStorePrune(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	s.Set(ctx, "expires", []byte("1"), time.Minute)
	s.Set(ctx, "stays", []byte("2"), time.Hour)
	s.Set(ctx, "forever", []byte("3"), 0)

	now = now.Add(30 * time.Minute)
	removed := s.Prune()

	if removed != 1 {
		t.Errorf("Expected 1 pruned entry, got %d", removed)
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 live entries, got %d", s.Len())
	}
}

func TestStoreValueCopied(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	original := []byte("abc")
	s.Set(ctx, "k", original, 0)
	original[0] = 'x'

	value, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(value) != "abc" {
		t.Errorf("Store must copy values, got %q", value)
	}
}
