package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestSaveAndLookupSession(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	data := Data{UserID: "user-123", Username: "alice"}
	if err := store.SaveSession(ctx, "token-hash", data, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := store.LookupSession(ctx, "token-hash")
	if err != nil {
		t.Fatalf("LookupSession failed: %v", err)
	}
	if got.UserID != "user-123" || got.Username != "alice" {
		t.Errorf("unexpected session data: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped on save")
	}
}

func TestLookupExpiredSession(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	err := store.SaveSession(ctx, "expiring", Data{UserID: "user-456", Username: "bob"}, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	s.FastForward(2 * time.Second)

	if _, err := store.LookupSession(ctx, "expiring"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired session, got %v", err)
	}
}

func TestLookupUnknownSession(t *testing.T) {
	store, _ := setupTestRedis(t)

	if _, err := store.LookupSession(context.Background(), "never-saved"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSessionRejectsPastExpiry(t *testing.T) {
	store, _ := setupTestRedis(t)

	err := store.SaveSession(context.Background(), "hash", Data{UserID: "u"}, time.Now().Add(-time.Minute))
	if err == nil {
		t.Fatal("expected error saving an already expired session")
	}
}

func TestRevokeSession(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	if err := store.SaveSession(ctx, "to-revoke", Data{UserID: "user-789", Username: "carol"}, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if _, err := store.LookupSession(ctx, "to-revoke"); err != nil {
		t.Fatalf("session should exist before revoke: %v", err)
	}

	if err := store.RevokeSession(ctx, "to-revoke"); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if _, err := store.LookupSession(ctx, "to-revoke"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after revoke, got %v", err)
	}

	// Revoking again is a no-op, not an error.
	if err := store.RevokeSession(ctx, "to-revoke"); err != nil {
		t.Errorf("second revoke should succeed: %v", err)
	}
}
