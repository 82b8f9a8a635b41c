// internal/state/session_test.go
package state

import (
	"context"
	"testing"

	"github.com/user/kisanmitra/internal/types"
)

func TestSessionStore(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStore(dir)
	ctx := context.Background()

	// Test resolve or create
	key := types.NewSessionKey("http", "farmer-123")
	id, err := store.ResolveOrCreate(ctx, key, "farmer-123")
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Error("expected non-empty session ID")
	}

	// Test get
	session, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session.SessionKey != key {
		t.Errorf("expected key %s, got %s", key, session.SessionKey)
	}
	if session.UserID != "farmer-123" {
		t.Errorf("expected user farmer-123, got %s", session.UserID)
	}
	if session.Status != "active" {
		t.Errorf("expected active status, got %s", session.Status)
	}

	// Test idempotency
	id2, err := store.ResolveOrCreate(ctx, key, "farmer-123")
	if err != nil {
		t.Fatal(err)
	}
	if id != id2 {
		t.Error("expected same session ID for same key")
	}
}

func TestSessionStoreTouch(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	ctx := context.Background()

	id, err := store.ResolveOrCreate(ctx, types.NewSessionKey("http", "u1"), "u1")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Touch(ctx, id, 3); err != nil {
		t.Fatal(err)
	}
	session, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session.LastTurnSeq != 3 {
		t.Errorf("expected LastTurnSeq 3, got %d", session.LastTurnSeq)
	}

	// A lower seq never rewinds the counter
	if err := store.Touch(ctx, id, 1); err != nil {
		t.Fatal(err)
	}
	session, err = store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session.LastTurnSeq != 3 {
		t.Errorf("expected LastTurnSeq to stay 3, got %d", session.LastTurnSeq)
	}
}

func TestSessionStoreList(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	ctx := context.Background()

	if _, err := store.ResolveOrCreate(ctx, types.NewSessionKey("http", "a"), "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.ResolveOrCreate(ctx, types.NewSessionKey("telegram", "b", "99"), "b"); err != nil {
		t.Fatal(err)
	}

	sessions, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sessions))
	}
}
