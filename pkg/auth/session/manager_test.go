package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerGenerateAndHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	accessID := NewAccessID()

	token, err := manager.Generate(ctx, accessID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a refresh token")
	}

	ok, err := manager.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("HasSession: %v", err)
	}
	if !ok {
		t.Fatalf("session should exist after Generate")
	}

	ok, err = manager.HasSession(ctx, NewAccessID())
	if err != nil {
		t.Fatalf("HasSession: %v", err)
	}
	if ok {
		t.Fatalf("unknown access id should have no session")
	}
}

func TestManagerRotateInvalidatesOldSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	oldAccessID := NewAccessID()

	oldToken, err := manager.Generate(ctx, oldAccessID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, oldAccessID, oldToken)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if newAccessID == oldAccessID {
		t.Fatalf("rotation must issue a fresh access id")
	}
	if newToken == oldToken {
		t.Fatalf("rotation must issue a fresh refresh token")
	}

	ok, err := manager.HasSession(ctx, oldAccessID)
	if err != nil {
		t.Fatalf("HasSession: %v", err)
	}
	if ok {
		t.Fatalf("the old session must be gone after rotation")
	}

	if _, _, err := manager.Rotate(ctx, oldAccessID, oldToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("replaying the old token should fail, got %v", err)
	}
}

func TestManagerRotateRejectsWrongToken(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	accessID := NewAccessID()

	if _, err := manager.Generate(ctx, accessID); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, _, err := manager.Rotate(ctx, accessID, "forged-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("a forged token should fail, got %v", err)
	}
	if _, _, err := manager.Rotate(ctx, "", ""); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("empty inputs should fail, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	accessID := NewAccessID()

	if _, err := manager.Generate(ctx, accessID); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	ok, err := manager.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("HasSession: %v", err)
	}
	if ok {
		t.Fatalf("revoked sessions must not validate")
	}
}
