package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
)

type memorySessionStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	sets   int
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{
		values: map[string]string{},
		ttls:   map[string]time.Duration{},
	}
}

func (m *memorySessionStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (m *memorySessionStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	m.sets++
	return nil
}

func (m *memorySessionStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
		delete(m.ttls, key)
	}
	return nil
}

func (m *memorySessionStore) GuestCartKey(sessionID string) string {
	return "bs:guest_cart:" + sessionID
}

type staticBookLoader struct {
	books map[uuid.UUID]*models.Book
}

func (l staticBookLoader) FindBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, ok := l.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return book, nil
}

func (l staticBookLoader) FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	var out []models.Book
	for _, id := range ids {
		if book, ok := l.books[id]; ok {
			out = append(out, *book)
		}
	}
	return out, nil
}

func newGuestService(t *testing.T, loader staticBookLoader, store *memorySessionStore) SessionService {
	t.Helper()

	cfg := testStoreConfig()
	cfg.GuestCartTTL = 7 * 24 * time.Hour

	svc, err := NewSessionService(store, loader, cfg)
	if err != nil {
		t.Fatalf("new session service: %v", err)
	}
	return svc
}

func TestSessionAddAndGet(t *testing.T) {
	t.Parallel()

	book := activeBook(10)
	store := newMemorySessionStore()
	svc := newGuestService(t, staticBookLoader{books: map[uuid.UUID]*models.Book{book.ID: book}}, store)
	ctx := context.Background()
	sessionID := uuid.NewString()

	dto, err := svc.AddItem(ctx, sessionID, book.ID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart: %+v", dto.Items)
	}
	if ttl := store.ttls[store.GuestCartKey(sessionID)]; ttl != 7*24*time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}

	dto, err = svc.GetCart(ctx, sessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.Totals.SubtotalCents != 250000 {
		t.Fatalf("subtotal = %d", dto.Totals.SubtotalCents)
	}
}

func TestSessionReadRefreshesTTL(t *testing.T) {
	t.Parallel()

	book := activeBook(10)
	store := newMemorySessionStore()
	svc := newGuestService(t, staticBookLoader{books: map[uuid.UUID]*models.Book{book.ID: book}}, store)
	ctx := context.Background()
	sessionID := uuid.NewString()

	if _, err := svc.AddItem(ctx, sessionID, book.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	setsAfterAdd := store.sets

	if _, err := svc.GetCart(ctx, sessionID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if store.sets <= setsAfterAdd {
		t.Fatal("expected read to rewrite the key and refresh the ttl")
	}
}

func TestSessionEmptyCart(t *testing.T) {
	t.Parallel()

	store := newMemorySessionStore()
	svc := newGuestService(t, staticBookLoader{books: map[uuid.UUID]*models.Book{}}, store)

	dto, err := svc.GetCart(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(dto.Items) != 0 || dto.Totals != (Totals{}) {
		t.Fatalf("expected empty cart, got %+v", dto)
	}
}

func TestSessionRemoveLastLineDeletesKey(t *testing.T) {
	t.Parallel()

	book := activeBook(10)
	store := newMemorySessionStore()
	svc := newGuestService(t, staticBookLoader{books: map[uuid.UUID]*models.Book{book.ID: book}}, store)
	ctx := context.Background()
	sessionID := uuid.NewString()

	if _, err := svc.AddItem(ctx, sessionID, book.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.RemoveItem(ctx, sessionID, book.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := store.values[store.GuestCartKey(sessionID)]; ok {
		t.Fatal("expected empty cart key to be deleted")
	}
}

func TestSessionValidationMatchesUserCart(t *testing.T) {
	t.Parallel()

	book := activeBook(3)
	store := newMemorySessionStore()
	svc := newGuestService(t, staticBookLoader{books: map[uuid.UUID]*models.Book{book.ID: book}}, store)
	ctx := context.Background()
	sessionID := uuid.NewString()

	if _, err := svc.AddItem(ctx, sessionID, book.ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := svc.AddItem(ctx, sessionID, book.ID, 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessionSnapshot(t *testing.T) {
	t.Parallel()

	book := activeBook(10)
	store := newMemorySessionStore()
	svc := newGuestService(t, staticBookLoader{books: map[uuid.UUID]*models.Book{book.ID: book}}, store)
	ctx := context.Background()
	sessionID := uuid.NewString()

	if _, err := svc.AddItem(ctx, sessionID, book.ID, 4); err != nil {
		t.Fatalf("add: %v", err)
	}

	snapshot, err := svc.Snapshot(ctx, sessionID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot) != 1 || snapshot[0].BookID != book.ID || snapshot[0].Quantity != 4 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}
