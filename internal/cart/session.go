package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/config"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
)

type sessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(sessionID string) string
}

// sessionLine is the persisted shape of one guest cart entry. Prices are
// never stored; they are resolved against the live catalog on read.
type sessionLine struct {
	BookID   uuid.UUID `json:"book_id"`
	Quantity int       `json:"quantity"`
}

// SessionService exposes cart operations for anonymous visitors. Carts live
// in Redis under the session key and expire after the idle TTL; every
// read or write refreshes the clock.
type SessionService interface {
	AddItem(ctx context.Context, sessionID string, bookID uuid.UUID, qty int) (CartDTO, error)
	UpdateItem(ctx context.Context, sessionID string, bookID uuid.UUID, qty int) (CartDTO, error)
	RemoveItem(ctx context.Context, sessionID string, bookID uuid.UUID) (CartDTO, error)
	Clear(ctx context.Context, sessionID string) error
	GetCart(ctx context.Context, sessionID string) (CartDTO, error)
	GetItemCount(ctx context.Context, sessionID string) (int, error)
	Snapshot(ctx context.Context, sessionID string) ([]SnapshotLine, error)
}

// SnapshotLine is the minimal view used when migrating a guest cart.
type SnapshotLine struct {
	BookID   uuid.UUID
	Quantity int
}

type sessionService struct {
	store sessionStore
	books bookLoader
	cfg   config.StoreConfig
}

// NewSessionService builds the Redis-backed guest cart service.
func NewSessionService(store sessionStore, books bookLoader, cfg config.StoreConfig) (SessionService, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	if cfg.GuestCartTTL <= 0 {
		return nil, fmt.Errorf("guest cart ttl must be positive")
	}
	return &sessionService{
		store: store,
		books: books,
		cfg:   cfg,
	}, nil
}

// AddItem increments the session's line for a book, creating it if absent.
func (s *sessionService) AddItem(ctx context.Context, sessionID string, bookID uuid.UUID, qty int) (CartDTO, error) {
	if err := requireSession(sessionID, bookID); err != nil {
		return CartDTO{}, err
	}

	book, err := s.loadBook(ctx, bookID)
	if err != nil {
		return CartDTO{}, err
	}

	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return CartDTO{}, err
	}

	idx, current := findLine(lines, bookID)
	if err := CheckAdd(book, current, qty, s.cfg.MaxQuantityPerItem); err != nil {
		return CartDTO{}, err
	}

	if idx >= 0 {
		lines[idx].Quantity = current + qty
	} else {
		lines = append(lines, sessionLine{BookID: bookID, Quantity: qty})
	}
	if err := s.save(ctx, sessionID, lines); err != nil {
		return CartDTO{}, err
	}
	return s.render(ctx, sessionID, lines)
}

// UpdateItem sets the line's quantity outright; zero or below removes it.
func (s *sessionService) UpdateItem(ctx context.Context, sessionID string, bookID uuid.UUID, qty int) (CartDTO, error) {
	if err := requireSession(sessionID, bookID); err != nil {
		return CartDTO{}, err
	}
	if qty <= 0 {
		return s.RemoveItem(ctx, sessionID, bookID)
	}

	book, err := s.loadBook(ctx, bookID)
	if err != nil {
		return CartDTO{}, err
	}

	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return CartDTO{}, err
	}

	idx, current := findLine(lines, bookID)
	if idx < 0 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeCartItemNotFound, "book is not in the cart")
	}
	if err := CheckSet(book, current, qty, s.cfg.MaxQuantityPerItem); err != nil {
		return CartDTO{}, err
	}

	lines[idx].Quantity = qty
	if err := s.save(ctx, sessionID, lines); err != nil {
		return CartDTO{}, err
	}
	return s.render(ctx, sessionID, lines)
}

// RemoveItem drops the line if present; removing an absent line succeeds.
func (s *sessionService) RemoveItem(ctx context.Context, sessionID string, bookID uuid.UUID) (CartDTO, error) {
	if err := requireSession(sessionID, bookID); err != nil {
		return CartDTO{}, err
	}

	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return CartDTO{}, err
	}

	filtered := lines[:0]
	for _, line := range lines {
		if line.BookID != bookID {
			filtered = append(filtered, line)
		}
	}
	if err := s.save(ctx, sessionID, filtered); err != nil {
		return CartDTO{}, err
	}
	return s.render(ctx, sessionID, filtered)
}

// Clear deletes the session cart entirely.
func (s *sessionService) Clear(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.store.Del(ctx, s.store.GuestCartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart")
	}
	return nil
}

// GetCart returns the cart view with live prices and computed totals.
func (s *sessionService) GetCart(ctx context.Context, sessionID string) (CartDTO, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return CartDTO{}, err
	}
	if len(lines) > 0 {
		// Reading the cart keeps the idle session alive.
		if err := s.save(ctx, sessionID, lines); err != nil {
			return CartDTO{}, err
		}
	}
	return s.render(ctx, sessionID, lines)
}

// GetItemCount sums the quantities in the session cart.
func (s *sessionService) GetItemCount(ctx context.Context, sessionID string) (int, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total, nil
}

// Snapshot returns the raw lines for migration into a user cart.
func (s *sessionService) Snapshot(ctx context.Context, sessionID string) ([]SnapshotLine, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]SnapshotLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, SnapshotLine{BookID: line.BookID, Quantity: line.Quantity})
	}
	return out, nil
}

func (s *sessionService) load(ctx context.Context, sessionID string) ([]sessionLine, error) {
	raw, err := s.store.Get(ctx, s.store.GuestCartKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
	}
	var lines []sessionLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode guest cart")
	}
	return lines, nil
}

func (s *sessionService) save(ctx context.Context, sessionID string, lines []sessionLine) error {
	key := s.store.GuestCartKey(sessionID)
	if len(lines) == 0 {
		if err := s.store.Del(ctx, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart")
		}
		return nil
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode guest cart")
	}
	if err := s.store.Set(ctx, key, string(payload), s.cfg.GuestCartTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save guest cart")
	}
	return nil
}

func (s *sessionService) render(ctx context.Context, sessionID string, lines []sessionLine) (CartDTO, error) {
	if len(lines) == 0 {
		return CartDTO{Items: []Line{}}, nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.BookID)
	}
	books, err := s.books.FindBooksByIDs(ctx, ids)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart books")
	}
	byID := make(map[uuid.UUID]int, len(books))
	for i := range books {
		byID[books[i].ID] = i
	}

	items := make([]Line, 0, len(lines))
	for _, line := range lines {
		idx, ok := byID[line.BookID]
		if !ok {
			continue
		}
		items = append(items, BuildLine(&books[idx], line.Quantity))
	}
	return CartDTO{
		Items:  items,
		Totals: ComputeTotals(items, s.cfg),
	}, nil
}

func (s *sessionService) loadBook(ctx context.Context, bookID uuid.UUID) (*models.Book, error) {
	book, err := s.books.FindBookByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeBookNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	return book, nil
}

func findLine(lines []sessionLine, bookID uuid.UUID) (int, int) {
	for i, line := range lines {
		if line.BookID == bookID {
			return i, line.Quantity
		}
	}
	return -1, 0
}

func requireSession(sessionID string, bookID uuid.UUID) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	return nil
}
