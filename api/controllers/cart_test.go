package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/middleware"
	cartsvc "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/cart"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

type stubUserCartService struct {
	addCalls int
	lastUser uuid.UUID
}

func (s *stubUserCartService) AddItem(_ context.Context, userID, _ uuid.UUID, _ int) (cartsvc.CartDTO, error) {
	s.addCalls++
	s.lastUser = userID
	return cartsvc.CartDTO{}, nil
}

func (s *stubUserCartService) UpdateItem(context.Context, uuid.UUID, uuid.UUID, int) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

func (s *stubUserCartService) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

func (s *stubUserCartService) Clear(context.Context, uuid.UUID) error { return nil }

func (s *stubUserCartService) GetCart(context.Context, uuid.UUID) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

func (s *stubUserCartService) GetItemCount(context.Context, uuid.UUID) (int, error) { return 0, nil }

type stubGuestCartService struct {
	addCalls    int
	lastSession string
}

func (s *stubGuestCartService) AddItem(_ context.Context, sessionID string, _ uuid.UUID, _ int) (cartsvc.CartDTO, error) {
	s.addCalls++
	s.lastSession = sessionID
	return cartsvc.CartDTO{}, nil
}

func (s *stubGuestCartService) UpdateItem(context.Context, string, uuid.UUID, int) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

func (s *stubGuestCartService) RemoveItem(context.Context, string, uuid.UUID) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

func (s *stubGuestCartService) Clear(context.Context, string) error { return nil }

func (s *stubGuestCartService) GetCart(context.Context, string) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

func (s *stubGuestCartService) GetItemCount(context.Context, string) (int, error) { return 0, nil }

func (s *stubGuestCartService) Snapshot(context.Context, string) ([]cartsvc.SnapshotLine, error) {
	return nil, nil
}

func TestCartAddItemDispatch(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	bookID := uuid.New()
	body := `{"book_id":"` + bookID.String() + `","quantity":2}`

	makeRequest := func(ctx context.Context, users *stubUserCartService, guests *stubGuestCartService) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		CartControllers{Users: users, Guests: guests, Logg: logg}.AddItem().ServeHTTP(rec, req)
		return rec
	}

	t.Run("authenticated user hits the user cart", func(t *testing.T) {
		users := &stubUserCartService{}
		guests := &stubGuestCartService{}
		userID := uuid.New()
		ctx := middleware.WithUserID(context.Background(), userID.String())
		ctx = middleware.WithSessionID(ctx, uuid.NewString())

		rec := makeRequest(ctx, users, guests)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if users.addCalls != 1 || users.lastUser != userID {
			t.Fatalf("user cart should be used, calls=%d", users.addCalls)
		}
		if guests.addCalls != 0 {
			t.Fatalf("guest cart must not be touched for logged-in users")
		}
	})

	t.Run("anonymous session hits the guest cart", func(t *testing.T) {
		users := &stubUserCartService{}
		guests := &stubGuestCartService{}
		sessionID := uuid.NewString()
		ctx := middleware.WithSessionID(context.Background(), sessionID)

		rec := makeRequest(ctx, users, guests)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if guests.addCalls != 1 || guests.lastSession != sessionID {
			t.Fatalf("guest cart should be used, calls=%d", guests.addCalls)
		}
		if users.addCalls != 0 {
			t.Fatalf("user cart must not be touched for anonymous requests")
		}
	})

	t.Run("no identity at all is unauthorized", func(t *testing.T) {
		rec := makeRequest(context.Background(), &stubUserCartService{}, &stubGuestCartService{})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("zero quantity fails validation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
			strings.NewReader(`{"book_id":"`+bookID.String()+`","quantity":0}`))
		req = req.WithContext(middleware.WithSessionID(context.Background(), uuid.NewString()))
		rec := httptest.NewRecorder()
		CartControllers{Users: &stubUserCartService{}, Guests: &stubGuestCartService{}, Logg: logg}.
			AddItem().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing services degrade to internal error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
		rec := httptest.NewRecorder()
		CartControllers{Logg: logg}.AddItem().ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}
