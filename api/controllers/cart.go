package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/middleware"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/responses"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/validators"
	cartsvc "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/cart"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

// CartControllers serves the cart surface for both identities: requests
// with a bearer token operate on the user cart in the database, anonymous
// requests fall through to the Redis guest cart keyed by X-Session-Id.
type CartControllers struct {
	Users  cartsvc.Service
	Guests cartsvc.SessionService
	Logg   *logger.Logger
}

type cartItemRequest struct {
	BookID   uuid.UUID `json:"book_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

func (c CartControllers) ready() bool {
	return c.Users != nil && c.Guests != nil
}

// Get returns the caller's cart with computed totals.
func (c CartControllers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !c.ready() {
			responses.WriteError(ctx, c.Logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var (
			dto cartsvc.CartDTO
			err error
		)
		if userID := middleware.UserUUIDFromContext(ctx); userID != uuid.Nil {
			dto, err = c.Users.GetCart(ctx, userID)
		} else if sessionID := middleware.SessionIDFromContext(ctx); sessionID != "" {
			dto, err = c.Guests.GetCart(ctx, sessionID)
		} else {
			err = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
		}
		if err != nil {
			responses.WriteError(ctx, c.Logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// AddItem adds quantity of a book, merging with any existing line.
func (c CartControllers) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !c.ready() {
			responses.WriteError(ctx, c.Logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, c.Logg, w, err)
			return
		}

		var (
			dto cartsvc.CartDTO
			err error
		)
		if userID := middleware.UserUUIDFromContext(ctx); userID != uuid.Nil {
			dto, err = c.Users.AddItem(ctx, userID, payload.BookID, payload.Quantity)
		} else if sessionID := middleware.SessionIDFromContext(ctx); sessionID != "" {
			dto, err = c.Guests.AddItem(ctx, sessionID, payload.BookID, payload.Quantity)
		} else {
			err = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
		}
		if err != nil {
			responses.WriteError(ctx, c.Logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// UpdateItem sets a line's quantity; zero removes the line.
func (c CartControllers) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !c.ready() {
			responses.WriteError(ctx, c.Logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		bookID, err := validators.ParsePathUUID(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(ctx, c.Logg, w, err)
			return
		}

		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, c.Logg, w, err)
			return
		}

		var dto cartsvc.CartDTO
		if userID := middleware.UserUUIDFromContext(ctx); userID != uuid.Nil {
			dto, err = c.Users.UpdateItem(ctx, userID, bookID, payload.Quantity)
		} else if sessionID := middleware.SessionIDFromContext(ctx); sessionID != "" {
			dto, err = c.Guests.UpdateItem(ctx, sessionID, bookID, payload.Quantity)
		} else {
			err = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
		}
		if err != nil {
			responses.WriteError(ctx, c.Logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// RemoveItem deletes a line. Removing an absent line succeeds.
func (c CartControllers) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !c.ready() {
			responses.WriteError(ctx, c.Logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		bookID, err := validators.ParsePathUUID(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(ctx, c.Logg, w, err)
			return
		}

		var dto cartsvc.CartDTO
		if userID := middleware.UserUUIDFromContext(ctx); userID != uuid.Nil {
			dto, err = c.Users.RemoveItem(ctx, userID, bookID)
		} else if sessionID := middleware.SessionIDFromContext(ctx); sessionID != "" {
			dto, err = c.Guests.RemoveItem(ctx, sessionID, bookID)
		} else {
			err = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
		}
		if err != nil {
			responses.WriteError(ctx, c.Logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// Clear empties the caller's cart.
func (c CartControllers) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !c.ready() {
			responses.WriteError(ctx, c.Logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var err error
		if userID := middleware.UserUUIDFromContext(ctx); userID != uuid.Nil {
			err = c.Users.Clear(ctx, userID)
		} else if sessionID := middleware.SessionIDFromContext(ctx); sessionID != "" {
			err = c.Guests.Clear(ctx, sessionID)
		} else {
			err = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
		}
		if err != nil {
			responses.WriteError(ctx, c.Logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// Count reports the total number of units in the cart, for badge display.
func (c CartControllers) Count() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !c.ready() {
			responses.WriteError(ctx, c.Logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var (
			count int
			err   error
		)
		if userID := middleware.UserUUIDFromContext(ctx); userID != uuid.Nil {
			count, err = c.Users.GetItemCount(ctx, userID)
		} else if sessionID := middleware.SessionIDFromContext(ctx); sessionID != "" {
			count, err = c.Guests.GetItemCount(ctx, sessionID)
		} else {
			err = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
		}
		if err != nil {
			responses.WriteError(ctx, c.Logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"count": count})
	}
}
