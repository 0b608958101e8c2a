package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/responses"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/validators"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/catalog"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

type createBookRequest struct {
	CategoryID         uuid.UUID `json:"category_id" validate:"required"`
	Title              string    `json:"title" validate:"required,min=1,max=500"`
	Author             string    `json:"author" validate:"required,min=1,max=255"`
	ISBN               *string   `json:"isbn,omitempty" validate:"omitempty,max=20"`
	Description        *string   `json:"description,omitempty"`
	PriceCents         int64     `json:"price_cents" validate:"required,min=1"`
	DiscountPriceCents *int64    `json:"discount_price_cents,omitempty"`
	StockQuantity      int       `json:"stock_quantity" validate:"min=0"`
	IsFeatured         bool      `json:"is_featured"`
	ImageURL           *string   `json:"image_url,omitempty" validate:"omitempty,url"`
	GalleryImageURLs   []string  `json:"gallery_image_urls,omitempty" validate:"omitempty,dive,url"`
}

type updateBookRequest struct {
	CategoryID         *uuid.UUID `json:"category_id,omitempty"`
	Title              *string    `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Author             *string    `json:"author,omitempty" validate:"omitempty,min=1,max=255"`
	ISBN               *string    `json:"isbn,omitempty" validate:"omitempty,max=20"`
	Description        *string    `json:"description,omitempty"`
	PriceCents         *int64     `json:"price_cents,omitempty" validate:"omitempty,min=1"`
	DiscountPriceCents *int64     `json:"discount_price_cents,omitempty"`
	ClearDiscount      bool       `json:"clear_discount"`
	IsActive           *bool      `json:"is_active,omitempty"`
	IsFeatured         *bool      `json:"is_featured,omitempty"`
	ImageURL           *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	GalleryImageURLs   []string   `json:"gallery_image_urls,omitempty" validate:"omitempty,dive,url"`
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// AdminBookCreate adds a new listing to the catalog.
func AdminBookCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		book, err := svc.CreateBook(ctx, catalog.CreateBookInput{
			CategoryID:         payload.CategoryID,
			Title:              validators.SanitizeString(payload.Title, 500),
			Author:             validators.SanitizeString(payload.Author, 255),
			ISBN:               payload.ISBN,
			Description:        payload.Description,
			PriceCents:         payload.PriceCents,
			DiscountPriceCents: payload.DiscountPriceCents,
			StockQuantity:      payload.StockQuantity,
			IsFeatured:         payload.IsFeatured,
			ImageURL:           payload.ImageURL,
			GalleryImageURLs:   payload.GalleryImageURLs,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, book)
	}
}

// AdminBookUpdate applies a partial update to a listing.
func AdminBookUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		bookID, err := validators.ParsePathUUID(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		book, err := svc.UpdateBook(ctx, bookID, catalog.UpdateBookInput{
			CategoryID:         payload.CategoryID,
			Title:              payload.Title,
			Author:             payload.Author,
			ISBN:               payload.ISBN,
			Description:        payload.Description,
			PriceCents:         payload.PriceCents,
			DiscountPriceCents: payload.DiscountPriceCents,
			ClearDiscount:      payload.ClearDiscount,
			IsActive:           payload.IsActive,
			IsFeatured:         payload.IsFeatured,
			ImageURL:           payload.ImageURL,
			GalleryImageURLs:   payload.GalleryImageURLs,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}

// AdminBookDeactivate soft-deletes a listing so past orders keep their
// snapshot while the storefront stops selling it.
func AdminBookDeactivate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		bookID, err := validators.ParsePathUUID(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeactivateBook(ctx, bookID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// AdminBookAdjustStock applies a signed stock delta.
func AdminBookAdjustStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		bookID, err := validators.ParsePathUUID(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		book, err := svc.AdjustStock(ctx, bookID, payload.Delta)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}
