package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/responses"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/validators"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/catalog"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

type createCategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=120"`
	Slug        string  `json:"slug" validate:"required,min=1,max=120"`
	Description *string `json:"description,omitempty"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description,omitempty"`
}

// AdminCategoryCreate adds a storefront category.
func AdminCategoryCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		category, err := svc.CreateCategory(ctx, catalog.CreateCategoryInput{
			Name:        validators.SanitizeString(payload.Name, 120),
			Slug:        validators.SanitizeString(payload.Slug, 120),
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// AdminCategoryUpdate renames or re-slugs a category.
func AdminCategoryUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := validators.ParsePathUUID(chi.URLParam(r, "categoryId"), "categoryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		category, err := svc.UpdateCategory(ctx, categoryID, catalog.UpdateCategoryInput{
			Name:        payload.Name,
			Slug:        payload.Slug,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, category)
	}
}

// AdminCategoryDelete removes an empty category.
func AdminCategoryDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := validators.ParsePathUUID(chi.URLParam(r, "categoryId"), "categoryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteCategory(ctx, categoryID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
