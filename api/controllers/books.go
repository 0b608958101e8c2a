package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/responses"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/validators"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/catalog"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

// BooksList serves the public catalog browse endpoint.
func BooksList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filter, err := listBooksFilterFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListBooks(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// BookGet returns one active listing by id.
func BookGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		book, err := svc.GetBook(ctx, bookID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}

// CategoriesList returns every category for storefront navigation.
func CategoriesList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.ListCategories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

func listBooksFilterFromQuery(r *http.Request) (catalog.ListBooksFilter, error) {
	query := r.URL.Query()

	filter := catalog.ListBooksFilter{
		CategorySlug: strings.TrimSpace(query.Get("category")),
		Search:       validators.SanitizeString(query.Get("search"), 200),
	}

	if raw := strings.TrimSpace(query.Get("category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return catalog.ListBooksFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "category_id must be a valid id")
		}
		filter.CategoryID = &id
	}

	if value, ok, err := validators.ParseQueryInt64(r, "min_price"); err != nil {
		return catalog.ListBooksFilter{}, err
	} else if ok {
		filter.MinPriceCents = &value
	}
	if value, ok, err := validators.ParseQueryInt64(r, "max_price"); err != nil {
		return catalog.ListBooksFilter{}, err
	} else if ok {
		filter.MaxPriceCents = &value
	}

	var err error
	if filter.FeaturedOnly, err = validators.ParseQueryBool(r, "featured"); err != nil {
		return catalog.ListBooksFilter{}, err
	}
	if filter.InStockOnly, err = validators.ParseQueryBool(r, "in_stock"); err != nil {
		return catalog.ListBooksFilter{}, err
	}

	switch sort := strings.TrimSpace(query.Get("sort")); sort {
	case "", string(catalog.BookSortNewest):
		filter.Sort = catalog.BookSortNewest
	case string(catalog.BookSortPriceAsc), string(catalog.BookSortPriceDesc), string(catalog.BookSortTitle):
		filter.Sort = catalog.BookSort(sort)
	default:
		return catalog.ListBooksFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort")
	}

	filter.Page, err = validators.ParsePageParams(r)
	if err != nil {
		return catalog.ListBooksFilter{}, err
	}

	return filter, nil
}
