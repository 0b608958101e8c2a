package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/responses"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/validators"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/reviews"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

// AdminReviewsPending lists reviews waiting for moderation.
func AdminReviewsPending(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		pending, err := svc.AdminListPending(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"reviews": pending})
	}
}

// AdminReviewApprove publishes a pending review.
func AdminReviewApprove(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		reviewID, err := validators.ParsePathUUID(chi.URLParam(r, "reviewId"), "reviewId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.AdminApprove(ctx, reviewID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "approved"})
	}
}

// AdminReviewDelete removes a review outright.
func AdminReviewDelete(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		reviewID, err := validators.ParsePathUUID(chi.URLParam(r, "reviewId"), "reviewId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.AdminDelete(ctx, reviewID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
