package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/responses"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/validators"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/orders"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrdersList returns every order, optionally filtered by status.
func AdminOrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		status, err := orderStatusFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp, err := svc.AdminListOrders(ctx, orders.AdminListOrdersInput{
			Status: status,
			Page:   page,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// AdminOrderGet returns any order by id.
func AdminOrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.AdminGetOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// AdminOrderUpdateStatus moves an order along the fulfilment lifecycle.
func AdminOrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.AdminUpdateStatus(ctx, orderID, target)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
