package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/middleware"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/responses"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/validators"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/orders"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

type createOrderRequest struct {
	PaymentMethod   string  `json:"payment_method" validate:"required"`
	ShippingName    string  `json:"shipping_name" validate:"required,max=120"`
	ShippingPhone   string  `json:"shipping_phone" validate:"required,max=32"`
	ShippingAddress string  `json:"shipping_address" validate:"required,max=500"`
	ShippingCity    string  `json:"shipping_city" validate:"required,max=120"`
	ShippingCountry string  `json:"shipping_country" validate:"required,max=120"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// OrderCreate checks out the authenticated user's cart.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		order, err := svc.CreateOrder(ctx, orders.CreateOrderInput{
			UserID:          userID,
			PaymentMethod:   method,
			ShippingName:    validators.SanitizeString(payload.ShippingName, 120),
			ShippingPhone:   validators.SanitizeString(payload.ShippingPhone, 32),
			ShippingAddress: validators.SanitizeString(payload.ShippingAddress, 500),
			ShippingCity:    validators.SanitizeString(payload.ShippingCity, 120),
			ShippingCountry: validators.SanitizeString(payload.ShippingCountry, 120),
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrdersList returns the authenticated user's order history.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
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

		resp, err := svc.ListOrders(ctx, orders.ListOrdersInput{
			UserID: userID,
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

// OrderGet returns one order, scoped to its owner.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.GetOrder(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderCancel cancels a pending order and restores its stock.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.CancelOrder(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderReorder copies a past order's lines back into the cart, skipping
// whatever can no longer be bought.
func OrderReorder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Reorder(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func orderStatusFromQuery(r *http.Request) (*enums.OrderStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return &status, nil
}
