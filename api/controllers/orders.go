package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/teahouse-backend/api/middleware"
	"github.com/angelmondragon/teahouse-backend/api/responses"
	"github.com/angelmondragon/teahouse-backend/api/validators"
	cartsvc "github.com/angelmondragon/teahouse-backend/internal/cart"
	orderssvc "github.com/angelmondragon/teahouse-backend/internal/orders"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
)

type checkoutRequest struct {
	CustomerEmail string         `json:"customer_email" validate:"omitempty,email"`
	CustomerName  string         `json:"customer_name"`
	Address       models.Address `json:"address" validate:"required"`
	PaymentMethod string         `json:"payment_method"`
}

type advanceRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderCreate checks out the acting session's cart. The cart is cleared
// only after the order is durably written.
func OrderCreate(orders orderssvc.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		email := payload.CustomerEmail
		if email == "" {
			email = actor.Email
		}

		cart, err := carts.Get(r.Context(), actor.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := orders.Create(r.Context(), orderssvc.CreateInput{
			Cart:          cart,
			CustomerEmail: email,
			CustomerName:  payload.CustomerName,
			SessionID:     actor.SessionID,
			Address:       payload.Address,
			PaymentMethod: payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := carts.Clear(r.Context(), actor.SessionID); err != nil && logg != nil {
			logg.Warn(r.Context(), "cart not cleared after checkout")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderGet(orders orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		order, err := orders.Get(r.Context(), chi.URLParam(r, "orderID"), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderList returns the actor's orders, or every order for admins.
// Admins may filter with the email, session_id, and status query
// parameters.
func OrderList(orders orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())

		filter := orderssvc.Filter{
			Email:     r.URL.Query().Get("email"),
			SessionID: r.URL.Query().Get("session_id"),
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = status
		}

		listed, err := orders.List(r.Context(), filter, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listed)
	}
}

func OrderCancel(orders orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		order, err := orders.Cancel(r.Context(), chi.URLParam(r, "orderID"), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderAdvance(orders orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())

		var payload advanceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		order, err := orders.Advance(r.Context(), chi.URLParam(r, "orderID"), status, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderArchive(orders orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		if err := orders.Archive(r.Context(), chi.URLParam(r, "orderID"), actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "archived"})
	}
}
