package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/teahouse-backend/api/middleware"
	"github.com/angelmondragon/teahouse-backend/api/responses"
	"github.com/angelmondragon/teahouse-backend/api/validators"
	cartsvc "github.com/angelmondragon/teahouse-backend/internal/cart"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
)

type addItemRequest struct {
	ProductID string   `json:"product_id" validate:"required"`
	Size      string   `json:"size"`
	Quantity  int      `json:"quantity"`
	Name      string   `json:"name"`
	Image     string   `json:"image"`
	Price     *float64 `json:"price" validate:"omitempty,gte=0"`
	Stock     *int     `json:"stock"`
}

type cartResponse struct {
	SessionID  string            `json:"session_id"`
	Lines      []models.CartLine `json:"lines"`
	TotalItems int               `json:"total_items"`
	Subtotal   float64           `json:"subtotal"`
}

func newCartResponse(cart *models.Cart) cartResponse {
	return cartResponse{
		SessionID:  cart.SessionID,
		Lines:      cart.Lines,
		TotalItems: cart.TotalItems(),
		Subtotal:   cart.Subtotal(),
	}
}

func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		cart, err := svc.Get(r.Context(), actor.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartAdd adds an item. When the payload carries a price the snapshot
// is taken verbatim; otherwise the item is resolved from the catalog.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			cart *models.Cart
			err  error
		)
		if payload.Price != nil {
			cart, err = svc.Add(r.Context(), actor.SessionID, cartsvc.AddInput{
				ProductID:  payload.ProductID,
				Name:       payload.Name,
				Image:      payload.Image,
				Size:       payload.Size,
				Price:      *payload.Price,
				Quantity:   payload.Quantity,
				StockAtAdd: payload.Stock,
			})
		} else {
			cart, err = svc.AddProduct(r.Context(), actor.SessionID, payload.ProductID, payload.Size, payload.Quantity)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

func CartIncrease(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartLineAction(svc.Increase, logg)
}

func CartDecrease(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartLineAction(svc.Decrease, logg)
}

func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartLineAction(svc.Remove, logg)
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		if err := svc.Clear(r.Context(), actor.SessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func cartLineAction(action func(ctx context.Context, sessionID, variantKey string) (*models.Cart, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		variantKey := chi.URLParam(r, "variantKey")

		cart, err := action(r.Context(), actor.SessionID, variantKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}
