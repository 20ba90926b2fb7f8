package controllers

import (
	"net/http"

	"github.com/angelmondragon/teahouse-backend/api/middleware"
	"github.com/angelmondragon/teahouse-backend/api/responses"
	"github.com/angelmondragon/teahouse-backend/api/validators"
	cartsvc "github.com/angelmondragon/teahouse-backend/internal/cart"
	"github.com/angelmondragon/teahouse-backend/internal/pricing"
	configsvc "github.com/angelmondragon/teahouse-backend/internal/siteconfig"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
)

func SiteConfigGet(svc configsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}

func SiteConfigSave(svc configsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())

		var payload models.SiteConfig
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Save(r.Context(), payload, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}

// CartQuote prices the acting session's cart under the current site
// configuration without creating an order.
func CartQuote(carts cartsvc.Service, site configsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())

		cart, err := carts.Get(r.Context(), actor.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cfg, err := site.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pricing.Price(cart.Lines, cfg))
	}
}
