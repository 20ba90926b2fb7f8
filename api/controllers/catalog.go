package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/teahouse-backend/api/middleware"
	"github.com/angelmondragon/teahouse-backend/api/responses"
	"github.com/angelmondragon/teahouse-backend/api/validators"
	catalogsvc "github.com/angelmondragon/teahouse-backend/internal/catalog"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
)

func CatalogList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func CatalogGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.GetProduct(r.Context(), chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type saveCatalogRequest struct {
	Products []models.Product `json:"products" validate:"required,dive"`
}

// CatalogSave replaces the whole catalog record.
func CatalogSave(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())

		var payload saveCatalogRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Save(r.Context(), payload.Products, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"products": len(payload.Products)})
	}
}
