package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/teahouse-backend/api/controllers"
	"github.com/angelmondragon/teahouse-backend/api/middleware"
	cartsvc "github.com/angelmondragon/teahouse-backend/internal/cart"
	catalogsvc "github.com/angelmondragon/teahouse-backend/internal/catalog"
	orderssvc "github.com/angelmondragon/teahouse-backend/internal/orders"
	sitesvc "github.com/angelmondragon/teahouse-backend/internal/siteconfig"
	userssvc "github.com/angelmondragon/teahouse-backend/internal/users"
	"github.com/angelmondragon/teahouse-backend/pkg/config"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Catalog catalogsvc.Service
	Cart    cartsvc.Service
	Orders  orderssvc.Service
	Site    sitesvc.Service
	Users   userssvc.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, records store.Store, svcs Services) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz/live", controllers.HealthLive(cfg))
	r.Get("/healthz/ready", controllers.HealthReady(cfg, records))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.ResolveActor(cfg.JWT, logg))

		r.Post("/auth/register", controllers.Register(svcs.Users, cfg.JWT, logg))
		r.Post("/auth/login", controllers.Login(svcs.Users, cfg.JWT, logg))

		r.Get("/catalog", controllers.CatalogList(svcs.Catalog, logg))
		r.Get("/catalog/{productID}", controllers.CatalogGet(svcs.Catalog, logg))

		r.Get("/config", controllers.SiteConfigGet(svcs.Site, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
			r.Get("/quote", controllers.CartQuote(svcs.Cart, svcs.Site, logg))
			r.Post("/items", controllers.CartAdd(svcs.Cart, logg))
			r.Post("/items/{variantKey}/increase", controllers.CartIncrease(svcs.Cart, logg))
			r.Post("/items/{variantKey}/decrease", controllers.CartDecrease(svcs.Cart, logg))
			r.Delete("/items/{variantKey}", controllers.CartRemove(svcs.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, svcs.Cart, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.OrderGet(svcs.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(svcs.Orders, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Put("/catalog", controllers.CatalogSave(svcs.Catalog, logg))
			r.Put("/config", controllers.SiteConfigSave(svcs.Site, logg))
			r.Post("/orders/{orderID}/advance", controllers.OrderAdvance(svcs.Orders, logg))
			r.Delete("/orders/{orderID}", controllers.OrderArchive(svcs.Orders, logg))
		})
	})

	return r
}
