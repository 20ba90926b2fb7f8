package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/teahouse-backend/api/routes"
	cartsvc "github.com/angelmondragon/teahouse-backend/internal/cart"
	catalogsvc "github.com/angelmondragon/teahouse-backend/internal/catalog"
	orderssvc "github.com/angelmondragon/teahouse-backend/internal/orders"
	sitesvc "github.com/angelmondragon/teahouse-backend/internal/siteconfig"
	userssvc "github.com/angelmondragon/teahouse-backend/internal/users"
	"github.com/angelmondragon/teahouse-backend/pkg/bus"
	"github.com/angelmondragon/teahouse-backend/pkg/config"
	"github.com/angelmondragon/teahouse-backend/pkg/db"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/metrics"
	"github.com/angelmondragon/teahouse-backend/pkg/migrate"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	records, events, cleanup, err := buildBackends(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap record store", err)
		os.Exit(1)
	}
	defer cleanup()

	keys := store.NewKeys(cfg.Store.Namespace)
	counts := metrics.NewStorefrontMetrics(prometheus.DefaultRegisterer)

	catalogService, err := catalogsvc.NewService(records, keys, events, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(records, keys, events, catalogService, logg, counts)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}
	orderService, err := orderssvc.NewService(records, keys, events, logg, counts)
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}
	siteService, err := sitesvc.NewService(records, keys, events, logg)
	if err != nil {
		logg.Error(ctx, "failed to create site config service", err)
		os.Exit(1)
	}
	userService, err := userssvc.NewService(records, keys, cfg.Password, logg)
	if err != nil {
		logg.Error(ctx, "failed to create user service", err)
		os.Exit(1)
	}

	if err := seed(ctx, cfg, logg, records, keys, userService); err != nil {
		logg.Error(ctx, "failed to seed records", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"store": cfg.Store.NormalizedDriver(),
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, records, routes.Services{
			Catalog: catalogService,
			Cart:    cartService,
			Orders:  orderService,
			Site:    siteService,
			Users:   userService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildBackends wires the record store and event bus for the configured
// driver. Redis bridges events across processes; the other drivers stay
// in-process.
func buildBackends(ctx context.Context, cfg *config.Config, logg *logger.Logger) (store.Store, bus.Bus, func(), error) {
	noop := func() {}

	switch cfg.Store.NormalizedDriver() {
	case config.StoreDriverSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			client.Close()
			return nil, nil, noop, err
		}
		records, err := store.NewSQL(client.DB())
		if err != nil {
			client.Close()
			return nil, nil, noop, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				logg.Error(ctx, "error closing database", err)
			}
		}
		return records, bus.NewMemory(), cleanup, nil

	case config.StoreDriverRedis:
		client, err := store.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, noop, err
		}
		records, err := store.NewRedis(client)
		if err != nil {
			client.Close()
			return nil, nil, noop, err
		}
		events, err := bus.NewRedis(client, cfg.Redis.BusChannel, logg)
		if err != nil {
			client.Close()
			return nil, nil, noop, err
		}
		cleanup := func() {
			events.Close()
			if err := client.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}
		return records, events, cleanup, nil

	default:
		return store.NewMemory(), bus.NewMemory(), noop, nil
	}
}

func seed(ctx context.Context, cfg *config.Config, logg *logger.Logger, records store.Store, keys store.Keys, users userssvc.Service) error {
	if cfg.Seed.Catalog {
		seeded, err := catalogsvc.SeedIfEmpty(ctx, records, keys)
		if err != nil {
			return err
		}
		if seeded {
			logg.Info(ctx, "seeded starter catalog")
		}
	}
	if cfg.Seed.Config {
		if err := sitesvc.SeedIfEmpty(ctx, records, keys); err != nil {
			return err
		}
	}
	if cfg.Seed.Admin && cfg.Seed.AdminPassword != "" {
		_, err := users.Register(ctx, userssvc.RegisterInput{
			Email:    cfg.Seed.AdminEmail,
			Name:     "Store Admin",
			Password: cfg.Seed.AdminPassword,
			Role:     enums.ActorRoleAdmin,
		})
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return err
		}
	}
	return nil
}
