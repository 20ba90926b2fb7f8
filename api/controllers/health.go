package controllers

import (
	"net/http"

	"github.com/angelmondragon/teahouse-backend/api/responses"
	"github.com/angelmondragon/teahouse-backend/pkg/config"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Teahouse-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness, pinging the record store when its
// backend supports it.
func HealthReady(cfg *config.Config, records store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Teahouse-Env", cfg.App.Env)
		status := map[string]string{"status": "ready", "store": cfg.Store.Driver}
		if pinger, ok := records.(store.Pinger); ok {
			if err := pinger.Ping(r.Context()); err != nil {
				status["status"] = "degraded"
				status["store_error"] = err.Error()
				responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
				return
			}
		}
		responses.WriteSuccess(w, status)
	}
}
