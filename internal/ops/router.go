// Package ops serves the dispatcher's health and metrics endpoints.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parejaapp/pareja-backend/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterParams struct {
	Logger   *logger.Logger
	Env      string
	DB       Pinger
	Gatherer prometheus.Gatherer
}

type envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		Recoverer(params.Logger),
		Logging(params.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", healthLive(params.Env))
		r.Get("/ready", healthReady(params.Env, params.Logger, params.DB))
	})

	gatherer := params.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func healthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pareja-Env", env)
		writeJSON(w, http.StatusOK, envelope{Data: map[string]string{"status": "live"}})
	}
}

func healthReady(env string, logg *logger.Logger, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pareja-Env", env)
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(ctx, "health.ready database ping failed", err)
				}
				writeJSON(w, http.StatusServiceUnavailable, envelope{Error: &apiError{
					Code:    "DEPENDENCY_ERROR",
					Message: "database unavailable",
				}})
				return
			}
		}
		writeJSON(w, http.StatusOK, envelope{Data: map[string]string{"status": "ready"}})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
