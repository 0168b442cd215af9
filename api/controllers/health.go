package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
	"github.com/sony/gobreaker/v2"
)

const readyTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PackFinderz-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// BreakerReporter exposes the backend circuit breaker state.
type BreakerReporter interface {
	BreakerState() gobreaker.State
}

// HealthReady pings the slot store backing the cart and session mirrors and reports the
// backend breaker. An open breaker does not fail readiness; checkout fails fast instead.
func HealthReady(cfg *config.Config, logg *logger.Logger, store storage.Pinger, breaker BreakerReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PackFinderz-Env", cfg.App.Env)
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "slot store unavailable"))
				return
			}
		}
		payload := map[string]string{"status": "ready", "storage": cfg.Storage.Driver}
		if breaker != nil {
			payload["backend"] = breaker.BreakerState().String()
		}
		responses.WriteSuccess(w, payload)
	}
}
