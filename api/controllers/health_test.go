package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	"github.com/sony/gobreaker/v2"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "test"

	rec := httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), stubPinger{}, nil)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-PackFinderz-Env") != "test" {
		t.Fatalf("missing env header")
	}

	rec = httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), stubPinger{err: errors.New("redis down")}, nil)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

type stubBreaker gobreaker.State

func (s stubBreaker) BreakerState() gobreaker.State { return gobreaker.State(s) }

func TestHealthReadyReportsBreaker(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = config.StorageDriverMemory

	rec := httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), stubPinger{}, stubBreaker(gobreaker.StateOpen))(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("open breaker must not fail readiness, got %d", rec.Code)
	}
	var env types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["backend"] != "open" || data["storage"] != "memory" {
		t.Fatalf("unexpected payload %v", env.Data)
	}
}

func TestCheckoutRequiresIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	Checkout(nil, logger.Nop())(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
