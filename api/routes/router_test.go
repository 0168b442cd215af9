package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/checkout"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	"github.com/angelmondragon/packfinderz-storefront/pkg/backend"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage/memory"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

type stubBackend struct {
	role   string
	orders int
}

func (s *stubBackend) Login(_ context.Context, role string, creds backend.Credentials) (*backend.AuthResponse, error) {
	if creds.Password != "secret" {
		return nil, &backend.RemoteError{Status: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	s.role = role
	user := `{"id":"u-1","email":"` + creds.Email + `","role":"` + role + `"}`
	return &backend.AuthResponse{AccessToken: "tok", User: json.RawMessage(user)}, nil
}

func (s *stubBackend) Register(ctx context.Context, role string, input backend.Registration) (*backend.AuthResponse, error) {
	return s.Login(ctx, role, backend.Credentials{Email: input.Email, Password: input.Password})
}

func (s *stubBackend) CreateOrder(_ context.Context, token string, req backend.OrderRequest, _ string) (*backend.Order, error) {
	if token != "tok" {
		return nil, errors.New("missing token")
	}
	s.orders++
	return &backend.Order{ID: "o-1", Status: "pending"}, nil
}

type testServer struct {
	handler http.Handler
	engine  *cart.Engine
	backend *stubBackend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New("pf")
	reg := prometheus.NewRegistry()
	m := metrics.NewStorefrontMetrics(reg)

	engine := cart.NewEngine(cart.WithEngineMetrics(m))
	mirror := cart.NewMirror(store, cart.WithMirrorMetrics(m))
	mirror.Attach(engine)
	t.Cleanup(func() { _ = mirror.Close(context.Background()) })

	be := &stubBackend{}
	sessions := session.NewManager(store, be)
	gateway, err := checkout.NewGateway(engine, mirror, be, checkout.WithTokenSource(sessions), checkout.WithMetrics(m))
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Storage.Driver = config.StorageDriverMemory

	handler := NewRouter(Deps{
		Config:   cfg,
		Logger:   logger.Nop(),
		Cart:     engine,
		Checkout: gateway,
		Session:  sessions,
		Storage:  store,
		Gatherer: reg,
	})
	return &testServer{handler: handler, engine: engine, backend: be}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	data, ok := env.Data.(map[string]any)
	require.True(t, ok, "unexpected data %v", env.Data)
	return data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env.Error
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "").Code)
	ready := s.do(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Equal(t, "memory", decodeData(t, ready)["storage"])

	s.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":1,"name":"Widget","unitPrice":"1.00"}`)
	metricsRec := s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), "storefront_cart_intents_total")

	missing := s.do(t, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, missing).Code)
}

func TestCartEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":1,"name":"Widget","unitPrice":"10.00","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":1,"name":"Widget","unitPrice":"10.00","quantity":2}`)
	data := decodeData(t, rec)
	assert.Equal(t, "30", data["total"])
	assert.EqualValues(t, 3, data["itemCount"])

	rec = s.do(t, http.MethodPatch, "/api/v1/cart/items/1", `{"quantity":0}`)
	data = decodeData(t, rec)
	assert.EqualValues(t, 0, data["itemCount"])
	assert.Empty(t, data["items"])

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":2,"name":"Gadget","unitPrice":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/cart/items/abc", `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":5,"name":"A","unitPrice":"50"}`)
	s.do(t, http.MethodDelete, "/api/v1/cart/items/5", "")
	rec = s.do(t, http.MethodGet, "/api/v1/cart", "")
	assert.EqualValues(t, 0, decodeData(t, rec)["itemCount"])

	s.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":6,"name":"B","unitPrice":"25","quantity":2}`)
	rec = s.do(t, http.MethodDelete, "/api/v1/cart", "")
	assert.EqualValues(t, 0, decodeData(t, rec)["itemCount"])
}

func TestViewGuards(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/views/admin", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodPost, "/api/v1/session/login", `{"email":"c@shop.test","password":"secret","role":"Customer"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "authenticated", decodeData(t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/api/v1/views/admin", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/api/v1/views/account", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "account", decodeData(t, rec)["view"])

	rec = s.do(t, http.MethodPost, "/api/v1/session/logout", "")
	assert.Equal(t, "/login", decodeData(t, rec)["redirect"])
	rec = s.do(t, http.MethodGet, "/api/v1/views/account", "")
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoginFailureSurfacesServerMessage(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/session/login", `{"email":"c@shop.test","password":"wrong","role":"customer"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, "AUTH_FAILED", apiErr.Code)
	assert.Equal(t, "invalid credentials", apiErr.Message)

	rec = s.do(t, http.MethodGet, "/api/v1/session", "")
	data := decodeData(t, rec)
	assert.Equal(t, "error", data["status"])
	assert.Equal(t, "invalid credentials", data["error"])
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	address := `{"deliveryAddress":{"line1":"1 Main","city":"Austin","postalCode":"78701","country":"US"}}`

	rec := s.do(t, http.MethodPost, "/api/v1/checkout", address)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	s.do(t, http.MethodPost, "/api/v1/session/login", `{"email":"c@shop.test","password":"secret","role":"customer"}`)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout", address)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "EMPTY_CART", decodeError(t, rec).Code)
	assert.Zero(t, s.backend.orders)

	s.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":1,"name":"Widget","unitPrice":"10.00","quantity":3}`)
	rec = s.do(t, http.MethodPost, "/api/v1/checkout", `{"deliveryAddress":{"line1":"1 Main"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout", address)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "o-1", decodeData(t, rec)["id"])
	assert.Equal(t, 1, s.backend.orders)
	assert.True(t, s.engine.Snapshot().IsEmpty())
}

func TestMerchantCannotCheckout(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/session/login", `{"email":"m@shop.test","password":"secret","role":"merchant"}`)
	rec := s.do(t, http.MethodPost, "/api/v1/checkout", `{}`)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
	rec = s.do(t, http.MethodGet, "/api/v1/views/merchant", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartQuantityIsBounded(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":1,"name":"Widget","unitPrice":"1","quantity":9223372036854775807}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	s.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":1,"name":"Widget","unitPrice":"1","quantity":9999}`)
	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":1,"name":"Widget","unitPrice":"1","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.EqualValues(t, cart.MaxQuantity, data["itemCount"])
	assert.Equal(t, "9999", data["total"])

	rec = s.do(t, http.MethodPatch, "/api/v1/cart/items/1", `{"quantity":10000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileUpdateCannotEscalateRole(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/session/login", `{"email":"c@shop.test","password":"secret","role":"customer"}`)

	rec := s.do(t, http.MethodPut, "/api/v1/session/user", `{"email":"c@shop.test","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/session/user", `{"email":"c@shop.test","name":"Casey"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	user, ok := decodeData(t, rec)["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "customer", user["role"])
	assert.Equal(t, "u-1", user["id"])

	rec = s.do(t, http.MethodGet, "/api/v1/views/admin", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
}
