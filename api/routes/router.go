package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-storefront/api/controllers"
	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
)

// SessionService is everything the router needs from the session manager.
type SessionService interface {
	controllers.SessionService
	middleware.IdentitySource
}

// Deps carries the collaborators wired in cmd/storefront.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Cart     controllers.CartStore
	Checkout controllers.OrderSubmitter
	Session  SessionService
	Storage  storage.Pinger
	Backend  controllers.BreakerReporter
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Storage, deps.Backend))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(deps.Session, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart))
			r.Delete("/", controllers.CartClear(deps.Cart))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{id}", controllers.CartUpdateQuantity(deps.Cart, logg))
			r.Delete("/items/{id}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.With(middleware.RequireRoles(logg, enums.RoleCustomer.String())).
			Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/session", func(r chi.Router) {
			r.Get("/", controllers.SessionGet(deps.Session))
			r.Post("/login", controllers.SessionLogin(deps.Session, logg))
			r.Post("/register", controllers.SessionRegister(deps.Session, logg))
			r.Post("/logout", controllers.SessionLogout(deps.Session, logg))
			r.Put("/user", controllers.SessionUpdateUser(deps.Session, logg))
		})

		r.Route("/views", func(r chi.Router) {
			r.With(middleware.RequireRoles(logg,
				enums.RoleCustomer.String(), enums.RoleMerchant.String(), enums.RoleAdmin.String(),
			)).Get("/account", controllers.View("account"))
			r.With(middleware.RequireRoles(logg, enums.RoleMerchant.String())).Get("/merchant", controllers.View("merchant"))
			r.With(middleware.RequireRoles(logg, enums.RoleAdmin.String())).Get("/admin", controllers.View("admin"))
		})
	})

	return r
}
