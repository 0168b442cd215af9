package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/packfinderz-storefront/api/routes"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/checkout"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	"github.com/angelmondragon/packfinderz-storefront/pkg/backend"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	store, err := openStorage(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mx := metrics.NewStorefrontMetrics(registry)

	engine := cart.NewEngine(cart.WithEngineLogger(logg), cart.WithEngineMetrics(mx))
	mirror := cart.NewMirror(store.backend,
		cart.WithMirrorLogger(logg),
		cart.WithMirrorMetrics(mx),
		cart.WithWriteTimeout(cfg.Storage.WriteTimeout),
		cart.WithQueueSize(cfg.Storage.QueueSize),
	)
	// Hydrate before attaching so the restored cart is not written straight back.
	engine.LoadCart(mirror.Load(ctx))
	detach := mirror.Attach(engine)
	defer detach()

	client, err := backend.NewFromConfig(cfg.Backend,
		backend.WithStateChangeHook(func(name string, from, to gobreaker.State) {
			logg.Warn(logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}), "backend circuit breaker state changed")
		}),
	)
	if err != nil {
		return err
	}

	sessions := session.NewManager(store.backend, client,
		session.WithLogger(logg),
		session.WithExpiryLeeway(cfg.Session.ExpiryLeeway),
		session.WithNavigator(func(path string) {
			logg.Info(logg.WithField(context.Background(), "path", path), "navigation requested")
		}),
	)
	restored := sessions.Restore(ctx)
	logg.Info(logg.WithField(ctx, "session_status", string(restored.Status)), "session restored")

	shipping, err := cfg.Checkout.ShippingFeeAmount()
	if err != nil {
		return err
	}
	discount, err := cfg.Checkout.DiscountAmount()
	if err != nil {
		return err
	}
	gateway, err := checkout.NewGateway(engine, mirror, client,
		checkout.WithTimeout(cfg.Checkout.Timeout),
		checkout.WithFees(shipping, discount),
		checkout.WithTokenSource(sessions),
		checkout.WithLogger(logg),
		checkout.WithMetrics(mx),
	)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Cart:     engine,
			Checkout: gateway,
			Session:  sessions,
			Storage:  store.backend,
			Backend:  client,
			Gatherer: registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(serveCtx, "starting storefront server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logg.Info(serveCtx, "shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serveCtx, "server shutdown failed", err)
	}
	if err := mirror.Close(shutdownCtx); err != nil {
		logg.Error(serveCtx, "cart mirror did not drain", err)
	}
	logg.Info(serveCtx, "storefront stopped")
	return serveErr
}
