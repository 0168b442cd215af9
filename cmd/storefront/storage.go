package main

import (
	"context"
	"fmt"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/db"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/migrate"
	"github.com/angelmondragon/packfinderz-storefront/pkg/redis"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage/memory"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage/sqlstore"
)

// slotBackend bundles the selected slot store with its health check and teardown.
type slotBackend interface {
	storage.Slots
	storage.Pinger
}

type openedStorage struct {
	backend slotBackend
	close   func() error
}

func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*openedStorage, error) {
	ctx = logg.WithField(ctx, "storage_driver", cfg.Storage.Driver)

	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, cfg.Storage.Namespace, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		return &openedStorage{backend: client, close: client.Close}, nil

	case config.StorageDriverSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.MaybeRunAuto(ctx, cfg, logg, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		store, err := sqlstore.New(client.DB(), cfg.Storage.Namespace)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &openedStorage{backend: store, close: client.Close}, nil

	case config.StorageDriverMemory:
		logg.Warn(ctx, "memory storage selected; cart and session will not survive restarts")
		return &openedStorage{backend: memory.New(cfg.Storage.Namespace), close: func() error { return nil }}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
