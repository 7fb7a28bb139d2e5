package app

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartkeeper/internal/cart"
	"github.com/nikolayk812/cartkeeper/internal/config"
	"github.com/nikolayk812/cartkeeper/internal/metrics"
	"github.com/nikolayk812/cartkeeper/internal/port"
	"github.com/nikolayk812/cartkeeper/internal/repository"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/currency"
)

// Runtime bundles a cart store with the storage resources it depends on.
type Runtime struct {
	Store    *cart.Store
	Currency currency.Unit

	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *log.Entry) (*Runtime, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	unit, err := cfg.CurrencyUnit()
	if err != nil {
		return nil, err
	}

	storage, closeStorage, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewStorage: %w", err)
	}

	store, err := cart.NewStore(storage,
		cart.WithKey(cfg.SnapshotKey),
		cart.WithLogger(logger.WithField("component", "cart-store")),
		cart.WithMetrics(metrics.NewStoreMetrics()),
		cart.WithWriteDebounce(cfg.WriteDebounce),
		cart.WithSerialWrites(cfg.SerialWrites),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("cart.NewStore: %w", err), closeStorage())
	}

	logger.WithFields(log.Fields{
		"storage":  cfg.Storage,
		"key":      cfg.SnapshotKey,
		"debounce": cfg.WriteDebounce,
	}).Debug("cart store created")

	return &Runtime{
		Store:    store,
		Currency: unit,
		closers:  []func() error{closeStorage},
	}, nil
}

// Close ends the store lifetime and releases storage resources.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if err := r.Store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("store.Close: %w", err))
	}
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewStorage opens the SnapshotStorage selected by cfg.Storage.
func NewStorage(ctx context.Context, cfg config.Config) (port.SnapshotStorage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage {
	case config.StorageMemory:
		return repository.NewMemoryStorage(), noop, nil

	case config.StorageSQLite:
		storage, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("repository.OpenSQLite: %w", err)
		}
		return storage, storage.Close, nil

	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		if err := repository.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("repository.MigratePostgres: %w", err)
		}
		return repository.NewPostgresStorage(pool), func() error {
			pool.Close()
			return nil
		}, nil

	case config.StorageRedis:
		client, err := repository.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("repository.NewRedisClient: %w", err)
		}
		return repository.NewRedisStorage(client), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage[%s]", cfg.Storage)
	}
}
