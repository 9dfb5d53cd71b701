package setup

import (
	"context"
	"errors"
	"fmt"

	"github.com/itchan-dev/strapikit/apiclient"
	"github.com/itchan-dev/strapikit/frontend/internal/handler"
	"github.com/itchan-dev/strapikit/shared/config"
	"github.com/itchan-dev/strapikit/shared/logger"
	"github.com/itchan-dev/strapikit/shared/richtext"
	"github.com/itchan-dev/strapikit/shared/storage"
	"github.com/itchan-dev/strapikit/shared/tracing"
)

const serviceName = "strapikit-frontend"

type Dependencies struct {
	Public  config.Public
	Client  *apiclient.APIClient
	Handler *handler.Handler
	// Sessions is the server-side session store, nil when sessions live in
	// browser cookies.
	Sessions storage.Store

	closers []func(context.Context) error
}

func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	logger.Initialize(cfg.Public.Log.Level, cfg.Public.Log.JSON)

	deps := &Dependencies{Public: cfg.Public}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Public.Tracing, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	deps.closers = append(deps.closers, shutdownTracing)

	if cfg.Public.Frontend.ServerSessions {
		store, closeStore, err := NewStore(cfg)
		if err != nil {
			deps.Close(ctx)
			return nil, fmt.Errorf("failed to initialize session store: %w", err)
		}
		deps.Sessions = store
		deps.closers = append(deps.closers, func(context.Context) error { return closeStore() })
		logger.Log.Info("server-side sessions enabled", "backend", cfg.Public.Store.Backend)
	}

	// Every request gets its own copy bound to its session; the base
	// client's store is never read.
	deps.Client = apiclient.New(cfg.Public, storage.NewMemory(0))
	deps.Handler = handler.New(cfg.Public, richtext.New())

	return deps, nil
}

// NewStore opens the store.backend named in cfg.
func NewStore(cfg *config.Config) (storage.Store, func() error, error) {
	noop := func() error { return nil }

	switch backend := cfg.Public.Store.Backend; backend {
	case "", "memory":
		return storage.NewMemory(0), noop, nil
	case "redis":
		rdb := storage.NewRedisClient(cfg.Public.Store.RedisAddr, cfg.RedisPassword(), cfg.Public.Store.RedisDB)
		return storage.NewRedis(rdb, "strapikit:"), rdb.Close, nil
	case "sqlite":
		s, err := storage.OpenSQLite(cfg.Public.Store.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Close releases everything SetupDependencies opened, newest first.
func (d *Dependencies) Close(ctx context.Context) error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
