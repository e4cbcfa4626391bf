package storage

import (
	"chatrelay/internal/app/adapters/metrics"
	"chatrelay/internal/app/infrastructure/config"
	"chatrelay/internal/app/ports"
	"chatrelay/pkg/logger"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrUnknownDriver = errors.New("unknown storage driver")
	errDisabled      = errors.New("storage disabled by configuration")
)

// Open connects the configured backend. A misconfigured driver is an error;
// an unreachable backend is not: it is logged once and the relay runs in
// degraded mode with the Unavailable store.
func Open(ctx context.Context, cfg config.Storage, log logger.Logger) (ports.MessageStore, error) {
	backend, err := OpenBackend(ctx, cfg, log)
	if errors.Is(err, ErrUnknownDriver) {
		return nil, err
	}
	if err != nil {
		metrics.StoreAvailable.Set(0)
		if errors.Is(err, errDisabled) {
			log.Info("Message store disabled, history will be empty")
		} else {
			log.Error("Message store unavailable, continuing without history", err,
				slog.String("driver", cfg.Driver),
			)
		}
		return NewUnavailable(log, err.Error()), nil
	}

	metrics.StoreAvailable.Set(1)
	log.Info("Message store connected", slog.String("backend", backend.Name()))

	return NewStore(log, backend, StoreOptions{
		Timeout:  cfg.Timeout.Std(),
		CacheTTL: cfg.CacheTTL.Std(),
	}), nil
}

// OpenBackend returns the raw backend for cfg.Driver, bounded by the connect timeout.
func OpenBackend(ctx context.Context, cfg config.Storage, log logger.Logger) (ports.StoreBackend, error) {
	if t := cfg.ConnectTimeout.Std(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	switch cfg.Driver {
	case config.DriverMongo:
		return OpenMongo(ctx, cfg.URI, cfg.Database, cfg.Collection)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.StoragePath(), cfg.Timeout.Std())
	case config.DriverBadger:
		return OpenBadger(cfg.StoragePath(), log)
	case config.DriverMemory:
		return NewMemory(cfg.MemoryCapacity), nil
	case config.DriverNone:
		return nil, errDisabled
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}
