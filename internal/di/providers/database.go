package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/librarykit/loan-server/internal/config"
	"github.com/librarykit/loan-server/internal/logger"
	"github.com/librarykit/loan-server/internal/store"
	"github.com/librarykit/loan-server/internal/store/badgerstore"
	"github.com/librarykit/loan-server/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the configured store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := OpenStore(context.Background(), cfg, log.Logger)
	if err != nil {
		return nil, err
	}

	return &StoreHandle{Store: st}, nil
}

// OpenStore opens the store selected by cfg.Store.Driver, creating local
// directories as needed.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.DatabaseURL), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		st, err := sqlstore.OpenSQLite(ctx, cfg.Store.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", cfg.Store.Driver, "path", cfg.Store.DatabaseURL)
		return st, nil

	case config.StoreDriverPostgres:
		st, err := sqlstore.Open(ctx, sqlstore.DriverPostgres, cfg.Store.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", cfg.Store.Driver)
		return st, nil

	case config.StoreDriverBadger:
		if err := os.MkdirAll(cfg.Store.DatabaseURL, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		st, err := badgerstore.New(cfg.Store.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", cfg.Store.Driver, "path", cfg.Store.DatabaseURL)
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
