// Package backend selects and opens the configured storage implementation.
package backend

import (
	"context"
	"fmt"

	"github.com/finanbot/finanbot/internal/config"
	"github.com/finanbot/finanbot/internal/storage"
	"github.com/finanbot/finanbot/internal/storage/postgres"
	"github.com/finanbot/finanbot/internal/storage/sqlite"
)

// Open returns the store named by cfg.DataBackend.
func Open(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case config.BackendPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	case config.BackendSQLite:
		return sqlite.New(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
