package db

import (
	"context"
	"fmt"

	"github.com/homestage-ai/staging-client/internal/config"
	"github.com/homestage-ai/staging-client/internal/db/drivers"
)

// NewConnection opens the history database. Sqlite is the default for a
// single workstation; a Postgres DSN shares history across a team.
func NewConnection(ctx context.Context, cfg *config.Config) (drivers.Driver, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is not configured")
	}

	switch cfg.DB.Driver {
	case "sqlite":
		return drivers.NewSQLiteDriver(ctx, cfg.DB.DSN)
	case "pg":
		return drivers.NewPGDriver(ctx, cfg.DB.DSN)
	}

	return nil, fmt.Errorf("invalid database driver: %s", cfg.DB.Driver)
}
