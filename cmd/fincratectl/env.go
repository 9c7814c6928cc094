package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fincrate/fincrate-backend/internal/config"
	"github.com/fincrate/fincrate-backend/internal/database"
)

// openDatabase loads the configuration and opens the configured database.
// The -db flag of a command overrides DB_PATH when set.
func openDatabase(ctx context.Context, override string, migrate bool) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if override != "" {
		cfg.Database.Path = override
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}

	if migrate {
		if _, err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate %s: %w", cfg.Database.Path, err)
		}
	}
	return cfg, db, nil
}
