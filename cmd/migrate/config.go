package main

import (
	"fmt"

	"bookrecords/internal/config"
)

// loadConfig reads .env files without overriding the runtime environment
// (e.g. Docker) and returns the shared service config. MigrationsDir comes
// from MIGRATIONS_DIR and defaults to db/migrations.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load migrate config: %w", err)
	}
	return cfg, nil
}
