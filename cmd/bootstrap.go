package main

import (
	"fmt"

	"license-key-server/internal/config"
	"license-key-server/internal/database"
	"license-key-server/internal/logger"

	"go.uber.org/zap"
)

// bootstrap loads the configuration, installs the logger and opens a
// migrated database. Callers close the returned DB.
func bootstrap() (*config.Config, *zap.Logger, *database.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.AddDatabaseTables(); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return cfg, log, db, nil
}
