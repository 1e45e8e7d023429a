// dbhealth pings the configured database and exits non-zero on failure.
// Useful as a container health probe and a quick DSN sanity check.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := common.InitLogger(cfg.Log)
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.HealthCheck(ctx, pool, 3*time.Second); err != nil {
		logger.Error("ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database healthy")
}
