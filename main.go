package main

import (
	"context"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"tabguard/adapters/api"
	"tabguard/adapters/postgres"
	"tabguard/internal"
	"tabguard/internal/config"
)

func main() {
	// Load .env file if present; real environments set variables directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		internal.DefaultLogger.Warn("could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		internal.DefaultLogger.Error("loading configuration: %v", err)
		os.Exit(1)
	}

	logger := internal.DefaultLogger

	// The Postgres-backed lookup repository is optional; the file-based
	// lookup path needs no database at all.
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("connecting to database: %v", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := postgres.NewLookupRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			logger.Error("ensuring lookup schema: %v", err)
			os.Exit(1)
		}
		logger.Info("lookup-table persistence enabled")
	}

	if cfg.Paths.PublicKeyFile != "" {
		logger.Info("publishing public key from %s", cfg.Paths.PublicKeyFile)
	}
	server := api.NewServer(logger, cfg.Paths.PublicKeyFile)
	addr := ":" + cfg.Server.Port
	logger.Info("listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
