package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"

	"github.com/shopfront-dev/shopfront/internal/config"
	"github.com/shopfront-dev/shopfront/internal/logger"
	"github.com/shopfront-dev/shopfront/internal/seed"
	"github.com/shopfront-dev/shopfront/internal/server"
	"github.com/shopfront-dev/shopfront/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	if cfg.Logging.Format == "console" {
		figure.NewFigure("shopfront", "cybermedium", true).Print()
		fmt.Println()
	}

	// Create server
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	if cfg.SeedFile != "" {
		if err := seed.LoadFile(srv.GetDB(), cfg.SeedFile, log); err != nil {
			log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("Failed to load seed data")
		}
	}

	cleanup := workers.NewTokenCleanup(srv.GetDB(), log)
	if err := cleanup.Start(cfg.CleanupSchedule); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule token cleanup")
	}
	defer cleanup.Stop()

	log.Info().Str("version", version).Msg("Starting shopfront development backend...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("Server failed")
		cleanup.Stop()
		os.Exit(1)
	}
}
