package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/config"
	"github.com/blogdeck/blogdeck/internal/drafts"
	"github.com/blogdeck/blogdeck/internal/logger"
	"github.com/blogdeck/blogdeck/internal/server"
	"github.com/blogdeck/blogdeck/internal/session"
	"github.com/blogdeck/blogdeck/internal/tokenstore"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Server failed")
		stop()
		os.Exit(1)
	}
}

// run wires the web client and serves until ctx ends
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	tokens, err := tokenstore.Open(cfg.Storage.TokenStore, cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	client := api.New(cfg.API.BaseURL, cfg.API.Timeout)
	sess := session.New(client, tokens, log)

	store, err := drafts.Open(cfg.Drafts.DatabasePath, log)
	if err != nil {
		return fmt.Errorf("failed to open drafts database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close drafts database")
		}
	}()

	janitor, err := drafts.StartJanitor(store, cfg.Drafts.PruneSchedule, cfg.Drafts.Retention, log)
	if err != nil {
		return fmt.Errorf("failed to start drafts janitor: %w", err)
	}
	defer janitor.Stop()

	srv, err := server.New(cfg, log, server.Deps{
		Session: sess,
		API:     client,
		Drafts:  store,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info().
		Str("version", version).
		Str("api_url", cfg.API.BaseURL).
		Msg("Starting blogdeck web client...")

	// Blocks until ctx ends or the listener fails
	return srv.Run(ctx)
}
