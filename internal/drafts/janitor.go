package drafts

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// StartJanitor schedules pruning of drafts older than retention. The caller
// stops the returned scheduler on shutdown.
func StartJanitor(store *Store, schedule string, retention time.Duration, logger zerolog.Logger) (*cron.Cron, error) {
	logger = logger.With().Str("component", "drafts-janitor").Logger()

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))

	_, err := c.AddFunc(schedule, func() {
		prune(store, retention, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	c.Start()
	logger.Info().
		Str("schedule", schedule).
		Dur("retention", retention).
		Msg("Drafts janitor started")

	return c, nil
}

func prune(store *Store, retention time.Duration, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := store.PruneOlderThan(ctx, retention)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to prune drafts")
		return
	}
	if removed > 0 {
		logger.Info().Int64("removed", removed).Msg("Pruned stale drafts")
	}
}
