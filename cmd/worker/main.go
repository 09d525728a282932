package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/contribhub/sync-functions/config"
	"github.com/contribhub/sync-functions/internal/bootstrap"
	"github.com/contribhub/sync-functions/internal/reconcile"
	"github.com/contribhub/sync-functions/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: worker <sweep|schedule>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	if err := run(cfg, os.Args[1]); err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("worker exited")
	}
}

func run(cfg *config.Config, command string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, &cfg.Firebase)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	sweeper := reconcile.NewSweeper(stores.Docs, cfg.Sweep.DeletesPerSecond)

	switch command {
	case "sweep":
		if _, err := sweeper.Run(ctx); err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		return nil
	case "schedule":
		return runScheduled(ctx, sweeper, cfg.Sweep.Schedule)
	}
	return fmt.Errorf("unknown command %q", command)
}

// runScheduled runs the sweep on the cron expression until ctx is cancelled. Overlapping runs are skipped.
func runScheduled(ctx context.Context, sweeper *reconcile.Sweeper, expr string) error {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(expr, func() {
		if _, err := sweeper.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled sweep finished with errors")
		}
	})
	if err != nil {
		return fmt.Errorf("create cron job %q: %w", expr, err)
	}

	log.Info().Str("schedule", expr).Msg("sweep scheduler started")
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("sweep scheduler stopped")
	return nil
}
