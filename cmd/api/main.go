package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/contribhub/sync-functions/config"
	"github.com/contribhub/sync-functions/internal/bootstrap"
	contribsvc "github.com/contribhub/sync-functions/internal/contributors/service"
	projectsvc "github.com/contribhub/sync-functions/internal/projects/service"
	"github.com/contribhub/sync-functions/internal/triggers"
	triggershttp "github.com/contribhub/sync-functions/internal/triggers/http"
	"github.com/contribhub/sync-functions/internal/triggers/ledger"
	usersvc "github.com/contribhub/sync-functions/internal/users/service"
	"github.com/contribhub/sync-functions/pkg/logger"
)

const serviceName = "sync-functions"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("api exited")
	}
}

// run owns every resource it opens, so deferred closes run before main exits.
func run(cfg *config.Config) error {
	ctx := context.Background()

	stores, err := bootstrap.OpenStores(ctx, &cfg.Firebase)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	services := triggers.Services{
		Projects:     projectsvc.NewProjectService(stores.Docs, stores.Blobs),
		Contributors: contribsvc.NewContributorService(stores.Docs),
		Users:        usersvc.NewUserService(stores.Docs),
	}

	var opts []triggers.Option
	if stores.Verifier != nil {
		opts = append(opts, triggers.WithTokenVerifier(stores.Verifier))
	}

	deps := triggershttp.RouterDeps{
		ServiceName:   serviceName,
		Version:       cfg.App.Version,
		Region:        cfg.App.Region,
		TriggerSecret: cfg.Server.TriggerSecret,
	}

	if cfg.Redis.Addr != "" {
		rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()

		l := ledger.NewRedisLedger(rdb, cfg.Redis.LedgerTTL)
		opts = append(opts, triggers.WithLedger(l))
		deps.Ledger = l
		deps.Events = l
	} else {
		log.Info().Msg("REDIS_ADDR not set, invocation ledger disabled")
	}

	deps.Dispatcher = triggers.NewDispatcher(services, opts...)
	router := triggershttp.BuildRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("region", cfg.App.Region).Msg("trigger ingress listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
