package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/amqp"
	"kakeibo/internal/backend"
	"kakeibo/internal/cli"
	apphttp "kakeibo/internal/http"
	"kakeibo/internal/log"
	"kakeibo/internal/services"
	"kakeibo/internal/session"
	"kakeibo/internal/viewmodel"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.DefaultConfig().Level, log.ComponentApp, os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.SlogLevel(), log.ComponentApp, os.Stdout)

	weekStart, err := cli.WeekStart(cfg)
	if err != nil {
		logger.Error("Invalid week start", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := cli.OpenBackend(context.Background(), logger, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Close()

	viewCache, stopCache, err := cli.NewViewCache(context.Background(), cfg, logger.WithComponent(log.ComponentCache))
	if err != nil {
		logger.Error("Failed to initialize view cache", "error", err)
		os.Exit(1)
	}
	defer stopCache()

	// AMQP is optional for the API: without it only in-process views refresh.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	sess := session.New(res.Backend, session.Options{WeekStart: weekStart})
	views := viewmodel.New(sess, viewmodel.Options{Cache: viewCache, Logger: logger.Logger})
	defer views.Close()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:    services.NewLedgerService(res.Backend, sess, publisher),
		Views:     views,
		WeekStart: weekStart,
		Ready:     readiness(res.Backend),
		Logger:    logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting kakeibo server", "port", cfg.Port, "backend", cfg.DataBackend, "week_start", weekStart.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// readiness pings SQL backends and falls back to reading the store version.
func readiness(b backend.Backend) func(ctx context.Context) error {
	if p, ok := b.(interface{ Ping(context.Context) error }); ok {
		return p.Ping
	}
	return func(ctx context.Context) error {
		_, err := b.Version(ctx)
		return err
	}
}
