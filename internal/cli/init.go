// Package cli provides the process bootstrap shared by cmd/kakeibo,
// cmd/kakeibo-worker and cmd/kakeibo-cli.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kakeibo/internal/backend"
	"kakeibo/internal/cache"
	"kakeibo/internal/calendar"
	"kakeibo/internal/config"
	"kakeibo/internal/log"
	"kakeibo/internal/viewmodel"
)

const (
	viewCachePrefix       = "kakeibo:screens:"
	viewCacheCleanupEvery = time.Minute
)

// SetupLogger builds the process logger at level, tags it with component and
// installs it as the slog default.
func SetupLogger(level slog.Level, component string, out io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     level,
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// WeekStart parses the configured first weekday of calendar rows.
func WeekStart(cfg *config.Config) (time.Weekday, error) {
	return calendar.ParseWeekday(cfg.WeekStart)
}

// OpenBackend creates the ledger store described by cfg.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg backend.Config) (*backend.BackendResult, error) {
	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)
	res, err := factory.CreateBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Type, err)
	}
	return res, nil
}

// NewViewCache returns the screen cache: Redis when REDIS_URL is set,
// otherwise an in-process LRU cleaned by a cache.Manager. The returned func
// releases whatever was started.
func NewViewCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (cache.Cache[viewmodel.Screens], func(), error) {
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using Redis view cache", "ttl", cfg.CacheTTL)
		c := cache.NewRedisCache[viewmodel.Screens](client, viewCachePrefix, cfg.CacheTTL, logger.Logger)
		return c, func() { _ = client.Close() }, nil
	}

	lru := cache.NewLRUCache[viewmodel.Screens](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager(logger.Logger)
	manager.Register(lru)
	manager.StartCleanup(viewCacheCleanupEvery)
	logger.Info("Using in-process view cache", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	return lru, manager.Stop, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup ran or timeout elapsed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
