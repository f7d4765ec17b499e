package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"kakeibo/internal/backend"
	"kakeibo/internal/cache"
	"kakeibo/internal/config"
	"kakeibo/internal/log"
	"kakeibo/internal/viewmodel"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(slog.LevelWarn, log.ComponentWorker, &buf)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))) })

	logger.Info("hidden")
	slog.Warn("through default")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "through default") {
		t.Error("SetupLogger should install the slog default")
	}
	if logger.Component() != log.ComponentWorker {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestWeekStart(t *testing.T) {
	wd, err := WeekStart(&config.Config{WeekStart: "Mon"})
	if err != nil || wd != time.Monday {
		t.Errorf("WeekStart = %v, %v", wd, err)
	}
	if _, err := WeekStart(&config.Config{WeekStart: "someday"}); err == nil {
		t.Error("unknown weekday should fail")
	}
}

func TestOpenBackend(t *testing.T) {
	logger := log.New(log.Config{Output: &bytes.Buffer{}})

	res, err := OpenBackend(context.Background(), logger, backend.Config{Type: backend.MemoryBackend})
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	if _, err := OpenBackend(context.Background(), logger, backend.Config{Type: backend.SQLiteBackend}); err == nil {
		t.Error("sqlite without a path should fail")
	}
}

func TestNewViewCache(t *testing.T) {
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	ctx := context.Background()

	t.Run("in-process", func(t *testing.T) {
		c, stop, err := NewViewCache(ctx, &config.Config{CacheSize: 4, CacheTTL: time.Minute}, logger)
		if err != nil {
			t.Fatalf("NewViewCache: %v", err)
		}
		defer stop()
		if _, ok := c.(*cache.LRUCache[viewmodel.Screens]); !ok {
			t.Errorf("cache = %T, want LRU", c)
		}
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c, stop, err := NewViewCache(ctx, &config.Config{RedisURL: "redis://" + mr.Addr(), CacheTTL: time.Minute}, logger)
		if err != nil {
			t.Fatalf("NewViewCache: %v", err)
		}
		defer stop()

		c.Set("2022-06/0", viewmodel.Screens{Version: 3})
		got, ok := c.Get("2022-06/0")
		if !ok || got.Version != 3 {
			t.Errorf("Get = %+v, %v", got, ok)
		}
		if !mr.Exists(viewCachePrefix + "2022-06/0") {
			t.Error("value should be stored under the screens prefix")
		}
	})

	t.Run("redis down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		if _, _, err := NewViewCache(ctx, &config.Config{RedisURL: "redis://" + addr, CacheTTL: time.Minute}, logger); err == nil {
			t.Error("unreachable Redis should fail")
		}
	})
}
