package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/core"
	"kakeibo/internal/session"
)

// ViewModel serves Screens for a session, caching per month and week start.
// A cached value is only reused while the store version it was computed at
// is still current.
type ViewModel struct {
	session *session.Session
	cache   cache.Cache[Screens]
	logger  *slog.Logger

	mu        sync.Mutex
	renderers []func(Screens)

	unsubscribe func()
}

// Options configures a ViewModel.
type Options struct {
	Cache  cache.Cache[Screens]
	Logger *slog.Logger
	// Live makes the ViewModel recompute the cursor month and call the
	// render callbacks whenever the month or ledger changes.
	Live bool
}

// New creates a ViewModel. A nil cache gets a small in-process LRU.
func New(s *session.Session, opts Options) *ViewModel {
	if opts.Cache == nil {
		opts.Cache = cache.NewLRUCache[Screens](12, 10*time.Minute)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	vm := &ViewModel{
		session: s,
		cache:   opts.Cache,
		logger:  opts.Logger.With("component", "viewmodel"),
	}
	vm.unsubscribe = s.Notifier().Subscribe(func(ev session.Event) {
		vm.handle(ev, opts.Live)
	})
	return vm
}

// Close stops listening to session events.
func (vm *ViewModel) Close() {
	vm.unsubscribe()
}

// OnRender registers fn to receive recomputed screens in Live mode.
func (vm *ViewModel) OnRender(fn func(Screens)) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.renderers = append(vm.renderers, fn)
}

// Current returns the screens for the cursor month.
func (vm *ViewModel) Current(ctx context.Context) (Screens, error) {
	return vm.ScreensFor(ctx, vm.session.Cursor().Current(), vm.session.WeekStart())
}

// ScreensFor returns the screens for month laid out from weekStart.
func (vm *ViewModel) ScreensFor(ctx context.Context, month core.Month, weekStart time.Weekday) (Screens, error) {
	ver, err := vm.session.Version(ctx)
	if err != nil {
		return Screens{}, err
	}

	key := cacheKey(month, weekStart)
	if cached, ok := vm.cache.Get(key); ok && cached.Version == ver {
		return cached, nil
	}

	snap, err := vm.session.SnapshotFor(ctx, month)
	if err != nil {
		return Screens{}, fmt.Errorf("snapshot %s: %w", month, err)
	}
	snap.WeekStart = weekStart

	screens := Compute(snap)
	vm.cache.Set(key, screens)
	vm.logger.DebugContext(ctx, "Screens computed",
		"month", month.String(),
		"week_start", weekStart.String(),
		"version", screens.Version,
		"entries", len(snap.Entries))
	return screens, nil
}

// Invalidate drops every cached layout of month.
func (vm *ViewModel) Invalidate(month core.Month) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		vm.cache.Delete(cacheKey(month, wd))
	}
}

func (vm *ViewModel) handle(ev session.Event, live bool) {
	if ev.Kind == session.LedgerChanged && !ev.Month.IsZero() {
		vm.Invalidate(ev.Month)
	}
	if !live {
		return
	}

	current := vm.session.Cursor().Current()
	if ev.Kind == session.LedgerChanged && ev.Month != current {
		return
	}

	screens, err := vm.Current(context.Background())
	if err != nil {
		vm.logger.Error("Recompute failed", "month", current.String(), "event", ev.Kind.String(), "error", err)
		return
	}

	vm.mu.Lock()
	renderers := make([]func(Screens), len(vm.renderers))
	copy(renderers, vm.renderers)
	vm.mu.Unlock()

	for _, fn := range renderers {
		fn(screens)
	}
}

func cacheKey(month core.Month, weekStart time.Weekday) string {
	return fmt.Sprintf("%s:%d", month.String(), int(weekStart))
}
