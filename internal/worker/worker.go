// Package worker runs the periodic maintenance loop: cache expiry, cookie
// cooldown probes and runtime settings refresh.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/risunCode/downaria/internal/config"
	"github.com/risunCode/downaria/internal/repository"
	"github.com/risunCode/downaria/internal/service"
)

// Worker performs background maintenance on a fixed interval.
type Worker struct {
	repos    *repository.Repositories
	cache    *service.CacheService
	cookies  *service.CookieService
	settings *config.SettingsLoader
	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new worker.
func New(
	repos *repository.Repositories,
	cache *service.CacheService,
	cookies *service.CookieService,
	settings *config.SettingsLoader,
	interval time.Duration,
	logger *slog.Logger,
) *Worker {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		repos:    repos,
		cache:    cache,
		cookies:  cookies,
		settings: settings,
		interval: interval,
		stop:     make(chan struct{}),
		logger:   logger.With("component", "worker"),
		now:      time.Now,
	}
}

// Start begins the maintenance loop.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("starting", "interval", w.interval)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.logger.Info("stopping")
	close(w.stop)
	w.wg.Wait()
	w.logger.Info("stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one maintenance pass. Exported so the server can run an
// initial pass at startup.
func (w *Worker) Sweep(ctx context.Context) {
	w.purgeCache(ctx)
	w.probeCooldownCookies(ctx)
	w.refreshSettings(ctx)
}

func (w *Worker) purgeCache(ctx context.Context) {
	deleted, err := w.cache.PurgeExpired(ctx)
	if err != nil {
		w.logger.Error("cache purge failed", "error", err)
		return
	}
	if deleted > 0 {
		w.logger.Info("purged expired cache entries", "count", deleted)
	}
}

// probeCooldownCookies re-checks cookies whose cooldown has elapsed. A
// passing probe is what moves them back to healthy; a failing one records
// the error and leaves the status alone.
func (w *Worker) probeCooldownCookies(ctx context.Context) {
	entries, err := w.repos.Cookie.ListCooldownElapsed(ctx, w.now())
	if err != nil {
		w.logger.Error("failed to list cooldown cookies", "error", err)
		return
	}

	for _, entry := range entries {
		healthy, err := w.cookies.TestHealth(ctx, entry.ID)
		if err != nil {
			w.logger.Warn("cookie probe errored", "id", entry.ID, "error", err)
			continue
		}
		w.logger.Info("cooldown cookie probed",
			"id", entry.ID, "platform", entry.Platform, "healthy", healthy)
	}
}

func (w *Worker) refreshSettings(ctx context.Context) {
	if w.settings == nil {
		return
	}
	if err := w.settings.Refresh(ctx); err != nil {
		w.logger.Warn("settings refresh failed", "error", err)
	}
}
