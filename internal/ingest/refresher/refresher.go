package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hwbot/partswatch/internal/core/domain"
	"github.com/hwbot/partswatch/internal/infra/storage"
	"github.com/hwbot/partswatch/internal/ingest/metrics"
)

// Fetcher runs one fetch session for a category and reports whether at
// least one page was stored.
type Fetcher interface {
	Refresh(ctx context.Context, category domain.Category, offset int) bool
}

// StatsCache is notified after a category's records were replaced so stale
// cached aggregates are dropped. Optional.
type StatsCache interface {
	Invalidate(ctx context.Context, category domain.Category) error
}

// Config holds refresher configuration.
type Config struct {
	// FrequencyDays is how far out a category is rescheduled after a
	// successful refresh.
	FrequencyDays int

	// CycleInterval is the fixed pause between scheduler passes.
	CycleInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.FrequencyDays == 0 {
		c.FrequencyDays = 7
	}
	if c.CycleInterval == 0 {
		c.CycleInterval = 24 * time.Hour
	}
	return c
}

// Refresher is the daily-resolution control loop that keeps every
// category's stored records fresh. It owns the refresh schedule: entries
// are seeded once, staggered a day apart, and thereafter only the
// refresher writes them.
type Refresher struct {
	cfg        Config
	fetcher    Fetcher
	schedules  storage.ScheduleRepository
	components storage.ComponentRepository
	cache      StatsCache
	log        *slog.Logger

	// now is swapped out in tests
	now func() time.Time
}

// New creates a refresher. cache may be nil.
func New(
	cfg Config,
	fetcher Fetcher,
	schedules storage.ScheduleRepository,
	components storage.ComponentRepository,
	cache StatsCache,
) *Refresher {
	return &Refresher{
		cfg:        cfg.withDefaults(),
		fetcher:    fetcher,
		schedules:  schedules,
		components: components,
		cache:      cache,
		log:        slog.Default().With("component", "refresher"),
		now:        time.Now,
	}
}

// Run bootstraps the schedule and then cycles until the context is
// cancelled. Every failure inside a cycle is logged and absorbed; the loop
// itself never exits on a category's failure.
func (r *Refresher) Run(ctx context.Context) error {
	if err := r.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap schedule: %w", err)
	}

	ticker := time.NewTicker(r.cfg.CycleInterval)
	defer ticker.Stop()

	r.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.RunCycle(ctx)
		}
	}
}

// Bootstrap reseeds the schedule when the entry count does not match the
// number of known categories: all entries are dropped and one per category
// is inserted, due dates staggered a day apart starting tomorrow so a cold
// start does not stampede the endpoint. A schedule that already matches is
// left untouched.
func (r *Refresher) Bootstrap(ctx context.Context) error {
	categories := domain.Categories()

	count, err := r.schedules.Count(ctx)
	if err != nil {
		return err
	}
	if count == len(categories) {
		return nil
	}

	if err := r.schedules.DeleteAll(ctx); err != nil {
		return err
	}

	due := domain.DateOf(r.now())
	for _, category := range categories {
		due = due.AddDate(0, 0, 1)
		s := domain.Schedule{Category: category, NextDue: due}
		if err := r.schedules.Save(ctx, s); err != nil {
			return fmt.Errorf("seed schedule for %s: %w", category, err)
		}
	}

	r.log.Info("refresh schedule seeded", "categories", len(categories))
	return nil
}

// RunCycle runs one pass: every category due today or earlier is fetched.
// Success moves the due date FrequencyDays out; failure leaves it
// unchanged so the next cycle retries.
func (r *Refresher) RunCycle(ctx context.Context) {
	entries, err := r.schedules.GetAll(ctx)
	if err != nil {
		r.log.Error("failed to read refresh schedule", "error", err)
		return
	}

	today := domain.DateOf(r.now())
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if !entry.Due(today) {
			continue
		}
		r.refreshCategory(ctx, entry, today)
	}
}

// RefreshOne fetches a single category immediately, regardless of its due
// date. One-shot CLI refreshes use it.
func (r *Refresher) RefreshOne(ctx context.Context, category domain.Category) error {
	entries, err := r.schedules.GetAll(ctx)
	if err != nil {
		return err
	}

	entry := domain.Schedule{Category: category, NextDue: domain.DateOf(r.now())}
	for _, e := range entries {
		if e.Category == category {
			entry = e
			break
		}
	}

	r.refreshCategory(ctx, entry, domain.DateOf(r.now()))
	return nil
}

func (r *Refresher) refreshCategory(ctx context.Context, entry domain.Schedule, today time.Time) {
	ok := r.fetcher.Refresh(ctx, entry.Category, 0)
	count, countErr := r.components.Count(ctx, entry.Category)
	if countErr != nil {
		r.log.Error("failed to count records", "category", entry.Category, "error", countErr)
	}

	if !ok {
		metrics.RefreshesTotal.WithLabelValues(string(entry.Category), "failure").Inc()
		r.log.Warn("category refresh failed",
			"category", entry.Category,
			"next_due", domain.DateOf(entry.NextDue),
			"records", count)
		return
	}

	entry.NextDue = today.AddDate(0, 0, r.cfg.FrequencyDays)
	if err := r.schedules.Save(ctx, entry); err != nil {
		// The stale due date makes the next cycle retry.
		r.log.Error("failed to persist schedule", "category", entry.Category, "error", err)
	}

	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, entry.Category); err != nil {
			r.log.Warn("failed to invalidate stats cache", "category", entry.Category, "error", err)
		}
	}

	metrics.RefreshesTotal.WithLabelValues(string(entry.Category), "success").Inc()
	r.log.Info("category refreshed",
		"category", entry.Category,
		"records", count,
		"next_due", domain.DateOf(entry.NextDue))
}
