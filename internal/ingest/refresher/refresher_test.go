package refresher

import (
	"context"
	"testing"
	"time"

	"github.com/hwbot/partswatch/internal/core/domain"
	"github.com/hwbot/partswatch/internal/infra/storage/memory"
)

type fakeFetcher struct {
	results map[domain.Category]bool
	store   map[domain.Category][]domain.Component
	repo    *memory.ComponentRepo
	calls   []domain.Category
}

func (f *fakeFetcher) Refresh(ctx context.Context, category domain.Category, offset int) bool {
	f.calls = append(f.calls, category)
	ok := f.results[category]
	if ok && f.repo != nil {
		_ = f.repo.DeleteCategory(ctx, category)
		_ = f.repo.InsertBatch(ctx, f.store[category])
	}
	return ok
}

func newRefresher(
	t *testing.T,
	cfg Config,
	fetcher *fakeFetcher,
	now time.Time,
) (*Refresher, *memory.ScheduleRepo, *memory.ComponentRepo) {
	t.Helper()
	store := memory.NewMemoryStorage()
	schedules := memory.NewScheduleRepo(store)
	components := memory.NewComponentRepo(store)
	fetcher.repo = components

	r := New(cfg, fetcher, schedules, components, nil)
	r.now = func() time.Time { return now }
	return r, schedules, components
}

func TestBootstrapStaggersDueDates(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	r, schedules, _ := newRefresher(t, Config{}, &fakeFetcher{}, now)

	if err := r.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	entries, err := schedules.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(entries) != len(domain.Categories()) {
		t.Fatalf("entries = %d, want %d", len(entries), len(domain.Categories()))
	}

	// Due dates are strictly one day apart in registry order, starting
	// tomorrow.
	byCategory := make(map[domain.Category]time.Time, len(entries))
	for _, e := range entries {
		byCategory[e.Category] = domain.DateOf(e.NextDue)
	}
	expected := domain.DateOf(now)
	for _, category := range domain.Categories() {
		expected = expected.AddDate(0, 0, 1)
		if !byCategory[category].Equal(expected) {
			t.Fatalf("%s due %v, want %v", category, byCategory[category], expected)
		}
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	r, schedules, _ := newRefresher(t, Config{}, &fakeFetcher{}, now)

	if err := r.Bootstrap(context.Background()); err != nil {
		t.Fatalf("first Bootstrap: %v", err)
	}

	// Age one entry, as the scheduler would after a successful refresh.
	custom := domain.Schedule{Category: domain.CategoryGPU, NextDue: now.AddDate(0, 0, 42)}
	if err := schedules.Save(context.Background(), custom); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := r.Bootstrap(context.Background()); err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}

	entries, _ := schedules.GetAll(context.Background())
	for _, e := range entries {
		if e.Category == domain.CategoryGPU {
			if !domain.DateOf(e.NextDue).Equal(domain.DateOf(custom.NextDue)) {
				t.Fatalf("reseeding touched an existing due date: %v", e.NextDue)
			}
			return
		}
	}
	t.Fatalf("gpu entry missing")
}

func TestCycleReschedulesOnSuccess(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{
		results: map[domain.Category]bool{domain.CategoryRAM: true},
		store: map[domain.Category][]domain.Component{
			domain.CategoryRAM: {
				{ID: "r1", Category: domain.CategoryRAM, Price: 1999},
				{ID: "r2", Category: domain.CategoryRAM, Price: 4000},
			},
		},
	}
	r, schedules, components := newRefresher(t, Config{FrequencyDays: 3}, fetcher, now)

	due := domain.Schedule{Category: domain.CategoryRAM, NextDue: now}
	if err := schedules.Save(context.Background(), due); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r.RunCycle(context.Background())

	if len(fetcher.calls) != 1 || fetcher.calls[0] != domain.CategoryRAM {
		t.Fatalf("fetch calls = %v, want [ram]", fetcher.calls)
	}

	entries, _ := schedules.GetAll(context.Background())
	want := domain.DateOf(now).AddDate(0, 0, 3)
	if !domain.DateOf(entries[0].NextDue).Equal(want) {
		t.Fatalf("next due = %v, want %v", entries[0].NextDue, want)
	}

	count, _ := components.Count(context.Background(), domain.CategoryRAM)
	if count != 2 {
		t.Fatalf("stored records = %d, want 2", count)
	}
}

func TestCycleLeavesDueDateOnFailure(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{results: map[domain.Category]bool{}}
	r, schedules, _ := newRefresher(t, Config{FrequencyDays: 3}, fetcher, now)

	lastDue := now.AddDate(0, 0, -2)
	entry := domain.Schedule{Category: domain.CategoryGPU, NextDue: lastDue}
	if err := schedules.Save(context.Background(), entry); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r.RunCycle(context.Background())

	entries, _ := schedules.GetAll(context.Background())
	if !domain.DateOf(entries[0].NextDue).Equal(domain.DateOf(lastDue)) {
		t.Fatalf("failed refresh moved the due date to %v", entries[0].NextDue)
	}
}

func TestCycleSkipsNotDueCategories(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{results: map[domain.Category]bool{domain.CategoryRAM: true}}
	r, schedules, _ := newRefresher(t, Config{}, fetcher, now)

	_ = schedules.Save(context.Background(), domain.Schedule{
		Category: domain.CategoryRAM, NextDue: now.AddDate(0, 0, 1),
	})

	r.RunCycle(context.Background())

	if len(fetcher.calls) != 0 {
		t.Fatalf("fetched %v although nothing was due", fetcher.calls)
	}
}
