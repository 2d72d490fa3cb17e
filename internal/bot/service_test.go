package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hwbot/partswatch/internal/core/domain"
	"github.com/hwbot/partswatch/internal/infra/storage/memory"
)

type fakeCache struct {
	stats map[string]int64
	gets  int
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{stats: make(map[string]int64)}
}

func (c *fakeCache) key(category domain.Category, stat string) string {
	return fmt.Sprintf("%s:%s", category, stat)
}

func (c *fakeCache) GetPrice(_ context.Context, category domain.Category, stat string) (int64, bool, error) {
	c.gets++
	price, found := c.stats[c.key(category, stat)]
	return price, found, nil
}

func (c *fakeCache) SetPrice(_ context.Context, category domain.Category, stat string, price int64) error {
	c.sets++
	c.stats[c.key(category, stat)] = price
	return nil
}

func seedService(t *testing.T, cache StatsCache) (*Service, *memory.HistoryRepo) {
	t.Helper()
	store := memory.NewMemoryStorage()
	components := memory.NewComponentRepo(store)
	history := memory.NewHistoryRepo(store)

	records := []domain.Component{
		{ID: "r1", Category: domain.CategoryRAM, Title: "budget stick", Price: 2500},
		{ID: "r2", Category: domain.CategoryRAM, Title: "mid stick", Price: 7500},
		{ID: "r3", Category: domain.CategoryRAM, Title: "premium stick", Price: 15000},
		{ID: "r4", Category: domain.CategoryRAM, Title: "also budget", Price: 2500},
		{ID: "r5", Category: domain.CategoryRAM, Title: "unpriced", Price: 0},
	}
	if err := components.InsertBatch(context.Background(), records); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	return NewService(components, history, cache), history
}

func TestLowReturnsAllCheapestAndIgnoresZeroPrices(t *testing.T) {
	svc, history := seedService(t, nil)
	ctx := context.Background()

	records, err := svc.Low(ctx, 42, domain.CategoryRAM)
	if err != nil {
		t.Fatalf("Low: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Low returned %d records, want the 2 sharing the minimum", len(records))
	}
	for _, r := range records {
		if r.Price != 2500 {
			t.Errorf("Low returned price %d, want 2500", r.Price)
		}
	}

	entries, err := history.GetByUser(ctx, 42)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Command != "low" || e.PriceFrom != 2500 || e.PriceUpTo != 2500 {
		t.Errorf("history entry = %q %d-%d, want low 2500-2500", e.Command, e.PriceFrom, e.PriceUpTo)
	}
	if e.ID == "" {
		t.Error("history entry has no id")
	}
}

func TestHighReturnsMostExpensive(t *testing.T) {
	svc, _ := seedService(t, nil)

	records, err := svc.High(context.Background(), 42, domain.CategoryRAM)
	if err != nil {
		t.Fatalf("High: %v", err)
	}
	if len(records) != 1 || records[0].Price != 15000 {
		t.Fatalf("High = %+v, want single record at 15000", records)
	}
}

func TestCustomValidatesRangeAgainstStoredBounds(t *testing.T) {
	svc, _ := seedService(t, nil)
	ctx := context.Background()

	records, err := svc.Custom(ctx, 42, domain.CategoryRAM, 2500, 8000)
	if err != nil {
		t.Fatalf("Custom: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Custom returned %d records, want 3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Price < records[i-1].Price {
			t.Errorf("records not ordered by price: %d before %d", records[i-1].Price, records[i].Price)
		}
	}

	outOfBounds := [][2]int64{
		{100, 8000},    // below stored minimum
		{2500, 99999},  // above stored maximum
		{8000, 2500},   // reversed
		{99999, 99999}, // entirely outside
	}
	for _, r := range outOfBounds {
		if _, err := svc.Custom(ctx, 42, domain.CategoryRAM, r[0], r[1]); !errors.Is(err, ErrRangeOutOfBounds) {
			t.Errorf("Custom(%d, %d) error = %v, want ErrRangeOutOfBounds", r[0], r[1], err)
		}
	}
}

func TestQueriesOnEmptyCategoryReportNoRecords(t *testing.T) {
	svc, _ := seedService(t, nil)
	ctx := context.Background()

	if _, err := svc.Low(ctx, 42, domain.CategoryGPU); !errors.Is(err, ErrNoRecords) {
		t.Errorf("Low on empty category: %v, want ErrNoRecords", err)
	}
	if _, err := svc.Custom(ctx, 42, domain.CategoryGPU, 100, 200); !errors.Is(err, ErrNoRecords) {
		t.Errorf("Custom on empty category: %v, want ErrNoRecords", err)
	}
}

func TestBoundPriceUsesCacheAside(t *testing.T) {
	cache := newFakeCache()
	svc, _ := seedService(t, cache)
	ctx := context.Background()

	price, ok, err := svc.MinPrice(ctx, domain.CategoryRAM)
	if err != nil || !ok || price != 2500 {
		t.Fatalf("MinPrice = %d, %v, %v; want 2500", price, ok, err)
	}
	if cache.sets != 1 {
		t.Fatalf("first lookup should fill the cache, sets = %d", cache.sets)
	}

	if _, _, err := svc.MinPrice(ctx, domain.CategoryRAM); err != nil {
		t.Fatalf("second MinPrice: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("second lookup should hit the cache, sets = %d", cache.sets)
	}
}

func TestHistoryEntryLookup(t *testing.T) {
	svc, _ := seedService(t, nil)
	ctx := context.Background()

	if _, err := svc.Low(ctx, 7, domain.CategoryRAM); err != nil {
		t.Fatalf("Low: %v", err)
	}
	entries, err := svc.History(ctx, 7)
	if err != nil || len(entries) != 1 {
		t.Fatalf("History = %d entries, %v; want 1", len(entries), err)
	}

	entry, found, err := svc.HistoryEntry(ctx, 7, entries[0].ID)
	if err != nil || !found {
		t.Fatalf("HistoryEntry(%s) found=%v err=%v", entries[0].ID, found, err)
	}
	if len(entry.Result) != 2 {
		t.Errorf("saved result has %d records, want 2", len(entry.Result))
	}

	if _, found, _ := svc.HistoryEntry(ctx, 7, "missing"); found {
		t.Error("HistoryEntry found a nonexistent id")
	}
	// Other users never see each other's history.
	if _, found, _ := svc.HistoryEntry(ctx, 8, entries[0].ID); found {
		t.Error("HistoryEntry crossed user boundaries")
	}
}

func TestRangeDoesNotRecordHistory(t *testing.T) {
	svc, history := seedService(t, nil)
	ctx := context.Background()

	records, err := svc.Range(ctx, domain.CategoryRAM, 2500, 15000)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Range returned %d records, want 4", len(records))
	}

	entries, err := history.GetByUser(ctx, 42)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Range recorded %d history entries, want none", len(entries))
	}
}
