package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hwbot/partswatch/internal/core/domain"
)

// MemoryStorage backs the in-memory repositories. Used by tests and by
// db-less runs; one instance is shared by all three repos.
type MemoryStorage struct {
	mu         sync.RWMutex
	components map[domain.Category]map[string]domain.Component
	schedules  map[domain.Category]domain.Schedule
	history    []domain.HistoryEntry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		components: make(map[domain.Category]map[string]domain.Component),
		schedules:  make(map[domain.Category]domain.Schedule),
	}
}

// -----------------------------------------------------------------------------
// Component Repository
// -----------------------------------------------------------------------------

type ComponentRepo struct {
	store *MemoryStorage
}

func NewComponentRepo(store *MemoryStorage) *ComponentRepo {
	return &ComponentRepo{store: store}
}

func (r *ComponentRepo) InsertBatch(ctx context.Context, components []domain.Component) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Reject duplicate keys up front so a bad page leaves nothing behind,
	// mirroring the transactional insert of the postgres repo.
	for _, c := range components {
		if byID, ok := r.store.components[c.Category]; ok {
			if _, exists := byID[c.ID]; exists {
				return fmt.Errorf("duplicate component %s/%s", c.Category, c.ID)
			}
		}
	}
	for _, c := range components {
		byID, ok := r.store.components[c.Category]
		if !ok {
			byID = make(map[string]domain.Component)
			r.store.components[c.Category] = byID
		}
		byID[c.ID] = c
	}
	return nil
}

func (r *ComponentRepo) DeleteCategory(ctx context.Context, category domain.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.components, category)
	return nil
}

func (r *ComponentRepo) Count(ctx context.Context, category domain.Category) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.components[category]), nil
}

func (r *ComponentRepo) MinPrice(
	ctx context.Context,
	category domain.Category,
	includeZero bool,
) (int64, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var best int64
	found := false
	for _, c := range r.store.components[category] {
		if c.Price == 0 && !includeZero {
			continue
		}
		if !found || c.Price < best {
			best = c.Price
			found = true
		}
	}
	return best, found, nil
}

func (r *ComponentRepo) MaxPrice(
	ctx context.Context,
	category domain.Category,
	includeZero bool,
) (int64, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var best int64
	found := false
	for _, c := range r.store.components[category] {
		if c.Price == 0 && !includeZero {
			continue
		}
		if !found || c.Price > best {
			best = c.Price
			found = true
		}
	}
	return best, found, nil
}

func (r *ComponentRepo) PriceRange(
	ctx context.Context,
	category domain.Category,
	from, upTo int64,
) ([]domain.Component, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []domain.Component
	for _, c := range r.store.components[category] {
		if c.Price >= from && c.Price <= upTo {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

// -----------------------------------------------------------------------------
// Schedule Repository
// -----------------------------------------------------------------------------

type ScheduleRepo struct {
	store *MemoryStorage
}

func NewScheduleRepo(store *MemoryStorage) *ScheduleRepo {
	return &ScheduleRepo{store: store}
}

func (r *ScheduleRepo) GetAll(ctx context.Context) ([]domain.Schedule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.Schedule, 0, len(r.store.schedules))
	for _, s := range r.store.schedules {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (r *ScheduleRepo) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.schedules), nil
}

func (r *ScheduleRepo) Save(ctx context.Context, schedule domain.Schedule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	schedule.Updated = time.Now()
	r.store.schedules[schedule.Category] = schedule
	return nil
}

func (r *ScheduleRepo) DeleteAll(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.schedules = make(map[domain.Category]domain.Schedule)
	return nil
}

// -----------------------------------------------------------------------------
// History Repository
// -----------------------------------------------------------------------------

type HistoryRepo struct {
	store *MemoryStorage
}

func NewHistoryRepo(store *MemoryStorage) *HistoryRepo {
	return &HistoryRepo{store: store}
}

func (r *HistoryRepo) Save(ctx context.Context, entry domain.HistoryEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.history = append(r.store.history, entry)
	return nil
}

func (r *HistoryRepo) GetByUser(ctx context.Context, userID int64) ([]domain.HistoryEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []domain.HistoryEntry
	for _, e := range r.store.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *HistoryRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.history[:0]
	var removed int64
	for _, e := range r.store.history {
		if e.CreatedAt.Before(threshold) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.store.history = kept
	return removed, nil
}
