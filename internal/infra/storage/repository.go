package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hwbot/partswatch/internal/core/domain"
)

var (
	// ErrScheduleNotFound is returned when a category has no schedule entry
	ErrScheduleNotFound = errors.New("schedule entry not found")
)

// ComponentRepository handles the stored listings of a category.
// The refresher owns write access; the bot layer only reads.
type ComponentRepository interface {
	// InsertBatch appends a fetched page of records
	InsertBatch(ctx context.Context, components []domain.Component) error

	// DeleteCategory removes every record of a category
	DeleteCategory(ctx context.Context, category domain.Category) error

	// Count returns the number of stored records for a category
	Count(ctx context.Context, category domain.Category) (int, error)

	// MinPrice returns the lowest price in a category; zero prices are
	// skipped unless includeZero is set. ok is false for an empty category.
	MinPrice(ctx context.Context, category domain.Category, includeZero bool) (price int64, ok bool, err error)

	// MaxPrice returns the highest price in a category
	MaxPrice(ctx context.Context, category domain.Category, includeZero bool) (price int64, ok bool, err error)

	// PriceRange returns the category's records with price in [from, upTo],
	// ordered by price ascending
	PriceRange(ctx context.Context, category domain.Category, from, upTo int64) ([]domain.Component, error)
}

// ScheduleRepository handles refresh schedule entries, one per category.
type ScheduleRepository interface {
	// GetAll returns every schedule entry
	GetAll(ctx context.Context) ([]domain.Schedule, error)

	// Count returns the number of schedule entries
	Count(ctx context.Context) (int, error)

	// Save inserts or updates the entry for a category
	Save(ctx context.Context, schedule domain.Schedule) error

	// DeleteAll removes every schedule entry (bootstrap reseeding)
	DeleteAll(ctx context.Context) error
}

// HistoryRepository handles the per-user query history.
type HistoryRepository interface {
	// Save persists one answered query
	Save(ctx context.Context, entry domain.HistoryEntry) error

	// GetByUser returns a user's history, most recent first
	GetByUser(ctx context.Context, userID int64) ([]domain.HistoryEntry, error)

	// DeleteOlderThan removes history entries created before the threshold
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error)
}
