package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hwbot/partswatch/internal/core/domain"
	"github.com/hwbot/partswatch/internal/core/session"
	"github.com/hwbot/partswatch/internal/infra/storage"
)

var (
	// ErrNoRecords is returned when a category has no priced records yet
	ErrNoRecords = errors.New("no records for category")

	// ErrRangeOutOfBounds is returned when a custom price range falls
	// outside the category's stored min/max
	ErrRangeOutOfBounds = errors.New("price range out of bounds")
)

// StatsCache caches per-category price aggregates. Optional.
type StatsCache interface {
	GetPrice(ctx context.Context, category domain.Category, stat string) (price int64, found bool, err error)
	SetPrice(ctx context.Context, category domain.Category, stat string, price int64) error
}

// Service answers chat queries from the component store. It only reads
// the category tables; the refresher owns the writes.
type Service struct {
	components storage.ComponentRepository
	history    storage.HistoryRepository
	cache      StatsCache
	log        *slog.Logger
}

// NewService creates the query service. cache may be nil.
func NewService(
	components storage.ComponentRepository,
	history storage.HistoryRepository,
	cache StatsCache,
) *Service {
	return &Service{
		components: components,
		history:    history,
		cache:      cache,
		log:        slog.Default().With("component", "bot"),
	}
}

// MinPrice returns a category's lowest non-zero price, cache-aside.
func (s *Service) MinPrice(ctx context.Context, category domain.Category) (int64, bool, error) {
	return s.boundPrice(ctx, category, "min")
}

// MaxPrice returns a category's highest non-zero price, cache-aside.
func (s *Service) MaxPrice(ctx context.Context, category domain.Category) (int64, bool, error) {
	return s.boundPrice(ctx, category, "max")
}

func (s *Service) boundPrice(ctx context.Context, category domain.Category, stat string) (int64, bool, error) {
	if s.cache != nil {
		if price, found, err := s.cache.GetPrice(ctx, category, stat); err == nil && found {
			return price, true, nil
		} else if err != nil {
			s.log.Warn("stats cache read failed", "category", category, "stat", stat, "error", err)
		}
	}

	var (
		price int64
		ok    bool
		err   error
	)
	if stat == "min" {
		price, ok, err = s.components.MinPrice(ctx, category, false)
	} else {
		price, ok, err = s.components.MaxPrice(ctx, category, false)
	}
	if err != nil || !ok {
		return 0, false, err
	}

	if s.cache != nil {
		if err := s.cache.SetPrice(ctx, category, stat, price); err != nil {
			s.log.Warn("stats cache write failed", "category", category, "stat", stat, "error", err)
		}
	}
	return price, true, nil
}

// Low returns the category's cheapest listings (every record sharing the
// minimum price) and records the query in the user's history.
func (s *Service) Low(ctx context.Context, userID int64, category domain.Category) ([]domain.Component, error) {
	price, ok, err := s.MinPrice(ctx, category)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoRecords
	}
	return s.queryAndRecord(ctx, userID, string(session.CommandLow), category, price, price)
}

// High returns the category's most expensive listings.
func (s *Service) High(ctx context.Context, userID int64, category domain.Category) ([]domain.Component, error) {
	price, ok, err := s.MaxPrice(ctx, category)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoRecords
	}
	return s.queryAndRecord(ctx, userID, string(session.CommandHigh), category, price, price)
}

// Custom returns the category's listings within a user-supplied price
// range. The range must lie within the category's stored min/max.
func (s *Service) Custom(
	ctx context.Context,
	userID int64,
	category domain.Category,
	from, upTo int64,
) ([]domain.Component, error) {
	minPrice, ok, err := s.MinPrice(ctx, category)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoRecords
	}
	maxPrice, _, err := s.MaxPrice(ctx, category)
	if err != nil {
		return nil, err
	}

	if from > upTo ||
		from < minPrice || from > maxPrice ||
		upTo < minPrice || upTo > maxPrice {
		return nil, fmt.Errorf("%w: %d-%d not within %d-%d",
			ErrRangeOutOfBounds, from, upTo, minPrice, maxPrice)
	}

	return s.queryAndRecord(ctx, userID, string(session.CommandCustom), category, from, upTo)
}

// Range re-reads listings for an already answered query without touching
// the user's history. Paging callbacks use it.
func (s *Service) Range(ctx context.Context, category domain.Category, from, upTo int64) ([]domain.Component, error) {
	return s.components.PriceRange(ctx, category, from, upTo)
}

// History returns a user's saved queries, most recent first.
func (s *Service) History(ctx context.Context, userID int64) ([]domain.HistoryEntry, error) {
	return s.history.GetByUser(ctx, userID)
}

// HistoryEntry returns one saved query by id.
func (s *Service) HistoryEntry(ctx context.Context, userID int64, id string) (domain.HistoryEntry, bool, error) {
	entries, err := s.history.GetByUser(ctx, userID)
	if err != nil {
		return domain.HistoryEntry{}, false, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true, nil
		}
	}
	return domain.HistoryEntry{}, false, nil
}

func (s *Service) queryAndRecord(
	ctx context.Context,
	userID int64,
	command string,
	category domain.Category,
	from, upTo int64,
) ([]domain.Component, error) {
	records, err := s.components.PriceRange(ctx, category, from, upTo)
	if err != nil {
		return nil, err
	}

	entry := domain.HistoryEntry{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		UserID:    userID,
		Command:   command,
		Category:  category,
		PriceFrom: from,
		PriceUpTo: upTo,
		Result:    records,
	}
	if err := s.history.Save(ctx, entry); err != nil {
		// The answer still goes out; only the history line is lost.
		s.log.Warn("failed to save query history", "user", userID, "error", err)
	}

	return records, nil
}
