package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hwbot/partswatch/internal/core/domain"
)

// HistoryRepo implements storage.HistoryRepository using PostgreSQL.
type HistoryRepo struct {
	db *DB
}

// NewHistoryRepo creates a new PostgreSQL history repository.
func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

type historyRow struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UserID    int64     `db:"user_id"`
	Command   string    `db:"command"`
	Category  string    `db:"category"`
	PriceFrom int64     `db:"price_from"`
	PriceUpTo int64     `db:"price_up_to"`
	Result    []byte    `db:"result"`
}

// Save persists one answered query.
func (r *HistoryRepo) Save(ctx context.Context, entry domain.HistoryEntry) error {
	result, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("failed to encode history result: %w", err)
	}

	query := `
		INSERT INTO query_history (id, created_at, user_id, command, category, price_from, price_up_to, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.CreatedAt.UTC(),
		entry.UserID,
		entry.Command,
		string(entry.Category),
		entry.PriceFrom,
		entry.PriceUpTo,
		result,
	)
	if err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}
	return nil
}

// GetByUser returns a user's history, most recent first.
func (r *HistoryRepo) GetByUser(ctx context.Context, userID int64) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, created_at, user_id, command, category, price_from, price_up_to, result
		FROM query_history
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to query history for user %d: %w", userID, err)
	}

	entries := make([]domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry := domain.HistoryEntry{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			UserID:    row.UserID,
			Command:   row.Command,
			Category:  domain.Category(row.Category),
			PriceFrom: row.PriceFrom,
			PriceUpTo: row.PriceUpTo,
		}
		if len(row.Result) > 0 {
			if err := json.Unmarshal(row.Result, &entry.Result); err != nil {
				return nil, fmt.Errorf("failed to decode history result %s: %w", row.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DeleteOlderThan removes history entries created before the threshold.
func (r *HistoryRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM query_history WHERE created_at < $1`, threshold.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}
