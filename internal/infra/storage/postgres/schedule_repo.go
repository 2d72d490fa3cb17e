package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hwbot/partswatch/internal/core/domain"
)

// ScheduleRepo implements storage.ScheduleRepository using PostgreSQL.
type ScheduleRepo struct {
	db *DB
}

// NewScheduleRepo creates a new PostgreSQL schedule repository.
func NewScheduleRepo(db *DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

type scheduleRow struct {
	Category  string    `db:"category"`
	NextDue   time.Time `db:"next_due"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetAll returns every schedule entry.
func (r *ScheduleRepo) GetAll(ctx context.Context) ([]domain.Schedule, error) {
	var rows []scheduleRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT category, next_due, updated_at FROM refresh_schedule ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule entries: %w", err)
	}

	schedules := make([]domain.Schedule, 0, len(rows))
	for _, row := range rows {
		schedules = append(schedules, domain.Schedule{
			Category: domain.Category(row.Category),
			NextDue:  row.NextDue,
			Updated:  row.UpdatedAt,
		})
	}
	return schedules, nil
}

// Count returns the number of schedule entries.
func (r *ScheduleRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM refresh_schedule`); err != nil {
		return 0, fmt.Errorf("failed to count schedule entries: %w", err)
	}
	return count, nil
}

// Save inserts or updates the entry for a category.
func (r *ScheduleRepo) Save(ctx context.Context, schedule domain.Schedule) error {
	query := `
		INSERT INTO refresh_schedule (category, next_due, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (category) DO UPDATE SET
			next_due = EXCLUDED.next_due,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		string(schedule.Category),
		domain.DateOf(schedule.NextDue),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save schedule for %s: %w", schedule.Category, err)
	}
	return nil
}

// DeleteAll removes every schedule entry.
func (r *ScheduleRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_schedule`); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}
	return nil
}
