package domain

import "time"

// HistoryEntry records one answered chat query.
type HistoryEntry struct {
	ID        string
	CreatedAt time.Time
	UserID    int64
	Command   string
	Category  Category
	PriceFrom int64
	PriceUpTo int64
	Result    []Component
}
