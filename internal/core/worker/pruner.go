package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hwbot/partswatch/internal/infra/storage"
	"github.com/hwbot/partswatch/internal/ingest/metrics"
)

// Pruner deletes old query-history entries based on the retention policy.
type Pruner struct {
	retention time.Duration
	history   storage.HistoryRepository
}

// NewPruner creates a new Pruner worker. A retention of 0 disables it.
func NewPruner(retention time.Duration, history storage.HistoryRepository) *Pruner {
	return &Pruner{retention: retention, history: history}
}

// Start runs the pruner loop until the context is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return
	}

	interval := min(p.retention/10, time.Hour)
	interval = max(interval, time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	threshold := time.Now().Add(-p.retention)

	removed, err := p.history.DeleteOlderThan(ctx, threshold)
	if err != nil {
		slog.Error("failed to prune query history", "error", err)
		return
	}
	if removed > 0 {
		metrics.HistoryPrunedTotal.Add(float64(removed))
		slog.Debug("pruned query history", "removed", removed)
	}
}
