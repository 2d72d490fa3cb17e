package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchRequestsTotal tracks requests to the product endpoint per category
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partswatch_fetch_requests_total",
			Help: "Total number of requests issued to the product endpoint",
		},
		[]string{"category", "outcome"},
	)

	// FetchLatency tracks product endpoint request latency
	FetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partswatch_fetch_latency_seconds",
			Help:    "Product endpoint request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	// RefreshesTotal tracks refresh sessions per category and result
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partswatch_refreshes_total",
			Help: "Total number of category refresh sessions",
		},
		[]string{"category", "result"},
	)

	// StoredRecords tracks the record count per category after a refresh
	StoredRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "partswatch_stored_records",
			Help: "Number of stored records per category",
		},
		[]string{"category"},
	)

	// BotCommandsTotal tracks handled chat commands
	BotCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partswatch_bot_commands_total",
			Help: "Total number of handled chat commands",
		},
		[]string{"command"},
	)

	// HistoryPrunedTotal tracks history entries removed by the pruner
	HistoryPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "partswatch_history_pruned_total",
			Help: "Total number of pruned history entries",
		},
	)
)
