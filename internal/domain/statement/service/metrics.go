package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "backoffice",
		Subsystem: "ingestion",
		Name:      "batches_completed_total",
		Help:      "Upload batches that finished in the completed state.",
	})
	batchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "backoffice",
		Subsystem: "ingestion",
		Name:      "batches_failed_total",
		Help:      "Upload batches that finished in the failed state.",
	})
	rowsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "backoffice",
		Subsystem: "ingestion",
		Name:      "transactions_processed_total",
		Help:      "Transactions persisted across all batches.",
	})
	rowsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "backoffice",
		Subsystem: "ingestion",
		Name:      "transactions_failed_total",
		Help:      "Per-record failures recorded across all batches.",
	})
	rowsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "backoffice",
		Subsystem: "ingestion",
		Name:      "transactions_duplicate_total",
		Help:      "Transactions skipped as re-imports of stored history.",
	})
)
