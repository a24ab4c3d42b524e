package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Import metrics
	ImportRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fide_import_records_total",
		Help: "The total number of player records upserted into the players table",
	})
	ImportBatchWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fide_import_batch_writes_total",
		Help: "The total number of batch upsert operations against the players table",
	})
	ImportWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fide_import_write_errors_total",
		Help: "The total number of failed batch upserts",
	})
	ImportUpsertLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fide_import_upsert_latency_seconds",
		Help:    "Latency of batch upsert operations",
		Buckets: prometheus.DefBuckets,
	})

	// Download metrics
	DownloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fide_download_bytes_total",
		Help: "The total number of archive bytes downloaded from FIDE",
	})

	// Backfill metrics
	BackfillPeriodsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fide_backfill_periods_total",
		Help: "The total number of history periods imported successfully",
	})
	BackfillPeriodErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fide_backfill_period_errors_total",
		Help: "The total number of history periods that failed and were skipped",
	})
	BackfillRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fide_backfill_records_total",
		Help: "The total number of rating snapshots upserted into the history table",
	})
)
