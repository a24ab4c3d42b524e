package history

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jhonben94/fide-Scraper/pkg/downloader"
	"github.com/jhonben94/fide-Scraper/pkg/logger"
	"github.com/jhonben94/fide-Scraper/pkg/metrics"
	"github.com/jhonben94/fide-Scraper/pkg/parser"
	"github.com/jhonben94/fide-Scraper/pkg/writer"
)

// HistoryStore persists one period's worth of rating rows.
type HistoryStore interface {
	UpsertHistory(ctx context.Context, period time.Time, records []writer.PlayerRecord) (int, error)
}

// Service walks past rating periods and loads each one into the
// history table. A period that fails to download or write is logged
// and skipped so one broken archive cannot sink the whole backfill.
type Service struct {
	logger    *logger.Logger
	fetcher   downloader.Fetcher
	store     HistoryStore
	batchSize int
}

func NewService(log *logger.Logger, fetcher downloader.Fetcher, store HistoryStore, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = writer.DefaultBatchSize
	}
	return &Service{
		logger:    log,
		fetcher:   fetcher,
		store:     store,
		batchSize: batchSize,
	}
}

// Result summarizes a backfill run. Every enumerated period counts as
// attempted whether or not it loaded; per-period failures only show up
// in logs and counters.
type Result struct {
	TotalPeriods int
	TotalRecords int
	Periods      []time.Time
}

// Run backfills the given number of months, newest first.
func (s *Service) Run(ctx context.Context, months int) (Result, error) {
	var res Result

	for _, period := range Periods(months, time.Now().UTC()) {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.TotalPeriods++
		res.Periods = append(res.Periods, period)

		// batches committed before a failure still count
		n, err := s.loadPeriod(ctx, period)
		res.TotalRecords += n
		metrics.BackfillRecordsTotal.Add(float64(n))
		if err != nil {
			metrics.BackfillPeriodErrorsTotal.Inc()
			s.logger.Warn("skipping period",
				zap.Time("period", period),
				zap.Error(err))
			continue
		}

		metrics.BackfillPeriodsTotal.Inc()
		s.logger.Info("period loaded",
			zap.Time("period", period),
			zap.Int("records", n))
	}

	s.logger.Info("backfill finished",
		zap.Int("periods", res.TotalPeriods),
		zap.Int("records", res.TotalRecords))
	return res, nil
}

func (s *Service) loadPeriod(ctx context.Context, period time.Time) (int, error) {
	xml, err := s.fetcher.Fetch(ctx, &period)
	if err != nil {
		return 0, err
	}

	total := 0
	batches := writer.NewBatcher(parser.NewScanner(bytes.NewReader(xml)), s.batchSize)
	for batches.Next() {
		n, err := s.store.UpsertHistory(ctx, period, batches.Batch())
		if err != nil {
			return total, err
		}
		total += n
	}
	if err := batches.Err(); err != nil {
		return total, err
	}
	return total, nil
}
