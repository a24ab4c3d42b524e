package importer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jhonben94/fide-Scraper/pkg/checkpoint"
	"github.com/jhonben94/fide-Scraper/pkg/downloader"
	"github.com/jhonben94/fide-Scraper/pkg/exporter"
	"github.com/jhonben94/fide-Scraper/pkg/logger"
	"github.com/jhonben94/fide-Scraper/pkg/metrics"
	"github.com/jhonben94/fide-Scraper/pkg/parser"
	"github.com/jhonben94/fide-Scraper/pkg/writer"
)

// Store is the slice of the database layer the importer needs.
type Store interface {
	UpsertPlayers(ctx context.Context, records []writer.PlayerRecord) (int, error)
	ListPlayers(ctx context.Context, limit int) ([]writer.PlayerRecord, error)
}

// Service downloads the current rating list, streams it into the
// players table in batches and optionally exports snapshots.
type Service struct {
	logger      *logger.Logger
	fetcher     downloader.Fetcher
	store       Store
	exporter    *exporter.Exporter
	checkpoints checkpoint.Store
	batchSize   int
	exportLimit int
}

func NewService(log *logger.Logger, fetcher downloader.Fetcher, store Store, exp *exporter.Exporter, cp checkpoint.Store, batchSize, exportLimit int) *Service {
	if batchSize <= 0 {
		batchSize = writer.DefaultBatchSize
	}
	return &Service{
		logger:      log,
		fetcher:     fetcher,
		store:       store,
		exporter:    exp,
		checkpoints: cp,
		batchSize:   batchSize,
		exportLimit: exportLimit,
	}
}

// Options selects which list to import and what to do with it after.
type Options struct {
	Period          *time.Time // nil means the current list
	ExportJSON      bool
	ExportCSV       bool
	ExportByCountry bool
}

// Result reports what a run produced.
type Result struct {
	TotalImported int
	JSONPath      string
	CSVPath       string
	CountryFiles  int
}

// Run performs one full import. Re-running for the same list is safe,
// every batch upserts on fideid.
func (s *Service) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result

	xml, err := s.fetcher.Fetch(ctx, opts.Period)
	if err != nil {
		return res, fmt.Errorf("fetch rating list: %w", err)
	}

	batches := writer.NewBatcher(parser.NewScanner(bytes.NewReader(xml)), s.batchSize)
	for batches.Next() {
		batch := batches.Batch()

		start := time.Now()
		n, err := s.store.UpsertPlayers(ctx, batch)
		if err != nil {
			metrics.ImportWriteErrorsTotal.Inc()
			return res, fmt.Errorf("upsert batch: %w", err)
		}
		metrics.ImportUpsertLatency.Observe(time.Since(start).Seconds())
		metrics.ImportBatchWritesTotal.Inc()
		metrics.ImportRecordsTotal.Add(float64(n))

		res.TotalImported += n
		if res.TotalImported%50000 == 0 || res.TotalImported < 10000 {
			s.logger.Info("import progress", zap.Int("records", res.TotalImported))
		}
	}
	if err := batches.Err(); err != nil {
		return res, fmt.Errorf("parse rating list: %w", err)
	}

	if err := s.export(ctx, opts, &res); err != nil {
		return res, err
	}

	s.savePoint(ctx, opts.Period)
	s.logger.Info("import finished", zap.Int("records", res.TotalImported))
	return res, nil
}

func (s *Service) export(ctx context.Context, opts Options, res *Result) error {
	if s.exporter == nil || (!opts.ExportJSON && !opts.ExportCSV && !opts.ExportByCountry) {
		return nil
	}

	players, err := s.store.ListPlayers(ctx, s.exportLimit)
	if err != nil {
		return fmt.Errorf("list players for export: %w", err)
	}
	if len(players) == 0 {
		return nil
	}

	if opts.ExportJSON {
		path, err := s.exporter.WriteJSON(players, "")
		if err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		res.JSONPath = path
	}
	if opts.ExportCSV {
		path, err := s.exporter.WriteCSV(players, "")
		if err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		res.CSVPath = path
	}
	if opts.ExportByCountry {
		files, err := s.exporter.WriteByCountry(players)
		if err != nil {
			return fmt.Errorf("export by country: %w", err)
		}
		res.CountryFiles = len(files)
	}
	return nil
}

// savePoint records the imported period. Losing the checkpoint only
// costs a redundant re-import, so failures are not fatal.
func (s *Service) savePoint(ctx context.Context, period *time.Time) {
	if s.checkpoints == nil {
		return
	}
	p := time.Now().UTC()
	if period != nil {
		p = *period
	}
	if err := s.checkpoints.Save(ctx, writer.FirstOfMonth(p)); err != nil {
		s.logger.Warn("checkpoint save failed", zap.Error(err))
	}
}
