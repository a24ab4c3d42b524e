package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jhonben94/fide-Scraper/internal/history"
	"github.com/jhonben94/fide-Scraper/pkg/config"
	"github.com/jhonben94/fide-Scraper/pkg/downloader"
	"github.com/jhonben94/fide-Scraper/pkg/logger"
	"github.com/jhonben94/fide-Scraper/pkg/server"
	"github.com/jhonben94/fide-Scraper/pkg/writer"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	months := flag.Int("months", 0, "months to backfill, overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *months > 0 {
		cfg.History.Months = *months
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := writer.NewPostgresWriter(ctx, writer.PostgresConfig{
		URI:      cfg.Postgres.URI,
		MinConns: int32(cfg.Postgres.MinConns),
		MaxConns: int32(cfg.Postgres.MaxConns),
	}, log)
	if err != nil {
		log.Error("failed to connect to database", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Error("failed to migrate schema", err)
		os.Exit(1)
	}

	obs := server.New(cfg.Server.Addr, store.Pool(), log)
	go obs.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		obs.Shutdown(shutdownCtx)
	}()

	svc := history.NewService(
		log,
		downloader.NewClient(cfg.FIDE.XMLURL, cfg.FIDE.DownloadTimeout, log),
		store,
		cfg.Importer.BatchSize,
	)

	res, err := svc.Run(ctx, cfg.History.Months)
	if err != nil {
		log.Error("backfill aborted", err,
			zap.Int("periods", res.TotalPeriods),
			zap.Int("records", res.TotalRecords))
		os.Exit(1)
	}

	log.Info("backfill complete",
		zap.Int("periods", res.TotalPeriods),
		zap.Int("records", res.TotalRecords))
}
