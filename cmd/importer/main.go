package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jhonben94/fide-Scraper/internal/importer"
	"github.com/jhonben94/fide-Scraper/pkg/checkpoint"
	"github.com/jhonben94/fide-Scraper/pkg/config"
	"github.com/jhonben94/fide-Scraper/pkg/downloader"
	"github.com/jhonben94/fide-Scraper/pkg/exporter"
	"github.com/jhonben94/fide-Scraper/pkg/logger"
	"github.com/jhonben94/fide-Scraper/pkg/server"
	"github.com/jhonben94/fide-Scraper/pkg/writer"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	periodArg := flag.String("period", "", "rating period to import (YYYY-MM-DD), empty means current list")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
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

	var period *time.Time
	if *periodArg != "" {
		p, err := time.ParseInLocation("2006-01-02", *periodArg, time.UTC)
		if err != nil {
			log.Error("invalid period", err, zap.String("period", *periodArg))
			os.Exit(1)
		}
		p = writer.FirstOfMonth(p)
		period = &p
	}

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

	svc := importer.NewService(
		log,
		downloader.NewClient(cfg.FIDE.XMLURL, cfg.FIDE.DownloadTimeout, log),
		store,
		exporter.New(cfg.Importer.ExportPath, log),
		checkpointStore(cfg.Checkpoint),
		cfg.Importer.BatchSize,
		cfg.Importer.ExportLimit,
	)

	res, err := svc.Run(ctx, importer.Options{
		Period:          period,
		ExportJSON:      cfg.Importer.ExportJSON,
		ExportCSV:       cfg.Importer.ExportCSV,
		ExportByCountry: cfg.Importer.ExportByCountry,
	})
	if err != nil {
		log.Error("import failed", err, zap.Int("imported", res.TotalImported))
		os.Exit(1)
	}

	log.Info("import complete",
		zap.Int("imported", res.TotalImported),
		zap.String("json", res.JSONPath),
		zap.String("csv", res.CSVPath))
}

func checkpointStore(cfg config.CheckpointConfig) checkpoint.Store {
	if cfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return checkpoint.NewRedisStore(client, cfg.RedisKey)
	}
	return checkpoint.NewFileStore(cfg.Path)
}
