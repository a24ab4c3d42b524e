package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/jhonben94/fide-Scraper/pkg/calc"
	"github.com/jhonben94/fide-Scraper/pkg/config"
	"github.com/jhonben94/fide-Scraper/pkg/fidestats"
	"github.com/jhonben94/fide-Scraper/pkg/logger"
	"github.com/jhonben94/fide-Scraper/pkg/rankings"
	"github.com/jhonben94/fide-Scraper/pkg/writer"
)

// report is the document printed for one player.
type report struct {
	Player    writer.PlayerRecord   `json:"player"`
	Rankings  rankings.Rankings     `json:"rankings"`
	Example   calc.Example          `json:"rating_change_example"`
	History   []writer.HistoryPoint `json:"history,omitempty"`
	GameStats *fidestats.Stats      `json:"game_stats,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	fideid := flag.Int("fideid", 0, "player to report on")
	opponent := flag.Int("opponent", 1800, "hypothetical opponent rating for the change example")
	months := flag.Int("history", 0, "include rating history for the last N months")
	withStats := flag.Bool("stats", false, "include lifetime game statistics")
	flag.Parse()

	if *fideid <= 0 {
		fmt.Fprintln(os.Stderr, "a positive -fideid is required")
		os.Exit(2)
	}

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

	player, err := store.PlayerByID(ctx, *fideid)
	if errors.Is(err, writer.ErrPlayerNotFound) {
		fmt.Fprintf(os.Stderr, "no player with fideid %d\n", *fideid)
		os.Exit(1)
	}
	if err != nil {
		log.Error("player lookup failed", err, zap.Int("fideid", *fideid))
		os.Exit(1)
	}

	continents, err := rankings.DefaultContinents()
	if err != nil {
		log.Error("failed to load continent table", err)
		os.Exit(1)
	}

	ranks, err := rankings.NewCalculator(store.Pool(), continents).
		PlayerRankings(ctx, player.Rating, player.Country)
	if err != nil {
		log.Error("ranking queries failed", err, zap.Int("fideid", *fideid))
		os.Exit(1)
	}

	rating := 0
	if player.Rating != nil {
		rating = *player.Rating
	}
	out := report{
		Player:   player,
		Rankings: ranks,
		Example:  calc.NewExample(rating, *opponent, player.Games, player.Birthday),
	}

	if *months > 0 {
		out.History, err = store.RatingProgress(ctx, *fideid, *months)
		if err != nil {
			log.Error("history query failed", err, zap.Int("fideid", *fideid))
			os.Exit(1)
		}
	}

	if *withStats {
		stats, err := fidestats.New(cfg.FIDE.StatsURL, log).PlayerStats(ctx, *fideid)
		if err != nil {
			log.Error("stats request failed", err, zap.Int("fideid", *fideid))
			os.Exit(1)
		}
		out.GameStats = stats
	}

	doc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Error("failed to encode report", err)
		os.Exit(1)
	}
	fmt.Println(string(doc))
}
