// Package exporter writes snapshot files of the current player table.
package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/jhonben94/fide-Scraper/pkg/logger"
	"github.com/jhonben94/fide-Scraper/pkg/writer"
)

// Exporter writes player exports under a base directory, creating it on
// demand.
type Exporter struct {
	dir    string
	logger *logger.Logger
}

func New(dir string, l *logger.Logger) *Exporter {
	return &Exporter{dir: dir, logger: l}
}

func (e *Exporter) ensureDir(sub string) (string, error) {
	dir := e.dir
	if sub != "" {
		dir = filepath.Join(dir, sub)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	return dir, nil
}

func timestamped(ext string) string {
	return "players_" + time.Now().Format("20060102_150405") + ext
}

// WriteJSON writes players to a JSON file. An empty filename gets a
// timestamped default. Returns the path written.
func (e *Exporter) WriteJSON(players []writer.PlayerRecord, filename string) (string, error) {
	dir, err := e.ensureDir("")
	if err != nil {
		return "", err
	}
	if filename == "" {
		filename = timestamped(".json")
	}
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(players, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal players: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	e.logger.Info("players exported", zap.Int("count", len(players)), zap.String("path", path))
	return path, nil
}

var csvHeader = []string{
	"fideid", "name", "country", "sex", "title",
	"rating", "games", "rapid_rating", "rapid_games",
	"blitz_rating", "blitz_games", "birthday", "flag",
	"foa_title", "foa_rating",
}

// WriteCSV writes players to a CSV file with a header row. Null fields
// become empty cells. Exporting zero players is an error.
func (e *Exporter) WriteCSV(players []writer.PlayerRecord, filename string) (string, error) {
	if len(players) == 0 {
		return "", errors.New("no players to export")
	}

	dir, err := e.ensureDir("")
	if err != nil {
		return "", err
	}
	if filename == "" {
		filename = timestamped(".csv")
	}
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return "", err
	}
	for _, p := range players {
		if err := cw.Write(csvRow(p)); err != nil {
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	e.logger.Info("players exported", zap.Int("count", len(players)), zap.String("path", path))
	return path, nil
}

// WriteByCountry writes one JSON file per federation under by_country/.
func (e *Exporter) WriteByCountry(players []writer.PlayerRecord) (map[string]string, error) {
	dir, err := e.ensureDir("by_country")
	if err != nil {
		return nil, err
	}

	byCountry := make(map[string][]writer.PlayerRecord)
	for _, p := range players {
		country := p.Country
		if country == "" {
			country = "UNK"
		}
		byCountry[country] = append(byCountry[country], p)
	}

	out := make(map[string]string, len(byCountry))
	for country, list := range byCountry {
		path := filepath.Join(dir, country+".json")
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", country, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		out[country] = path
	}

	e.logger.Info("countries exported", zap.Int("count", len(out)), zap.String("dir", dir))
	return out, nil
}

func csvRow(p writer.PlayerRecord) []string {
	return []string{
		strconv.Itoa(p.FideID), p.Name, p.Country,
		strOrEmpty(p.Sex), strOrEmpty(p.Title),
		intOrEmpty(p.Rating), intOrEmpty(p.Games),
		intOrEmpty(p.RapidRating), intOrEmpty(p.RapidGames),
		intOrEmpty(p.BlitzRating), intOrEmpty(p.BlitzGames),
		intOrEmpty(p.Birthday), strOrEmpty(p.Flag),
		strOrEmpty(p.FOATitle), intOrEmpty(p.FOARating),
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
