package writer

import (
	"context"
	"fmt"
)

var schemaStmts = []string{
	`CREATE TABLE IF NOT EXISTS players (
		fideid BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		sex TEXT,
		title TEXT,
		rating INTEGER,
		games INTEGER,
		rapid_rating INTEGER,
		rapid_games INTEGER,
		blitz_rating INTEGER,
		blitz_games INTEGER,
		birthday INTEGER,
		flag TEXT,
		foa_title TEXT,
		foa_rating INTEGER
	);`,
	`CREATE INDEX IF NOT EXISTS idx_players_rating ON players (rating);`,
	`CREATE INDEX IF NOT EXISTS idx_players_country_rating ON players (country, rating);`,
	`CREATE TABLE IF NOT EXISTS player_rating_history (
		fideid BIGINT NOT NULL,
		period DATE NOT NULL,
		rating INTEGER,
		rapid_rating INTEGER,
		blitz_rating INTEGER,
		PRIMARY KEY (fideid, period)
	);`,
}

// Migrate creates the tables and indexes if they do not exist yet.
func (w *PGWriter) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStmts {
		if _, err := w.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
