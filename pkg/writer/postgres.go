package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jhonben94/fide-Scraper/pkg/logger"
)

// copyThreshold is the batch size at which the COPY protocol beats
// individual upsert statements.
const copyThreshold = 100

// PlayerWriter is the write surface of the store: idempotent batched
// upserts into the current table and the per-period history table.
type PlayerWriter interface {
	// UpsertPlayers writes one batch into the players table in a single
	// transaction, inserting new fideids and fully overwriting existing
	// ones. Returns the number of records in the batch.
	UpsertPlayers(ctx context.Context, records []PlayerRecord) (int, error)

	// UpsertHistory writes one batch of rating snapshots for the given
	// period, keyed on (fideid, period). The period is normalized to the
	// first day of its month.
	UpsertHistory(ctx context.Context, period time.Time, records []PlayerRecord) (int, error)

	// Close releases the connection pool.
	Close() error
}

// PGWriter implements PlayerWriter on a pgx connection pool.
type PGWriter struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// PostgresConfig holds database connection settings.
type PostgresConfig struct {
	URI      string
	MinConns int32
	MaxConns int32
}

// NewPostgresWriter connects a PGWriter and verifies the connection.
func NewPostgresWriter(ctx context.Context, cfg PostgresConfig, l *logger.Logger) (*PGWriter, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGWriter{pool: pool, logger: l}, nil
}

// Pool exposes the underlying pool for read-side collaborators.
func (w *PGWriter) Pool() *pgxpool.Pool {
	return w.pool
}

var playerColumns = []string{
	"fideid", "name", "country", "sex", "title",
	"rating", "games", "rapid_rating", "rapid_games",
	"blitz_rating", "blitz_games", "birthday", "flag",
	"foa_title", "foa_rating",
}

func playerValues(r PlayerRecord) []interface{} {
	return []interface{}{
		int64(r.FideID), r.Name, r.Country, r.Sex, r.Title,
		r.Rating, r.Games, r.RapidRating, r.RapidGames,
		r.BlitzRating, r.BlitzGames, r.Birthday, r.Flag,
		r.FOATitle, r.FOARating,
	}
}

// UpsertPlayers writes one batch in a single transaction. Large batches go
// through COPY into a temp table; small ones use a batched upsert.
func (w *PGWriter) UpsertPlayers(ctx context.Context, records []PlayerRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	if len(records) >= copyThreshold {
		if err := w.upsertPlayersCopy(ctx, records); err != nil {
			return 0, err
		}
	} else if err := w.upsertPlayersBatch(ctx, records); err != nil {
		return 0, err
	}

	w.logger.Debug("players batch upserted", zap.Int("records", len(records)))
	return len(records), nil
}

const upsertPlayerSQL = `
	INSERT INTO players (fideid, name, country, sex, title,
		rating, games, rapid_rating, rapid_games,
		blitz_rating, blitz_games, birthday, flag, foa_title, foa_rating)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (fideid) DO UPDATE SET
		name = EXCLUDED.name,
		country = EXCLUDED.country,
		sex = EXCLUDED.sex,
		title = EXCLUDED.title,
		rating = EXCLUDED.rating,
		games = EXCLUDED.games,
		rapid_rating = EXCLUDED.rapid_rating,
		rapid_games = EXCLUDED.rapid_games,
		blitz_rating = EXCLUDED.blitz_rating,
		blitz_games = EXCLUDED.blitz_games,
		birthday = EXCLUDED.birthday,
		flag = EXCLUDED.flag,
		foa_title = EXCLUDED.foa_title,
		foa_rating = EXCLUDED.foa_rating
`

// upsertPlayersBatch sends all rows of a small batch in one round trip.
func (w *PGWriter) upsertPlayersBatch(ctx context.Context, records []PlayerRecord) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, r := range records {
		b.Queue(upsertPlayerSQL, playerValues(r)...)
	}
	br := tx.SendBatch(ctx, b)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert failed: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// upsertPlayersCopy uses the COPY protocol through a temp table.
func (w *PGWriter) upsertPlayersCopy(ctx context.Context, records []PlayerRecord) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "CREATE TEMP TABLE players_import (LIKE players) ON COMMIT DROP")
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}

	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = playerValues(r)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"players_import"}, playerColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy from failed: %w", err)
	}

	const mergeSQL = `
		INSERT INTO players SELECT * FROM players_import
		ON CONFLICT (fideid) DO UPDATE SET
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			sex = EXCLUDED.sex,
			title = EXCLUDED.title,
			rating = EXCLUDED.rating,
			games = EXCLUDED.games,
			rapid_rating = EXCLUDED.rapid_rating,
			rapid_games = EXCLUDED.rapid_games,
			blitz_rating = EXCLUDED.blitz_rating,
			blitz_games = EXCLUDED.blitz_games,
			birthday = EXCLUDED.birthday,
			flag = EXCLUDED.flag,
			foa_title = EXCLUDED.foa_title,
			foa_rating = EXCLUDED.foa_rating
	`
	if _, err = tx.Exec(ctx, mergeSQL); err != nil {
		return fmt.Errorf("upsert from temp table failed: %w", err)
	}

	return tx.Commit(ctx)
}

var historyColumns = []string{"fideid", "period", "rating", "rapid_rating", "blitz_rating"}

const upsertHistorySQL = `
	INSERT INTO player_rating_history (fideid, period, rating, rapid_rating, blitz_rating)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (fideid, period) DO UPDATE SET
		rating = EXCLUDED.rating,
		rapid_rating = EXCLUDED.rapid_rating,
		blitz_rating = EXCLUDED.blitz_rating
`

// UpsertHistory writes one batch of snapshots for a period, keyed on
// (fideid, period).
func (w *PGWriter) UpsertHistory(ctx context.Context, period time.Time, records []PlayerRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	period = FirstOfMonth(period)

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(records) >= copyThreshold {
		_, err = tx.Exec(ctx, "CREATE TEMP TABLE history_import (LIKE player_rating_history) ON COMMIT DROP")
		if err != nil {
			return 0, fmt.Errorf("failed to create temp table: %w", err)
		}

		rows := make([][]interface{}, len(records))
		for i, r := range records {
			rows[i] = []interface{}{int64(r.FideID), period, r.Rating, r.RapidRating, r.BlitzRating}
		}
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"history_import"}, historyColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, fmt.Errorf("copy from failed: %w", err)
		}

		const mergeSQL = `
			INSERT INTO player_rating_history SELECT * FROM history_import
			ON CONFLICT (fideid, period) DO UPDATE SET
				rating = EXCLUDED.rating,
				rapid_rating = EXCLUDED.rapid_rating,
				blitz_rating = EXCLUDED.blitz_rating
		`
		if _, err = tx.Exec(ctx, mergeSQL); err != nil {
			return 0, fmt.Errorf("upsert from temp table failed: %w", err)
		}
	} else {
		b := &pgx.Batch{}
		for _, r := range records {
			b.Queue(upsertHistorySQL, int64(r.FideID), period, r.Rating, r.RapidRating, r.BlitzRating)
		}
		br := tx.SendBatch(ctx, b)
		for range records {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return 0, fmt.Errorf("upsert failed: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return 0, fmt.Errorf("close batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ShouldUseCopy reports whether a batch is large enough for the COPY path.
func (w *PGWriter) ShouldUseCopy(records []PlayerRecord) bool {
	return len(records) >= copyThreshold
}

// FirstOfMonth truncates a date to the first day of its month, in UTC.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Close closes the pool.
func (w *PGWriter) Close() error {
	w.pool.Close()
	return nil
}
