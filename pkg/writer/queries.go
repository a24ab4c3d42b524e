package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const selectPlayerColumns = `
	fideid, name, country, sex, title,
	rating, games, rapid_rating, rapid_games,
	blitz_rating, blitz_games, birthday, flag, foa_title, foa_rating
`

func scanPlayer(row pgx.Row) (PlayerRecord, error) {
	var r PlayerRecord
	err := row.Scan(
		&r.FideID, &r.Name, &r.Country, &r.Sex, &r.Title,
		&r.Rating, &r.Games, &r.RapidRating, &r.RapidGames,
		&r.BlitzRating, &r.BlitzGames, &r.Birthday, &r.Flag,
		&r.FOATitle, &r.FOARating,
	)
	return r, err
}

// ListPlayers returns up to limit players, best standard rating first.
func (w *PGWriter) ListPlayers(ctx context.Context, limit int) ([]PlayerRecord, error) {
	rows, err := w.pool.Query(ctx, `
		SELECT `+selectPlayerColumns+`
		FROM players
		ORDER BY rating DESC NULLS LAST, fideid
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRecord
	for rows.Next() {
		r, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ErrPlayerNotFound is returned when a fideid has no row.
var ErrPlayerNotFound = errors.New("player not found")

// PlayerByID loads one player by fideid.
func (w *PGWriter) PlayerByID(ctx context.Context, fideid int) (PlayerRecord, error) {
	r, err := scanPlayer(w.pool.QueryRow(ctx, `
		SELECT `+selectPlayerColumns+`
		FROM players
		WHERE fideid = $1
	`, int64(fideid)))
	if errors.Is(err, pgx.ErrNoRows) {
		return PlayerRecord{}, ErrPlayerNotFound
	}
	if err != nil {
		return PlayerRecord{}, fmt.Errorf("load player %d: %w", fideid, err)
	}
	return r, nil
}

// RatingProgress returns the snapshot series for a player over the last
// months, oldest first.
func (w *PGWriter) RatingProgress(ctx context.Context, fideid, months int) ([]HistoryPoint, error) {
	// ~31 days per month, same tolerance as the period walk
	cutoff := time.Now().UTC().AddDate(0, 0, -months*31)

	rows, err := w.pool.Query(ctx, `
		SELECT period, rating, rapid_rating, blitz_rating
		FROM player_rating_history
		WHERE fideid = $1 AND period >= $2
		ORDER BY period ASC
	`, int64(fideid), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryPoint
	for rows.Next() {
		var p HistoryPoint
		if err := rows.Scan(&p.Period, &p.Rating, &p.RapidRating, &p.BlitzRating); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
