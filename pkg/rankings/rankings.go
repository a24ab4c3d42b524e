// Package rankings derives a player's standing within the world, national
// and continental player populations from aggregate counts over the
// players table.
package rankings

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
)

//go:embed country_continent.json
var continentData []byte

// DefaultContinents parses the embedded federation→continent table. The
// returned map is handed to NewCalculator and must not be mutated after.
func DefaultContinents() (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal(continentData, &m); err != nil {
		return nil, fmt.Errorf("parse continent table: %w", err)
	}
	return m, nil
}

// Querier is the read-only query surface the calculator needs.
// *pgxpool.Pool satisfies it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ScopeRanks is one scope's standing: position among active players,
// position among all players, and the two population sizes for
// "rank X of Y" display. Only players with rating > 0 are counted.
type ScopeRanks struct {
	RankActive  int `json:"rank_active"`
	RankAll     int `json:"rank_all"`
	TotalActive int `json:"total_active"`
	TotalAll    int `json:"total_all"`
}

// Rankings covers the three scopes. Continental is nil when the player's
// federation is not in the continent table.
type Rankings struct {
	World       ScopeRanks  `json:"world"`
	National    ScopeRanks  `json:"national"`
	Continental *ScopeRanks `json:"continental"`
}

// Calculator answers ranking queries against the current-state table.
type Calculator struct {
	db         Querier
	continents map[string]string
}

// NewCalculator builds a Calculator over db with an immutable
// federation→continent lookup.
func NewCalculator(db Querier, continents map[string]string) *Calculator {
	return &Calculator{db: db, continents: continents}
}

// scope restricts counts to one federation or to a set of federations;
// the zero scope is the whole world.
type scope struct {
	country   string
	countries []string
}

// PlayerRankings computes all scopes for a subject with the given rating
// and federation. Ties share a rank: rank = 1 + count(strictly better).
// An unrated subject (nil or non-positive rating) gets rank 0 in every
// scope; the population totals are still reported.
func (c *Calculator) PlayerRankings(ctx context.Context, rating *int, country string) (Rankings, error) {
	var out Rankings
	var err error

	if out.World, err = c.scopeRanks(ctx, rating, scope{}); err != nil {
		return Rankings{}, fmt.Errorf("world ranks: %w", err)
	}
	if out.National, err = c.scopeRanks(ctx, rating, scope{country: country}); err != nil {
		return Rankings{}, fmt.Errorf("national ranks: %w", err)
	}
	if continent, ok := c.continents[country]; ok {
		sr, err := c.scopeRanks(ctx, rating, scope{countries: c.countriesIn(continent)})
		if err != nil {
			return Rankings{}, fmt.Errorf("continental ranks: %w", err)
		}
		out.Continental = &sr
	}

	return out, nil
}

func (c *Calculator) scopeRanks(ctx context.Context, rating *int, sc scope) (ScopeRanks, error) {
	var sr ScopeRanks
	var err error

	if rated(rating) {
		betterActive, err := c.count(ctx, rating, sc, true)
		if err != nil {
			return ScopeRanks{}, err
		}
		betterAll, err := c.count(ctx, rating, sc, false)
		if err != nil {
			return ScopeRanks{}, err
		}
		sr.RankActive = 1 + betterActive
		sr.RankAll = 1 + betterAll
	}

	if sr.TotalActive, err = c.count(ctx, nil, sc, true); err != nil {
		return ScopeRanks{}, err
	}
	if sr.TotalAll, err = c.count(ctx, nil, sc, false); err != nil {
		return ScopeRanks{}, err
	}
	return sr, nil
}

// count runs one aggregate query: players with rating > 0, optionally with
// a rating strictly above better, within the scope, optionally active only.
func (c *Calculator) count(ctx context.Context, better *int, sc scope, activeOnly bool) (int, error) {
	q := "SELECT COUNT(*) FROM players WHERE rating > 0"
	var args []any

	if better != nil {
		args = append(args, *better)
		q += fmt.Sprintf(" AND rating > $%d", len(args))
	}
	if sc.country != "" {
		args = append(args, sc.country)
		q += fmt.Sprintf(" AND country = $%d", len(args))
	}
	if len(sc.countries) > 0 {
		args = append(args, sc.countries)
		q += fmt.Sprintf(" AND country = ANY($%d)", len(args))
	}
	if activeOnly {
		q += " AND (flag IS NULL OR flag = '')"
	}

	var n int
	if err := c.db.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *Calculator) countriesIn(continent string) []string {
	var out []string
	for country, cont := range c.continents {
		if cont == continent {
			out = append(out, country)
		}
	}
	sort.Strings(out)
	return out
}

func rated(rating *int) bool {
	return rating != nil && *rating > 0
}
