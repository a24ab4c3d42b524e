// Package calc implements the FIDE rating arithmetic: expected score,
// K-factor selection and per-game rating change.
package calc

import (
	"math"
	"time"
)

// now is swapped out in tests to pin the age calculation.
var now = time.Now

// ExpectedScore is the logistic win expectancy of the player against the
// opponent: 1 / (1 + 10^((Rb-Ra)/400)). Always strictly between 0 and 1.
func ExpectedScore(playerRating, opponentRating int) float64 {
	diff := float64(opponentRating - playerRating)
	return 1.0 / (1.0 + math.Pow(10, diff/400.0))
}

// KFactor selects the development coefficient:
//
//	40 — fewer than 30 rated games, regardless of age or rating
//	40 — under 18 with a rating below 2300
//	10 — rating 2400 or above
//	20 — everyone else
//
// A nil birthYear is treated as not under 18.
func KFactor(rating int, games, birthYear *int) int {
	played := 0
	if games != nil {
		played = *games
	}
	if played < 30 {
		return 40
	}
	if birthYear != nil && now().Year()-*birthYear < 18 && rating < 2300 {
		return 40
	}
	if rating >= 2400 {
		return 10
	}
	return 20
}

// RatingChange is the per-game delta K * (score - expected), with score 1.0
// for a win, 0.5 for a draw and 0.0 for a loss.
func RatingChange(playerRating, opponentRating int, score float64, games, birthYear *int) float64 {
	e := ExpectedScore(playerRating, opponentRating)
	k := KFactor(playerRating, games, birthYear)
	return float64(k) * (score - e)
}

// Example bundles one worked calculation against a hypothetical opponent.
type Example struct {
	PlayerRating   int     `json:"player_rating"`
	OpponentRating int     `json:"opponent_rating"`
	ExpectedScore  float64 `json:"expected_score"`
	KFactor        int     `json:"k_factor"`
	Win            float64 `json:"win"`
	Draw           float64 `json:"draw"`
	Loss           float64 `json:"loss"`
}

// NewExample computes a display-ready calculation, rounded the way the
// profile view shows it.
func NewExample(playerRating, opponentRating int, games, birthYear *int) Example {
	return Example{
		PlayerRating:   playerRating,
		OpponentRating: opponentRating,
		ExpectedScore:  round(ExpectedScore(playerRating, opponentRating), 4),
		KFactor:        KFactor(playerRating, games, birthYear),
		Win:            round(RatingChange(playerRating, opponentRating, 1.0, games, birthYear), 2),
		Draw:           round(RatingChange(playerRating, opponentRating, 0.5, games, birthYear), 2),
		Loss:           round(RatingChange(playerRating, opponentRating, 0.0, games, birthYear), 2),
	}
}

func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
