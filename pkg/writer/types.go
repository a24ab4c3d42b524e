package writer

import "time"

// PlayerRecord is one normalized row of the FIDE rating list. Pointer
// fields are nullable: source values that are absent, empty or not numeric
// stay nil and are stored as SQL NULL.
type PlayerRecord struct {
	FideID      int     `db:"fideid" json:"fideid"`
	Name        string  `db:"name" json:"name"`
	Country     string  `db:"country" json:"country"`
	Sex         *string `db:"sex" json:"sex"`
	Title       *string `db:"title" json:"title"`
	Rating      *int    `db:"rating" json:"rating"`
	Games       *int    `db:"games" json:"games"`
	RapidRating *int    `db:"rapid_rating" json:"rapid_rating"`
	RapidGames  *int    `db:"rapid_games" json:"rapid_games"`
	BlitzRating *int    `db:"blitz_rating" json:"blitz_rating"`
	BlitzGames  *int    `db:"blitz_games" json:"blitz_games"`
	Birthday    *int    `db:"birthday" json:"birthday"`
	Flag        *string `db:"flag" json:"flag"`
	FOATitle    *string `db:"foa_title" json:"foa_title"`
	FOARating   *int    `db:"foa_rating" json:"foa_rating"`
}

// HistoryPoint is one period's rating snapshot for a player.
type HistoryPoint struct {
	Period      time.Time `db:"period" json:"period"`
	Rating      *int      `db:"rating" json:"rating"`
	RapidRating *int      `db:"rapid_rating" json:"rapid_rating"`
	BlitzRating *int      `db:"blitz_rating" json:"blitz_rating"`
}
