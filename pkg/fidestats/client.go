package fidestats

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/jhonben94/fide-Scraper/pkg/logger"
)

// GameTotals is a win/draw/loss breakdown for one color and time
// control. Losses are derived, the upstream endpoint only reports
// totals, wins and draws.
type GameTotals struct {
	Games  int `json:"games"`
	Wins   int `json:"wins"`
	Draws  int `json:"draws"`
	Losses int `json:"losses"`
}

// Breakdown splits one color's games by time control. All covers
// standard games in the upstream numbering.
type Breakdown struct {
	All   GameTotals `json:"all"`
	Rapid GameTotals `json:"rapid"`
	Blitz GameTotals `json:"blitz"`
}

// Stats is a player's lifetime game statistics by color.
type Stats struct {
	White Breakdown `json:"white"`
	Black Breakdown `json:"black"`
}

// looseInt accepts numbers, quoted numbers and null; anything else
// decodes as 0. The endpoint is not consistent about its number types.
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		*n = 0
		return nil
	}
	*n = looseInt(v)
	return nil
}

type rawRow struct {
	WhiteTotal    looseInt `json:"white_total"`
	WhiteWins     looseInt `json:"white_win_num"`
	WhiteDraws    looseInt `json:"white_draw_num"`
	WhiteTotalRpd looseInt `json:"white_total_rpd"`
	WhiteWinsRpd  looseInt `json:"white_win_num_rpd"`
	WhiteDrawsRpd looseInt `json:"white_draw_num_rpd"`
	WhiteTotalBlz looseInt `json:"white_total_blz"`
	WhiteWinsBlz  looseInt `json:"white_win_num_blz"`
	WhiteDrawsBlz looseInt `json:"white_draw_num_blz"`
	BlackTotal    looseInt `json:"black_total"`
	BlackWins     looseInt `json:"black_win_num"`
	BlackDraws    looseInt `json:"black_draw_num"`
	BlackTotalRpd looseInt `json:"black_total_rpd"`
	BlackWinsRpd  looseInt `json:"black_win_num_rpd"`
	BlackDrawsRpd looseInt `json:"black_draw_num_rpd"`
	BlackTotalBlz looseInt `json:"black_total_blz"`
	BlackWinsBlz  looseInt `json:"black_win_num_blz"`
	BlackDrawsBlz looseInt `json:"black_draw_num_blz"`
}

// Client queries the statistics endpoint on the federation website.
// The endpoint is best effort, failures degrade to missing stats
// rather than failing the caller.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *logger.Logger
}

func New(statsURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        statsURL,
		logger:     log,
	}
}

// PlayerStats fetches lifetime game statistics for a player. It
// returns (nil, nil) when the endpoint is unreachable or returns no
// rows, so callers can treat stats as optional.
func (c *Client) PlayerStats(ctx context.Context, fideid int) (*Stats, error) {
	form := url.Values{}
	form.Set("id1", fmt.Sprintf("%d", fideid))
	form.Set("id2", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build stats request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")
	req.Header.Set("Referer", "https://ratings.fide.com/")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("stats request failed", zap.Int("fideid", fideid), zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("stats request rejected",
			zap.Int("fideid", fideid),
			zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read stats response: %w", err)
	}

	var rows []rawRow
	if err := json.Unmarshal(body, &rows); err != nil {
		c.logger.Warn("stats response not parseable", zap.Int("fideid", fideid), zap.Error(err))
		return nil, nil
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &Stats{
		White: Breakdown{
			All:   totals(row.WhiteTotal, row.WhiteWins, row.WhiteDraws),
			Rapid: totals(row.WhiteTotalRpd, row.WhiteWinsRpd, row.WhiteDrawsRpd),
			Blitz: totals(row.WhiteTotalBlz, row.WhiteWinsBlz, row.WhiteDrawsBlz),
		},
		Black: Breakdown{
			All:   totals(row.BlackTotal, row.BlackWins, row.BlackDraws),
			Rapid: totals(row.BlackTotalRpd, row.BlackWinsRpd, row.BlackDrawsRpd),
			Blitz: totals(row.BlackTotalBlz, row.BlackWinsBlz, row.BlackDrawsBlz),
		},
	}, nil
}

func totals(games, wins, draws looseInt) GameTotals {
	gt := GameTotals{
		Games: int(games),
		Wins:  int(wins),
		Draws: int(draws),
	}
	if losses := gt.Games - gt.Wins - gt.Draws; losses > 0 {
		gt.Losses = losses
	}
	return gt
}
