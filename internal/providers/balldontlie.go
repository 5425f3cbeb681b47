package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jstittsworth/prop-projections/pkg/names"
)

const defaultBallDontLieURL = "https://api.balldontlie.io/v1"

var ErrPlayerNotFound = errors.New("player not found")

// BallDontLieClient reads schedules, players and box scores from the
// BALLDONTLIE v1 API. The free tier allows five requests a minute.
type BallDontLieClient struct {
	*jsonClient
	baseURL string
}

func NewBallDontLieClient(apiKey, baseURL string, timeout time.Duration, breaker Breaker, logger *logrus.Logger) *BallDontLieClient {
	if baseURL == "" {
		baseURL = defaultBallDontLieURL
	}
	c := newJSONClient(BallDontLie, timeout, rate.Every(12*time.Second), 1, breaker, logger)
	if apiKey != "" {
		c.headers["Authorization"] = apiKey
	}
	return &BallDontLieClient{jsonClient: c, baseURL: strings.TrimRight(baseURL, "/")}
}

// SetRateLimit overrides the request pacing, mainly for paid tiers.
func (c *BallDontLieClient) SetRateLimit(limit rate.Limit, burst int) {
	c.rateLimiter = rate.NewLimiter(limit, burst)
}

type ballDontLieMeta struct {
	NextCursor *int `json:"next_cursor"`
	PerPage    int  `json:"per_page"`
}

type ballDontLieTeam struct {
	ID           int    `json:"id"`
	Abbreviation string `json:"abbreviation"`
	FullName     string `json:"full_name"`
}

type ballDontLiePlayer struct {
	ID        int             `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Position  string          `json:"position"`
	Team      ballDontLieTeam `json:"team"`
}

type ballDontLieGame struct {
	ID            int             `json:"id"`
	Date          string          `json:"date"`
	Datetime      string          `json:"datetime"`
	Status        string          `json:"status"`
	Period        int             `json:"period"`
	HomeTeam      ballDontLieTeam `json:"home_team"`
	VisitorTeam   ballDontLieTeam `json:"visitor_team"`
	HomeTeamID    int             `json:"home_team_id"`
	VisitorTeamID int             `json:"visitor_team_id"`
}

// ballDontLieTeamCodes maps team ids to abbreviations. Box scores carry only
// the ids of the two sides.
var ballDontLieTeamCodes = map[int]string{
	1: "ATL", 2: "BOS", 3: "BKN", 4: "CHA", 5: "CHI", 6: "CLE", 7: "DAL", 8: "DEN", 9: "DET", 10: "GSW",
	11: "HOU", 12: "IND", 13: "LAC", 14: "LAL", 15: "MEM", 16: "MIA", 17: "MIL", 18: "MIN", 19: "NOP", 20: "NYK",
	21: "OKC", 22: "ORL", 23: "PHI", 24: "PHX", 25: "POR", 26: "SAC", 27: "SAS", 28: "TOR", 29: "UTA", 30: "WAS",
}

// opponent is the abbreviation of the side teamID did not play for.
func (g ballDontLieGame) opponent(teamID int) string {
	homeID, awayID := g.HomeTeamID, g.VisitorTeamID
	if homeID == 0 {
		homeID = g.HomeTeam.ID
	}
	if awayID == 0 {
		awayID = g.VisitorTeam.ID
	}
	if teamID == homeID {
		if g.VisitorTeam.Abbreviation != "" {
			return g.VisitorTeam.Abbreviation
		}
		return ballDontLieTeamCodes[awayID]
	}
	if g.HomeTeam.Abbreviation != "" {
		return g.HomeTeam.Abbreviation
	}
	return ballDontLieTeamCodes[homeID]
}

type ballDontLieStats struct {
	ID       int               `json:"id"`
	Min      string            `json:"min"`
	Fgm      float64           `json:"fgm"`
	Fga      float64           `json:"fga"`
	Fg3m     float64           `json:"fg3m"`
	Ftm      float64           `json:"ftm"`
	Fta      float64           `json:"fta"`
	Reb      float64           `json:"reb"`
	Ast      float64           `json:"ast"`
	Stl      float64           `json:"stl"`
	Blk      float64           `json:"blk"`
	Turnover float64           `json:"turnover"`
	Pts      float64           `json:"pts"`
	Player   ballDontLiePlayer `json:"player"`
	Team     ballDontLieTeam   `json:"team"`
	Game     ballDontLieGame   `json:"game"`
}

// Player is a roster entry.
type Player struct {
	ID       int
	Name     string
	Position string
	Team     string
}

// ScheduledGame is one game from the schedule feed.
type ScheduledGame struct {
	ExternalID   string
	HomeTeam     string
	AwayTeam     string
	HomeTeamName string
	AwayTeamName string
	StartTime    time.Time
	Status       string
	Final        bool
	Live         bool
	Source       string
}

// GameLog is one completed box score.
type GameLog struct {
	GameID              int
	Date                time.Time
	Team                string
	Opponent            string
	Minutes             float64
	Points              float64
	Rebounds            float64
	Assists             float64
	Steals              float64
	Blocks              float64
	Turnovers           float64
	ThreePointersMade   float64
	FieldGoalsMade      float64
	FieldGoalsAttempted float64
	FreeThrowsMade      float64
	FreeThrowsAttempted float64
}

// Games lists the games scheduled on date (UTC calendar day).
func (c *BallDontLieClient) Games(ctx context.Context, date time.Time) ([]ScheduledGame, error) {
	q := url.Values{}
	q.Set("dates[]", date.Format("2006-01-02"))
	q.Set("per_page", "100")

	var resp struct {
		Data []ballDontLieGame `json:"data"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/games?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch games for %s: %w", date.Format("2006-01-02"), err)
	}

	games := make([]ScheduledGame, 0, len(resp.Data))
	for _, g := range resp.Data {
		games = append(games, ScheduledGame{
			ExternalID:   strconv.Itoa(g.ID),
			HomeTeam:     g.HomeTeam.Abbreviation,
			AwayTeam:     g.VisitorTeam.Abbreviation,
			HomeTeamName: g.HomeTeam.FullName,
			AwayTeamName: g.VisitorTeam.FullName,
			StartTime:    gameStart(g),
			Status:       g.Status,
			Final:        strings.EqualFold(g.Status, "final"),
			Live:         g.Period > 0 && !strings.EqualFold(g.Status, "final"),
			Source:       BallDontLie,
		})
	}
	return games, nil
}

// FindPlayer resolves a display name to a player. The API searches one name
// token at a time, so the last name is searched and the full name matched
// locally after normalization.
func (c *BallDontLieClient) FindPlayer(ctx context.Context, name string) (*Player, error) {
	key := names.Normalize(name)
	tokens := strings.Fields(key)
	if len(tokens) == 0 {
		return nil, ErrPlayerNotFound
	}

	q := url.Values{}
	q.Set("search", tokens[len(tokens)-1])
	q.Set("per_page", "100")

	var resp struct {
		Data []ballDontLiePlayer `json:"data"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/players?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to search player %s: %w", name, err)
	}

	for _, p := range resp.Data {
		full := p.FirstName + " " + p.LastName
		if names.Normalize(full) == key {
			return &Player{ID: p.ID, Name: full, Position: p.Position, Team: p.Team.Abbreviation}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, name)
}

// RecentGameLogs returns up to limit played games for a player in season,
// most recent first. Games with zero minutes are dropped.
func (c *BallDontLieClient) RecentGameLogs(ctx context.Context, playerID, season, limit int) ([]GameLog, error) {
	var logs []GameLog
	cursor := ""
	for {
		q := url.Values{}
		q.Set("player_ids[]", strconv.Itoa(playerID))
		q.Set("seasons[]", strconv.Itoa(season))
		q.Set("per_page", "100")
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var resp struct {
			Data []ballDontLieStats `json:"data"`
			Meta ballDontLieMeta    `json:"meta"`
		}
		if err := c.getJSON(ctx, c.baseURL+"/stats?"+q.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch stats for player %d: %w", playerID, err)
		}

		for _, s := range resp.Data {
			minutes := parseMinutes(s.Min)
			if minutes <= 0 {
				continue
			}
			date, err := time.Parse("2006-01-02", firstN(s.Game.Date, 10))
			if err != nil {
				c.logger.WithFields(logrus.Fields{
					"provider": BallDontLie,
					"game_id":  s.Game.ID,
					"date":     s.Game.Date,
				}).Debug("Skipping box score with unparseable date")
				continue
			}
			logs = append(logs, GameLog{
				GameID:              s.Game.ID,
				Date:                date,
				Team:                s.Team.Abbreviation,
				Opponent:            s.Game.opponent(s.Team.ID),
				Minutes:             minutes,
				Points:              s.Pts,
				Rebounds:            s.Reb,
				Assists:             s.Ast,
				Steals:              s.Stl,
				Blocks:              s.Blk,
				Turnovers:           s.Turnover,
				ThreePointersMade:   s.Fg3m,
				FieldGoalsMade:      s.Fgm,
				FieldGoalsAttempted: s.Fga,
				FreeThrowsMade:      s.Ftm,
				FreeThrowsAttempted: s.Fta,
			})
		}

		if resp.Meta.NextCursor == nil || len(resp.Data) == 0 {
			break
		}
		cursor = strconv.Itoa(*resp.Meta.NextCursor)
	}

	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Date.After(logs[j].Date) })
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

// SeasonFor returns the season a date belongs to, named by its starting
// year. The NBA season starts in October.
func SeasonFor(t time.Time) int {
	if t.Month() >= time.October {
		return t.Year()
	}
	return t.Year() - 1
}

func gameStart(g ballDontLieGame) time.Time {
	if t, err := time.Parse(time.RFC3339, g.Datetime); err == nil {
		return t.UTC()
	}
	// Scheduled games carry the tip time in status, finished ones do not.
	if t, err := time.Parse(time.RFC3339, g.Status); err == nil {
		return t.UTC()
	}
	t, _ := time.Parse("2006-01-02", firstN(g.Date, 10))
	return t
}

// parseMinutes accepts "34", "34:12" and "" (did not play).
func parseMinutes(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	mins, secs, _ := strings.Cut(s, ":")
	m, err := strconv.ParseFloat(mins, 64)
	if err != nil {
		return 0
	}
	if secs != "" {
		if sec, err := strconv.ParseFloat(secs, 64); err == nil {
			m += sec / 60
		}
	}
	return m
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
