package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultPrizePicksURL = "https://api.prizepicks.com"

// Market labels that are not full-game player props.
var skippedPrizePicksStats = []string{
	"1st 3 minutes",
	"first 3 minutes",
	"quarters with",
	"two pointers",
	"2 pointers",
	"fantasy",
}

// PrizePicksClient reads the public projections board.
type PrizePicksClient struct {
	*jsonClient
	baseURL  string
	leagueID int
}

func NewPrizePicksClient(baseURL string, leagueID int, timeout time.Duration, breaker Breaker, logger *logrus.Logger) *PrizePicksClient {
	if baseURL == "" {
		baseURL = defaultPrizePicksURL
	}
	if leagueID == 0 {
		leagueID = 7
	}
	c := newJSONClient(PrizePicks, timeout, rate.Every(5*time.Second), 1, breaker, logger)
	c.headers["User-Agent"] = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	c.headers["Origin"] = "https://app.prizepicks.com"
	c.headers["Referer"] = "https://app.prizepicks.com/"
	return &PrizePicksClient{jsonClient: c, baseURL: strings.TrimRight(baseURL, "/"), leagueID: leagueID}
}

type prizePicksResource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		StatType    string          `json:"stat_type"`
		LineScore   float64         `json:"line_score"`
		GameID      json.RawMessage `json:"game_id"`
		StartTime   string          `json:"start_time"`
		Description string          `json:"description"`
		DisplayName string          `json:"display_name"`
		Team        string          `json:"team"`
		TeamName    string          `json:"team_name"`
	} `json:"attributes"`
	Relationships struct {
		NewPlayer struct {
			Data *struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"new_player"`
	} `json:"relationships"`
}

type prizePicksResponse struct {
	Data     []prizePicksResource `json:"data"`
	Included []prizePicksResource `json:"included"`
}

// BoardProp is one posted line, reduced to the middle line per player and
// stat.
type BoardProp struct {
	ExternalID     string
	PlayerName     string
	Team           string
	Opponent       string
	StatType       string
	Line           float64
	GameExternalID string
	StartTime      *time.Time
}

// BoardGame is a game inferred from the teams that have props posted in it.
type BoardGame struct {
	ExternalID string
	Teams      []string
	StartTime  time.Time
}

// Board is the filtered projections board.
type Board struct {
	Props []BoardProp
	Games []BoardGame
}

// Board fetches the projections board. Unwanted markets are dropped and,
// when several lines are posted for one player and stat, only the middle
// line is kept.
func (c *PrizePicksClient) Board(ctx context.Context) (*Board, error) {
	q := url.Values{}
	q.Set("league_id", strconv.Itoa(c.leagueID))
	q.Set("per_page", "250")
	q.Set("single_stat", "true")

	var resp prizePicksResponse
	if err := c.getJSON(ctx, c.baseURL+"/projections?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch projections board: %w", err)
	}

	players := make(map[string]prizePicksResource)
	for _, inc := range resp.Included {
		if inc.Type == "new_player" {
			players[inc.ID] = inc
		}
	}

	type groupKey struct{ player, stat string }
	groups := make(map[groupKey][]BoardProp)
	var order []groupKey
	gameTeams := make(map[string]map[string]bool)
	gameStart := make(map[string]time.Time)

	for _, proj := range resp.Data {
		attrs := proj.Attributes
		if skipPrizePicksStat(attrs.StatType) {
			continue
		}
		rel := proj.Relationships.NewPlayer.Data
		if rel == nil {
			continue
		}
		player, ok := players[rel.ID]
		if !ok {
			continue
		}

		team := player.Attributes.Team
		if team == "" {
			team = player.Attributes.TeamName
		}
		prop := BoardProp{
			ExternalID:     proj.ID,
			PlayerName:     player.Attributes.DisplayName,
			Team:           team,
			Opponent:       strings.TrimSpace(attrs.Description),
			StatType:       attrs.StatType,
			Line:           attrs.LineScore,
			GameExternalID: rawID(attrs.GameID),
		}
		if t, err := time.Parse(time.RFC3339, attrs.StartTime); err == nil {
			start := t.UTC()
			prop.StartTime = &start
		}

		if prop.GameExternalID != "" {
			if gameTeams[prop.GameExternalID] == nil {
				gameTeams[prop.GameExternalID] = make(map[string]bool)
			}
			if team != "" {
				gameTeams[prop.GameExternalID][team] = true
			}
			if _, ok := gameStart[prop.GameExternalID]; !ok && prop.StartTime != nil {
				gameStart[prop.GameExternalID] = *prop.StartTime
			}
		}

		key := groupKey{player: rel.ID, stat: attrs.StatType}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], prop)
	}

	board := &Board{Props: make([]BoardProp, 0, len(order))}
	for _, key := range order {
		board.Props = append(board.Props, middleLine(groups[key]))
	}

	gameIDs := make([]string, 0, len(gameTeams))
	for id := range gameTeams {
		gameIDs = append(gameIDs, id)
	}
	sort.Strings(gameIDs)
	for _, id := range gameIDs {
		teams := make([]string, 0, len(gameTeams[id]))
		for t := range gameTeams[id] {
			teams = append(teams, t)
		}
		sort.Strings(teams)
		board.Games = append(board.Games, BoardGame{ExternalID: id, Teams: teams, StartTime: gameStart[id]})
	}
	return board, nil
}

// middleLine picks the prop whose line is the upper median of the group.
func middleLine(group []BoardProp) BoardProp {
	lines := make([]float64, len(group))
	for i, p := range group {
		lines[i] = p.Line
	}
	sort.Float64s(lines)
	mid := lines[len(lines)/2]
	for _, p := range group {
		if p.Line == mid {
			return p
		}
	}
	return group[0]
}

func skipPrizePicksStat(stat string) bool {
	lower := strings.ToLower(stat)
	for _, s := range skippedPrizePicksStats {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// rawID accepts ids sent either as JSON strings or numbers.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
