package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultESPNURL = "https://site.api.espn.com/apis/site/v2/sports/basketball/nba"

// ESPNClient reads the public NBA scoreboard, which carries both the slate
// and per-athlete injury tags.
type ESPNClient struct {
	*jsonClient
	baseURL string
}

func NewESPNClient(baseURL string, timeout time.Duration, breaker Breaker, logger *logrus.Logger) *ESPNClient {
	if baseURL == "" {
		baseURL = defaultESPNURL
	}
	return &ESPNClient{
		jsonClient: newJSONClient(ESPN, timeout, rate.Every(time.Second), 2, breaker, logger),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type espnScoreboard struct {
	Events []struct {
		ID     string `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Type struct {
				State     string `json:"state"`
				Completed bool   `json:"completed"`
			} `json:"type"`
		} `json:"status"`
		Competitions []struct {
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Team     struct {
					Abbreviation string `json:"abbreviation"`
					DisplayName  string `json:"displayName"`
				} `json:"team"`
				Athletes []struct {
					DisplayName string `json:"displayName"`
					Injuries    []struct {
						Status  string `json:"status"`
						Date    string `json:"date"`
						Details struct {
							Type   string `json:"type"`
							Detail string `json:"detail"`
						} `json:"details"`
					} `json:"injuries"`
				} `json:"athletes"`
			} `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

// InjuryEntry is one athlete's injury tag.
type InjuryEntry struct {
	PlayerName string
	Team       string
	Status     string
	InjuryType string
	Details    string
}

func (c *ESPNClient) scoreboard(ctx context.Context, date time.Time) (*espnScoreboard, error) {
	endpoint := c.baseURL + "/scoreboard"
	if !date.IsZero() {
		endpoint += "?dates=" + date.Format("20060102")
	}
	var board espnScoreboard
	if err := c.getJSON(ctx, endpoint, &board); err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}
	return &board, nil
}

// Injuries returns the injury tags for every athlete on today's scoreboard.
// Athletes with several entries keep the first one, which ESPN lists as the
// current status.
func (c *ESPNClient) Injuries(ctx context.Context) ([]InjuryEntry, error) {
	board, err := c.scoreboard(ctx, time.Time{})
	if err != nil {
		return nil, err
	}

	var entries []InjuryEntry
	seen := make(map[string]bool)
	for _, event := range board.Events {
		for _, comp := range event.Competitions {
			for _, team := range comp.Competitors {
				for _, athlete := range team.Athletes {
					if len(athlete.Injuries) == 0 || athlete.DisplayName == "" || seen[athlete.DisplayName] {
						continue
					}
					seen[athlete.DisplayName] = true
					inj := athlete.Injuries[0]
					details := inj.Details.Type
					if inj.Details.Detail != "" {
						details = strings.TrimSpace(details + " " + inj.Details.Detail)
					}
					entries = append(entries, InjuryEntry{
						PlayerName: athlete.DisplayName,
						Team:       team.Team.Abbreviation,
						Status:     inj.Status,
						InjuryType: inj.Details.Type,
						Details:    details,
					})
				}
			}
		}
	}
	return entries, nil
}

// Games returns the scoreboard slate for date.
func (c *ESPNClient) Games(ctx context.Context, date time.Time) ([]ScheduledGame, error) {
	board, err := c.scoreboard(ctx, date)
	if err != nil {
		return nil, err
	}

	games := make([]ScheduledGame, 0, len(board.Events))
	for _, event := range board.Events {
		game := ScheduledGame{
			ExternalID: "espn-" + event.ID,
			Status:     event.Status.Type.State,
			Final:      event.Status.Type.Completed || event.Status.Type.State == "post",
			Live:       event.Status.Type.State == "in",
			Source:     ESPN,
		}
		// ESPN omits seconds: 2025-01-15T00:30Z
		if t, err := time.Parse("2006-01-02T15:04Z07:00", event.Date); err == nil {
			game.StartTime = t.UTC()
		} else if t, err := time.Parse(time.RFC3339, event.Date); err == nil {
			game.StartTime = t.UTC()
		}
		for _, comp := range event.Competitions {
			for _, team := range comp.Competitors {
				switch team.HomeAway {
				case "home":
					game.HomeTeam = team.Team.Abbreviation
					game.HomeTeamName = team.Team.DisplayName
				case "away":
					game.AwayTeam = team.Team.Abbreviation
					game.AwayTeamName = team.Team.DisplayName
				}
			}
		}
		if game.HomeTeam == "" || game.AwayTeam == "" {
			continue
		}
		games = append(games, game)
	}
	return games, nil
}
