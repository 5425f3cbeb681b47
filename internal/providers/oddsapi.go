package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultOddsAPIURL = "https://api.the-odds-api.com/v4"

// DefaultBookmakers are the books requested for player props.
var DefaultBookmakers = []string{"draftkings", "fanduel"}

// OddsAPIClient reads NBA player-prop odds from The Odds API. Every request
// spends quota, so callers should stay on the ingestion schedule.
type OddsAPIClient struct {
	*jsonClient
	baseURL    string
	apiKey     string
	bookmakers []string
}

func NewOddsAPIClient(apiKey, baseURL string, timeout time.Duration, breaker Breaker, logger *logrus.Logger) *OddsAPIClient {
	if baseURL == "" {
		baseURL = defaultOddsAPIURL
	}
	return &OddsAPIClient{
		jsonClient: newJSONClient(OddsAPI, timeout, rate.Every(time.Second), 1, breaker, logger),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bookmakers: DefaultBookmakers,
	}
}

// Enabled reports whether an API key is configured.
func (c *OddsAPIClient) Enabled() bool {
	return c.apiKey != ""
}

// Event is one upcoming game.
type Event struct {
	ID           string    `json:"id"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
}

type oddsAPIEventOdds struct {
	Event
	Bookmakers []struct {
		Key     string `json:"key"`
		Markets []struct {
			Key        string    `json:"key"`
			LastUpdate time.Time `json:"last_update"`
			Outcomes   []struct {
				Name        string   `json:"name"`
				Description string   `json:"description"`
				Price       int      `json:"price"`
				Point       *float64 `json:"point"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// PropQuote is a merged over/under quote for one player, market and book.
type PropQuote struct {
	EventID      string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Bookmaker    string
	Market       string
	PlayerName   string
	Line         float64
	OverPrice    *int
	UnderPrice   *int
}

// Events lists upcoming NBA events.
func (c *OddsAPIClient) Events(ctx context.Context) ([]Event, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("dateFormat", "iso")

	var events []Event
	if err := c.getJSON(ctx, c.baseURL+"/sports/basketball_nba/events?"+q.Encode(), &events); err != nil {
		return nil, fmt.Errorf("failed to fetch odds events: %w", err)
	}
	return events, nil
}

// EventProps fetches player-prop markets for one event and merges the over
// and under outcomes of each player, market and book into one quote.
func (c *OddsAPIClient) EventProps(ctx context.Context, eventID string, markets []string) ([]PropQuote, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("regions", "us")
	q.Set("markets", strings.Join(markets, ","))
	q.Set("oddsFormat", "american")
	q.Set("bookmakers", strings.Join(c.bookmakers, ","))

	var resp oddsAPIEventOdds
	endpoint := fmt.Sprintf("%s/sports/basketball_nba/events/%s/odds?%s", c.baseURL, url.PathEscape(eventID), q.Encode())
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch odds for event %s: %w", eventID, err)
	}

	type key struct{ book, market, player string }
	merged := make(map[key]*PropQuote)
	var order []key

	for _, book := range resp.Bookmakers {
		for _, market := range book.Markets {
			for _, out := range market.Outcomes {
				if out.Description == "" || out.Point == nil {
					continue
				}
				k := key{book: book.Key, market: market.Key, player: out.Description}
				quote, ok := merged[k]
				if !ok {
					quote = &PropQuote{
						EventID:      resp.ID,
						HomeTeam:     resp.HomeTeam,
						AwayTeam:     resp.AwayTeam,
						CommenceTime: resp.CommenceTime,
						Bookmaker:    book.Key,
						Market:       market.Key,
						PlayerName:   out.Description,
						Line:         *out.Point,
					}
					merged[k] = quote
					order = append(order, k)
				}
				price := out.Price
				switch strings.ToLower(out.Name) {
				case "over":
					quote.OverPrice = &price
					quote.Line = *out.Point
				case "under":
					quote.UnderPrice = &price
				}
			}
		}
	}

	quotes := make([]PropQuote, 0, len(order))
	for _, k := range order {
		quotes = append(quotes, *merged[k])
	}
	return quotes, nil
}
