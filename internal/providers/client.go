// Package providers contains the HTTP clients for the upstream NBA feeds:
// box scores and schedules (balldontlie), injuries (ESPN), posted lines
// (PrizePicks) and sportsbook player-prop odds (The Odds API).
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Provider names, also used as circuit breaker keys.
const (
	BallDontLie = "balldontlie"
	ESPN        = "espn"
	PrizePicks  = "prizepicks"
	OddsAPI     = "oddsapi"
)

// Breaker guards calls to one upstream service.
type Breaker interface {
	Execute(service string, fn func() (interface{}, error)) (interface{}, error)
}

// StatusError is returned when an upstream answers with a non-200 status.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status code: %d", e.Provider, e.Code)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// jsonClient is the shared GET-and-decode path for every provider: rate
// limited, breaker protected and never retried.
type jsonClient struct {
	name        string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	breaker     Breaker
	headers     map[string]string
	logger      *logrus.Logger
}

func newJSONClient(name string, timeout time.Duration, limit rate.Limit, burst int, breaker Breaker, logger *logrus.Logger) *jsonClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &jsonClient{
		name:        name,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(limit, burst),
		breaker:     breaker,
		headers:     map[string]string{"Accept": "application/json"},
		logger:      logger,
	}
}

func (c *jsonClient) getJSON(ctx context.Context, url string, target interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", c.name, err)
	}

	call := func() (interface{}, error) {
		return nil, c.do(ctx, url, target)
	}
	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute(c.name, call)
	} else {
		_, err = call()
	}
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"provider": c.name,
			"endpoint": url,
		}).WithError(err).Warn("Upstream request failed")
		return err
	}
	return nil
}

func (c *jsonClient) do(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", c.name, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Provider: c.name, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", c.name, err)
	}
	return nil
}
