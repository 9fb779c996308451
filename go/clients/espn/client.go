// Package espn fetches NFL schedule and in-game situation data from the
// public ESPN site API. All requests pass through the shared rate limiter;
// a denied acquire waits a jittered backoff and proceeds.
package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/clients"
	"github.com/mcdev12/fieldzone/go/internal/ratelimit"
)

const (
	limiterKey     = "espn"
	deniedBackoff  = 300 * time.Millisecond
	requestTimeout = 15 * time.Second
)

// TeamInfo identifies a team as the upstream reports it
type TeamInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Abbr string `json:"abbr"`
}

// Client is the rate-limited ESPN API client
type Client struct {
	base    *clients.BaseClient
	limiter *ratelimit.Limiter
}

// NewClient creates a Client sharing the given limiter. An empty baseURL
// uses the production API.
func NewClient(limiter *ratelimit.Limiter, baseURL string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	base := clients.NewBaseClient(baseURL)
	base.SetTimeout(requestTimeout)
	return &Client{
		base:    base,
		limiter: limiter,
	}
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	if !c.limiter.Acquire(limiterKey) {
		if err := c.limiter.Wait(ctx, deniedBackoff); err != nil {
			return err
		}
	}

	log.Debug().Str("endpoint", endpoint).Msg("espn GET")
	data, err := c.base.Get(ctx, endpoint)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode espn response: %w", err)
	}
	return nil
}
