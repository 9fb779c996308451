package espn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/internal/models"
)

// ScoreboardGame is one game parsed from the daily scoreboard
type ScoreboardGame struct {
	EventID  string
	StartUTC time.Time
	Home     TeamInfo
	Away     TeamInfo
	Network  *string
	Status   models.GameStatus
}

// FetchScoreboardDay fetches the scoreboard for one calendar day (UTC).
func (c *Client) FetchScoreboardDay(ctx context.Context, day time.Time) ([]ScoreboardGame, error) {
	endpoint := fmt.Sprintf("%s?dates=%s", scoreboardEndpoint, day.UTC().Format("20060102"))

	var resp scoreboardResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch scoreboard: %w", err)
	}

	out := make([]ScoreboardGame, 0, len(resp.Events))
	for _, ev := range resp.Events {
		game, ok := parseScoreboardEvent(ev)
		if !ok {
			continue
		}
		out = append(out, game)
	}
	log.Debug().Str("date", day.UTC().Format("20060102")).Int("count", len(out)).Msg("espn scoreboard parsed")
	return out, nil
}

// FetchScoreboardRange enumerates the calendar days in [start, end] and
// concatenates one scoreboard fetch per day.
func (c *Client) FetchScoreboardRange(ctx context.Context, start, end time.Time) ([]ScoreboardGame, error) {
	var out []ScoreboardGame
	day := time.Date(start.UTC().Year(), start.UTC().Month(), start.UTC().Day(), 0, 0, 0, 0, time.UTC)
	for !day.After(end.UTC()) {
		games, err := c.FetchScoreboardDay(ctx, day)
		if err != nil {
			return nil, err
		}
		out = append(out, games...)
		day = day.AddDate(0, 0, 1)
	}
	return out, nil
}

func parseScoreboardEvent(ev scoreboardEvent) (ScoreboardGame, bool) {
	eventID := eventIDOf(ev)
	if eventID == "" || len(ev.Competitions) == 0 {
		return ScoreboardGame{}, false
	}
	comp := ev.Competitions[0]

	start := ev.Date
	if start == "" {
		start = comp.Date
	}
	startUTC, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return ScoreboardGame{}, false
	}

	home, away, ok := homeAwayOf(comp.Competitors)
	if !ok {
		return ScoreboardGame{}, false
	}

	game := ScoreboardGame{
		EventID:  eventID,
		StartUTC: startUTC.UTC(),
		Home:     home,
		Away:     away,
		Status:   normalizeStatus(comp.Status),
	}
	if len(comp.Broadcasts) > 0 && len(comp.Broadcasts[0].Names) > 0 {
		network := comp.Broadcasts[0].Names[0]
		game.Network = &network
	}
	return game, true
}

func eventIDOf(ev scoreboardEvent) string {
	if ev.ID != "" {
		return ev.ID
	}
	// uid looks like "s:20~l:28~e:401547417"
	if idx := strings.LastIndex(ev.UID, "~"); idx >= 0 {
		return strings.TrimPrefix(ev.UID[idx+1:], "e:")
	}
	return ""
}

func homeAwayOf(competitors []competitor) (home, away TeamInfo, ok bool) {
	var haveHome, haveAway bool
	for _, c := range competitors {
		if c.Team == nil {
			continue
		}
		info := TeamInfo{ID: c.Team.ID, Name: c.Team.DisplayName, Abbr: c.Team.Abbreviation}
		switch c.HomeAway {
		case "home":
			home, haveHome = info, true
		case "away":
			away, haveAway = info, true
		}
	}
	return home, away, haveHome && haveAway
}

// normalizeStatus maps the upstream status taxonomy onto the internal one:
// "in" is live, "post" is final, anything else is scheduled.
func normalizeStatus(s *compStatus) models.GameStatus {
	if s == nil || s.Type == nil {
		return models.StatusScheduled
	}
	switch s.Type.State {
	case "in":
		return models.StatusLive
	case "post":
		return models.StatusFinal
	default:
		return models.StatusScheduled
	}
}
