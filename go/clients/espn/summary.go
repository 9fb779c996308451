package espn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/clients"
)

// EventSituation is the possession picture for one event. PossessionTeamID
// is the upstream team id, empty when no fallback resolved a team.
type EventSituation struct {
	EventID          string
	PossessionTeamID string
	Home             TeamInfo
	Away             TeamInfo
}

// WatchSummary is the lightweight in-game snapshot shown to watchers
type WatchSummary struct {
	EventID         string
	Clock           *string
	Possession      *string
	DownAndDistance *string
	RedZone         bool
	GoalToGo        bool
}

// PlayState carries the latest play id and scoring-pressure flags
type PlayState struct {
	LastPlayID *string
	RedZone    bool
	GoalToGo   bool
}

// FetchEventSituation fetches the event summary and resolves the team in
// possession through three fallbacks: the explicit possession field, the
// current drive's team, and the leading team token of the possession text.
// Returns (nil, nil) when the event is unknown upstream or has no home/away
// competitors; transport failures and server errors return an error.
func (c *Client) FetchEventSituation(ctx context.Context, eventID string) (*EventSituation, error) {
	var resp summaryResponse
	if err := c.getSummary(ctx, eventID, &resp); err != nil {
		if isNotFound(err) {
			log.Warn().Str("event_id", eventID).Msg("espn summary not found")
			return nil, nil
		}
		return nil, err
	}

	comp := headerCompetition(&resp)
	if comp == nil {
		return nil, nil
	}
	home, away, ok := homeAwayOf(comp.Competitors)
	if !ok {
		return nil, nil
	}

	out := &EventSituation{EventID: eventID, Home: home, Away: away}

	if comp.Situation != nil && comp.Situation.Possession != "" {
		out.PossessionTeamID = comp.Situation.Possession
		return out, nil
	}

	// Fallback 1: current drive attribution
	if resp.Drives != nil && resp.Drives.Current != nil {
		d := resp.Drives.Current
		if d.Team != nil && d.Team.ID != "" {
			out.PossessionTeamID = d.Team.ID
			return out, nil
		}
		if d.TeamID != "" {
			out.PossessionTeamID = d.TeamID
			return out, nil
		}
	}

	// Fallback 2: leading abbreviation token of the possession text,
	// e.g. "DAL 1st & 10 at DAL 25"
	if comp.Situation != nil {
		txt := comp.Situation.PossessionText
		if txt == "" {
			txt = comp.Situation.ShortDownDistanceText
		}
		if txt == "" {
			txt = comp.Situation.DownDistanceText
		}
		if token := leadingToken(txt); token != "" {
			switch token {
			case strings.ToUpper(home.Abbr):
				out.PossessionTeamID = home.ID
			case strings.ToUpper(away.Abbr):
				out.PossessionTeamID = away.ID
			}
		}
	}

	return out, nil
}

// FetchWatchSummary fetches the clock/possession/down-distance snapshot for
// one event.
func (c *Client) FetchWatchSummary(ctx context.Context, eventID string) (*WatchSummary, error) {
	var resp summaryResponse
	if err := c.getSummary(ctx, eventID, &resp); err != nil {
		return nil, err
	}

	out := &WatchSummary{EventID: eventID}
	comp := headerCompetition(&resp)
	if comp == nil || comp.Situation == nil {
		return out, nil
	}
	sit := comp.Situation

	if sit.Clock != nil && sit.Period != nil {
		clock := fmt.Sprintf("%02d:%02d Q%d", int(*sit.Clock)/60, int(*sit.Clock)%60, *sit.Period)
		out.Clock = &clock
	}
	if sit.PossessionText != "" {
		out.Possession = &sit.PossessionText
	}
	if dd := firstNonEmpty(sit.ShortDownDistanceText, sit.DownDistanceText); dd != "" {
		out.DownAndDistance = &dd
	}
	out.RedZone = sit.IsRedZone
	out.GoalToGo = sit.IsGoalToGo
	return out, nil
}

// FetchPlayState fetches the last completed play id plus the red-zone and
// goal-to-go flags for one event.
func (c *Client) FetchPlayState(ctx context.Context, eventID string) (*PlayState, error) {
	var resp summaryResponse
	if err := c.getSummary(ctx, eventID, &resp); err != nil {
		return nil, err
	}

	out := &PlayState{}
	if resp.Drives != nil && len(resp.Drives.Previous) > 0 {
		last := resp.Drives.Previous[len(resp.Drives.Previous)-1]
		if len(last.Plays) > 0 {
			if id := last.Plays[len(last.Plays)-1].ID; id != "" {
				out.LastPlayID = &id
			}
		}
	}
	if comp := headerCompetition(&resp); comp != nil && comp.Situation != nil {
		out.RedZone = comp.Situation.IsRedZone
		out.GoalToGo = comp.Situation.IsGoalToGo
	}
	return out, nil
}

func (c *Client) getSummary(ctx context.Context, eventID string, out *summaryResponse) error {
	endpoint := fmt.Sprintf("%s?event=%s", summaryEndpoint, url.QueryEscape(eventID))
	if err := c.get(ctx, endpoint, out); err != nil {
		return fmt.Errorf("fetch summary: %w", err)
	}
	return nil
}

func headerCompetition(resp *summaryResponse) *competition {
	if resp.Header == nil || len(resp.Header.Competitions) == 0 {
		return nil
	}
	return &resp.Header.Competitions[0]
}

func isNotFound(err error) bool {
	var statusErr *clients.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusBadRequest
	}
	return false
}

func leadingToken(txt string) string {
	fields := strings.Fields(txt)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
