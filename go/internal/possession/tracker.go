// Package possession reconciles the possession cache against the upstream
// feed: it decides which events to monitor, fetches their situations with a
// bounded fan-out, resolves upstream team identities to reference-store
// teams, and replaces the cached state under TTL.
package possession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/clients/espn"
	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/store"
)

// SituationFetcher defines what the tracker needs from the upstream client
type SituationFetcher interface {
	FetchEventSituation(ctx context.Context, eventID string) (*espn.EventSituation, error)
}

// GamesRepository defines what the tracker needs from the games store
type GamesRepository interface {
	ListGamesByStatus(ctx context.Context, status models.GameStatus) ([]models.Game, error)
	MarkGameLive(ctx context.Context, eventID string) error
}

// TeamsRepository defines what the tracker needs from the teams store
type TeamsRepository interface {
	GetTeamsByAbbrs(ctx context.Context, abbrs []string) ([]models.Team, error)
}

// Change describes one observed possession transition
type Change struct {
	EventID          string    `json:"event_id"`
	PossessionTeamID uuid.UUID `json:"possession_team_id"`
	DefenseTeamID    uuid.UUID `json:"defense_team_id"`
	At               time.Time `json:"at"`
}

// Notifier receives possession transitions. Notification is best-effort;
// implementations must not block the reconcile cycle.
type Notifier interface {
	PossessionChanged(ctx context.Context, change Change)
}

// Result summarizes one reconcile cycle
type Result struct {
	Updated int `json:"updated"`
	Checked int `json:"checked"`
}

// Config holds tracker tuning
type Config struct {
	// Concurrency caps in-flight situation fetches per cycle.
	Concurrency int
	// TTL bounds the staleness of possession and team→game entries.
	TTL time.Duration
}

// DefaultConfig returns the tracker defaults
func DefaultConfig() Config {
	return Config{
		Concurrency: 3,
		TTL:         120 * time.Second,
	}
}

// Tracker orchestrates possession reconciliation
type Tracker struct {
	fetcher  SituationFetcher
	games    GamesRepository
	teams    TeamsRepository
	store    store.Store
	clock    clockwork.Clock
	config   Config
	notifier Notifier
}

// NewTracker creates a Tracker. notifier may be nil.
func NewTracker(fetcher SituationFetcher, games GamesRepository, teams TeamsRepository, st store.Store, clock clockwork.Clock, config Config, notifier Notifier) *Tracker {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig().Concurrency
	}
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}
	return &Tracker{
		fetcher:  fetcher,
		games:    games,
		teams:    teams,
		store:    st,
		clock:    clock,
		config:   config,
		notifier: notifier,
	}
}

type resolved struct {
	eventID string
	offAbbr string
	defAbbr string
}

// Reconcile runs one reconciliation cycle over the live games plus the
// watch set. Per-event failures are logged and skipped; the cycle reports
// how many events it checked and how many it updated.
func (t *Tracker) Reconcile(ctx context.Context) (Result, error) {
	targets, err := t.targetEvents(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(targets) == 0 {
		return Result{}, nil
	}

	needed := t.fetchSituations(ctx, targets)
	if len(needed) == 0 {
		return Result{Checked: len(targets)}, nil
	}

	teamByAbbr, err := t.resolveTeams(ctx, needed)
	if err != nil {
		return Result{Checked: len(targets)}, err
	}

	updated := 0
	for _, n := range needed {
		offTeam, okOff := teamByAbbr[n.offAbbr]
		defTeam, okDef := teamByAbbr[n.defAbbr]
		if !okOff || !okDef {
			log.Warn().
				Str("event_id", n.eventID).
				Str("off_abbr", n.offAbbr).
				Str("def_abbr", n.defAbbr).
				Msg("no team mapping for abbreviation, leaving prior state")
			continue
		}
		if err := t.writeEvent(ctx, n.eventID, offTeam, defTeam); err != nil {
			log.Error().Err(err).Str("event_id", n.eventID).Msg("possession write failed")
			continue
		}
		updated++
	}

	return Result{Updated: updated, Checked: len(targets)}, nil
}

// targetEvents builds the set of events worth checking: games flagged live
// in the reference store plus everything in the watch set.
func (t *Tracker) targetEvents(ctx context.Context) ([]string, error) {
	liveGames, err := t.games.ListGamesByStatus(ctx, models.StatusLive)
	if err != nil {
		return nil, fmt.Errorf("list live games: %w", err)
	}

	// A failed watch-set read degrades to the live games alone.
	watchIDs, err := t.store.SMembers(ctx, store.KeyWatchSet)
	if err != nil {
		log.Warn().Err(err).Msg("watch set read failed, using live games only")
		watchIDs = nil
	}

	seen := make(map[string]bool)
	var targets []string
	for _, g := range liveGames {
		if !seen[g.EventID] {
			seen[g.EventID] = true
			targets = append(targets, g.EventID)
		}
	}
	for _, id := range watchIDs {
		if !seen[id] {
			seen[id] = true
			targets = append(targets, id)
		}
	}
	return targets, nil
}

// fetchSituations fans out situation fetches over a bounded worker pool and
// keeps the ones where a possessing team could be attributed to home or away.
func (t *Tracker) fetchSituations(ctx context.Context, eventIDs []string) []resolved {
	workers := t.config.Concurrency
	if workers > len(eventIDs) {
		workers = len(eventIDs)
	}

	workCh := make(chan string, len(eventIDs))
	resultCh := make(chan resolved, len(eventIDs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for eventID := range workCh {
				s, err := t.fetcher.FetchEventSituation(ctx, eventID)
				if err != nil {
					log.Warn().Err(err).Str("event_id", eventID).Msg("situation fetch failed, retrying next cycle")
					continue
				}
				if s == nil || s.PossessionTeamID == "" {
					continue
				}
				n, ok := attributePossession(s)
				if !ok {
					continue
				}
				resultCh <- n
			}
		}()
	}

	for _, id := range eventIDs {
		workCh <- id
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	needed := make([]resolved, 0, len(eventIDs))
	for n := range resultCh {
		needed = append(needed, n)
	}
	return needed
}

// attributePossession maps the upstream possessing-team id onto the home or
// away side and extracts the offense/defense abbreviations.
func attributePossession(s *espn.EventSituation) (resolved, bool) {
	var off, def espn.TeamInfo
	switch s.PossessionTeamID {
	case s.Home.ID:
		off, def = s.Home, s.Away
	case s.Away.ID:
		off, def = s.Away, s.Home
	default:
		return resolved{}, false
	}
	if off.Abbr == "" || def.Abbr == "" {
		return resolved{}, false
	}
	return resolved{
		eventID: s.EventID,
		offAbbr: strings.ToUpper(off.Abbr),
		defAbbr: strings.ToUpper(def.Abbr),
	}, true
}

func (t *Tracker) resolveTeams(ctx context.Context, needed []resolved) (map[string]models.Team, error) {
	abbrSet := make(map[string]bool)
	for _, n := range needed {
		abbrSet[n.offAbbr] = true
		abbrSet[n.defAbbr] = true
	}
	abbrs := make([]string, 0, len(abbrSet))
	for a := range abbrSet {
		abbrs = append(abbrs, a)
	}

	teams, err := t.teams.GetTeamsByAbbrs(ctx, abbrs)
	if err != nil {
		return nil, fmt.Errorf("resolve team abbreviations: %w", err)
	}
	byAbbr := make(map[string]models.Team, len(teams))
	for _, team := range teams {
		byAbbr[strings.ToUpper(team.Abbr)] = team
	}
	return byAbbr, nil
}

// writeEvent replaces the possession state and both team→game pointers for
// one event, adds it to the watch set, and flags the backing game row live.
func (t *Tracker) writeEvent(ctx context.Context, eventID string, offTeam, defTeam models.Team) error {
	now := t.clock.Now()
	state := models.PossessionState{
		PossessionTeamID: offTeam.ID,
		DefenseTeamID:    defTeam.ID,
		LastUpdated:      now,
	}

	prev, prevErr := t.previousState(ctx, eventID)

	if err := store.SetJSON(ctx, t.store, store.PossessionKey(eventID), state, t.config.TTL); err != nil {
		return err
	}
	if err := t.store.Set(ctx, store.TeamGameKey(offTeam.ID.String()), []byte(eventID), t.config.TTL); err != nil {
		return err
	}
	if err := t.store.Set(ctx, store.TeamGameKey(defTeam.ID.String()), []byte(eventID), t.config.TTL); err != nil {
		return err
	}
	if err := t.store.SAdd(ctx, store.KeyWatchSet, eventID); err != nil {
		return err
	}
	if err := t.games.MarkGameLive(ctx, eventID); err != nil {
		return err
	}

	if t.notifier != nil && prevErr == nil && (prev == nil || prev.PossessionTeamID != offTeam.ID) {
		t.notifier.PossessionChanged(ctx, Change{
			EventID:          eventID,
			PossessionTeamID: offTeam.ID,
			DefenseTeamID:    defTeam.ID,
			At:               now,
		})
	}
	return nil
}

// previousState reads the prior snapshot so possession transitions can be
// distinguished from refreshes. (nil, nil) means no prior state.
func (t *Tracker) previousState(ctx context.Context, eventID string) (*models.PossessionState, error) {
	var prev models.PossessionState
	err := store.GetJSON(ctx, t.store, store.PossessionKey(eventID), &prev)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prev, nil
}
