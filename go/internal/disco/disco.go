// Package disco fabricates live-game state when no authoritative live games
// exist. Synthetic entries use the same store schema and TTL discipline as
// real ones, so downstream consumers cannot tell the producers apart. The
// simulator always yields to reality: the real-data guard runs at the top
// of every operation and stands the simulation down the moment an
// authoritative live game appears.
package disco

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/store"
)

// Networks assignable to synthetic games
var Networks = []string{"ABC", "CBS", "ESPN", "FOX", "NBC", "NFLN"}

// ErrRealGamesLive is returned by Seed when authoritative live games exist.
var ErrRealGamesLive = errors.New("disco: real live games present")

// ErrNotEnoughTeams is returned by Seed when the roster cannot fill a slate.
var ErrNotEnoughTeams = errors.New("disco: not enough teams to seed")

// eventIDPrefix keeps synthetic ids lexically distinct from upstream ones.
const eventIDPrefix = "DISCO-"

// TeamsRepository defines what the simulator needs from the teams store
type TeamsRepository interface {
	ListAllTeams(ctx context.Context) ([]models.Team, error)
}

// GamesRepository defines what the simulator needs from the games store
type GamesRepository interface {
	ListGamesByStatus(ctx context.Context, status models.GameStatus) ([]models.Game, error)
}

// Config holds simulator tuning
type Config struct {
	// SeedGames is the number of synthetic matchups per cycle.
	SeedGames int
	// HeartbeatStaleness stops the simulation when the driving caller
	// has not ticked within this window.
	HeartbeatStaleness time.Duration
	// CycleLength is the reseed horizon for one slate of matchups.
	CycleLength time.Duration
	// SwapMin/SwapMax bound the randomized possession-swap interval.
	SwapMin time.Duration
	SwapMax time.Duration
	// TTL applies to every synthetic possession entry.
	TTL time.Duration
	// LiveStaleness bounds how old a live game row may be and still count
	// as authoritative.
	LiveStaleness time.Duration
	// Networks overrides the default broadcast network pool.
	Networks []string
}

// DefaultConfig returns the simulator defaults
func DefaultConfig() Config {
	return Config{
		SeedGames:          9,
		HeartbeatStaleness: 15 * time.Second,
		CycleLength:        60 * time.Second,
		SwapMin:            time.Second,
		SwapMax:            5 * time.Second,
		TTL:                120 * time.Second,
		LiveStaleness:      120 * time.Second,
		Networks:           Networks,
	}
}

// Simulator is the demo-mode state machine
type Simulator struct {
	store  store.Store
	teams  TeamsRepository
	games  GamesRepository
	clock  clockwork.Clock
	config Config
}

// NewSimulator creates a Simulator
func NewSimulator(st store.Store, teams TeamsRepository, games GamesRepository, clock clockwork.Clock, config Config) *Simulator {
	def := DefaultConfig()
	if config.SeedGames <= 0 {
		config.SeedGames = def.SeedGames
	}
	if config.HeartbeatStaleness <= 0 {
		config.HeartbeatStaleness = def.HeartbeatStaleness
	}
	if config.CycleLength <= 0 {
		config.CycleLength = def.CycleLength
	}
	if config.SwapMin <= 0 || config.SwapMax < config.SwapMin {
		config.SwapMin, config.SwapMax = def.SwapMin, def.SwapMax
	}
	if config.TTL <= 0 {
		config.TTL = def.TTL
	}
	if config.LiveStaleness < time.Minute {
		config.LiveStaleness = time.Minute
	}
	if len(config.Networks) == 0 {
		config.Networks = def.Networks
	}
	return &Simulator{
		store:  st,
		teams:  teams,
		games:  games,
		clock:  clock,
		config: config,
	}
}

// Enabled reports whether the simulation flag is set
func (s *Simulator) Enabled(ctx context.Context) (bool, error) {
	_, err := s.store.Get(ctx, store.KeyDiscoEnabled)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Active reports whether synthetic state should be served: the simulation
// is enabled and no authoritative live games exist.
func (s *Simulator) Active(ctx context.Context) (bool, error) {
	enabled, err := s.Enabled(ctx)
	if err != nil || !enabled {
		return false, err
	}
	realLive, err := s.hasRealLiveGames(ctx)
	if err != nil {
		return false, err
	}
	return !realLive, nil
}

// hasRealLiveGames is the real-data guard. A live row only counts while its
// freshness timestamp is within the staleness window; rows the tracker has
// stopped touching lapse out of authority.
func (s *Simulator) hasRealLiveGames(ctx context.Context) (bool, error) {
	live, err := s.games.ListGamesByStatus(ctx, models.StatusLive)
	if err != nil {
		return false, fmt.Errorf("list live games: %w", err)
	}
	now := s.clock.Now()
	for _, g := range live {
		if g.UpdatedAt.IsZero() || now.Sub(g.UpdatedAt) <= s.config.LiveStaleness {
			return true, nil
		}
	}
	return false, nil
}

// Seed starts the simulation: it pairs the full roster into synthetic
// matchups, assigns possession by coin flip, and arms the cycle deadline
// and heartbeat. Refused while real live games exist.
func (s *Simulator) Seed(ctx context.Context) ([]models.DiscoGame, error) {
	realLive, err := s.hasRealLiveGames(ctx)
	if err != nil {
		return nil, err
	}
	if realLive {
		return nil, ErrRealGamesLive
	}

	allTeams, err := s.teams.ListAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	needed := s.config.SeedGames * 2
	if len(allTeams) < needed {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughTeams, len(allTeams), needed)
	}

	chosen := make([]models.Team, len(allTeams))
	copy(chosen, allTeams)
	rand.Shuffle(len(chosen), func(i, j int) {
		chosen[i], chosen[j] = chosen[j], chosen[i]
	})
	chosen = chosen[:needed]

	now := s.clock.Now()
	matchups := make([]models.DiscoGame, 0, s.config.SeedGames)
	for i := 0; i < s.config.SeedGames; i++ {
		away := chosen[i*2]
		home := chosen[i*2+1]
		g := models.DiscoGame{
			// cycle timestamp keeps ids unique across reseeds
			EventID:  fmt.Sprintf("%s%d-%d", eventIDPrefix, now.Unix(), i+1),
			HomeAbbr: home.Abbr,
			AwayAbbr: away.Abbr,
			Network:  s.randomNetwork(),
		}
		matchups = append(matchups, g)
		if err := s.initPossession(ctx, g, home, away, now); err != nil {
			log.Error().Err(err).Str("event_id", g.EventID).Msg("disco possession init failed")
		}
	}

	if err := store.SetJSON(ctx, s.store, store.KeyDiscoGames, matchups, 0); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, store.KeyDiscoEnabled, []byte("1"), 0); err != nil {
		return nil, err
	}
	if err := store.SetJSON(ctx, s.store, store.KeyDiscoCycleUntil, now.Add(s.config.CycleLength), 0); err != nil {
		return nil, err
	}
	if err := store.SetJSON(ctx, s.store, store.KeyDiscoLastHeartbeat, now, 0); err != nil {
		return nil, err
	}

	log.Info().Int("games", len(matchups)).Msg("disco seeded")
	return matchups, nil
}

// Step advances the simulation one tick. It stands down when reality
// returns or the heartbeat goes stale, swaps possessions that are due, and
// reseeds a fresh slate once the cycle deadline passes.
func (s *Simulator) Step(ctx context.Context) error {
	enabled, err := s.Enabled(ctx)
	if err != nil || !enabled {
		return err
	}
	now := s.clock.Now()

	realLive, err := s.hasRealLiveGames(ctx)
	if err != nil {
		return err
	}
	if realLive {
		log.Info().Msg("real live games appeared, stopping disco")
		return s.Stop(ctx)
	}

	var last time.Time
	if err := store.GetJSON(ctx, s.store, store.KeyDiscoLastHeartbeat, &last); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if !last.IsZero() && now.Sub(last) > s.config.HeartbeatStaleness {
		log.Info().Time("last_heartbeat", last).Msg("disco heartbeat stale, stopping")
		return s.Stop(ctx)
	}

	if err := store.SetJSON(ctx, s.store, store.KeyDiscoLastHeartbeat, now, 0); err != nil {
		return err
	}

	games, err := s.discoGames(ctx)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		_, err := s.Seed(ctx)
		return err
	}

	teamsByAbbr, err := s.teamsByAbbr(ctx)
	if err != nil {
		return err
	}

	for _, g := range games {
		if err := s.stepGame(ctx, g, teamsByAbbr, now); err != nil {
			log.Error().Err(err).Str("event_id", g.EventID).Msg("disco step failed for game")
		}
	}

	var cycleUntil time.Time
	err = store.GetJSON(ctx, s.store, store.KeyDiscoCycleUntil, &cycleUntil)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if !cycleUntil.IsZero() && !now.Before(cycleUntil) {
		return s.reseed(ctx, games)
	}
	return nil
}

// stepGame re-inits a game whose state lapsed, or swaps possession when due.
func (s *Simulator) stepGame(ctx context.Context, g models.DiscoGame, teamsByAbbr map[string]models.Team, now time.Time) error {
	key := store.PossessionKey(g.EventID)

	var state models.PossessionState
	err := store.GetJSON(ctx, s.store, key, &state)
	if errors.Is(err, store.ErrNotFound) {
		home, okHome := teamsByAbbr[strings.ToUpper(g.HomeAbbr)]
		away, okAway := teamsByAbbr[strings.ToUpper(g.AwayAbbr)]
		if !okHome || !okAway {
			return fmt.Errorf("unknown disco matchup teams %s/%s", g.HomeAbbr, g.AwayAbbr)
		}
		return s.initPossession(ctx, g, home, away, now)
	}
	if err != nil {
		return err
	}

	if state.NextSwapAt != nil && !now.Before(*state.NextSwapAt) {
		next := now.Add(s.randomSwapInterval())
		swapped := models.PossessionState{
			PossessionTeamID: state.DefenseTeamID,
			DefenseTeamID:    state.PossessionTeamID,
			LastUpdated:      now,
			NextSwapAt:       &next,
			Disco:            true,
		}
		if err := store.SetJSON(ctx, s.store, key, swapped, s.config.TTL); err != nil {
			return err
		}
		return nil
	}

	return s.store.Expire(ctx, key, s.config.TTL)
}

// Stop tears down all synthetic state: per-game possession, flags, and
// team pointers first, then the run-state keys. Best-effort; a missed key
// lapses by TTL.
func (s *Simulator) Stop(ctx context.Context) error {
	games, err := s.discoGames(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("disco stop: games list unreadable, clearing run state only")
	}
	for _, g := range games {
		var state models.PossessionState
		if err := store.GetJSON(ctx, s.store, store.PossessionKey(g.EventID), &state); err == nil {
			_ = s.store.Delete(ctx, store.TeamGameKey(state.PossessionTeamID.String()))
			_ = s.store.Delete(ctx, store.TeamGameKey(state.DefenseTeamID.String()))
		}
		if err := s.store.Delete(ctx, store.PossessionKey(g.EventID)); err != nil {
			log.Warn().Err(err).Str("event_id", g.EventID).Msg("disco stop: possession delete failed")
		}
		if err := s.store.Delete(ctx, store.GameFlagsKey(g.EventID)); err != nil {
			log.Warn().Err(err).Str("event_id", g.EventID).Msg("disco stop: flags delete failed")
		}
	}

	for _, key := range []string{store.KeyDiscoGames, store.KeyDiscoEnabled, store.KeyDiscoCycleUntil, store.KeyDiscoLastHeartbeat} {
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	log.Info().Msg("disco stopped")
	return nil
}

// State reports the simulator run state as shown to callers
func (s *Simulator) State(ctx context.Context) (models.DiscoState, error) {
	out := models.DiscoState{Games: []models.DiscoGame{}}

	enabled, err := s.Enabled(ctx)
	if err != nil {
		return out, err
	}
	out.Enabled = enabled

	var heartbeat time.Time
	if err := store.GetJSON(ctx, s.store, store.KeyDiscoLastHeartbeat, &heartbeat); err == nil {
		out.LastHeartbeat = &heartbeat
	}
	var cycleUntil time.Time
	if err := store.GetJSON(ctx, s.store, store.KeyDiscoCycleUntil, &cycleUntil); err == nil {
		out.CycleUntil = &cycleUntil
	}

	games, err := s.discoGames(ctx)
	if err != nil {
		return out, err
	}
	if games != nil {
		out.Games = games
	}
	return out, nil
}

// Games returns the current synthetic slate
func (s *Simulator) Games(ctx context.Context) ([]models.DiscoGame, error) {
	return s.discoGames(ctx)
}

func (s *Simulator) reseed(ctx context.Context, prev []models.DiscoGame) error {
	for _, g := range prev {
		_ = s.store.Delete(ctx, store.PossessionKey(g.EventID))
		_ = s.store.Delete(ctx, store.GameFlagsKey(g.EventID))
	}
	_, err := s.Seed(ctx)
	return err
}

func (s *Simulator) initPossession(ctx context.Context, g models.DiscoGame, home, away models.Team, now time.Time) error {
	offense, defense := home, away
	if rand.Intn(2) == 0 {
		offense, defense = away, home
	}
	next := now.Add(s.randomSwapInterval())
	state := models.PossessionState{
		PossessionTeamID: offense.ID,
		DefenseTeamID:    defense.ID,
		LastUpdated:      now,
		NextSwapAt:       &next,
		Disco:            true,
	}
	if err := store.SetJSON(ctx, s.store, store.PossessionKey(g.EventID), state, s.config.TTL); err != nil {
		return err
	}
	if err := s.store.Set(ctx, store.TeamGameKey(offense.ID.String()), []byte(g.EventID), s.config.TTL); err != nil {
		return err
	}
	return s.store.Set(ctx, store.TeamGameKey(defense.ID.String()), []byte(g.EventID), s.config.TTL)
}

// teamsByAbbr indexes every team by upper-cased abbreviation.
func (s *Simulator) teamsByAbbr(ctx context.Context) (map[string]models.Team, error) {
	allTeams, err := s.teams.ListAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	out := make(map[string]models.Team, len(allTeams))
	for _, t := range allTeams {
		out[strings.ToUpper(t.Abbr)] = t
	}
	return out, nil
}

// discoGames reads the synthetic slate, coercing unknown network labels to
// a random valid one.
func (s *Simulator) discoGames(ctx context.Context) ([]models.DiscoGame, error) {
	var games []models.DiscoGame
	err := store.GetJSON(ctx, s.store, store.KeyDiscoGames, &games)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range games {
		games[i].Network = s.coerceNetwork(games[i].Network)
	}
	return games, nil
}

func (s *Simulator) coerceNetwork(n string) string {
	upper := strings.ToUpper(n)
	for _, valid := range s.config.Networks {
		if upper == valid {
			return upper
		}
	}
	return s.randomNetwork()
}

func (s *Simulator) randomNetwork() string {
	return s.config.Networks[rand.Intn(len(s.config.Networks))]
}

func (s *Simulator) randomSwapInterval() time.Duration {
	span := s.config.SwapMax - s.config.SwapMin
	return s.config.SwapMin + time.Duration(rand.Int63n(int64(span)+1))
}

// IsDiscoEventID reports whether the event id belongs to the simulator
func IsDiscoEventID(eventID string) bool {
	return strings.HasPrefix(eventID, eventIDPrefix)
}
