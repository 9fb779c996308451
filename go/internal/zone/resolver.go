package zone

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/store"
)

// Status classifies a player relative to the ball on the current play.
type Status string

const (
	StatusInZone    Status = "in_zone"
	StatusOutOfZone Status = "out_of_zone"
	StatusNotInGame Status = "not_in_game"
)

// MaxBatch is the largest number of player ids a single Classify call accepts.
const MaxBatch = 200

var (
	ErrEmptyBatch    = errors.New("no player ids given")
	ErrBatchTooLarge = fmt.Errorf("too many player ids, max %d", MaxBatch)
)

// Classification is one player's resolved status. GameID is set whenever the
// player's team maps to a current game, even if the player is out of zone.
type Classification struct {
	Status Status `json:"status"`
	GameID string `json:"gameId,omitempty"`
}

// Buckets partitions one game's requested players by zone status.
type Buckets struct {
	InZone    []string `json:"inZone"`
	OutOfZone []string `json:"outOfZone"`
}

// Summary groups a batch by the game each player is in. Bucket entries and
// NotResolved echo the request form: full names when the batch was names,
// id strings otherwise.
type Summary struct {
	ByEvent     map[string]Buckets `json:"byEvent"`
	NotResolved []string           `json:"notResolved"`
}

// PlayersRepository defines what the resolver needs from reference data
type PlayersRepository interface {
	GetPlayersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Player, error)
	GetPlayersByNames(ctx context.Context, names []string) ([]models.Player, error)
}

// Resolver maps player ids onto live possession state. A player is in the
// zone when their side of the ball matches the side their team currently
// holds: offense with the possessing team, defense with the defending team.
type Resolver struct {
	store   store.Store
	players PlayersRepository
}

func NewResolver(st store.Store, players PlayersRepository) *Resolver {
	return &Resolver{store: st, players: players}
}

// Classify resolves every requested id to exactly one classification. Ids
// that match no known player, players whose team has no current game, and
// games whose possession state has expired all report not_in_game. Batch
// size is validated before any store or database access.
func (r *Resolver) Classify(ctx context.Context, playerIDs []uuid.UUID) (map[uuid.UUID]Classification, error) {
	if len(playerIDs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(playerIDs) > MaxBatch {
		return nil, ErrBatchTooLarge
	}

	known, err := r.players.GetPlayersByIDs(ctx, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve players: %w", err)
	}
	byID := make(map[uuid.UUID]models.Player, len(known))
	for _, p := range known {
		byID[p.ID] = p
	}

	// Teammates share the same store lookups, so cache per team and per event
	// within the batch.
	teamGames := make(map[uuid.UUID]string)
	states := make(map[string]*models.PossessionState)

	out := make(map[uuid.UUID]Classification, len(playerIDs))
	for _, id := range playerIDs {
		if _, seen := out[id]; seen {
			continue
		}
		player, ok := byID[id]
		if !ok {
			out[id] = Classification{Status: StatusNotInGame}
			continue
		}
		c, err := r.classifyPlayer(ctx, player, teamGames, states)
		if err != nil {
			log.Warn().Err(err).Str("player_id", id.String()).Msg("player classification failed")
			c = Classification{Status: StatusNotInGame}
		}
		out[id] = c
	}
	return out, nil
}

// Summarize resolves a batch of player ids or full names into per-game
// in-zone / out-of-zone buckets. Names take priority when both are given.
// Requested entries that match no known player, or whose player is in no
// current game, land in NotResolved. Batch size is validated before any
// store or database access.
func (r *Resolver) Summarize(ctx context.Context, playerIDs []uuid.UUID, playerNames []string) (Summary, error) {
	byNames := len(playerNames) > 0
	requested := playerNames
	if !byNames {
		if len(playerIDs) == 0 {
			return Summary{}, ErrEmptyBatch
		}
		requested = make([]string, 0, len(playerIDs))
		for _, id := range playerIDs {
			requested = append(requested, id.String())
		}
	}
	if len(requested) > MaxBatch {
		return Summary{}, ErrBatchTooLarge
	}

	var known []models.Player
	var err error
	if byNames {
		known, err = r.players.GetPlayersByNames(ctx, playerNames)
	} else {
		known, err = r.players.GetPlayersByIDs(ctx, playerIDs)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to resolve players: %w", err)
	}

	key := func(p models.Player) string {
		if byNames {
			return p.FullName
		}
		return p.ID.String()
	}

	teamGames := make(map[uuid.UUID]string)
	states := make(map[string]*models.PossessionState)

	summary := Summary{ByEvent: map[string]Buckets{}, NotResolved: []string{}}
	resolved := make(map[string]bool, len(known))
	unresolved := make(map[string]bool)

	markUnresolved := func(k string) {
		if !unresolved[k] {
			unresolved[k] = true
			summary.NotResolved = append(summary.NotResolved, k)
		}
	}

	for _, p := range known {
		k := key(p)
		resolved[k] = true
		c, err := r.classifyPlayer(ctx, p, teamGames, states)
		if err != nil {
			log.Warn().Err(err).Str("player_id", p.ID.String()).Msg("player classification failed")
			markUnresolved(k)
			continue
		}
		if c.Status == StatusNotInGame {
			markUnresolved(k)
			continue
		}
		b := summary.ByEvent[c.GameID]
		if c.Status == StatusInZone {
			b.InZone = append(b.InZone, k)
		} else {
			b.OutOfZone = append(b.OutOfZone, k)
		}
		summary.ByEvent[c.GameID] = b
	}

	for _, k := range requested {
		if !resolved[k] {
			markUnresolved(k)
		}
	}
	return summary, nil
}

func (r *Resolver) classifyPlayer(ctx context.Context, player models.Player, teamGames map[uuid.UUID]string, states map[string]*models.PossessionState) (Classification, error) {
	eventID, ok := teamGames[player.TeamID]
	if !ok {
		raw, err := r.store.Get(ctx, store.TeamGameKey(player.TeamID.String()))
		if errors.Is(err, store.ErrNotFound) {
			teamGames[player.TeamID] = ""
			return Classification{Status: StatusNotInGame}, nil
		}
		if err != nil {
			return Classification{}, fmt.Errorf("failed to read current game: %w", err)
		}
		eventID = string(raw)
		teamGames[player.TeamID] = eventID
	}
	if eventID == "" {
		return Classification{Status: StatusNotInGame}, nil
	}

	state, ok := states[eventID]
	if !ok {
		var s models.PossessionState
		err := store.GetJSON(ctx, r.store, store.PossessionKey(eventID), &s)
		if errors.Is(err, store.ErrNotFound) {
			states[eventID] = nil
			return Classification{Status: StatusNotInGame}, nil
		}
		if err != nil {
			return Classification{}, fmt.Errorf("failed to read possession state: %w", err)
		}
		state = &s
		states[eventID] = state
	}
	if state == nil {
		return Classification{Status: StatusNotInGame}, nil
	}

	status := StatusOutOfZone
	switch player.SideOfBall {
	case models.SideOffense:
		if player.TeamID == state.PossessionTeamID {
			status = StatusInZone
		}
	case models.SideDefense:
		if player.TeamID == state.DefenseTeamID {
			status = StatusInZone
		}
	}
	return Classification{Status: status, GameID: eventID}, nil
}
