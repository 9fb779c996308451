package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/clients/espn"
	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/store"
)

// ScoreboardFetcher defines what the refresher needs from the upstream client
type ScoreboardFetcher interface {
	FetchScoreboardRange(ctx context.Context, start, end time.Time) ([]espn.ScoreboardGame, error)
}

// GamesRepository defines what the refresher needs from game storage
type GamesRepository interface {
	ListGamesStartingBetween(ctx context.Context, start, end time.Time) ([]models.Game, error)
	UpsertGame(ctx context.Context, game models.Game) error
	DeleteFinalGames(ctx context.Context) (int64, error)
}

// Look-ahead and look-back horizons, widest first. A window is only fetched
// when the schedule already has games starting inside it.
var (
	lookAheadHours = []int{48, 12, 3}
	lookBackHours  = []int{48, 24}
)

// SeedHorizon is how far ahead of now the seed operation pulls the schedule.
const SeedHorizon = 7 * 24 * time.Hour

// RefreshResult reports one refresh pass.
type RefreshResult struct {
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// Refresher keeps the game schedule aligned with the upstream scoreboard and
// manages watch-set membership as games go live or final.
type Refresher struct {
	fetcher ScoreboardFetcher
	games   GamesRepository
	store   store.Store
	now     func() time.Time
}

func NewRefresher(fetcher ScoreboardFetcher, games GamesRepository, st store.Store, now func() time.Time) *Refresher {
	if now == nil {
		now = time.Now
	}
	return &Refresher{fetcher: fetcher, games: games, store: st, now: now}
}

// Refresh re-fetches the scoreboard over the upcoming and recent windows,
// upserts every game found, and finally drops rows that have gone final.
func (r *Refresher) Refresh(ctx context.Context) (RefreshResult, error) {
	now := r.now().UTC()
	var out RefreshResult

	for _, hrs := range lookAheadHours {
		n, err := r.refreshWindow(ctx, now, now.Add(time.Duration(hrs)*time.Hour))
		if err != nil {
			return out, fmt.Errorf("refresh %dh look-ahead: %w", hrs, err)
		}
		out.Updated += n
	}
	for _, hrs := range lookBackHours {
		n, err := r.refreshWindow(ctx, now.Add(-time.Duration(hrs)*time.Hour), now)
		if err != nil {
			return out, fmt.Errorf("refresh %dh look-back: %w", hrs, err)
		}
		out.Updated += n
	}

	deleted, err := r.games.DeleteFinalGames(ctx)
	if err != nil {
		return out, fmt.Errorf("delete final games: %w", err)
	}
	out.Deleted = int(deleted)

	log.Info().Int("updated", out.Updated).Int("deleted", out.Deleted).Msg("schedule refreshed")
	return out, nil
}

// refreshWindow fetches the scoreboard for [start, end] only when the stored
// schedule has games starting inside it.
func (r *Refresher) refreshWindow(ctx context.Context, start, end time.Time) (int, error) {
	due, err := r.games.ListGamesStartingBetween(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("list due games: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	list, err := r.fetcher.FetchScoreboardRange(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("fetch scoreboard: %w", err)
	}

	updated := 0
	for _, g := range list {
		if err := r.applyGame(ctx, g); err != nil {
			log.Warn().Err(err).Str("event_id", g.EventID).Msg("schedule update failed")
			continue
		}
		updated++
	}
	return updated, nil
}

// Seed pulls the schedule for the coming week and upserts every game.
func (r *Refresher) Seed(ctx context.Context) (int, error) {
	now := r.now().UTC()
	list, err := r.fetcher.FetchScoreboardRange(ctx, now, now.Add(SeedHorizon))
	if err != nil {
		return 0, fmt.Errorf("fetch scoreboard: %w", err)
	}

	seeded := 0
	for _, g := range list {
		if err := r.applyGame(ctx, g); err != nil {
			log.Warn().Err(err).Str("event_id", g.EventID).Msg("schedule seed failed")
			continue
		}
		seeded++
	}
	log.Info().Int("seeded", seeded).Msg("schedule seeded")
	return seeded, nil
}

func (r *Refresher) applyGame(ctx context.Context, g espn.ScoreboardGame) error {
	game := models.Game{
		EventID:  g.EventID,
		StartUTC: g.StartUTC,
		HomeTeam: models.GameTeam{ID: g.Home.ID, Name: g.Home.Name, Abbr: g.Home.Abbr},
		AwayTeam: models.GameTeam{ID: g.Away.ID, Name: g.Away.Name, Abbr: g.Away.Abbr},
		Network:  g.Network,
		Status:   g.Status,
	}
	if err := r.games.UpsertGame(ctx, game); err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}

	switch g.Status {
	case models.StatusLive:
		if err := r.store.SAdd(ctx, store.KeyWatchSet, g.EventID); err != nil {
			return fmt.Errorf("add to watch set: %w", err)
		}
	case models.StatusFinal:
		if err := r.store.SRem(ctx, store.KeyWatchSet, g.EventID); err != nil {
			return fmt.Errorf("remove from watch set: %w", err)
		}
	}
	return nil
}
