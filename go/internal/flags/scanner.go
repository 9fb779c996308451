package flags

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/clients/espn"
	"github.com/mcdev12/fieldzone/go/internal/disco"
	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/store"
)

// PlayFetcher defines what the scanner needs from the upstream client
type PlayFetcher interface {
	FetchPlayState(ctx context.Context, eventID string) (*espn.PlayState, error)
}

// Config controls scan fan-out and flag retention.
type Config struct {
	Concurrency int
	TTL         time.Duration
}

func DefaultConfig() Config {
	return Config{Concurrency: 3, TTL: 120 * time.Second}
}

// Scanner refreshes the per-game auxiliary flags behind the broadcast
// aggregator: last play id plus red-zone and goal-to-go.
type Scanner struct {
	store   store.Store
	fetcher PlayFetcher
	config  Config
}

func NewScanner(st store.Store, fetcher PlayFetcher, config Config) *Scanner {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig().Concurrency
	}
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}
	return &Scanner{store: st, fetcher: fetcher, config: config}
}

// Scan fetches play state for every watched event and writes the flag and
// last-play keys. Synthetic event ids have no upstream summary and are
// skipped. Returns the number of events whose flags were written.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	eventIDs, err := s.store.SMembers(ctx, store.KeyWatchSet)
	if err != nil {
		return 0, fmt.Errorf("failed to read watch set: %w", err)
	}
	sort.Strings(eventIDs)

	var targets []string
	for _, id := range eventIDs {
		if disco.IsDiscoEventID(id) {
			continue
		}
		targets = append(targets, id)
	}
	if len(targets) == 0 {
		return 0, nil
	}

	workers := s.config.Concurrency
	if workers > len(targets) {
		workers = len(targets)
	}

	workCh := make(chan string, len(targets))
	resultCh := make(chan int, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for eventID := range workCh {
				written, err := s.scanEvent(ctx, eventID)
				if err != nil {
					log.Warn().Err(err).Str("event_id", eventID).Msg("flag scan failed, retrying next cycle")
					continue
				}
				if written {
					resultCh <- 1
				}
			}
		}()
	}

	for _, id := range targets {
		workCh <- id
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	updated := 0
	for range resultCh {
		updated++
	}
	return updated, nil
}

func (s *Scanner) scanEvent(ctx context.Context, eventID string) (bool, error) {
	play, err := s.fetcher.FetchPlayState(ctx, eventID)
	if err != nil {
		return false, err
	}
	if play == nil {
		return false, nil
	}

	if play.LastPlayID != nil {
		if err := s.store.Set(ctx, store.LastPlayKey(eventID), []byte(*play.LastPlayID), s.config.TTL); err != nil {
			return false, fmt.Errorf("failed to store last play: %w", err)
		}
	}
	flags := models.GameFlags{InRedZone: play.RedZone, GoalToGo: play.GoalToGo}
	if err := store.SetJSON(ctx, s.store, store.GameFlagsKey(eventID), flags, s.config.TTL); err != nil {
		return false, fmt.Errorf("failed to store game flags: %w", err)
	}
	return true, nil
}
