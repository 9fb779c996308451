package status

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/store"
)

// RedZoneChannel is the broadcast label reported while any watched game shows
// red-zone or goal-to-go action.
const RedZoneChannel = "NFL RedZone"

// Broadcast names the event, if any, that should currently be on screen.
type Broadcast struct {
	EventID string `json:"eventId,omitempty"`
	Channel string `json:"channel,omitempty"`
}

// Aggregator selects a single broadcast-worthy event from the watch set.
// Watched events are scanned in lexicographic event-id order and the first
// one with an active red-zone or goal-to-go flag wins.
type Aggregator struct {
	store store.Store
}

func NewAggregator(st store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// SelectBroadcastEvent returns the winning event, or a zero Broadcast when no
// watched game has relevant flags. Missing flag entries are treated as flags
// off, not as errors.
func (a *Aggregator) SelectBroadcastEvent(ctx context.Context) (Broadcast, error) {
	eventIDs, err := a.store.SMembers(ctx, store.KeyWatchSet)
	if err != nil {
		return Broadcast{}, fmt.Errorf("failed to read watch set: %w", err)
	}
	sort.Strings(eventIDs)

	for _, eventID := range eventIDs {
		var flags models.GameFlags
		err := store.GetJSON(ctx, a.store, store.GameFlagsKey(eventID), &flags)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("event_id", eventID).Msg("failed to read game flags")
			continue
		}
		if flags.InRedZone || flags.GoalToGo {
			return Broadcast{EventID: eventID, Channel: RedZoneChannel}, nil
		}
	}
	return Broadcast{}, nil
}
