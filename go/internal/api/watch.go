package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/store"
)

// WatchResponse is the in-game snapshot for one event
type WatchResponse struct {
	EventID string  `json:"eventId"`
	Clock   *string `json:"clock"`
	Pos     *string `json:"pos"`
	Down    *string `json:"down"`
	RZ      bool    `json:"rz"`
	G2G     bool    `json:"g2g"`
}

// HandleStatus handles GET /api/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	broadcast, err := h.status.SelectBroadcastEvent(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("broadcast selection failed")
		http.Error(w, "Failed to compute status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, broadcast)
}

// HandleWatch handles GET /api/watch?eventId=. Rate limited per caller IP.
// Synthetic events are answered from cached flags without touching upstream.
func (h *Handler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.watchLimiter != nil && !h.watchLimiter.Acquire(clientIP(r)) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	eventID := r.URL.Query().Get("eventId")
	if eventID == "" {
		http.Error(w, "eventId is required", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	resp := WatchResponse{EventID: eventID}

	var flags models.GameFlags
	flagsErr := store.GetJSON(ctx, h.store, store.GameFlagsKey(eventID), &flags)
	if flagsErr == nil {
		resp.RZ = flags.InRedZone
		resp.G2G = flags.GoalToGo
	} else if !errors.Is(flagsErr, store.ErrNotFound) {
		log.Warn().Err(flagsErr).Str("event_id", eventID).Msg("flags read failed")
	}

	if h.isDiscoEvent(r, eventID) {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	summary, err := h.summaries.FetchWatchSummary(ctx, eventID)
	if err != nil {
		// Cached flags alone still make a useful answer.
		log.Warn().Err(err).Str("event_id", eventID).Msg("watch summary fetch failed")
	}
	if summary != nil {
		resp.Clock = summary.Clock
		resp.Pos = summary.Possession
		resp.Down = summary.DownAndDistance
		if errors.Is(flagsErr, store.ErrNotFound) {
			resp.RZ = summary.RedZone
			resp.G2G = summary.GoalToGo
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) isDiscoEvent(r *http.Request, eventID string) bool {
	enabled, err := h.disco.Enabled(r.Context())
	if err != nil || !enabled {
		return false
	}
	games, err := h.disco.Games(r.Context())
	if err != nil {
		return false
	}
	for _, g := range games {
		if g.EventID == eventID {
			return true
		}
	}
	return false
}
