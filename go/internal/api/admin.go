package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/internal/disco"
)

// HandleScheduleRefresh handles POST /api/schedule/refresh
func (h *Handler) HandleScheduleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.schedule.Refresh(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("schedule refresh failed")
		http.Error(w, "Failed to refresh schedule", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleScheduleSeed handles POST /api/schedule/seed
func (h *Handler) HandleScheduleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	seeded, err := h.schedule.Seed(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("schedule seed failed")
		http.Error(w, "Failed to seed schedule", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"seeded": seeded})
}

// HandleDiscoStart handles POST /api/disco/start. Refused while authoritative
// live games exist.
func (h *Handler) HandleDiscoStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	games, err := h.disco.Seed(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, disco.ErrRealGamesLive):
			http.Error(w, "Real games are live", http.StatusConflict)
		case errors.Is(err, disco.ErrNotEnoughTeams):
			http.Error(w, "Not enough teams to seed demo mode", http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("disco start failed")
			http.Error(w, "Failed to start demo mode", http.StatusInternalServerError)
		}
		return
	}

	h.discoGauge(true)
	writeJSON(w, http.StatusOK, map[string]any{"started": true, "games": games})
}

// HandleDiscoStop handles POST /api/disco/stop
func (h *Handler) HandleDiscoStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.disco.Stop(r.Context()); err != nil {
		log.Error().Err(err).Msg("disco stop failed")
		http.Error(w, "Failed to stop demo mode", http.StatusInternalServerError)
		return
	}
	h.discoGauge(false)
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

// HandleDiscoStep handles POST /api/disco/step, driving one simulator tick
// on demand.
func (h *Handler) HandleDiscoStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.disco.Step(r.Context()); err != nil {
		log.Error().Err(err).Msg("disco step failed")
		http.Error(w, "Failed to step demo mode", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stepped": true})
}

// HandleDiscoState handles GET /api/disco/state
func (h *Handler) HandleDiscoState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state, err := h.disco.State(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("disco state read failed")
		http.Error(w, "Failed to read demo state", http.StatusInternalServerError)
		return
	}
	h.discoGauge(state.Enabled)
	writeJSON(w, http.StatusOK, state)
}
