package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/zone"
)

type playerStatusRequest struct {
	PlayerIDs []string `json:"playerIds"`
}

// PlayerStatusResponse maps each requested player id to its classification
type PlayerStatusResponse struct {
	Players map[string]zone.Classification `json:"players"`
}

// HandlePlayerStatus handles POST /api/player-status
func (h *Handler) HandlePlayerStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req playerStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(req.PlayerIDs) == 0 || len(req.PlayerIDs) > zone.MaxBatch {
		http.Error(w, "playerIds must have 1 to 200 entries", http.StatusBadRequest)
		return
	}

	ids := make([]uuid.UUID, 0, len(req.PlayerIDs))
	for _, raw := range req.PlayerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "Invalid player id format", http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	classified, err := h.zone.Classify(r.Context(), ids)
	if err != nil {
		if errors.Is(err, zone.ErrEmptyBatch) || errors.Is(err, zone.ErrBatchTooLarge) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("player classification failed")
		http.Error(w, "Failed to classify players", http.StatusInternalServerError)
		return
	}

	out := make(map[string]zone.Classification, len(classified))
	for id, c := range classified {
		out[id.String()] = c
	}
	writeJSON(w, http.StatusOK, PlayerStatusResponse{Players: out})
}

type liveSummaryRequest struct {
	PlayerIDs   []string `json:"playerIds"`
	PlayerNames []string `json:"playerNames"`
}

// LiveSummaryResponse groups the batch by game, listing only the games that
// hold at least one requested player
type LiveSummaryResponse struct {
	Games         []LiveGameOut           `json:"games"`
	PlayersByGame map[string]zone.Buckets `json:"playersByGame"`
	NotInGame     []string                `json:"notInGame"`
}

// HandleLiveSummary handles POST /api/live/summary. The batch may carry
// player ids or full names; names win when both are present. Rate limited
// per caller IP.
func (h *Handler) HandleLiveSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.watchLimiter != nil && !h.watchLimiter.Acquire(clientIP(r)) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	var req liveSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(req.PlayerIDs) == 0 && len(req.PlayerNames) == 0 {
		http.Error(w, "playerIds or playerNames is required", http.StatusBadRequest)
		return
	}
	if len(req.PlayerIDs) > zone.MaxBatch || len(req.PlayerNames) > zone.MaxBatch {
		http.Error(w, "batch must have 1 to 200 entries", http.StatusBadRequest)
		return
	}

	var ids []uuid.UUID
	if len(req.PlayerNames) == 0 {
		ids = make([]uuid.UUID, 0, len(req.PlayerIDs))
		for _, raw := range req.PlayerIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "Invalid player id format", http.StatusBadRequest)
				return
			}
			ids = append(ids, id)
		}
	}

	summary, err := h.zone.Summarize(r.Context(), ids, req.PlayerNames)
	if err != nil {
		if errors.Is(err, zone.ErrEmptyBatch) || errors.Is(err, zone.ErrBatchTooLarge) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("player summary failed")
		http.Error(w, "Failed to summarize players", http.StatusInternalServerError)
		return
	}

	games, err := h.summaryGames(r, summary)
	if err != nil {
		log.Error().Err(err).Msg("failed to load summary games")
		http.Error(w, "Failed to summarize players", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, LiveSummaryResponse{
		Games:         games,
		PlayersByGame: summary.ByEvent,
		NotInGame:     summary.NotResolved,
	})
}

// summaryGames renders the games referenced by the summary buckets.
// Synthetic events have no game rows; those resolve from the demo slate.
func (h *Handler) summaryGames(r *http.Request, summary zone.Summary) ([]LiveGameOut, error) {
	eventIDs := make([]string, 0, len(summary.ByEvent))
	for id := range summary.ByEvent {
		eventIDs = append(eventIDs, id)
	}
	sort.Strings(eventIDs)
	if len(eventIDs) == 0 {
		return []LiveGameOut{}, nil
	}

	rows, err := h.games.GetGamesByEventIDs(r.Context(), eventIDs)
	if err != nil {
		return nil, fmt.Errorf("get games by event ids: %w", err)
	}
	byEvent := make(map[string]models.Game, len(rows))
	abbrs := make([]string, 0, 2*len(eventIDs))
	for _, g := range rows {
		byEvent[g.EventID] = g
		abbrs = append(abbrs, g.HomeTeam.Abbr, g.AwayTeam.Abbr)
	}

	discoByEvent := make(map[string]models.DiscoGame)
	if len(byEvent) < len(eventIDs) {
		if enabled, err := h.disco.Enabled(r.Context()); err == nil && enabled {
			discoGames, err := h.disco.Games(r.Context())
			if err != nil {
				return nil, fmt.Errorf("load demo games: %w", err)
			}
			for _, g := range discoGames {
				discoByEvent[g.EventID] = g
				abbrs = append(abbrs, g.HomeAbbr, g.AwayAbbr)
			}
		}
	}

	abbrToTeam, err := h.teamsByAbbr(r, abbrs)
	if err != nil {
		return nil, err
	}

	out := make([]LiveGameOut, 0, len(eventIDs))
	for _, id := range eventIDs {
		if g, ok := byEvent[id]; ok {
			out = append(out, h.buildLiveGame(r, g.EventID, g.HomeTeam.Abbr, g.HomeTeam.Name, g.AwayTeam.Abbr, g.AwayTeam.Name, g.Network, abbrToTeam))
			continue
		}
		if g, ok := discoByEvent[id]; ok {
			network := g.Network
			out = append(out, h.buildLiveGame(r, g.EventID, g.HomeAbbr, "", g.AwayAbbr, "", &network, abbrToTeam))
		}
	}
	return out, nil
}

// TeamPlayersResponse groups a team's roster by side of the ball
type TeamPlayersResponse struct {
	Offense      []models.Player `json:"offense"`
	Defense      []models.Player `json:"defense"`
	SpecialTeams []models.Player `json:"specialTeams"`
}

// HandleTeamPlayers handles GET /api/teams/{teamId}/players
func (h *Handler) HandleTeamPlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	teamIDStr := teamIDFromPath(r.URL.Path)
	if teamIDStr == "" {
		http.NotFound(w, r)
		return
	}
	teamID, err := uuid.Parse(teamIDStr)
	if err != nil {
		http.Error(w, "Invalid team id format", http.StatusBadRequest)
		return
	}

	roster, err := h.players.ListPlayersByTeam(r.Context(), teamID)
	if err != nil {
		log.Error().Err(err).Str("team_id", teamID.String()).Msg("failed to list team players")
		http.Error(w, "Failed to list players", http.StatusInternalServerError)
		return
	}

	resp := TeamPlayersResponse{
		Offense:      []models.Player{},
		Defense:      []models.Player{},
		SpecialTeams: []models.Player{},
	}
	for _, p := range roster {
		switch p.SideOfBall {
		case models.SideOffense:
			resp.Offense = append(resp.Offense, p)
		case models.SideDefense:
			resp.Defense = append(resp.Defense, p)
		case models.SideSpecialTeams:
			resp.SpecialTeams = append(resp.SpecialTeams, p)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// teamIDFromPath extracts the team id from /api/teams/{teamId}/players
func teamIDFromPath(path string) string {
	const prefix = "/api/teams/"
	const suffix = "/players"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	id := path[len(prefix) : len(path)-len(suffix)]
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
