package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/store"
)

// TeamOut is one side of a live game as reported to clients. ID is empty
// when the abbreviation did not resolve to a known team.
type TeamOut struct {
	ID   string `json:"id,omitempty"`
	Abbr string `json:"abbr"`
	Name string `json:"name"`
}

// LiveGameOut is one live game with its possession snapshot
type LiveGameOut struct {
	EventID          string     `json:"eventId"`
	Matchup          string     `json:"matchup"`
	Home             TeamOut    `json:"home"`
	Away             TeamOut    `json:"away"`
	PossessionTeamID string     `json:"possessionTeamId,omitempty"`
	DefenseTeamID    string     `json:"defenseTeamId,omitempty"`
	PossessionAbbr   string     `json:"possessionAbbr,omitempty"`
	DefenseAbbr      string     `json:"defenseAbbr,omitempty"`
	LastUpdated      *time.Time `json:"lastUpdated"`
	Network          *string    `json:"network"`
}

// LiveGamesResponse lists live games plus every team not currently playing
type LiveGamesResponse struct {
	LiveGames      []LiveGameOut `json:"liveGames"`
	TeamsNotInGame []models.Team `json:"teamsNotInGame"`
}

// HandleLivePossession handles POST /api/live/possession
func (h *Handler) HandleLivePossession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.tracker.Reconcile(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("reconcile failed")
		http.Error(w, "Failed to reconcile possession", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleLiveScan handles POST /api/live/scan
func (h *Handler) HandleLiveScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	updated, err := h.scanner.Scan(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("flag scan failed")
		http.Error(w, "Failed to scan flags", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// HandleLiveGames handles GET /api/live/games. With no authoritative live
// games and demo mode running, the synthetic slate is reported instead.
func (h *Handler) HandleLiveGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	live, err := h.liveGameRows(r)
	if err != nil {
		log.Error().Err(err).Msg("failed to load live games")
		http.Error(w, "Failed to load live games", http.StatusInternalServerError)
		return
	}

	if len(live) == 0 {
		if enabled, err := h.disco.Enabled(ctx); err == nil && enabled {
			resp, err := h.discoGamesResponse(r)
			if err != nil {
				log.Error().Err(err).Msg("failed to build demo games response")
				http.Error(w, "Failed to load live games", http.StatusInternalServerError)
				return
			}
			if resp != nil {
				writeJSON(w, http.StatusOK, resp)
				return
			}
		}
	}

	abbrs := make([]string, 0, 2*len(live))
	for _, g := range live {
		abbrs = append(abbrs, g.HomeTeam.Abbr, g.AwayTeam.Abbr)
	}
	abbrToTeam, err := h.teamsByAbbr(r, abbrs)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve teams")
		http.Error(w, "Failed to load live games", http.StatusInternalServerError)
		return
	}

	out := make([]LiveGameOut, 0, len(live))
	for _, g := range live {
		out = append(out, h.buildLiveGame(r, g.EventID, g.HomeTeam.Abbr, g.HomeTeam.Name, g.AwayTeam.Abbr, g.AwayTeam.Name, g.Network, abbrToTeam))
	}

	teamsNotInGame, err := h.teamsNotInGame(r, out)
	if err != nil {
		log.Error().Err(err).Msg("failed to list idle teams")
		http.Error(w, "Failed to load live games", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, LiveGamesResponse{LiveGames: out, TeamsNotInGame: teamsNotInGame})
}

// liveGameRows returns live rows plus watch-set rows, deduplicated.
func (h *Handler) liveGameRows(r *http.Request) ([]models.Game, error) {
	ctx := r.Context()
	live, err := h.games.ListGamesByStatus(ctx, models.StatusLive)
	if err != nil {
		return nil, fmt.Errorf("list live games: %w", err)
	}

	watchIDs, err := h.store.SMembers(ctx, store.KeyWatchSet)
	if err != nil {
		log.Warn().Err(err).Msg("watch set read failed, using live rows only")
		watchIDs = nil
	}
	var watched []models.Game
	if len(watchIDs) > 0 {
		watched, err = h.games.GetGamesByEventIDs(ctx, watchIDs)
		if err != nil {
			return nil, fmt.Errorf("get watched games: %w", err)
		}
	}

	seen := make(map[string]bool)
	var out []models.Game
	for _, g := range append(live, watched...) {
		if !seen[g.EventID] {
			seen[g.EventID] = true
			out = append(out, g)
		}
	}
	return out, nil
}

// discoGamesResponse renders the synthetic slate. Returns nil when the slate
// is empty so the caller can fall back to the authoritative path.
func (h *Handler) discoGamesResponse(r *http.Request) (*LiveGamesResponse, error) {
	ctx := r.Context()
	discoGames, err := h.disco.Games(ctx)
	if err != nil {
		return nil, fmt.Errorf("load demo games: %w", err)
	}
	if len(discoGames) == 0 {
		return nil, nil
	}

	abbrs := make([]string, 0, 2*len(discoGames))
	for _, g := range discoGames {
		abbrs = append(abbrs, g.HomeAbbr, g.AwayAbbr)
	}
	abbrToTeam, err := h.teamsByAbbr(r, abbrs)
	if err != nil {
		return nil, err
	}

	out := make([]LiveGameOut, 0, len(discoGames))
	for _, g := range discoGames {
		network := g.Network
		out = append(out, h.buildLiveGame(r, g.EventID, g.HomeAbbr, "", g.AwayAbbr, "", &network, abbrToTeam))
	}

	teamsNotInGame, err := h.teamsNotInGame(r, out)
	if err != nil {
		return nil, err
	}
	return &LiveGamesResponse{LiveGames: out, TeamsNotInGame: teamsNotInGame}, nil
}

func (h *Handler) teamsByAbbr(r *http.Request, abbrs []string) (map[string]models.Team, error) {
	seen := make(map[string]bool)
	var unique []string
	for _, a := range abbrs {
		u := strings.ToUpper(a)
		if u != "" && !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}
	out := make(map[string]models.Team, len(unique))
	if len(unique) == 0 {
		return out, nil
	}
	rows, err := h.teams.GetTeamsByAbbrs(r.Context(), unique)
	if err != nil {
		return nil, fmt.Errorf("get teams by abbrs: %w", err)
	}
	for _, t := range rows {
		out[strings.ToUpper(t.Abbr)] = t
	}
	return out, nil
}

func (h *Handler) buildLiveGame(r *http.Request, eventID, homeAbbr, homeName, awayAbbr, awayName string, network *string, abbrToTeam map[string]models.Team) LiveGameOut {
	out := LiveGameOut{
		EventID: eventID,
		Matchup: fmt.Sprintf("%s @ %s", awayAbbr, homeAbbr),
		Home:    TeamOut{Abbr: homeAbbr, Name: homeName},
		Away:    TeamOut{Abbr: awayAbbr, Name: awayName},
		Network: network,
	}

	homeTeam, homeKnown := abbrToTeam[strings.ToUpper(homeAbbr)]
	awayTeam, awayKnown := abbrToTeam[strings.ToUpper(awayAbbr)]
	if homeKnown {
		out.Home.ID = homeTeam.ID.String()
		if out.Home.Name == "" {
			out.Home.Name = homeTeam.Name
		}
	}
	if awayKnown {
		out.Away.ID = awayTeam.ID.String()
		if out.Away.Name == "" {
			out.Away.Name = awayTeam.Name
		}
	}
	if out.Home.Name == "" {
		out.Home.Name = homeAbbr
	}
	if out.Away.Name == "" {
		out.Away.Name = awayAbbr
	}

	var state models.PossessionState
	err := store.GetJSON(r.Context(), h.store, store.PossessionKey(eventID), &state)
	if errors.Is(err, store.ErrNotFound) {
		return out
	}
	if err != nil {
		log.Warn().Err(err).Str("event_id", eventID).Msg("possession read failed")
		return out
	}

	out.PossessionTeamID = state.PossessionTeamID.String()
	out.DefenseTeamID = state.DefenseTeamID.String()
	lastUpdated := state.LastUpdated
	out.LastUpdated = &lastUpdated

	if homeKnown && homeTeam.ID == state.PossessionTeamID {
		out.PossessionAbbr = homeAbbr
	} else if awayKnown && awayTeam.ID == state.PossessionTeamID {
		out.PossessionAbbr = awayAbbr
	}
	if homeKnown && homeTeam.ID == state.DefenseTeamID {
		out.DefenseAbbr = homeAbbr
	} else if awayKnown && awayTeam.ID == state.DefenseTeamID {
		out.DefenseAbbr = awayAbbr
	}
	return out
}

func (h *Handler) teamsNotInGame(r *http.Request, live []LiveGameOut) ([]models.Team, error) {
	all, err := h.teams.ListAllTeams(r.Context())
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	playing := make(map[string]bool, 2*len(live))
	for _, g := range live {
		playing[strings.ToUpper(g.Home.Abbr)] = true
		playing[strings.ToUpper(g.Away.Abbr)] = true
	}
	idle := make([]models.Team, 0, len(all))
	for _, t := range all {
		if !playing[strings.ToUpper(t.Abbr)] {
			idle = append(idle, t)
		}
	}
	return idle, nil
}
