package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/clients/espn"
	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/possession"
	"github.com/mcdev12/fieldzone/go/internal/ratelimit"
	"github.com/mcdev12/fieldzone/go/internal/schedule"
	"github.com/mcdev12/fieldzone/go/internal/status"
	"github.com/mcdev12/fieldzone/go/internal/store"
	"github.com/mcdev12/fieldzone/go/internal/zone"
)

// Reconciler triggers one possession reconcile cycle
type Reconciler interface {
	Reconcile(ctx context.Context) (possession.Result, error)
}

// FlagScanner triggers one flag scan pass
type FlagScanner interface {
	Scan(ctx context.Context) (int, error)
}

// Simulator is the demo-mode control surface
type Simulator interface {
	Seed(ctx context.Context) ([]models.DiscoGame, error)
	Step(ctx context.Context) error
	Stop(ctx context.Context) error
	State(ctx context.Context) (models.DiscoState, error)
	Enabled(ctx context.Context) (bool, error)
	Games(ctx context.Context) ([]models.DiscoGame, error)
}

// Classifier resolves players against live possession
type Classifier interface {
	Classify(ctx context.Context, playerIDs []uuid.UUID) (map[uuid.UUID]zone.Classification, error)
	Summarize(ctx context.Context, playerIDs []uuid.UUID, playerNames []string) (zone.Summary, error)
}

// BroadcastSelector picks the event worth putting on screen
type BroadcastSelector interface {
	SelectBroadcastEvent(ctx context.Context) (status.Broadcast, error)
}

// ScheduleManager refreshes and seeds the game schedule
type ScheduleManager interface {
	Refresh(ctx context.Context) (schedule.RefreshResult, error)
	Seed(ctx context.Context) (int, error)
}

// SummaryFetcher fetches the in-game watch snapshot from upstream
type SummaryFetcher interface {
	FetchWatchSummary(ctx context.Context, eventID string) (*espn.WatchSummary, error)
}

// GamesRepository defines what the handlers need from game storage
type GamesRepository interface {
	ListGamesByStatus(ctx context.Context, status models.GameStatus) ([]models.Game, error)
	GetGamesByEventIDs(ctx context.Context, eventIDs []string) ([]models.Game, error)
}

// TeamsRepository defines what the handlers need from team reference data
type TeamsRepository interface {
	ListAllTeams(ctx context.Context) ([]models.Team, error)
	GetTeamsByAbbrs(ctx context.Context, abbrs []string) ([]models.Team, error)
}

// PlayersRepository defines what the handlers need from player reference data
type PlayersRepository interface {
	ListPlayersByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Player, error)
}

// Handler carries the JSON API surface over the engine's services
type Handler struct {
	store        store.Store
	tracker      Reconciler
	scanner      FlagScanner
	disco        Simulator
	zone         Classifier
	status       BroadcastSelector
	schedule     ScheduleManager
	summaries    SummaryFetcher
	games        GamesRepository
	teams        TeamsRepository
	players      PlayersRepository
	watchLimiter *ratelimit.Limiter
	discoGauge   func(enabled bool)
}

// Config bundles the handler's dependencies
type Config struct {
	Store        store.Store
	Tracker      Reconciler
	Scanner      FlagScanner
	Disco        Simulator
	Zone         Classifier
	Status       BroadcastSelector
	Schedule     ScheduleManager
	Summaries    SummaryFetcher
	Games        GamesRepository
	Teams        TeamsRepository
	Players      PlayersRepository
	WatchLimiter *ratelimit.Limiter
	DiscoGauge   func(enabled bool)
}

func NewHandler(cfg Config) *Handler {
	gauge := cfg.DiscoGauge
	if gauge == nil {
		gauge = func(bool) {}
	}
	return &Handler{
		store:        cfg.Store,
		tracker:      cfg.Tracker,
		scanner:      cfg.Scanner,
		disco:        cfg.Disco,
		zone:         cfg.Zone,
		status:       cfg.Status,
		schedule:     cfg.Schedule,
		summaries:    cfg.Summaries,
		games:        cfg.Games,
		teams:        cfg.Teams,
		players:      cfg.Players,
		watchLimiter: cfg.WatchLimiter,
		discoGauge:   gauge,
	}
}

// RegisterRoutes wires every API route onto the mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/live/possession", h.HandleLivePossession)
	mux.HandleFunc("/api/live/games", h.HandleLiveGames)
	mux.HandleFunc("/api/live/scan", h.HandleLiveScan)
	mux.HandleFunc("/api/live/summary", h.HandleLiveSummary)
	mux.HandleFunc("/api/player-status", h.HandlePlayerStatus)
	mux.HandleFunc("/api/status", h.HandleStatus)
	mux.HandleFunc("/api/watch", h.HandleWatch)
	mux.HandleFunc("/api/schedule/refresh", h.HandleScheduleRefresh)
	mux.HandleFunc("/api/schedule/seed", h.HandleScheduleSeed)
	mux.HandleFunc("/api/disco/start", h.HandleDiscoStart)
	mux.HandleFunc("/api/disco/stop", h.HandleDiscoStop)
	mux.HandleFunc("/api/disco/step", h.HandleDiscoStep)
	mux.HandleFunc("/api/disco/state", h.HandleDiscoState)
	mux.HandleFunc("/api/teams/", h.HandleTeamPlayers)
	mux.HandleFunc("/health", h.HandleHealth)
}

// HandleHealth handles GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// clientIP resolves the caller address, preferring the forwarding header set
// by the edge proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
