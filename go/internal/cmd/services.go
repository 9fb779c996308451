package main

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/fieldzone/go/clients/espn"
	"github.com/mcdev12/fieldzone/go/internal/alerts"
	"github.com/mcdev12/fieldzone/go/internal/api"
	"github.com/mcdev12/fieldzone/go/internal/disco"
	"github.com/mcdev12/fieldzone/go/internal/flags"
	"github.com/mcdev12/fieldzone/go/internal/games"
	"github.com/mcdev12/fieldzone/go/internal/gateway"
	"github.com/mcdev12/fieldzone/go/internal/metrics"
	"github.com/mcdev12/fieldzone/go/internal/players"
	"github.com/mcdev12/fieldzone/go/internal/poller"
	"github.com/mcdev12/fieldzone/go/internal/possession"
	"github.com/mcdev12/fieldzone/go/internal/ratelimit"
	"github.com/mcdev12/fieldzone/go/internal/schedule"
	"github.com/mcdev12/fieldzone/go/internal/status"
	"github.com/mcdev12/fieldzone/go/internal/store"
	"github.com/mcdev12/fieldzone/go/internal/teams"
	"github.com/mcdev12/fieldzone/go/internal/zone"
)

type Services struct {
	Metrics *metrics.Metrics
	Hub     *gateway.Hub
	Driver  *poller.Driver
	API     *api.Handler

	alerts *alerts.Publisher
}

func setupServices(db *pgxpool.Pool, st store.Store, config *Config) (*Services, error) {
	clock := clockwork.NewRealClock()
	m := metrics.New()

	// Upstream client, throttled across every caller
	espnLimiter := ratelimit.NewLimiter(clock, getEnvAsInt("FZ_ESPN_MAX_RPS", 3))
	espnClient := espn.NewClient(espnLimiter, getEnv("FZ_ESPN_BASE_URL", ""))

	// Reference data
	teamsRepo := teams.NewRepository(db)
	gamesRepo := games.NewRepository(db)
	playersRepo := players.NewRepository(db)

	// Possession change fan-out: websocket hub always, NATS when configured
	hub := gateway.NewHub(gateway.DefaultConfig())
	m.RegisterWSConnections(hub.ConnectionCount)

	notifiers := []possession.Notifier{hub}
	var alertsPub *alerts.Publisher
	if url := os.Getenv("NATS_URL"); url != "" {
		natsConfig := alerts.DefaultConfig()
		natsConfig.URL = url
		pub, err := alerts.NewPublisher(natsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect alerts publisher: %w", err)
		}
		alertsPub = pub
		notifiers = append(notifiers, pub)
	}
	notifier := metrics.NewInstrumentedNotifier(m, notifiers...)

	// Engine services
	tracker := possession.NewTracker(espnClient, gamesRepo, teamsRepo, st, clock, trackerConfig(), notifier)
	simulator := disco.NewSimulator(st, teamsRepo, gamesRepo, clock, config.discoConfig())
	scanner := flags.NewScanner(st, espnClient, scannerConfig())
	refresher := schedule.NewRefresher(espnClient, gamesRepo, st, nil)
	resolver := zone.NewResolver(st, playersRepo)
	aggregator := status.NewAggregator(st)

	instrumentedTracker := metrics.NewInstrumentedReconciler(tracker, m)
	instrumentedScanner := metrics.NewInstrumentedScanner(scanner, m)

	driver := poller.NewDriver(clock, instrumentedTracker, simulator, instrumentedScanner, config.pollerConfig())

	watchLimiter := ratelimit.NewLimiter(clock, getEnvAsInt("FZ_WATCH_MAX_RPS", 5))
	handler := api.NewHandler(api.Config{
		Store:        st,
		Tracker:      instrumentedTracker,
		Scanner:      instrumentedScanner,
		Disco:        simulator,
		Zone:         resolver,
		Status:       aggregator,
		Schedule:     refresher,
		Summaries:    espnClient,
		Games:        gamesRepo,
		Teams:        teamsRepo,
		Players:      playersRepo,
		WatchLimiter: watchLimiter,
		DiscoGauge: func(enabled bool) {
			if enabled {
				m.DiscoEnabled.Set(1)
			} else {
				m.DiscoEnabled.Set(0)
			}
		},
	})

	return &Services{
		Metrics: m,
		Hub:     hub,
		Driver:  driver,
		API:     handler,
		alerts:  alertsPub,
	}, nil
}

func (s *Services) Close() {
	if s.alerts != nil {
		s.alerts.Close()
	}
}
