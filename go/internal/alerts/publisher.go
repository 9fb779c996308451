package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/fieldzone/go/internal/possession"
)

// SubjectPossessionChanged carries one JSON-encoded possession transition.
const SubjectPossessionChanged = "fieldzone.possession.changed"

// Config holds NATS connection tuning
type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Publisher fans possession transitions out over NATS. Publishing is
// best-effort: failures are logged and never surface to the reconcile cycle.
type Publisher struct {
	nc *nats.Conn
}

func NewPublisher(cfg Config) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{nc: nc}, nil
}

// PossessionChanged implements possession.Notifier.
func (p *Publisher) PossessionChanged(_ context.Context, change possession.Change) {
	data, err := json.Marshal(change)
	if err != nil {
		log.Error().Err(err).Str("event_id", change.EventID).Msg("failed to encode possession change")
		return
	}
	if err := p.nc.Publish(SubjectPossessionChanged, data); err != nil {
		log.Warn().Err(err).Str("event_id", change.EventID).Msg("failed to publish possession change")
		return
	}
	log.Debug().
		Str("event_id", change.EventID).
		Str("possession_team_id", change.PossessionTeamID.String()).
		Msg("possession change published")
}

func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
