package games

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcdev12/fieldzone/go/internal/models"
)

// DB defines what the repository needs from the database layer
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository implements schedule/game data access
type Repository struct {
	db DB
}

// NewRepository creates a new games repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const gameColumns = `event_id, start_utc, home_team, away_team, network, status, last_play_id, created_at, updated_at`

// ListGamesByStatus returns all games with the given status
func (r *Repository) ListGamesByStatus(ctx context.Context, status models.GameStatus) ([]models.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gameColumns+` FROM games WHERE status = $1`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list games by status: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// GetGamesByEventIDs returns the games matching any of eventIDs
func (r *Repository) GetGamesByEventIDs(ctx context.Context, eventIDs []string) ([]models.Game, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+gameColumns+` FROM games WHERE event_id = ANY($1)`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get games by event ids: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// ListGamesStartingBetween returns the games whose kickoff falls in [start, end]
func (r *Repository) ListGamesStartingBetween(ctx context.Context, start, end time.Time) ([]models.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gameColumns+` FROM games WHERE start_utc BETWEEN $1 AND $2`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list games between: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// UpsertGame inserts the game or refreshes an existing row by event id
func (r *Repository) UpsertGame(ctx context.Context, game models.Game) error {
	home, err := json.Marshal(game.HomeTeam)
	if err != nil {
		return fmt.Errorf("failed to marshal home team: %w", err)
	}
	away, err := json.Marshal(game.AwayTeam)
	if err != nil {
		return fmt.Errorf("failed to marshal away team: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO games (event_id, start_utc, home_team, away_team, network, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (event_id) DO UPDATE SET
			start_utc = EXCLUDED.start_utc,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			network = COALESCE(EXCLUDED.network, games.network),
			status = EXCLUDED.status,
			updated_at = NOW()`,
		game.EventID, game.StartUTC, home, away, game.Network, string(game.Status))
	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}
	return nil
}

// MarkGameLive flags the game row live and bumps its freshness timestamp
func (r *Repository) MarkGameLive(ctx context.Context, eventID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE games SET status = 'live', updated_at = NOW() WHERE event_id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to mark game live: %w", err)
	}
	return nil
}

// DeleteFinalGames removes games whose status is final, returning the count
func (r *Repository) DeleteFinalGames(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM games WHERE status = 'final'`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete final games: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanGames(rows pgx.Rows) ([]models.Game, error) {
	var games []models.Game
	for rows.Next() {
		var g models.Game
		var home, away []byte
		var status string
		if err := rows.Scan(&g.EventID, &g.StartUTC, &home, &away, &g.Network, &status, &g.LastPlayID, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		if err := json.Unmarshal(home, &g.HomeTeam); err != nil {
			return nil, fmt.Errorf("failed to unmarshal home team: %w", err)
		}
		if err := json.Unmarshal(away, &g.AwayTeam); err != nil {
			return nil, fmt.Errorf("failed to unmarshal away team: %w", err)
		}
		g.Status = models.GameStatus(status)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read games: %w", err)
	}
	return games, nil
}
