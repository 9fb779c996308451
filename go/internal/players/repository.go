package players

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mcdev12/fieldzone/go/internal/models"
)

// DB defines what the repository needs from the database layer
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements player reference-data access
type Repository struct {
	db DB
}

// NewRepository creates a new players repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// GetPlayersByIDs returns the players whose id matches any of ids. Unknown
// ids are absent from the result.
func (r *Repository) GetPlayersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, team_id, full_name, position, side_of_ball FROM players WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get players by ids: %w", err)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// GetPlayersByNames returns the players whose full name matches any of
// names exactly. Unmatched names are absent from the result.
func (r *Repository) GetPlayersByNames(ctx context.Context, names []string) ([]models.Player, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, team_id, full_name, position, side_of_ball FROM players WHERE full_name = ANY($1)`, names)
	if err != nil {
		return nil, fmt.Errorf("failed to get players by names: %w", err)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// ListPlayersByTeam returns every player on the given team
func (r *Repository) ListPlayersByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, team_id, full_name, position, side_of_ball FROM players WHERE team_id = $1 ORDER BY full_name`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players by team: %w", err)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

func scanPlayers(rows pgx.Rows) ([]models.Player, error) {
	var players []models.Player
	for rows.Next() {
		var p models.Player
		var side string
		if err := rows.Scan(&p.ID, &p.TeamID, &p.FullName, &p.Position, &side); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		p.SideOfBall = models.SideOfBall(side)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read players: %w", err)
	}
	return players, nil
}
