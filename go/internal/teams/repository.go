package teams

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mcdev12/fieldzone/go/internal/models"
)

// DB defines what the repository needs from the database layer
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements team reference-data access
type Repository struct {
	db DB
}

// NewRepository creates a new teams repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// ListAllTeams returns every team in the reference store
func (r *Repository) ListAllTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.Query(ctx, `SELECT id, abbr, name FROM teams ORDER BY abbr`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	return scanTeams(rows)
}

// GetTeamsByAbbrs returns the teams whose abbreviation matches any of abbrs.
// Matching is case-insensitive; missing abbreviations are simply absent from
// the result.
func (r *Repository) GetTeamsByAbbrs(ctx context.Context, abbrs []string) ([]models.Team, error) {
	if len(abbrs) == 0 {
		return nil, nil
	}
	upper := make([]string, len(abbrs))
	for i, a := range abbrs {
		upper[i] = strings.ToUpper(a)
	}

	rows, err := r.db.Query(ctx, `SELECT id, abbr, name FROM teams WHERE UPPER(abbr) = ANY($1)`, upper)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams by abbrs: %w", err)
	}
	defer rows.Close()

	return scanTeams(rows)
}

func scanTeams(rows pgx.Rows) ([]models.Team, error) {
	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Abbr, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read teams: %w", err)
	}
	return teams, nil
}
