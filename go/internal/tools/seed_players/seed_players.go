package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/fieldzone/go/internal/dbconfig"
	"github.com/mcdev12/fieldzone/go/internal/models"
)

// Player mirrors the JSON snapshot layout. Side of ball is derived from the
// position code, not read from the snapshot.
type Player struct {
	ID       uuid.UUID `json:"id"`
	TeamAbbr string    `json:"team_abbr"`
	FullName string    `json:"full_name"`
	Position string    `json:"position"`
}

func main() {
	ctx := context.Background()

	// 1) Load players.json
	path := "go/internal/assets/players.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var players []Player
	if err := json.Unmarshal(data, &players); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Resolve team ids by abbreviation
	teamIDs, err := loadTeamIDs(ctx, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load teams: %v\n", err)
		os.Exit(1)
	}

	// 4) Upsert and count
	var (
		total   = len(players)
		written int
		skipped int
		errs    int
	)

	for _, p := range players {
		teamID, ok := teamIDs[strings.ToUpper(p.TeamAbbr)]
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown team %q for %s\n", p.TeamAbbr, p.FullName)
			errs++
			continue
		}

		side := models.SideOfBallFromPosition(p.Position)
		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO players (id, team_id, full_name, position, side_of_ball)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (id) DO UPDATE
            SET team_id = EXCLUDED.team_id,
                full_name = EXCLUDED.full_name,
                position = EXCLUDED.position,
                side_of_ball = EXCLUDED.side_of_ball
            WHERE players.team_id IS DISTINCT FROM EXCLUDED.team_id
               OR players.full_name IS DISTINCT FROM EXCLUDED.full_name
               OR players.position IS DISTINCT FROM EXCLUDED.position
               OR players.side_of_ball IS DISTINCT FROM EXCLUDED.side_of_ball`,
			p.ID, teamID, p.FullName, p.Position, side,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upsert %s: %v\n", p.FullName, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() > 0 {
			written++
		} else {
			skipped++
		}
	}

	fmt.Printf("players: %d total, %d written, %d unchanged, %d errors\n", total, written, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}

func loadTeamIDs(ctx context.Context, pool *pgxpool.Pool) (map[string]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `SELECT id, abbr FROM teams`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]uuid.UUID)
	for rows.Next() {
		var id uuid.UUID
		var abbr string
		if err := rows.Scan(&id, &abbr); err != nil {
			return nil, err
		}
		ids[strings.ToUpper(abbr)] = id
	}
	return ids, rows.Err()
}
