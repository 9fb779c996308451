package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/fieldzone/go/internal/dbconfig"
)

// Team mirrors the JSON snapshot layout
type Team struct {
	ID   uuid.UUID `json:"id"`
	Abbr string    `json:"abbr"`
	Name string    `json:"name"`
}

func main() {
	ctx := context.Background()

	// 1) Load the JSON snapshot
	path := "go/internal/assets/teams.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var teams []Team
	if err := json.Unmarshal(data, &teams); err != nil {
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

	// 3) Upsert and count
	var (
		total   = len(teams)
		written int
		skipped int
		errs    int
	)

	for _, t := range teams {
		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO teams (id, abbr, name)
            VALUES ($1, $2, $3)
            ON CONFLICT (id) DO UPDATE
            SET abbr = EXCLUDED.abbr, name = EXCLUDED.name
            WHERE teams.abbr IS DISTINCT FROM EXCLUDED.abbr
               OR teams.name IS DISTINCT FROM EXCLUDED.name`,
			t.ID, t.Abbr, t.Name,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upsert %s: %v\n", t.Abbr, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() > 0 {
			written++
		} else {
			skipped++
		}
	}

	fmt.Printf("teams: %d total, %d written, %d unchanged, %d errors\n", total, written, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
