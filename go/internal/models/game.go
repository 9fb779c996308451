package models

import (
	"time"
)

// GameStatus is the normalized schedule status of a game
type GameStatus string

const (
	StatusScheduled GameStatus = "scheduled"
	StatusLive      GameStatus = "live"
	StatusFinal     GameStatus = "final"
)

// GameTeam is the denormalized team snapshot stored on a game row.
// IDs here are the upstream provider's team ids, not reference-store uuids.
type GameTeam struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Abbr string `json:"abbr"`
}

// Game represents a scheduled or in-progress game in the reference store
type Game struct {
	EventID    string     `json:"event_id"`
	StartUTC   time.Time  `json:"start_utc"`
	HomeTeam   GameTeam   `json:"home_team"`
	AwayTeam   GameTeam   `json:"away_team"`
	Network    *string    `json:"network,omitempty"`
	Status     GameStatus `json:"status"`
	LastPlayID *string    `json:"last_play_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
