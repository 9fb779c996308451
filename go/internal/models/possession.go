package models

import (
	"time"

	"github.com/google/uuid"
)

// PossessionState is the cached possession snapshot for one game.
// Entries expire out of the store; an expired entry is treated as absent.
type PossessionState struct {
	PossessionTeamID uuid.UUID  `json:"possession_team_id"`
	DefenseTeamID    uuid.UUID  `json:"defense_team_id"`
	LastUpdated      time.Time  `json:"last_updated"`
	NextSwapAt       *time.Time `json:"next_swap_at,omitempty"`
	Disco            bool       `json:"disco,omitempty"`
}

// GameFlags carries the scoring-pressure flags scanned for a watched game
type GameFlags struct {
	InRedZone bool `json:"inRedZone"`
	GoalToGo  bool `json:"goalToGo"`
}

// DiscoGame is one synthetic matchup fabricated by the simulator.
// EventID carries the DISCO- prefix so it can never collide with an
// upstream event identifier.
type DiscoGame struct {
	EventID  string `json:"eventId"`
	HomeAbbr string `json:"homeAbbr"`
	AwayAbbr string `json:"awayAbbr"`
	Network  string `json:"network"`
}

// DiscoState is the simulator run state as reported to callers
type DiscoState struct {
	Enabled       bool        `json:"enabled"`
	LastHeartbeat *time.Time  `json:"lastHeartbeat"`
	CycleUntil    *time.Time  `json:"cycleUntil"`
	Games         []DiscoGame `json:"games"`
}
