package models

import (
	"strings"

	"github.com/google/uuid"
)

// SideOfBall classifies a player's role on the field
type SideOfBall string

const (
	SideOffense      SideOfBall = "offense"
	SideDefense      SideOfBall = "defense"
	SideSpecialTeams SideOfBall = "special_teams"
	SideUnknown      SideOfBall = "unknown"
)

// Player represents an NFL player in the reference store
type Player struct {
	ID         uuid.UUID  `json:"id"`
	TeamID     uuid.UUID  `json:"team_id"`
	FullName   string     `json:"full_name"`
	Position   string     `json:"position"`
	SideOfBall SideOfBall `json:"side_of_ball"`
}

var (
	offensePositions = map[string]bool{
		"QB": true, "RB": true, "FB": true, "WR": true, "TE": true,
		"LT": true, "LG": true, "C": true, "RG": true, "RT": true, "OL": true,
	}
	defensePositions = map[string]bool{
		"DL": true, "DE": true, "DT": true, "NT": true, "EDGE": true,
		"LB": true, "ILB": true, "OLB": true, "CB": true, "DB": true,
		"FS": true, "SS": true, "S": true,
	}
	specialPositions = map[string]bool{
		"K": true, "P": true, "LS": true, "KR": true, "PR": true,
	}
)

// SideOfBallFromPosition maps a roster position code to a side of the ball.
// Unrecognized positions map to SideUnknown.
func SideOfBallFromPosition(position string) SideOfBall {
	p := strings.ToUpper(strings.TrimSpace(position))
	switch {
	case offensePositions[p]:
		return SideOffense
	case defensePositions[p]:
		return SideDefense
	case specialPositions[p]:
		return SideSpecialTeams
	default:
		return SideUnknown
	}
}
