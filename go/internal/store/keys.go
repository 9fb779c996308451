package store

import "fmt"

// Key schema. Everything the engine writes lives under the fz: namespace.
const (
	KeyWatchSet           = "fz:windows:watch"
	KeyDiscoEnabled       = "fz:disco:enabled"
	KeyDiscoLastHeartbeat = "fz:disco:last_heartbeat"
	KeyDiscoCycleUntil    = "fz:disco:cycle_until"
	KeyDiscoGames         = "fz:disco:games"
)

// PossessionKey is the possession snapshot for one game.
func PossessionKey(eventID string) string {
	return fmt.Sprintf("fz:game:%s:possession", eventID)
}

// GameFlagsKey holds the red-zone / goal-to-go flags for one game.
func GameFlagsKey(eventID string) string {
	return fmt.Sprintf("fz:game:%s:flags", eventID)
}

// LastPlayKey holds the most recent play id seen for one game.
func LastPlayKey(eventID string) string {
	return fmt.Sprintf("fz:game:%s:lastPlayId", eventID)
}

// TeamGameKey points from a team to the game it is currently playing in.
func TeamGameKey(teamID string) string {
	return fmt.Sprintf("fz:team:%s:current_game", teamID)
}
