package espn

// Raw upstream payload shapes. Every field is optional at the wire level;
// parsing decides what is usable and drops the rest. Nothing loosely typed
// escapes this package.

type scoreboardResponse struct {
	Events []scoreboardEvent `json:"events"`
}

type scoreboardEvent struct {
	ID           string        `json:"id"`
	UID          string        `json:"uid"`
	Date         string        `json:"date"`
	Competitions []competition `json:"competitions"`
}

type competition struct {
	Date        string       `json:"date"`
	Competitors []competitor `json:"competitors"`
	Status      *compStatus  `json:"status,omitempty"`
	Broadcasts  []broadcast  `json:"broadcasts,omitempty"`
	Situation   *situation   `json:"situation,omitempty"`
}

type competitor struct {
	HomeAway string   `json:"homeAway"`
	Team     *teamRef `json:"team,omitempty"`
}

type teamRef struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	Abbreviation string `json:"abbreviation"`
}

type compStatus struct {
	Type *statusType `json:"type,omitempty"`
}

type statusType struct {
	State string `json:"state"`
}

type broadcast struct {
	Names []string `json:"names"`
}

type situation struct {
	Possession            string   `json:"possession,omitempty"`
	PossessionText        string   `json:"possessionText,omitempty"`
	ShortDownDistanceText string   `json:"shortDownDistanceText,omitempty"`
	DownDistanceText      string   `json:"downDistanceText,omitempty"`
	Clock                 *float64 `json:"clock,omitempty"`
	Period                *int     `json:"period,omitempty"`
	IsRedZone             bool     `json:"isRedZone,omitempty"`
	IsGoalToGo            bool     `json:"isGoalToGo,omitempty"`
}

type summaryResponse struct {
	Header *summaryHeader `json:"header,omitempty"`
	Drives *driveSet      `json:"drives,omitempty"`
}

type summaryHeader struct {
	Competitions []competition `json:"competitions"`
}

type driveSet struct {
	Current  *drive  `json:"current,omitempty"`
	Previous []drive `json:"previous,omitempty"`
}

type drive struct {
	Team   *teamRef `json:"team,omitempty"`
	TeamID string   `json:"teamId,omitempty"`
	Plays  []play   `json:"plays,omitempty"`
}

type play struct {
	ID string `json:"id"`
}
