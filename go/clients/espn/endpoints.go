package espn

const (
	BaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"

	scoreboardEndpoint = "/scoreboard"
	summaryEndpoint    = "/summary"
)
