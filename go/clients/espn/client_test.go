package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/ratelimit"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	limiter := ratelimit.NewLimiter(clockwork.NewRealClock(), 1000)
	return NewClient(limiter, srv.URL)
}

const scoreboardFixture = `{
  "events": [
    {
      "id": "401547417",
      "uid": "s:20~l:28~e:401547417",
      "date": "2025-09-07T17:00:00Z",
      "competitions": [{
        "competitors": [
          {"homeAway": "home", "team": {"id": "6", "displayName": "Dallas Cowboys", "abbreviation": "DAL"}},
          {"homeAway": "away", "team": {"id": "19", "displayName": "New York Giants", "abbreviation": "NYG"}}
        ],
        "status": {"type": {"state": "in"}},
        "broadcasts": [{"names": ["FOX"]}]
      }]
    },
    {
      "id": "401547418",
      "date": "2025-09-07T20:25:00Z",
      "competitions": [{
        "competitors": [
          {"homeAway": "home", "team": {"id": "12", "displayName": "Kansas City Chiefs", "abbreviation": "KC"}},
          {"homeAway": "away", "team": {"id": "7", "displayName": "Denver Broncos", "abbreviation": "DEN"}}
        ],
        "status": {"type": {"state": "post"}}
      }]
    },
    {
      "id": "",
      "date": "2025-09-07T20:25:00Z",
      "competitions": [{"competitors": []}]
    }
  ]
}`

func TestFetchScoreboardDay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20250907", r.URL.Query().Get("dates"))
		w.Write([]byte(scoreboardFixture))
	})

	games, err := c.FetchScoreboardDay(context.Background(), time.Date(2025, 9, 7, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "401547417", games[0].EventID)
	assert.Equal(t, models.StatusLive, games[0].Status)
	assert.Equal(t, "DAL", games[0].Home.Abbr)
	assert.Equal(t, "NYG", games[0].Away.Abbr)
	require.NotNil(t, games[0].Network)
	assert.Equal(t, "FOX", *games[0].Network)
	assert.Equal(t, time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC), games[0].StartUTC)

	assert.Equal(t, models.StatusFinal, games[1].Status)
	assert.Nil(t, games[1].Network)
}

func TestFetchScoreboardDay_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.FetchScoreboardDay(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestFetchEventSituation_ExplicitPossession(t *testing.T) {
	body := `{
	  "header": {"competitions": [{
	    "competitors": [
	      {"homeAway": "home", "team": {"id": "6", "abbreviation": "DAL"}},
	      {"homeAway": "away", "team": {"id": "19", "abbreviation": "NYG"}}
	    ],
	    "situation": {"possession": "19"}
	  }]}
	}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "401547417", r.URL.Query().Get("event"))
		w.Write([]byte(body))
	})

	s, err := c.FetchEventSituation(context.Background(), "401547417")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "19", s.PossessionTeamID)
	assert.Equal(t, "6", s.Home.ID)
	assert.Equal(t, "19", s.Away.ID)
}

func TestFetchEventSituation_DriveFallback(t *testing.T) {
	body := `{
	  "header": {"competitions": [{
	    "competitors": [
	      {"homeAway": "home", "team": {"id": "6", "abbreviation": "DAL"}},
	      {"homeAway": "away", "team": {"id": "19", "abbreviation": "NYG"}}
	    ]
	  }]},
	  "drives": {"current": {"team": {"id": "6"}}}
	}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	s, err := c.FetchEventSituation(context.Background(), "401547417")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "6", s.PossessionTeamID)
}

func TestFetchEventSituation_TextFallback(t *testing.T) {
	body := `{
	  "header": {"competitions": [{
	    "competitors": [
	      {"homeAway": "home", "team": {"id": "6", "abbreviation": "DAL"}},
	      {"homeAway": "away", "team": {"id": "19", "abbreviation": "NYG"}}
	    ],
	    "situation": {"possessionText": "nyg 1st & 10 at DAL 25"}
	  }]}
	}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	s, err := c.FetchEventSituation(context.Background(), "401547417")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "19", s.PossessionTeamID)
}

func TestFetchEventSituation_NoFallbackResolves(t *testing.T) {
	body := `{
	  "header": {"competitions": [{
	    "competitors": [
	      {"homeAway": "home", "team": {"id": "6", "abbreviation": "DAL"}},
	      {"homeAway": "away", "team": {"id": "19", "abbreviation": "NYG"}}
	    ],
	    "situation": {"downDistanceText": "3rd & 7"}
	  }]}
	}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	s, err := c.FetchEventSituation(context.Background(), "401547417")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Empty(t, s.PossessionTeamID)
}

func TestFetchEventSituation_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	s, err := c.FetchEventSituation(context.Background(), "999")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestFetchEventSituation_ServerErrorPropagates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.FetchEventSituation(context.Background(), "401547417")
	assert.Error(t, err)
}

func TestFetchWatchSummary(t *testing.T) {
	body := `{
	  "header": {"competitions": [{
	    "competitors": [
	      {"homeAway": "home", "team": {"id": "6", "abbreviation": "DAL"}},
	      {"homeAway": "away", "team": {"id": "19", "abbreviation": "NYG"}}
	    ],
	    "situation": {
	      "possessionText": "DAL 1st & 10",
	      "shortDownDistanceText": "1st & 10",
	      "clock": 275, "period": 2,
	      "isRedZone": true, "isGoalToGo": false
	    }
	  }]}
	}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	s, err := c.FetchWatchSummary(context.Background(), "401547417")
	require.NoError(t, err)
	require.NotNil(t, s.Clock)
	assert.Equal(t, "04:35 Q2", *s.Clock)
	require.NotNil(t, s.DownAndDistance)
	assert.Equal(t, "1st & 10", *s.DownAndDistance)
	assert.True(t, s.RedZone)
	assert.False(t, s.GoalToGo)
}

func TestFetchPlayState(t *testing.T) {
	body := `{
	  "header": {"competitions": [{
	    "competitors": [],
	    "situation": {"isRedZone": false, "isGoalToGo": true}
	  }]},
	  "drives": {"previous": [
	    {"plays": [{"id": "1"}, {"id": "2"}]},
	    {"plays": [{"id": "3"}, {"id": "4015474170042"}]}
	  ]}
	}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	s, err := c.FetchPlayState(context.Background(), "401547417")
	require.NoError(t, err)
	require.NotNil(t, s.LastPlayID)
	assert.Equal(t, "4015474170042", *s.LastPlayID)
	assert.True(t, s.GoalToGo)
}
