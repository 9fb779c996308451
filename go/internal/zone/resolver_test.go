package zone

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/fieldzone/go/internal/models"
	"github.com/mcdev12/fieldzone/go/internal/store"
)

type fakePlayers struct {
	players map[uuid.UUID]models.Player
	calls   int
}

func (f *fakePlayers) GetPlayersByIDs(_ context.Context, ids []uuid.UUID) ([]models.Player, error) {
	f.calls++
	var out []models.Player
	for _, id := range ids {
		if p, ok := f.players[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlayers) GetPlayersByNames(_ context.Context, names []string) ([]models.Player, error) {
	f.calls++
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []models.Player
	for _, p := range f.players {
		if want[p.FullName] {
			out = append(out, p)
		}
	}
	return out, nil
}

type resolverEnv struct {
	clock    *clockwork.FakeClock
	store    *store.MemoryStore
	players  *fakePlayers
	resolver *Resolver

	homeTeam uuid.UUID
	awayTeam uuid.UUID
}

func newResolverEnv(t *testing.T) *resolverEnv {
	t.Helper()
	clock := clockwork.NewFakeClock()
	st := store.NewMemoryStore(clock)
	players := &fakePlayers{players: map[uuid.UUID]models.Player{}}
	return &resolverEnv{
		clock:    clock,
		store:    st,
		players:  players,
		resolver: NewResolver(st, players),
		homeTeam: uuid.New(),
		awayTeam: uuid.New(),
	}
}

func (e *resolverEnv) addPlayer(t *testing.T, teamID uuid.UUID, side models.SideOfBall) uuid.UUID {
	t.Helper()
	return e.addNamedPlayer(t, teamID, side, "Test Player")
}

func (e *resolverEnv) addNamedPlayer(t *testing.T, teamID uuid.UUID, side models.SideOfBall, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	e.players.players[id] = models.Player{ID: id, TeamID: teamID, FullName: name, SideOfBall: side}
	return id
}

// writeGame stores possession state for an event with home on offense.
func (e *resolverEnv) writeGame(t *testing.T, eventID string, ttl time.Duration) {
	t.Helper()
	ctx := context.Background()
	state := models.PossessionState{
		PossessionTeamID: e.homeTeam,
		DefenseTeamID:    e.awayTeam,
		LastUpdated:      e.clock.Now(),
	}
	require.NoError(t, store.SetJSON(ctx, e.store, store.PossessionKey(eventID), state, ttl))
	require.NoError(t, e.store.Set(ctx, store.TeamGameKey(e.homeTeam.String()), []byte(eventID), ttl))
	require.NoError(t, e.store.Set(ctx, store.TeamGameKey(e.awayTeam.String()), []byte(eventID), ttl))
}

func TestClassify_SidesAgainstPossession(t *testing.T) {
	env := newResolverEnv(t)
	env.writeGame(t, "e1", time.Minute)

	offHome := env.addPlayer(t, env.homeTeam, models.SideOffense)
	offAway := env.addPlayer(t, env.awayTeam, models.SideOffense)
	defHome := env.addPlayer(t, env.homeTeam, models.SideDefense)
	defAway := env.addPlayer(t, env.awayTeam, models.SideDefense)
	kicker := env.addPlayer(t, env.homeTeam, models.SideSpecialTeams)
	unknown := env.addPlayer(t, env.awayTeam, models.SideUnknown)

	out, err := env.resolver.Classify(context.Background(),
		[]uuid.UUID{offHome, offAway, defHome, defAway, kicker, unknown})
	require.NoError(t, err)
	require.Len(t, out, 6)

	assert.Equal(t, Classification{Status: StatusInZone, GameID: "e1"}, out[offHome])
	assert.Equal(t, Classification{Status: StatusOutOfZone, GameID: "e1"}, out[offAway])
	assert.Equal(t, Classification{Status: StatusOutOfZone, GameID: "e1"}, out[defHome])
	assert.Equal(t, Classification{Status: StatusInZone, GameID: "e1"}, out[defAway])
	assert.Equal(t, Classification{Status: StatusOutOfZone, GameID: "e1"}, out[kicker])
	assert.Equal(t, Classification{Status: StatusOutOfZone, GameID: "e1"}, out[unknown])
}

func TestClassify_UnknownPlayerNotInGame(t *testing.T) {
	env := newResolverEnv(t)
	env.writeGame(t, "e1", time.Minute)

	out, err := env.resolver.Classify(context.Background(), []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	require.Len(t, out, 1)
	for _, c := range out {
		assert.Equal(t, Classification{Status: StatusNotInGame}, c)
	}
}

func TestClassify_TeamWithoutCurrentGame(t *testing.T) {
	env := newResolverEnv(t)
	id := env.addPlayer(t, uuid.New(), models.SideOffense)

	out, err := env.resolver.Classify(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	assert.Equal(t, Classification{Status: StatusNotInGame}, out[id])
}

func TestClassify_ExpiredPossessionNotInGame(t *testing.T) {
	env := newResolverEnv(t)
	env.writeGame(t, "e1", time.Minute)
	// Keep the team pointer alive but let the possession snapshot lapse.
	require.NoError(t, env.store.Expire(context.Background(), store.TeamGameKey(env.homeTeam.String()), time.Hour))
	env.clock.Advance(2 * time.Minute)

	id := env.addPlayer(t, env.homeTeam, models.SideOffense)
	out, err := env.resolver.Classify(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	assert.Equal(t, Classification{Status: StatusNotInGame}, out[id])
}

func TestClassify_DuplicateIDsAppearOnce(t *testing.T) {
	env := newResolverEnv(t)
	env.writeGame(t, "e1", time.Minute)
	id := env.addPlayer(t, env.homeTeam, models.SideOffense)

	out, err := env.resolver.Classify(context.Background(), []uuid.UUID{id, id, id})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StatusInZone, out[id].Status)
}

func TestClassify_BatchValidation(t *testing.T) {
	env := newResolverEnv(t)

	_, err := env.resolver.Classify(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	over := make([]uuid.UUID, MaxBatch+1)
	for i := range over {
		over[i] = uuid.New()
	}
	_, err = env.resolver.Classify(context.Background(), over)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	// Rejected before any reference-data lookup.
	assert.Zero(t, env.players.calls)
}

func TestSummarize_BucketsByGame(t *testing.T) {
	env := newResolverEnv(t)
	env.writeGame(t, "e1", time.Minute)

	offHome := env.addPlayer(t, env.homeTeam, models.SideOffense)
	defHome := env.addPlayer(t, env.homeTeam, models.SideDefense)
	idle := env.addPlayer(t, uuid.New(), models.SideOffense)
	unknown := uuid.New()

	got, err := env.resolver.Summarize(context.Background(),
		[]uuid.UUID{offHome, defHome, idle, unknown}, nil)
	require.NoError(t, err)

	require.Contains(t, got.ByEvent, "e1")
	assert.ElementsMatch(t, []string{offHome.String()}, got.ByEvent["e1"].InZone)
	assert.ElementsMatch(t, []string{defHome.String()}, got.ByEvent["e1"].OutOfZone)
	assert.ElementsMatch(t, []string{idle.String(), unknown.String()}, got.NotResolved)
}

func TestSummarize_ByNames(t *testing.T) {
	env := newResolverEnv(t)
	env.writeGame(t, "e1", time.Minute)

	env.addNamedPlayer(t, env.homeTeam, models.SideOffense, "Quin Back")
	env.addNamedPlayer(t, env.awayTeam, models.SideDefense, "Dee Fender")
	env.addNamedPlayer(t, env.awayTeam, models.SideOffense, "Ben Cher")

	got, err := env.resolver.Summarize(context.Background(), nil,
		[]string{"Quin Back", "Dee Fender", "Ben Cher", "No Body"})
	require.NoError(t, err)

	require.Contains(t, got.ByEvent, "e1")
	assert.ElementsMatch(t, []string{"Quin Back", "Dee Fender"}, got.ByEvent["e1"].InZone)
	assert.ElementsMatch(t, []string{"Ben Cher"}, got.ByEvent["e1"].OutOfZone)
	assert.Equal(t, []string{"No Body"}, got.NotResolved)
}

func TestSummarize_NamesTakePriorityOverIDs(t *testing.T) {
	env := newResolverEnv(t)
	env.writeGame(t, "e1", time.Minute)

	byID := env.addNamedPlayer(t, env.homeTeam, models.SideOffense, "By Id")
	env.addNamedPlayer(t, env.awayTeam, models.SideDefense, "By Name")

	got, err := env.resolver.Summarize(context.Background(),
		[]uuid.UUID{byID}, []string{"By Name"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"By Name"}, got.ByEvent["e1"].InZone)
	assert.NotContains(t, got.ByEvent["e1"].OutOfZone, byID.String())
	assert.Empty(t, got.NotResolved)
}

func TestSummarize_ExpiredPossessionNotResolved(t *testing.T) {
	env := newResolverEnv(t)
	env.writeGame(t, "e1", time.Minute)
	require.NoError(t, env.store.Expire(context.Background(), store.TeamGameKey(env.homeTeam.String()), time.Hour))
	env.clock.Advance(2 * time.Minute)

	id := env.addPlayer(t, env.homeTeam, models.SideOffense)
	got, err := env.resolver.Summarize(context.Background(), []uuid.UUID{id}, nil)
	require.NoError(t, err)
	assert.Empty(t, got.ByEvent)
	assert.Equal(t, []string{id.String()}, got.NotResolved)
}

func TestSummarize_BatchValidation(t *testing.T) {
	env := newResolverEnv(t)

	_, err := env.resolver.Summarize(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	over := make([]string, MaxBatch+1)
	for i := range over {
		over[i] = "Player X"
	}
	_, err = env.resolver.Summarize(context.Background(), nil, over)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	assert.Zero(t, env.players.calls)
}
