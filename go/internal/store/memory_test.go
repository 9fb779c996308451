package store

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(clockwork.NewFakeClock())

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	s := NewMemoryStore(clock)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 30*time.Second))

	clock.Advance(29 * time.Second)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExpireRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	s := NewMemoryStore(clock)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 10*time.Second))
	clock.Advance(8 * time.Second)
	require.NoError(t, s.Expire(ctx, "k", 10*time.Second))

	clock.Advance(8 * time.Second)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(3 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExpireOnMissingKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(clockwork.NewFakeClock())
	assert.NoError(t, s.Expire(ctx, "missing", time.Second))
}

func TestMemoryStore_SetOps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(clockwork.NewFakeClock())

	require.NoError(t, s.SAdd(ctx, "set", "a"))
	require.NoError(t, s.SAdd(ctx, "set", "b"))
	require.NoError(t, s.SAdd(ctx, "set", "a"))

	members, err := s.SMembers(ctx, "set")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)

	require.NoError(t, s.SRem(ctx, "set", "a"))
	members, err = s.SMembers(ctx, "set")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, members)
}

func TestMemoryStore_JSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(clockwork.NewFakeClock())

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(ctx, s, "k", payload{Name: "dal"}, 0))

	var out payload
	require.NoError(t, GetJSON(ctx, s, "k", &out))
	assert.Equal(t, "dal", out.Name)
}
