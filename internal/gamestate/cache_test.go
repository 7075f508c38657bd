package gamestate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avvvet/darts-services/internal/gamesvc/store"
	"github.com/avvvet/darts-services/internal/x01"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore breaks every write after the first n.
type failingStore struct {
	store.Store
	writes int
	n      int
}

func (f *failingStore) Write(ctx context.Context, b store.Batch) error {
	f.writes++
	if f.writes > f.n {
		return errors.New("connection reset by peer")
	}
	return f.Store.Write(ctx, b)
}

func startedGame() x01.Game {
	g := x01.NewGame(2, x01.DefaultSettings(3, 5), nil)
	g.Status = x01.StatusStarted
	return g
}

func TestCreateInitialSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(store.NewMemoryStore())

	game := startedGame()
	st, err := cache.CreateInitial(ctx, game)
	require.NoError(t, err)

	joined := time.Date(2024, 2, 2, 20, 0, 0, 0, time.UTC)
	assert.True(t, st.AddPlayer(x01.Player{PlayerID: "p1", CreatedAt: joined}))
	assert.True(t, st.AddPlayer(x01.Player{PlayerID: "p2", CreatedAt: joined.Add(time.Second)}))
	assert.False(t, st.AddPlayer(x01.Player{PlayerID: "p1"}))
	st.AddUser(x01.User{UserID: "p1", ConnectionID: "i:1"})
	st.AddUser(x01.User{UserID: "p2", ConnectionID: "i:2"})

	d, err := st.AddDart(x01.Dart{ID: uuid.New(), PlayerID: "p1", Score: 100, GameScore: 401, Set: 1, Leg: 1, CreatedAt: joined.Add(time.Minute)})
	require.NoError(t, err)
	require.NoError(t, cache.Save(ctx, st))

	loaded, err := cache.Load(ctx, game.GameID)
	require.NoError(t, err)
	assert.Equal(t, st.Game, loaded.Game)
	assert.ElementsMatch(t, st.Players, loaded.Players)
	assert.ElementsMatch(t, st.Users, loaded.Users)
	assert.Equal(t, []x01.Dart{d}, loaded.Darts())
	assert.Equal(t, []string{"i:1", "i:2"}, loaded.ConnectionIDs())

	_, err = cache.CreateInitial(ctx, game)
	assert.ErrorIs(t, err, x01.ErrGameExists)
}

func TestSaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	cache := NewCache(mem)

	st, err := cache.CreateInitial(ctx, startedGame())
	require.NoError(t, err)
	st.AddPlayer(x01.NewPlayer(st.Game.GameID, "p1"))
	_, err = st.AddDart(x01.Dart{ID: uuid.New(), PlayerID: "p1", Score: 60, GameScore: 441, Set: 1, Leg: 1})
	require.NoError(t, err)

	require.NoError(t, cache.Save(ctx, st))
	require.NoError(t, cache.Save(ctx, st))

	darts, err := mem.ReadGameDarts(ctx, st.Game.GameID)
	require.NoError(t, err)
	assert.Len(t, darts, 1)
}

func TestConcurrentWriterLosesSequence(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(store.NewMemoryStore())

	st, err := cache.CreateInitial(ctx, startedGame())
	require.NoError(t, err)
	st.AddPlayer(x01.NewPlayer(st.Game.GameID, "p1"))
	require.NoError(t, cache.Save(ctx, st))

	a, err := cache.Load(ctx, st.Game.GameID)
	require.NoError(t, err)
	b, err := cache.Load(ctx, st.Game.GameID)
	require.NoError(t, err)

	_, err = a.AddDart(x01.Dart{ID: uuid.New(), PlayerID: "p1", Score: 60, GameScore: 441, Set: 1, Leg: 1})
	require.NoError(t, err)
	_, err = b.AddDart(x01.Dart{ID: uuid.New(), PlayerID: "p1", Score: 45, GameScore: 456, Set: 1, Leg: 1})
	require.NoError(t, err)

	require.NoError(t, cache.Save(ctx, a))
	assert.ErrorIs(t, cache.Save(ctx, b), x01.ErrStaleGame)
}

func TestStoreFailuresAreTransient(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Store: store.NewMemoryStore(), n: 1}
	cache := NewCache(fs)

	st, err := cache.CreateInitial(ctx, startedGame())
	require.NoError(t, err)
	require.NoError(t, cache.Save(ctx, st))

	err = cache.Save(ctx, st)
	require.ErrorIs(t, err, x01.ErrTransientStore)
	assert.Equal(t, 503, x01.StatusCode(err))

	_, err = cache.Load(ctx, 12345)
	assert.ErrorIs(t, err, x01.ErrGameNotFound)
}

func TestSaveIgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cache := NewCache(store.NewMemoryStore())
	st, err := cache.CreateInitial(ctx, startedGame())
	require.NoError(t, err)
	require.NoError(t, cache.Save(ctx, st))

	_, err = cache.Load(context.Background(), st.Game.GameID)
	assert.NoError(t, err)
}

func TestAddPlayerSeatsApartAtStorePrecision(t *testing.T) {
	st := newState(startedGame(), nil, nil, nil)

	joined := time.Date(2024, 2, 2, 20, 0, 0, 123456789, time.UTC)
	st.AddPlayer(x01.Player{PlayerID: "9host", CreatedAt: joined})
	st.AddPlayer(x01.Player{PlayerID: "1guest", CreatedAt: joined.Add(time.Nanosecond)})

	require.Len(t, st.Players, 2)
	assert.Equal(t, joined.Truncate(time.Microsecond), st.Players[0].CreatedAt)
	assert.Equal(t, joined.Truncate(time.Microsecond).Add(time.Microsecond), st.Players[1].CreatedAt)

	// rounding to microseconds keeps the host first
	order := x01.JoinOrder([]x01.Player{
		{PlayerID: "1guest", CreatedAt: st.Players[1].CreatedAt.Round(time.Microsecond)},
		{PlayerID: "9host", CreatedAt: st.Players[0].CreatedAt.Round(time.Microsecond)},
	})
	assert.Equal(t, "9host", order[0].PlayerID)
}
