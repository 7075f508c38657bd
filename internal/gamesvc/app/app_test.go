package app

import (
	"context"
	"testing"

	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/gamesvc/config"
	"github.com/avvvet/darts-services/internal/gamesvc/store"
	"github.com/avvvet/darts-services/internal/matchmaking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discard struct{}

func (discard) Send(context.Context, string, []byte) error { return nil }

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	st, closeFn, err := OpenStore(ctx, config.Config{StoreDriver: config.StoreMemory})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &store.MemoryStore{}, st)

	_, _, err = OpenStore(ctx, config.Config{StoreDriver: "sqlite"})
	assert.ErrorContains(t, err, "sqlite")
}

func TestOpenQueueDefaultsToMemory(t *testing.T) {
	q, closeFn, err := OpenQueue(context.Background(), config.Config{})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &matchmaking.MemoryQueue{}, q)
}

func TestNewServices(t *testing.T) {
	st := store.NewMemoryStore()
	s := NewServices(st, matchmaking.NewMemoryQueue(), discard{}, nil, matchmaking.PolicyFor("bucket"))

	resp, err := s.Users.Connect(context.Background(), "auth-1", "i:1", comm.ConnectMessage{UserName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, comm.ActionConnect, resp.Action)

	made, err := s.Matchmaker.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, made)
}
