package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/avvvet/darts-services/internal/connection"
	"github.com/avvvet/darts-services/internal/gamesvc/store"
	"github.com/avvvet/darts-services/internal/x01"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	errs     map[string]error
	received map[string][][]byte
}

func newFakeSender(errs map[string]error) *fakeSender {
	return &fakeSender{errs: errs, received: make(map[string][][]byte)}
}

func (f *fakeSender) Send(_ context.Context, connectionID string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[connectionID]; err != nil {
		return err
	}
	f.received[connectionID] = append(f.received[connectionID], payload)
	return nil
}

func TestNotifyRoomContinuesPastGoneConnection(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	registry := connection.NewRegistry(mem, nil)

	var users []x01.User
	for _, c := range []string{"i:a", "i:b", "i:c"} {
		u, err := registry.Connect(ctx, "auth-"+c, c, x01.Profile{})
		require.NoError(t, err)
		users = append(users, u)
	}

	sender := newFakeSender(map[string]error{"i:b": ErrGone})
	n := NewNotifier(sender, registry, nil)

	report := n.NotifyRoom(ctx, []byte(`{"action":"games/x01/score"}`), []string{"i:a", "i:b", "i:c"}, "")
	assert.Equal(t, Report{Delivered: 2, Gone: 1}, report)
	assert.Len(t, sender.received["i:a"], 1)
	assert.Len(t, sender.received["i:c"], 1)

	gone, err := mem.ReadUser(ctx, users[1].UserID)
	require.NoError(t, err)
	assert.False(t, gone.Online())

	still, err := mem.ReadUser(ctx, users[0].UserID)
	require.NoError(t, err)
	assert.True(t, still.Online())
}

func TestNotifyRoomSkipsOriginAndEmpty(t *testing.T) {
	sender := newFakeSender(map[string]error{"i:x": errors.New("socket closed unexpectedly")})
	n := NewNotifier(sender, connection.NewRegistry(store.NewMemoryStore(), nil), nil)

	report := n.NotifyRoom(context.Background(), []byte("{}"), []string{"", "i:me", "i:you", "i:you", "i:x"}, "i:me")
	assert.Equal(t, Report{Delivered: 1, Failed: 1}, report)
	assert.Empty(t, sender.received["i:me"])
	assert.Len(t, sender.received["i:you"], 1)
}
