package broker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/connection"
	"github.com/avvvet/darts-services/internal/gamestate"
	"github.com/avvvet/darts-services/internal/gamesvc/service"
	"github.com/avvvet/darts-services/internal/gamesvc/store"
	"github.com/avvvet/darts-services/internal/matchmaking"
	"github.com/avvvet/darts-services/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	sent map[string][][]byte
}

func (r *recorder) Send(_ context.Context, connectionID string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[connectionID] = append(r.sent[connectionID], payload)
	return nil
}

func (r *recorder) last(t *testing.T, connectionID string) map[string]json.RawMessage {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.sent[connectionID]
	require.NotEmpty(t, msgs, connectionID)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1], &env))
	return env
}

func newTestBroker() (*Broker, *recorder, *store.MemoryStore) {
	st := store.NewMemoryStore()
	reg := connection.NewRegistry(st, nil)
	rec := &recorder{sent: make(map[string][][]byte)}
	notifier := notify.NewNotifier(rec, reg, nil)
	games := service.NewGameService(gamestate.NewCache(st), reg, notifier, nil)
	queue := service.NewQueueService(reg, matchmaking.NewMatchmaker(matchmaking.NewMemoryQueue(), games, nil, nil))
	users := service.NewUserService(reg, service.NewGamePlayerService(st))
	return NewBroker(nil, users, games, queue, notifier, nil, 0), rec, st
}

func wsMessage(t *testing.T, action, socket, auth string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(comm.WSMessage{Type: action, Data: raw, SocketId: socket, AuthId: auth})
	require.NoError(t, err)
	return out
}

func TestDispatchConnect(t *testing.T) {
	b, rec, st := newTestBroker()

	b.Dispatch(wsMessage(t, comm.ActionConnect, "i1:c1", "auth-1", comm.ConnectMessage{UserName: "Ann", Country: "BE"}))

	env := rec.last(t, "i1:c1")
	assert.JSONEq(t, `"connect"`, string(env["action"]))

	var connected service.ConnectedResponse
	require.NoError(t, json.Unmarshal(env["message"], &connected))
	assert.Equal(t, "Ann", connected.UserName)
	assert.Equal(t, "i1:c1", connected.ConnectionId)

	u, err := st.ReadUserByAuthProviderID(context.Background(), "auth-1")
	require.NoError(t, err)
	assert.Equal(t, connected.UserId, u.UserID)
}

func TestDispatchErrors(t *testing.T) {
	b, rec, _ := newTestBroker()

	tests := []struct {
		name string
		data []byte
		code int
	}{
		{"unknown action", wsMessage(t, "games/x01/undo", "i1:c1", "", map[string]string{}), 400},
		{"bad body", wsMessage(t, comm.ActionScore, "i1:c1", "", "not an object"), 400},
		{"not connected", wsMessage(t, comm.ActionCreate, "i1:c1", "", comm.CreateMessage{PlayerId: "nobody", Sets: 1, Legs: 1}), 400},
		{"connect without auth", wsMessage(t, comm.ActionConnect, "i1:c1", "", comm.ConnectMessage{UserName: "Ann"}), 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.Dispatch(tt.data)

			env := rec.last(t, "i1:c1")
			assert.JSONEq(t, `"error"`, string(env["action"]))

			var m comm.ErrorMessage
			require.NoError(t, json.Unmarshal(env["message"], &m))
			assert.Equal(t, tt.code, m.Code)
		})
	}
}

func TestDispatchDisconnectIsSilent(t *testing.T) {
	b, rec, st := newTestBroker()

	b.Dispatch(wsMessage(t, comm.ActionConnect, "i1:c1", "auth-1", comm.ConnectMessage{UserName: "Ann"}))
	b.Dispatch(wsMessage(t, comm.ActionDisconnect, "i1:c1", "auth-1", struct{}{}))

	assert.Len(t, rec.sent["i1:c1"], 1)
	u, err := st.ReadUserByAuthProviderID(context.Background(), "auth-1")
	require.NoError(t, err)
	assert.False(t, u.Online())
}

func TestReceipt(t *testing.T) {
	assert.NoError(t, Receipt([]byte(`{"status":"ok"}`)))
	assert.ErrorIs(t, Receipt([]byte(`{"status":"gone"}`)), notify.ErrGone)
	assert.ErrorContains(t, Receipt([]byte(`{"status":"error","error":"write: broken pipe"}`)), "broken pipe")
	assert.Error(t, Receipt([]byte(`nope`)))
}

func TestInstanceOf(t *testing.T) {
	id, ok := InstanceOf("5f1c:7a2e-11")
	assert.True(t, ok)
	assert.Equal(t, "5f1c", id)

	_, ok = InstanceOf("no-instance")
	assert.False(t, ok)
	_, ok = InstanceOf(":abc")
	assert.False(t, ok)
}
