package ws

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/socketsvc/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []comm.WSMessage
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	if topic != comm.SubjectSocketService {
		return errors.New("unexpected topic " + topic)
	}
	var m comm.WSMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, m)
	return nil
}

type fakeConn struct {
	frames [][]byte
	err    error
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func TestConnectionIdCarriesInstance(t *testing.T) {
	s := NewWs("inst-1")
	id := s.NewConnectionId()
	assert.True(t, strings.HasPrefix(id, "inst-1:"))
	assert.NotEqual(t, id, s.NewConnectionId())
}

func TestSocketMessageForwards(t *testing.T) {
	pub := &fakePublisher{}
	s := NewWs("inst-1")
	s.Broker = pub
	s.StoreConnection("inst-1:a", "auth-a", &fakeConn{})

	err := s.SocketMessage("inst-1:a", []byte(`{"action":"games/x01/score","message":{"GameId":"1","PlayerId":"p","Input":60}}`))
	require.NoError(t, err)

	require.Len(t, pub.msgs, 1)
	m := pub.msgs[0]
	assert.Equal(t, comm.ActionScore, m.Type)
	assert.Equal(t, "inst-1:a", m.SocketId)
	assert.Equal(t, "auth-a", m.AuthId)
	assert.JSONEq(t, `{"GameId":"1","PlayerId":"p","Input":60}`, string(m.Data))
}

func TestSocketMessageRejects(t *testing.T) {
	pub := &fakePublisher{}
	s := NewWs("inst-1")
	s.Broker = pub
	s.StoreConnection("inst-1:a", "auth-a", &fakeConn{})

	assert.Error(t, s.SocketMessage("inst-1:a", []byte(`{nope`)))
	assert.Error(t, s.SocketMessage("inst-1:a", []byte(`{"action":"disconnect"}`)))
	assert.ErrorIs(t, s.SocketMessage("inst-1:zzz", []byte(`{"action":"connect","message":{}}`)), broker.ErrNoConnection)
	assert.Empty(t, pub.msgs)
}

func TestDeliverAndDisconnect(t *testing.T) {
	pub := &fakePublisher{}
	conn := &fakeConn{}
	s := NewWs("inst-1")
	s.Broker = pub
	s.StoreConnection("inst-1:a", "auth-a", conn)

	require.NoError(t, s.Deliver("inst-1:a", []byte(`{"action":"connect"}`)))
	assert.Len(t, conn.frames, 1)
	assert.Equal(t, 1, s.Count())

	s.HandleDisconnect("inst-1:a")
	s.HandleDisconnect("inst-1:a")

	assert.Zero(t, s.Count())
	assert.ErrorIs(t, s.Deliver("inst-1:a", []byte(`{}`)), broker.ErrNoConnection)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, comm.ActionDisconnect, pub.msgs[0].Type)
}
