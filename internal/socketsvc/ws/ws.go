package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/socketsvc/broker"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Publisher forwards client messages to the game service.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Writer is the part of a websocket connection used for delivery.
type Writer interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
}

type client struct {
	mu     sync.Mutex // gorilla connections allow one writer at a time
	conn   Writer
	authID string
}

type Ws struct {
	InstanceId string
	connMap    sync.Map // connection id to *client
	Broker     Publisher
}

func NewWs(instanceId string) *Ws {
	return &Ws{InstanceId: instanceId}
}

// NewConnectionId returns an id that routes deliveries back to this instance.
func (s *Ws) NewConnectionId() string {
	return s.InstanceId + ":" + uuid.New().String()
}

// client actions accepted from web clients
var clientActions = map[string]bool{
	comm.ActionConnect:   true,
	comm.ActionCreate:    true,
	comm.ActionJoin:      true,
	comm.ActionScore:     true,
	comm.ActionJoinQueue: true,
}

// SocketMessage validates an envelope from a web client and forwards it to the game service.
func (s *Ws) SocketMessage(socketId string, raw []byte) error {
	env := comm.Envelope{}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("malformed envelope: %w", err)
	}
	if !clientActions[env.Action] {
		return fmt.Errorf("unknown action %q", env.Action)
	}

	c, ok := s.client(socketId)
	if !ok {
		return broker.ErrNoConnection
	}

	return s.forward(comm.WSMessage{
		Type:     env.Action,
		Data:     env.Message,
		SocketId: socketId,
		AuthId:   c.authID,
	})
}

func (s *Ws) forward(msg comm.WSMessage) error {
	bytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message for nats: %w", err)
	}

	if err := s.Broker.Publish(comm.SubjectSocketService, bytes); err != nil {
		return err
	}

	log.Debugf("forwarded %s from %s", msg.Type, msg.SocketId)
	return nil
}

func (s *Ws) StoreConnection(socketId, authId string, conn Writer) {
	s.connMap.Store(socketId, &client{conn: conn, authID: authId})
}

func (s *Ws) client(socketId string) (*client, bool) {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return c.(*client), true
}

// Deliver writes payload to socketId as one text frame.
func (s *Ws) Deliver(socketId string, payload []byte) error {
	c, ok := s.client(socketId)
	if !ok {
		return broker.ErrNoConnection
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// HandleDisconnect forgets socketId and tells the game service its user went offline.
func (s *Ws) HandleDisconnect(socketId string) {
	c, ok := s.client(socketId)
	if !ok {
		return
	}
	s.connMap.Delete(socketId)

	if err := s.forward(comm.WSMessage{Type: comm.ActionDisconnect, SocketId: socketId, AuthId: c.authID}); err != nil {
		log.Errorf("Failed to publish disconnect of %s: %v", socketId, err)
	}
}

// Count reports the open connections of this instance.
func (s *Ws) Count() int {
	n := 0
	s.connMap.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
