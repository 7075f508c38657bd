package comm

import (
	"encoding/json"

	"github.com/avvvet/darts-services/internal/x01"
)

// NATS subjects shared by the services.
const (
	SubjectSocketService = "socket.service"
	SubjectDeliverPrefix = "socket.deliver."
	QueueGameService     = "gamesvc"
)

// Actions carried in Envelope.Action.
const (
	ActionConnect    = "connect"
	ActionDisconnect = "disconnect"
	ActionCreate     = "games/x01/create"
	ActionJoin       = "games/x01/join"
	ActionScore      = "games/x01/score"
	ActionJoinQueue  = "games/x01/joinqueue"
	ActionQueueMatch = "games/x01/queue"
	ActionError      = "error"
)

// DeliverSubject is where the socket instance owning connections answers delivery requests.
func DeliverSubject(instanceID string) string {
	return SubjectDeliverPrefix + instanceID
}

// Envelope is the client facing wire format.
type Envelope struct {
	Action   string          `json:"action"`
	Message  json.RawMessage `json:"message,omitempty"`
	Metadata *x01.Metadata   `json:"metadata,omitempty"`
}

// NewEnvelope marshals message into an envelope.
func NewEnvelope(action string, message any, md *x01.Metadata) ([]byte, error) {
	raw, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Action: action, Message: raw, Metadata: md})
}

// WSMessage is what the socket service forwards on SubjectSocketService.
type WSMessage struct {
	Type     string          `json:"type"` // envelope action
	Data     json.RawMessage `json:"data"` // envelope message
	SocketId string          `json:"socketid"`
	AuthId   string          `json:"authid,omitempty"` // JWT subject of the connection
}

// DeliveryRequest asks a socket instance to write Payload to one of its connections.
type DeliveryRequest struct {
	ConnectionId string          `json:"connectionid"`
	Payload      json.RawMessage `json:"payload"`
}

// DeliveryReceipt answers a delivery request.
type DeliveryReceipt struct {
	Status string `json:"status"` // ok, gone or error
	Error  string `json:"error,omitempty"`
}

const (
	DeliveryOK    = "ok"
	DeliveryGone  = "gone"
	DeliveryError = "error"
)

type ErrorMessage struct {
	Code   int    `json:"code"`
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
}

type ConnectMessage struct {
	UserName string `json:"UserName"`
	Country  string `json:"Country"`
}

type ConnectedMessage struct {
	UserId       string `json:"UserId"`
	UserName     string `json:"UserName"`
	Country      string `json:"Country"`
	ConnectionId string `json:"ConnectionId"`
}

type CreateMessage struct {
	PlayerId string `json:"PlayerId"`
	Sets     int    `json:"Sets"`
	Legs     int    `json:"Legs"`
	GameId   string `json:"GameId,omitempty"`
}

type JoinMessage struct {
	GameId     string `json:"GameId"`
	PlayerId   string `json:"PlayerId"`
	PlayerName string `json:"PlayerName,omitempty"`
}

// ScoreMessage submits one visit. Score, when set, is the remaining score the client computed.
type ScoreMessage struct {
	GameId   string `json:"GameId"`
	PlayerId string `json:"PlayerId"`
	Input    int    `json:"Input"`
	Score    *int   `json:"Score,omitempty"`
}

type JoinQueueMessage struct {
	PlayerId string `json:"PlayerId"`
	Average  int    `json:"Average"`
	Sets     int    `json:"Sets"`
	Legs     int    `json:"Legs"`
}

type QueueMatchMessage struct {
	GameId string `json:"GameId"`
}
