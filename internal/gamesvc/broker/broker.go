package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/gamesvc/service"
	"github.com/avvvet/darts-services/internal/monitor"
	"github.com/avvvet/darts-services/internal/notify"
	"github.com/avvvet/darts-services/internal/x01"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn         *nats.Conn
	UserService  *service.UserService
	GameService  *service.GameService
	QueueService *service.QueueService
	Notifier     *notify.Notifier
	Metrics      *monitor.Metrics
	Timeout      time.Duration
}

func NewBroker(nc *nats.Conn, userService *service.UserService, gameService *service.GameService,
	queueService *service.QueueService, notifier *notify.Notifier, metrics *monitor.Metrics, timeout time.Duration) *Broker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Broker{
		Conn:         nc,
		UserService:  userService,
		GameService:  gameService,
		QueueService: queueService,
		Notifier:     notifier,
		Metrics:      metrics,
		Timeout:      timeout,
	}
}

// handles message coming from socket, one goroutine per action
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	go b.Dispatch(msgNat.Data)
}

// Dispatch runs one socket message to completion and answers the originating connection.
func (b *Broker) Dispatch(data []byte) {
	msg := comm.WSMessage{}
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := b.run(ctx, msg)
	b.Metrics.ObserveAction(msg.Type, outcome(err), time.Since(start))

	if msg.Type == comm.ActionDisconnect {
		if err != nil {
			log.Errorf("Error [UserService.Disconnect] %s", err)
		}
		return
	}

	var payload []byte
	if err != nil {
		log.WithFields(log.Fields{"action": msg.Type, "socket": msg.SocketId}).Warnf("action failed: %s", err)
		payload = service.ErrorEnvelope(msg.Type, err)
	} else if payload, err = resp.Envelope(); err != nil {
		log.Errorf("Error encoding %s response: %s", msg.Type, err)
		payload = service.ErrorEnvelope(msg.Type, err)
	}

	// the reply still goes out when the action ran out of time
	b.Notifier.Notify(context.WithoutCancel(ctx), payload, msg.SocketId)
}

func (b *Broker) run(ctx context.Context, msg comm.WSMessage) (resp service.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic handling %s from %s: %v", msg.Type, msg.SocketId, r)
			err = fmt.Errorf("internal error handling %s", msg.Type)
		}
	}()

	switch msg.Type {
	case comm.ActionConnect:
		var m comm.ConnectMessage
		if err := decode(msg.Data, &m); err != nil {
			return resp, err
		}
		return b.UserService.Connect(ctx, msg.AuthId, msg.SocketId, m)
	case comm.ActionDisconnect:
		return resp, b.UserService.Disconnect(ctx, msg.SocketId)
	case comm.ActionCreate:
		var m comm.CreateMessage
		if err := decode(msg.Data, &m); err != nil {
			return resp, err
		}
		return b.GameService.Create(ctx, msg.SocketId, m)
	case comm.ActionJoin:
		var m comm.JoinMessage
		if err := decode(msg.Data, &m); err != nil {
			return resp, err
		}
		return b.GameService.Join(ctx, msg.SocketId, m)
	case comm.ActionScore:
		var m comm.ScoreMessage
		if err := decode(msg.Data, &m); err != nil {
			return resp, err
		}
		return b.GameService.Score(ctx, msg.SocketId, m)
	case comm.ActionJoinQueue:
		var m comm.JoinQueueMessage
		if err := decode(msg.Data, &m); err != nil {
			return resp, err
		}
		return b.QueueService.JoinQueue(ctx, msg.SocketId, m)
	default:
		return resp, fmt.Errorf("%w: unknown action %q", x01.ErrInvalidRequest, msg.Type)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty message", x01.ErrInvalidRequest)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s", x01.ErrInvalidRequest, err)
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return fmt.Sprint(x01.StatusCode(err))
}

// consume message from socket service, load balanced over every gamesvc instance
func (b *Broker) QueueSubscribSocketService(topic, queueGroup string) (*nats.Subscription, error) {
	sub, err := b.Conn.QueueSubscribe(topic, queueGroup, b.handleMessage)
	if err != nil {
		return nil, err
	}

	return sub, nil
}
