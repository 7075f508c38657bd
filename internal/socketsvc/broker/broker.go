package broker

import (
	"encoding/json"
	"errors"

	"github.com/avvvet/darts-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// ErrNoConnection reports that the connection is not held by this instance.
var ErrNoConnection = errors.New("no such connection")

type Broker struct {
	Conn    *nats.Conn
	Deliver func(connectionID string, payload []byte) error
}

func NewBroker(conn *nats.Conn, fncDeliver func(string, []byte) error) *Broker {
	return &Broker{
		Conn:    conn,
		Deliver: fncDeliver,
	}
}

// consume delivery requests addressed to this instance
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleDelivery)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// publish message to game service
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

func (b *Broker) handleDelivery(msgNats *nats.Msg) {
	receipt := b.HandleDelivery(msgNats.Data)

	data, err := json.Marshal(receipt)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	if err := msgNats.Respond(data); err != nil {
		log.Errorf("Error answering delivery request: %s", err)
	}
}

// HandleDelivery writes one delivery request to its connection and reports the outcome.
func (b *Broker) HandleDelivery(data []byte) comm.DeliveryReceipt {
	req := comm.DeliveryRequest{}
	if err := json.Unmarshal(data, &req); err != nil {
		log.Errorf("Error decoding delivery request: %s", err)
		return comm.DeliveryReceipt{Status: comm.DeliveryError, Error: err.Error()}
	}

	err := b.Deliver(req.ConnectionId, req.Payload)
	switch {
	case err == nil:
		return comm.DeliveryReceipt{Status: comm.DeliveryOK}
	case errors.Is(err, ErrNoConnection):
		return comm.DeliveryReceipt{Status: comm.DeliveryGone}
	default:
		log.Warnf("delivery to %s failed: %s", req.ConnectionId, err)
		return comm.DeliveryReceipt{Status: comm.DeliveryError, Error: err.Error()}
	}
}
