package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/notify"
	"github.com/nats-io/nats.go"
)

// Sender delivers payloads through the socket instance that owns the connection.
type Sender struct {
	Conn    *nats.Conn
	Timeout time.Duration
}

func NewSender(nc *nats.Conn, timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Sender{Conn: nc, Timeout: timeout}
}

// InstanceOf returns the socket instance part of a connection id.
func InstanceOf(connectionID string) (string, bool) {
	instance, _, ok := strings.Cut(connectionID, ":")
	return instance, ok && instance != ""
}

func (s *Sender) Send(ctx context.Context, connectionID string, payload []byte) error {
	instance, ok := InstanceOf(connectionID)
	if !ok {
		return fmt.Errorf("%w: malformed connection id %q", notify.ErrGone, connectionID)
	}

	data, err := json.Marshal(comm.DeliveryRequest{ConnectionId: connectionID, Payload: payload})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	reply, err := s.Conn.RequestWithContext(ctx, comm.DeliverSubject(instance), data)
	if errors.Is(err, nats.ErrNoResponders) {
		// the owning socket instance is gone and took the connection with it
		return fmt.Errorf("%w: no socket instance %s", notify.ErrGone, instance)
	}
	if err != nil {
		return fmt.Errorf("failed to deliver to %s: %w", connectionID, err)
	}

	return Receipt(reply.Data)
}

// Receipt turns a socket instance's answer into a delivery error.
func Receipt(data []byte) error {
	var r comm.DeliveryReceipt
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("failed to decode delivery receipt: %w", err)
	}

	switch r.Status {
	case comm.DeliveryOK:
		return nil
	case comm.DeliveryGone:
		return notify.ErrGone
	default:
		return fmt.Errorf("delivery failed: %s", r.Error)
	}
}
