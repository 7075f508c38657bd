package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/avvvet/darts-services/internal/monitor"
	log "github.com/sirupsen/logrus"
)

// ErrGone reports that a connection no longer exists on the transport.
var ErrGone = errors.New("connection gone")

// Sender delivers one payload to one connection.
type Sender interface {
	Send(ctx context.Context, connectionID string, payload []byte) error
}

// Offliner marks the owner of a connection offline.
type Offliner interface {
	ClearConnection(ctx context.Context, connectionID string) error
}

const (
	ResultOK    = "ok"
	ResultGone  = "gone"
	ResultError = "error"
)

// Report counts the outcome of one broadcast.
type Report struct {
	Delivered int
	Gone      int
	Failed    int
}

type Notifier struct {
	sender   Sender
	offliner Offliner
	metrics  *monitor.Metrics
}

func NewNotifier(sender Sender, offliner Offliner, metrics *monitor.Metrics) *Notifier {
	return &Notifier{sender: sender, offliner: offliner, metrics: metrics}
}

// NotifyRoom sends payload to every connection except empty ids and origin. Failures never
// stop the broadcast; gone connections are cleared from the registry.
func (n *Notifier) NotifyRoom(ctx context.Context, payload []byte, connectionIDs []string, origin string) Report {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report Report
		seen   = make(map[string]bool, len(connectionIDs))
	)

	for _, id := range connectionIDs {
		if id == "" || id == origin || seen[id] {
			continue
		}
		seen[id] = true

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			result := n.Notify(ctx, payload, id)

			mu.Lock()
			defer mu.Unlock()
			switch result {
			case ResultOK:
				report.Delivered++
			case ResultGone:
				report.Gone++
			default:
				report.Failed++
			}
		}(id)
	}

	wg.Wait()
	return report
}

// Notify sends payload to a single connection and returns one of the Result constants.
func (n *Notifier) Notify(ctx context.Context, payload []byte, connectionID string) string {
	err := n.sender.Send(ctx, connectionID, payload)
	switch {
	case err == nil:
		n.metrics.ObserveDelivery(ResultOK)
		return ResultOK
	case errors.Is(err, ErrGone):
		n.metrics.ObserveDelivery(ResultGone)
		log.Infof("connection %s is gone, marking its user offline", connectionID)
		// the clear must land even if the broadcast is being cancelled
		if err := n.offliner.ClearConnection(context.WithoutCancel(ctx), connectionID); err != nil {
			log.Errorf("Error clearing connection %s: %s", connectionID, err)
		}
		return ResultGone
	default:
		n.metrics.ObserveDelivery(ResultError)
		log.Errorf("Error delivering to connection %s: %s", connectionID, err)
		return ResultError
	}
}
