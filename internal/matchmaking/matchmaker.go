package matchmaking

import (
	"context"
	"errors"
	"sync"

	"github.com/avvvet/darts-services/internal/monitor"
	"github.com/avvvet/darts-services/internal/x01"
	log "github.com/sirupsen/logrus"
)

// Spawner turns a pair into a started game and tells both players about it.
type Spawner interface {
	SpawnMatch(ctx context.Context, p Pair) (x01.Game, error)
}

type Matchmaker struct {
	queue   QueueStore
	spawner Spawner
	policy  Policy
	metrics *monitor.Metrics

	// one tick at a time per process
	mu sync.Mutex
}

func NewMatchmaker(queue QueueStore, spawner Spawner, policy Policy, metrics *monitor.Metrics) *Matchmaker {
	if policy == nil {
		policy = BucketPolicy{}
	}
	return &Matchmaker{queue: queue, spawner: spawner, policy: policy, metrics: metrics}
}

// Join queues e, replacing an earlier entry of the same player.
func (m *Matchmaker) Join(ctx context.Context, e Entry) error {
	if e.PlayerID == "" {
		return errors.New("queue entry without player")
	}
	return m.queue.Add(ctx, e)
}

// Tick reads the current batch, pairs it and spawns a game per pair. Pairs whose game could
// not be created stay queued for the next tick. It returns the number of games created.
func (m *Matchmaker) Tick(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch, err := m.queue.List(ctx)
	if err != nil {
		return 0, err
	}
	m.metrics.SetQueueSize(len(batch))

	made := 0
	for _, p := range Match(batch, m.policy) {
		game, err := m.spawner.SpawnMatch(ctx, p)
		if err != nil {
			log.Errorf("Error spawning match for %s and %s: %s", p.Host.PlayerID, p.Guest.PlayerID, err)
			continue
		}
		if err := m.queue.Remove(ctx, p.Entries()); err != nil {
			log.Errorf("Error removing %v from queue after game %d: %s", p.PlayerIDs(), game.GameID, err)
		}
		log.Infof("matched %s and %s into game %d", p.Host.PlayerID, p.Guest.PlayerID, game.GameID)
		made++
	}

	m.metrics.IncMatches(made)
	return made, nil
}
