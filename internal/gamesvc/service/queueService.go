package service

import (
	"context"
	"time"

	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/connection"
	"github.com/avvvet/darts-services/internal/matchmaking"
	"github.com/avvvet/darts-services/internal/x01"
	log "github.com/sirupsen/logrus"
)

// QueueService puts players into the matchmaking queue. Pairing happens on the matchmaker tick.
type QueueService struct {
	registry   *connection.Registry
	matchmaker *matchmaking.Matchmaker
}

func NewQueueService(registry *connection.Registry, matchmaker *matchmaking.Matchmaker) *QueueService {
	return &QueueService{registry: registry, matchmaker: matchmaker}
}

func (s *QueueService) JoinQueue(ctx context.Context, connectionID string, msg comm.JoinQueueMessage) (Response, error) {
	sets, legs := msg.Sets, msg.Legs
	if sets == 0 && legs == 0 {
		sets, legs = 3, 5
	}
	settings, err := x01.NewSettings(sets, legs)
	if err != nil {
		return Response{}, err
	}

	user, err := caller(ctx, s.registry, connectionID, msg.PlayerId)
	if err != nil {
		return Response{}, err
	}

	err = s.matchmaker.Join(ctx, matchmaking.Entry{
		PlayerID:     user.UserID,
		ConnectionID: connectionID,
		Average:      msg.Average,
		X01:          settings,
		Joined:       time.Now().UTC(),
	})
	if err != nil {
		return Response{}, x01.StoreError("join queue", err)
	}

	log.Debugf("player %s queued with average %d", user.UserID, msg.Average)
	return Response{Action: comm.ActionJoinQueue, Message: msg}, nil
}
