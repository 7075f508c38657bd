package service

import (
	"context"
	"strconv"

	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/connection"
	"github.com/avvvet/darts-services/internal/gamestate"
	"github.com/avvvet/darts-services/internal/matchmaking"
	"github.com/avvvet/darts-services/internal/notify"
	"github.com/avvvet/darts-services/internal/x01"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// GameService runs the game actions: load, mutate, derive, save, notify.
type GameService struct {
	cache    *gamestate.Cache
	registry *connection.Registry
	notifier *notify.Notifier
	locks    *GameLocks
}

func NewGameService(cache *gamestate.Cache, registry *connection.Registry, notifier *notify.Notifier, locks *GameLocks) *GameService {
	if locks == nil {
		locks = NewGameLocks()
	}
	return &GameService{cache: cache, registry: registry, notifier: notifier, locks: locks}
}

// Create starts a Qualifying game for two players with the creator on the roster.
func (s *GameService) Create(ctx context.Context, connectionID string, msg comm.CreateMessage) (Response, error) {
	settings, err := x01.NewSettings(msg.Sets, msg.Legs)
	if err != nil {
		return Response{}, err
	}

	user, err := caller(ctx, s.registry, connectionID, msg.PlayerId)
	if err != nil {
		return Response{}, err
	}

	meeting := uuid.New()
	st, err := s.cache.CreateInitial(ctx, x01.NewGame(2, settings, &meeting))
	if err != nil {
		return Response{}, err
	}
	st.AddPlayer(x01.NewPlayer(st.Game.GameID, user.UserID))
	st.AddUser(user)

	if err := s.cache.Save(ctx, st); err != nil {
		return Response{}, err
	}

	log.Infof("game %d created by %s (%d sets, %d legs)", st.Game.GameID, user.UserID, settings.Sets, settings.Legs)

	md := st.Metadata()
	msg.GameId = strconv.FormatInt(st.Game.GameID, 10)
	return Response{Action: comm.ActionCreate, Message: msg, Metadata: &md}, nil
}

// Join adds the player to the roster, or refreshes their connection when they are already on it.
// Every game action comes from the connection the player is bound to.
// The game starts once the roster is full.
func (s *GameService) Join(ctx context.Context, connectionID string, msg comm.JoinMessage) (Response, error) {
	gameID, err := x01.ParseGameID(msg.GameId)
	if err != nil {
		return Response{}, err
	}

	user, err := caller(ctx, s.registry, connectionID, msg.PlayerId)
	if err != nil {
		return Response{}, err
	}

	unlock, err := s.locks.Lock(ctx, gameID)
	if err != nil {
		return Response{}, err
	}
	defer unlock()

	st, err := s.cache.Load(ctx, gameID)
	if err != nil {
		return Response{}, err
	}

	switch {
	case st.Game.Status == x01.StatusFinished:
		return Response{}, staleGame("game %d is finished", gameID)
	case st.HasPlayer(user.UserID):
		log.Debugf("player %s rejoined game %d", user.UserID, gameID)
	case len(st.Players) >= st.Game.PlayerCount:
		return Response{}, staleGame("game %d is full", gameID)
	default:
		st.AddPlayer(x01.NewPlayer(gameID, user.UserID))
	}
	st.AddUser(user)

	if len(st.Players) >= st.Game.PlayerCount && st.Game.Advance(x01.StatusStarted) {
		log.Infof("game %d started", gameID)
	}

	if err := s.cache.Save(ctx, st); err != nil {
		return Response{}, err
	}

	md := st.Metadata()
	resp := Response{Action: comm.ActionJoin, Message: msg, Metadata: &md}
	s.broadcast(ctx, st, resp, connectionID)
	return resp, nil
}

// Score records one visit for the player whose turn it is.
func (s *GameService) Score(ctx context.Context, connectionID string, msg comm.ScoreMessage) (Response, error) {
	gameID, err := x01.ParseGameID(msg.GameId)
	if err != nil {
		return Response{}, err
	}

	if _, err := caller(ctx, s.registry, connectionID, msg.PlayerId); err != nil {
		return Response{}, err
	}

	unlock, err := s.locks.Lock(ctx, gameID)
	if err != nil {
		return Response{}, err
	}
	defer unlock()

	st, err := s.cache.Load(ctx, gameID)
	if err != nil {
		return Response{}, err
	}

	if st.Game.Status == x01.StatusFinished {
		return Response{}, staleGame("game %d is finished", gameID)
	}
	if !st.HasPlayer(msg.PlayerId) {
		return Response{}, invalidThrow("player %s is not in game %d", msg.PlayerId, gameID)
	}
	if md := st.Metadata(); md.NextPlayer == nil || *md.NextPlayer != msg.PlayerId {
		return Response{}, staleGame("it is not %s's turn in game %d", msg.PlayerId, gameID)
	}

	darts := st.Darts()
	set, leg := x01.Position(st.Game.X01, darts)
	remaining := x01.Remaining(st.Game.X01, darts, msg.PlayerId)
	gameScore, bust, err := x01.Evaluate(st.Game.X01, remaining, msg.Input)
	if err != nil {
		return Response{}, err
	}
	if msg.Score != nil && *msg.Score != gameScore {
		return Response{}, invalidThrow("remaining score %d does not match %d", *msg.Score, gameScore)
	}

	dart, err := st.AddDart(x01.Dart{
		ID:        uuid.New(),
		PlayerID:  msg.PlayerId,
		Score:     msg.Input,
		GameScore: gameScore,
		Set:       set,
		Leg:       leg,
		Bust:      bust,
	})
	if err != nil {
		return Response{}, err
	}

	if md := st.Metadata(); md.WinningPlayer != nil && st.Game.Advance(x01.StatusFinished) {
		log.Infof("game %d won by %s", gameID, *md.WinningPlayer)
	}

	if err := s.cache.Save(ctx, st); err != nil {
		return Response{}, err
	}

	log.WithFields(log.Fields{
		"game":   gameID,
		"player": msg.PlayerId,
		"input":  dart.Score,
		"left":   dart.GameScore,
		"bust":   dart.Bust,
	}).Debug("throw recorded")

	md := st.Metadata()
	msg.Score = &dart.GameScore
	resp := Response{Action: comm.ActionScore, Message: msg, Metadata: &md}
	s.broadcast(ctx, st, resp, connectionID)
	return resp, nil
}

// SpawnMatch creates a started game for a matched pair using the host's settings and tells both players.
func (s *GameService) SpawnMatch(ctx context.Context, p matchmaking.Pair) (x01.Game, error) {
	settings := p.Host.X01
	if settings.Sets < 1 || settings.Legs < 1 {
		settings = x01.DefaultSettings(3, 5)
	}

	meeting := uuid.New()
	game := x01.NewGame(2, settings, &meeting)
	game.Advance(x01.StatusStarted)

	st, err := s.cache.CreateInitial(ctx, game)
	if err != nil {
		return x01.Game{}, err
	}

	users, err := s.registry.Users(ctx, p.PlayerIDs())
	if err != nil {
		return x01.Game{}, err
	}

	for _, id := range p.PlayerIDs() {
		st.AddPlayer(x01.NewPlayer(game.GameID, id))
	}
	for _, u := range users {
		st.AddUser(u)
	}

	if err := s.cache.Save(ctx, st); err != nil {
		return x01.Game{}, err
	}

	md := st.Metadata()
	gameID := strconv.FormatInt(game.GameID, 10)
	s.broadcast(ctx, st, Response{
		Action:   comm.ActionQueueMatch,
		Message:  comm.QueueMatchMessage{GameId: gameID},
		Metadata: &md,
	}, "")
	return st.Game, nil
}

// broadcast sends resp to every connection of the roster except origin.
func (s *GameService) broadcast(ctx context.Context, st *gamestate.State, resp Response, origin string) {
	payload, err := resp.Envelope()
	if err != nil {
		log.Errorf("Error encoding %s broadcast for game %d: %s", resp.Action, st.Game.GameID, err)
		return
	}

	report := s.notifier.NotifyRoom(ctx, payload, st.ConnectionIDs(), origin)
	if report.Gone > 0 || report.Failed > 0 {
		log.Warnf("game %d %s broadcast: %d delivered, %d gone, %d failed", st.Game.GameID, resp.Action, report.Delivered, report.Gone, report.Failed)
	}
}
