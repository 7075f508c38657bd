package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/avvvet/darts-services/internal/gamesvc/store"
	"github.com/avvvet/darts-services/internal/x01"
)

// ActiveGame is an unfinished game a player is seated in.
type ActiveGame struct {
	GameId string `json:"GameId"`
	Status string `json:"Status"`
}

type GamePlayerService struct {
	store store.Store
}

func NewGamePlayerService(s store.Store) *GamePlayerService {
	return &GamePlayerService{store: s}
}

func (s *GamePlayerService) GetGamePlayers(ctx context.Context, gameID int64) ([]x01.Player, error) {
	players, err := s.store.ReadGamePlayers(ctx, gameID)
	if err != nil {
		return nil, x01.StoreError("read game players", err)
	}
	return players, nil
}

// ActiveGames lists the games of playerID that are not finished, oldest seat first.
func (s *GamePlayerService) ActiveGames(ctx context.Context, playerID string) ([]ActiveGame, error) {
	seats, err := s.store.ReadPlayerGames(ctx, playerID)
	if err != nil {
		return nil, x01.StoreError("read player games", err)
	}

	active := []ActiveGame{}
	for _, p := range x01.JoinOrder(seats) {
		game, err := s.store.ReadGame(ctx, p.GameID)
		if errors.Is(err, x01.ErrGameNotFound) {
			continue
		}
		if err != nil {
			return nil, x01.StoreError("read game", err)
		}
		if game.Status == x01.StatusFinished {
			continue
		}
		active = append(active, ActiveGame{GameId: strconv.FormatInt(game.GameID, 10), Status: game.Status.String()})
	}
	return active, nil
}
