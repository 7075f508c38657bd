package gamestate

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/darts-services/internal/gamesvc/store"
	"github.com/avvvet/darts-services/internal/x01"
	log "github.com/sirupsen/logrus"
)

// Cache loads and flushes game aggregates. It holds no state between actions.
type Cache struct {
	store store.Store
}

func NewCache(s store.Store) *Cache {
	return &Cache{store: s}
}

// CreateInitial seeds the aggregate for a game that has never been stored.
func (c *Cache) CreateInitial(ctx context.Context, game x01.Game) (*State, error) {
	_, err := c.store.ReadGame(ctx, game.GameID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %d", x01.ErrGameExists, game.GameID)
	case !errors.Is(err, x01.ErrGameNotFound):
		return nil, x01.StoreError("read game", err)
	}
	return newState(game, nil, nil, nil), nil
}

// Load reads the header, roster, ledger and users of gameID.
func (c *Cache) Load(ctx context.Context, gameID int64) (*State, error) {
	game, err := c.store.ReadGame(ctx, gameID)
	if err != nil {
		return nil, x01.StoreError("read game", err)
	}

	players, err := c.store.ReadGamePlayers(ctx, gameID)
	if err != nil {
		return nil, x01.StoreError("read game players", err)
	}

	darts, err := c.store.ReadGameDarts(ctx, gameID)
	if err != nil {
		return nil, x01.StoreError("read game darts", err)
	}

	var users []x01.User
	if len(players) > 0 {
		ids := make([]string, 0, len(players))
		for _, p := range players {
			ids = append(ids, p.PlayerID)
		}
		users, err = c.store.ReadUsers(ctx, ids)
		if err != nil {
			return nil, x01.StoreError("read users", err)
		}
	}

	return newState(game, players, users, darts), nil
}

// Save flushes the header, the roster, users touched since load and throws not yet written.
// It runs to completion even when ctx is cancelled.
func (c *Cache) Save(ctx context.Context, s *State) error {
	ctx = context.WithoutCancel(ctx)

	b := store.Batch{
		Games:   []x01.Game{s.Game},
		Players: s.Players,
		Darts:   s.pendingDarts(),
		Users:   s.pendingUsers(),
	}
	if err := c.store.Write(ctx, b); err != nil {
		return x01.StoreError("save game", err)
	}

	log.WithFields(log.Fields{
		"game":  s.Game.GameID,
		"darts": len(b.Darts),
		"users": len(b.Users),
	}).Debug("game state saved")

	s.markSaved()
	return nil
}
