package store

import (
	"context"

	"github.com/avvvet/darts-services/internal/x01"
)

// Store is the keyed persistence boundary of the game service.
// Reads return x01 NotFound sentinels for absent single records. Writes are upserts,
// except darts which are append-only and conflict on (game, seq) with x01.ErrStaleGame.
type Store interface {
	ReadGame(ctx context.Context, gameID int64) (x01.Game, error)
	ReadGamePlayers(ctx context.Context, gameID int64) ([]x01.Player, error)
	ReadGameDarts(ctx context.Context, gameID int64) ([]x01.Dart, error)
	ReadPlayerGames(ctx context.Context, playerID string) ([]x01.Player, error)

	ReadUser(ctx context.Context, userID string) (x01.User, error)
	ReadUsers(ctx context.Context, userIDs []string) ([]x01.User, error)
	ReadUserByAuthProviderID(ctx context.Context, authProviderUserID string) (x01.User, error)
	ReadUserByConnectionID(ctx context.Context, connectionID string) (x01.User, error)

	Write(ctx context.Context, b Batch) error
}

// Batch groups records persisted together.
type Batch struct {
	Games   []x01.Game
	Players []x01.Player
	Darts   []x01.Dart
	Users   []x01.User
}

func (b Batch) Empty() bool {
	return len(b.Games) == 0 && len(b.Players) == 0 && len(b.Darts) == 0 && len(b.Users) == 0
}
