package store

import (
	"context"
	"fmt"

	"github.com/avvvet/darts-services/internal/x01"
)

type GamePlayerStore struct {
	db querier
}

func NewGamePlayerStore(db querier) *GamePlayerStore {
	return &GamePlayerStore{db: db}
}

func (s *GamePlayerStore) GetPlayersByGameID(ctx context.Context, gameID int64) ([]x01.Player, error) {
	return s.list(ctx, `
		SELECT game_id, player_id, created_at
		FROM game_players
		WHERE game_id = $1
		ORDER BY created_at, player_id
	`, gameID)
}

func (s *GamePlayerStore) GetGamesByPlayerID(ctx context.Context, playerID string) ([]x01.Player, error) {
	return s.list(ctx, `
		SELECT game_id, player_id, created_at
		FROM game_players
		WHERE player_id = $1
		ORDER BY created_at
	`, playerID)
}

func (s *GamePlayerStore) list(ctx context.Context, query string, arg any) ([]x01.Player, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query game players: %w", err)
	}
	defer rows.Close()

	var players []x01.Player
	for rows.Next() {
		var gp x01.Player
		if err := rows.Scan(&gp.GameID, &gp.PlayerID, &gp.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, gp)
	}
	return players, rows.Err()
}

// AddGamePlayer records a join. Joining twice keeps the first join time.
func (s *GamePlayerStore) AddGamePlayer(ctx context.Context, p x01.Player) error {
	const query = `
INSERT INTO game_players (game_id, player_id, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (game_id, player_id) DO NOTHING;
`
	if _, err := s.db.Exec(ctx, query, p.GameID, p.PlayerID, p.CreatedAt); err != nil {
		return fmt.Errorf("failed to add player %s to game %d: %w", p.PlayerID, p.GameID, err)
	}
	return nil
}
