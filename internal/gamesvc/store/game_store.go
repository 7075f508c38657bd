package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/darts-services/internal/x01"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type GameStore struct {
	db querier
}

func NewGameStore(db querier) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) GetGameByID(ctx context.Context, gameID int64) (x01.Game, error) {
	query := `
		SELECT game_id, player_count, status, sets, legs, starting_score, double_in, double_out,
		       meeting_identifier, created_at
		FROM games
		WHERE game_id = $1
	`

	var (
		g       x01.Game
		status  int
		meeting *string
	)
	err := s.db.QueryRow(ctx, query, gameID).Scan(
		&g.GameID,
		&g.PlayerCount,
		&status,
		&g.X01.Sets,
		&g.X01.Legs,
		&g.X01.StartingScore,
		&g.X01.DoubleIn,
		&g.X01.DoubleOut,
		&meeting,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return x01.Game{}, x01.ErrGameNotFound
		}
		return x01.Game{}, fmt.Errorf("failed to get game by ID: %w", err)
	}

	g.Status = x01.Status(status)
	if meeting != nil {
		id, err := uuid.Parse(*meeting)
		if err != nil {
			return x01.Game{}, fmt.Errorf("game %d has a malformed meeting identifier: %w", gameID, err)
		}
		g.MeetingIdentifier = &id
	}
	return g, nil
}

// UpsertGame writes the header. Status never moves backwards in storage either.
func (s *GameStore) UpsertGame(ctx context.Context, g x01.Game) error {
	const query = `
INSERT INTO games (game_id, player_count, status, sets, legs, starting_score, double_in, double_out,
                   meeting_identifier, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (game_id) DO UPDATE
SET player_count       = EXCLUDED.player_count,
    status             = GREATEST(games.status, EXCLUDED.status),
    meeting_identifier = EXCLUDED.meeting_identifier;
`
	var meeting *string
	if g.MeetingIdentifier != nil {
		m := g.MeetingIdentifier.String()
		meeting = &m
	}

	_, err := s.db.Exec(ctx, query,
		g.GameID,
		g.PlayerCount,
		int(g.Status),
		g.X01.Sets,
		g.X01.Legs,
		g.X01.StartingScore,
		g.X01.DoubleIn,
		g.X01.DoubleOut,
		meeting,
		g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game %d: %w", g.GameID, err)
	}
	return nil
}
