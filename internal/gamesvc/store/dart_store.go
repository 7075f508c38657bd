package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/darts-services/internal/x01"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type GameDartStore struct {
	db querier
}

func NewGameDartStore(db querier) *GameDartStore {
	return &GameDartStore{db: db}
}

func (s *GameDartStore) GetDartsByGameID(ctx context.Context, gameID int64) ([]x01.Dart, error) {
	query := `
		SELECT id, game_id, player_id, score, game_score, set_no, leg_no, seq, bust, created_at
		FROM game_darts
		WHERE game_id = $1
		ORDER BY seq
	`

	rows, err := s.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query darts of game %d: %w", gameID, err)
	}
	defer rows.Close()

	var darts []x01.Dart
	for rows.Next() {
		var d x01.Dart
		err := rows.Scan(
			&d.ID,
			&d.GameID,
			&d.PlayerID,
			&d.Score,
			&d.GameScore,
			&d.Set,
			&d.Leg,
			&d.Seq,
			&d.Bust,
			&d.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		darts = append(darts, d)
	}
	return darts, rows.Err()
}

// AppendDart inserts a throw. Rewriting the same id is a no-op; another throw holding
// the same (game_id, seq) means a concurrent writer got there first.
func (s *GameDartStore) AppendDart(ctx context.Context, d x01.Dart) error {
	const query = `
INSERT INTO game_darts (id, game_id, player_id, score, game_score, set_no, leg_no, seq, bust, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING;
`
	_, err := s.db.Exec(ctx, query,
		d.ID.String(),
		d.GameID,
		d.PlayerID,
		d.Score,
		d.GameScore,
		d.Set,
		d.Leg,
		d.Seq,
		d.Bust,
		d.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "unique_game_seq" {
			return fmt.Errorf("%w: throw %d of game %d already recorded", x01.ErrStaleGame, d.Seq, d.GameID)
		}
		return fmt.Errorf("failed to append dart to game %d: %w", d.GameID, err)
	}
	return nil
}
