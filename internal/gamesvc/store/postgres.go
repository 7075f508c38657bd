package store

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/darts-services/internal/x01"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id            BIGINT PRIMARY KEY,
	player_count       INT NOT NULL,
	status             SMALLINT NOT NULL DEFAULT 0,
	sets               INT NOT NULL,
	legs               INT NOT NULL,
	starting_score     INT NOT NULL,
	double_in          BOOLEAN NOT NULL DEFAULT FALSE,
	double_out         BOOLEAN NOT NULL DEFAULT TRUE,
	meeting_identifier TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS game_players (
	game_id    BIGINT NOT NULL REFERENCES games (game_id),
	player_id  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (game_id, player_id)
);
CREATE INDEX IF NOT EXISTS game_players_player_id_idx ON game_players (player_id);

CREATE TABLE IF NOT EXISTS game_darts (
	id         UUID PRIMARY KEY,
	game_id    BIGINT NOT NULL REFERENCES games (game_id),
	player_id  TEXT NOT NULL,
	score      INT NOT NULL,
	game_score INT NOT NULL CHECK (game_score >= 0),
	set_no     INT NOT NULL,
	leg_no     INT NOT NULL,
	seq        INT NOT NULL,
	bust       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT unique_game_seq UNIQUE (game_id, seq)
);

CREATE TABLE IF NOT EXISTS users (
	user_id               TEXT PRIMARY KEY,
	auth_provider_user_id TEXT NOT NULL UNIQUE,
	connection_id         TEXT NOT NULL DEFAULT '',
	user_name             TEXT NOT NULL DEFAULT '',
	country               TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS users_connection_id_idx ON users (connection_id);
`

// Postgres implements Store over a pgx pool.
type Postgres struct {
	pool    *pgxpool.Pool
	games   *GameStore
	players *GamePlayerStore
	darts   *GameDartStore
	users   *UserStore
}

// OpenPostgres dials dsn, verifies the pool and creates missing tables.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(dialCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	p := NewPostgres(pool)
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool:    pool,
		games:   NewGameStore(pool),
		players: NewGamePlayerStore(pool),
		darts:   NewGameDartStore(pool),
		users:   NewUserStore(pool),
	}
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// Migrate creates the tables when they are missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (p *Postgres) ReadGame(ctx context.Context, gameID int64) (x01.Game, error) {
	return p.games.GetGameByID(ctx, gameID)
}

func (p *Postgres) ReadGamePlayers(ctx context.Context, gameID int64) ([]x01.Player, error) {
	return p.players.GetPlayersByGameID(ctx, gameID)
}

func (p *Postgres) ReadGameDarts(ctx context.Context, gameID int64) ([]x01.Dart, error) {
	return p.darts.GetDartsByGameID(ctx, gameID)
}

func (p *Postgres) ReadPlayerGames(ctx context.Context, playerID string) ([]x01.Player, error) {
	return p.players.GetGamesByPlayerID(ctx, playerID)
}

func (p *Postgres) ReadUser(ctx context.Context, userID string) (x01.User, error) {
	return p.users.GetByID(ctx, userID)
}

func (p *Postgres) ReadUsers(ctx context.Context, userIDs []string) ([]x01.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return p.users.GetByIDs(ctx, userIDs)
}

func (p *Postgres) ReadUserByAuthProviderID(ctx context.Context, authProviderUserID string) (x01.User, error) {
	return p.users.GetByAuthProviderID(ctx, authProviderUserID)
}

func (p *Postgres) ReadUserByConnectionID(ctx context.Context, connectionID string) (x01.User, error) {
	return p.users.GetByConnectionID(ctx, connectionID)
}

// Write runs the whole batch in one transaction.
func (p *Postgres) Write(ctx context.Context, b Batch) error {
	if b.Empty() {
		return nil
	}

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		games, players, darts, users := NewGameStore(tx), NewGamePlayerStore(tx), NewGameDartStore(tx), NewUserStore(tx)

		for _, g := range b.Games {
			if err := games.UpsertGame(ctx, g); err != nil {
				return err
			}
		}
		for _, u := range b.Users {
			if err := users.UpsertUser(ctx, u); err != nil {
				return err
			}
		}
		for _, pl := range b.Players {
			if err := players.AddGamePlayer(ctx, pl); err != nil {
				return err
			}
		}
		for _, d := range b.Darts {
			if err := darts.AppendDart(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})
}
