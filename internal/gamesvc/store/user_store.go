package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/darts-services/internal/x01"
	"github.com/jackc/pgx/v5"
)

type UserStore struct {
	db querier
}

func NewUserStore(db querier) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `user_id, auth_provider_user_id, connection_id, user_name, country, created_at`

func scanUser(row pgx.Row) (x01.User, error) {
	var u x01.User
	err := row.Scan(
		&u.UserID,
		&u.AuthProviderUserID,
		&u.ConnectionID,
		&u.Profile.UserName,
		&u.Profile.Country,
		&u.CreatedAt,
	)
	return u, err
}

func (r *UserStore) getOne(ctx context.Context, where string, arg any) (x01.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return x01.User{}, x01.ErrUserNotFound
		}
		return x01.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserStore) GetByID(ctx context.Context, id string) (x01.User, error) {
	return r.getOne(ctx, `user_id = $1`, id)
}

func (r *UserStore) GetByAuthProviderID(ctx context.Context, id string) (x01.User, error) {
	return r.getOne(ctx, `auth_provider_user_id = $1`, id)
}

func (r *UserStore) GetByConnectionID(ctx context.Context, connectionID string) (x01.User, error) {
	if connectionID == "" {
		return x01.User{}, x01.ErrUserNotFound
	}
	return r.getOne(ctx, `connection_id = $1 LIMIT 1`, connectionID)
}

func (r *UserStore) GetByIDs(ctx context.Context, ids []string) ([]x01.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []x01.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserStore) UpsertUser(ctx context.Context, u x01.User) error {
	query := `
        INSERT INTO users (` + userColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id) DO UPDATE
        SET connection_id = EXCLUDED.connection_id,
            user_name     = EXCLUDED.user_name,
            country       = EXCLUDED.country;
    `
	_, err := r.db.Exec(ctx, query, u.UserID, u.AuthProviderUserID, u.ConnectionID, u.Profile.UserName, u.Profile.Country, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not upsert user %s: %w", u.UserID, err)
	}
	return nil
}
