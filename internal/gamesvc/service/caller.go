package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/darts-services/internal/connection"
	"github.com/avvvet/darts-services/internal/x01"
)

// caller returns the user bound to connectionID. A connection may only act for its own user.
func caller(ctx context.Context, registry *connection.Registry, connectionID, playerID string) (x01.User, error) {
	user, err := registry.UserFor(ctx, connectionID)
	if errors.Is(err, x01.ErrUserNotFound) {
		return x01.User{}, fmt.Errorf("%w: connection %s has not connected", x01.ErrInvalidRequest, connectionID)
	}
	if err != nil {
		return x01.User{}, err
	}
	if user.UserID != playerID {
		return x01.User{}, fmt.Errorf("%w: connection %s cannot act for player %q", x01.ErrInvalidRequest, connectionID, playerID)
	}
	return user, nil
}
