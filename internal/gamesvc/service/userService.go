package service

import (
	"context"
	"fmt"

	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/connection"
	"github.com/avvvet/darts-services/internal/x01"
	log "github.com/sirupsen/logrus"
)

// ConnectedResponse is returned on connect: the resolved user and the games they can resume.
type ConnectedResponse struct {
	comm.ConnectedMessage
	ActiveGames []ActiveGame `json:"ActiveGames"`
}

// UserService binds authenticated connections to users.
type UserService struct {
	registry *connection.Registry
	players  *GamePlayerService
}

func NewUserService(registry *connection.Registry, players *GamePlayerService) *UserService {
	return &UserService{registry: registry, players: players}
}

// Connect gets or creates the user behind authID and records connectionID as their live connection.
func (s *UserService) Connect(ctx context.Context, authID, connectionID string, msg comm.ConnectMessage) (Response, error) {
	if authID == "" {
		return Response{}, fmt.Errorf("%w: connection %s has no authenticated user", x01.ErrInvalidRequest, connectionID)
	}

	user, err := s.registry.Connect(ctx, authID, connectionID, x01.Profile{UserName: msg.UserName, Country: msg.Country})
	if err != nil {
		return Response{}, err
	}

	active, err := s.players.ActiveGames(ctx, user.UserID)
	if err != nil {
		log.Errorf("Error reading active games of %s: %s", user.UserID, err)
	}

	return Response{
		Action: comm.ActionConnect,
		Message: ConnectedResponse{
			ConnectedMessage: comm.ConnectedMessage{
				UserId:       user.UserID,
				UserName:     user.Profile.UserName,
				Country:      user.Profile.Country,
				ConnectionId: connectionID,
			},
			ActiveGames: active,
		},
	}, nil
}

// Disconnect marks the owner of connectionID offline.
func (s *UserService) Disconnect(ctx context.Context, connectionID string) error {
	return s.registry.ClearConnection(ctx, connectionID)
}
