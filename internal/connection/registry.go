package connection

import (
	"context"
	"errors"

	"github.com/avvvet/darts-services/internal/gamesvc/store"
	"github.com/avvvet/darts-services/internal/monitor"
	"github.com/avvvet/darts-services/internal/x01"
	log "github.com/sirupsen/logrus"
)

// Registry maps users to their current transport connection. An empty connection id means offline.
// The open connections gauge counts online users, so it moves only when a user goes on or offline.
type Registry struct {
	store   store.Store
	metrics *monitor.Metrics
}

func NewRegistry(s store.Store, metrics *monitor.Metrics) *Registry {
	return &Registry{store: s, metrics: metrics}
}

// Connect resolves the user behind authProviderUserID, creating it on first sight, and binds connectionID.
func (r *Registry) Connect(ctx context.Context, authProviderUserID, connectionID string, profile x01.Profile) (x01.User, error) {
	u, err := r.store.ReadUserByAuthProviderID(ctx, authProviderUserID)
	wasOnline := err == nil && u.Online()
	switch {
	case errors.Is(err, x01.ErrUserNotFound):
		u = x01.NewUser(authProviderUserID, connectionID, profile)
		log.Infof("creating user %s for auth provider id %s", u.UserID, authProviderUserID)
	case err != nil:
		return x01.User{}, x01.StoreError("read user by auth provider id", err)
	default:
		u.ConnectionID = connectionID
		if profile.UserName != "" {
			u.Profile.UserName = profile.UserName
		}
		if profile.Country != "" {
			u.Profile.Country = profile.Country
		}
	}

	if err := r.store.Write(ctx, store.Batch{Users: []x01.User{u}}); err != nil {
		return x01.User{}, x01.StoreError("write user", err)
	}
	if !wasOnline && u.Online() {
		r.metrics.IncConnections()
	}
	return u, nil
}

// UpdateConnection binds connectionID to userID.
func (r *Registry) UpdateConnection(ctx context.Context, userID, connectionID string) (x01.User, error) {
	u, err := r.store.ReadUser(ctx, userID)
	if err != nil {
		return x01.User{}, x01.StoreError("read user", err)
	}
	if u.ConnectionID == connectionID {
		return u, nil
	}

	wasOnline := u.Online()
	u.ConnectionID = connectionID
	if err := r.store.Write(ctx, store.Batch{Users: []x01.User{u}}); err != nil {
		return x01.User{}, x01.StoreError("write user", err)
	}
	switch {
	case !wasOnline && u.Online():
		r.metrics.IncConnections()
	case wasOnline && !u.Online():
		r.metrics.DecConnections()
	}
	return u, nil
}

// ConnectionFor returns the live connection of userID, empty when offline.
func (r *Registry) ConnectionFor(ctx context.Context, userID string) (string, error) {
	u, err := r.store.ReadUser(ctx, userID)
	if err != nil {
		return "", x01.StoreError("read user", err)
	}
	return u.ConnectionID, nil
}

// UserFor returns the user currently bound to connectionID.
func (r *Registry) UserFor(ctx context.Context, connectionID string) (x01.User, error) {
	u, err := r.store.ReadUserByConnectionID(ctx, connectionID)
	if err != nil {
		return x01.User{}, x01.StoreError("read user by connection id", err)
	}
	return u, nil
}

// ClearConnection marks the owner of connectionID offline. Unknown ids are ignored.
func (r *Registry) ClearConnection(ctx context.Context, connectionID string) error {
	if connectionID == "" {
		return nil
	}

	u, err := r.store.ReadUserByConnectionID(ctx, connectionID)
	if errors.Is(err, x01.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return x01.StoreError("read user by connection id", err)
	}

	u.ConnectionID = ""
	if err := r.store.Write(ctx, store.Batch{Users: []x01.User{u}}); err != nil {
		return x01.StoreError("write user", err)
	}
	r.metrics.DecConnections()
	log.Debugf("user %s is offline, connection %s cleared", u.UserID, connectionID)
	return nil
}

// Users returns the stored users among userIDs.
func (r *Registry) Users(ctx context.Context, userIDs []string) ([]x01.User, error) {
	users, err := r.store.ReadUsers(ctx, userIDs)
	if err != nil {
		return nil, x01.StoreError("read users", err)
	}
	return users, nil
}
