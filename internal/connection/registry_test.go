package connection

import (
	"context"
	"testing"

	"github.com/avvvet/darts-services/internal/gamesvc/store"
	"github.com/avvvet/darts-services/internal/monitor"
	"github.com/avvvet/darts-services/internal/x01"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectCreatesOnce(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(store.NewMemoryStore(), nil)

	first, err := r.Connect(ctx, "auth-1", "i1:a", x01.Profile{UserName: "Ann", Country: "NL"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.UserID)
	assert.NotEqual(t, "auth-1", first.UserID)

	second, err := r.Connect(ctx, "auth-1", "i2:b", x01.Profile{})
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, "i2:b", second.ConnectionID)
	assert.Equal(t, "Ann", second.Profile.UserName)

	conn, err := r.ConnectionFor(ctx, first.UserID)
	require.NoError(t, err)
	assert.Equal(t, "i2:b", conn)
}

func TestClearConnection(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(store.NewMemoryStore(), nil)

	u, err := r.Connect(ctx, "auth-1", "i1:a", x01.Profile{})
	require.NoError(t, err)

	owner, err := r.UserFor(ctx, "i1:a")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, owner.UserID)

	require.NoError(t, r.ClearConnection(ctx, "i1:a"))
	conn, err := r.ConnectionFor(ctx, u.UserID)
	require.NoError(t, err)
	assert.Empty(t, conn)

	// clearing twice or clearing an unknown id is a no-op
	require.NoError(t, r.ClearConnection(ctx, "i1:a"))
	require.NoError(t, r.ClearConnection(ctx, ""))
}

func TestOpenConnectionsGauge(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := monitor.NewMetricsWith("darts", reg, reg)
	r := NewRegistry(store.NewMemoryStore(), m)
	open := func() float64 { return testutil.ToFloat64(m.OpenConnection) }

	_, err := r.Connect(ctx, "auth-1", "i1:a", x01.Profile{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, open())

	// connecting the same socket again, or moving to another socket, keeps one online user
	_, err = r.Connect(ctx, "auth-1", "i1:a", x01.Profile{})
	require.NoError(t, err)
	_, err = r.Connect(ctx, "auth-1", "i2:b", x01.Profile{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, open())

	// the old socket no longer owns the user
	require.NoError(t, r.ClearConnection(ctx, "i1:a"))
	assert.Equal(t, 1.0, open())

	require.NoError(t, r.ClearConnection(ctx, "i2:b"))
	require.NoError(t, r.ClearConnection(ctx, "i2:b"))
	require.NoError(t, r.ClearConnection(ctx, "i9:unknown"))
	assert.Equal(t, 0.0, open())

	_, err = r.Connect(ctx, "auth-1", "i3:c", x01.Profile{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, open())
}

func TestUpdateConnectionUnknownUser(t *testing.T) {
	r := NewRegistry(store.NewMemoryStore(), nil)
	_, err := r.UpdateConnection(context.Background(), "ghost", "i1:a")
	assert.ErrorIs(t, err, x01.ErrUserNotFound)
}

func TestUpdateConnectionMovesGauge(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := monitor.NewMetricsWith("darts", reg, reg)
	r := NewRegistry(store.NewMemoryStore(), m)

	u, err := r.Connect(ctx, "auth-1", "i1:a", x01.Profile{})
	require.NoError(t, err)

	_, err = r.UpdateConnection(ctx, u.UserID, "i2:b")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpenConnection))

	_, err = r.UpdateConnection(ctx, u.UserID, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OpenConnection))
}
