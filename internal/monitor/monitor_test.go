package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWith("darts", reg, reg)

	m.ObserveAction("games/x01/score", "ok", 3*time.Millisecond)
	m.ObserveAction("games/x01/score", "ok", time.Millisecond)
	m.ObserveDelivery("gone")
	m.IncMatches(2)
	m.SetQueueSize(5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Actions.WithLabelValues("games/x01/score", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deliveries.WithLabelValues("gone")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MatchesMade))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.QueueSize))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "darts_matches_made_total 2"))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAction("connect", "ok", time.Second)
	m.ObserveDelivery("ok")
	m.IncMatches(1)
	m.SetQueueSize(1)
	m.IncConnections()
	m.DecConnections()
	assert.NotNil(t, m.Handler())
}
