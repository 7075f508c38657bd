package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the game counters. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	Actions        *prometheus.CounterVec
	ActionLatency  *prometheus.HistogramVec
	Deliveries     *prometheus.CounterVec
	MatchesMade    prometheus.Counter
	QueueSize      prometheus.Gauge
	OpenConnection prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewMetricsWith(namespace, reg, reg)
}

// NewMetricsWith registers on reg and serves from gatherer.
func NewMetricsWith(namespace string, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: gatherer,
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Actions processed by action and outcome",
		}, []string{"action", "outcome"}),
		ActionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_latency_seconds",
			Help:      "Time from receiving an action to saving its result",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"action"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Notifications sent to connections by result",
		}, []string{"result"}),
		MatchesMade: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_made_total",
			Help:      "Games created by matchmaking",
		}),
		QueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_size",
			Help:      "Players waiting in the matchmaking queue at the last tick",
		}),
		OpenConnection: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_connections",
			Help:      "Websocket connections held by this instance",
		}),
	}

	reg.MustRegister(
		m.Actions,
		m.ActionLatency,
		m.Deliveries,
		m.MatchesMade,
		m.QueueSize,
		m.OpenConnection,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAction(action, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(action, outcome).Inc()
	m.ActionLatency.WithLabelValues(action).Observe(took.Seconds())
}

func (m *Metrics) ObserveDelivery(result string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) IncMatches(n int) {
	if m == nil {
		return
	}
	m.MatchesMade.Add(float64(n))
}

func (m *Metrics) SetQueueSize(n int) {
	if m == nil {
		return
	}
	m.QueueSize.Set(float64(n))
}

func (m *Metrics) IncConnections() {
	if m == nil {
		return
	}
	m.OpenConnection.Inc()
}

func (m *Metrics) DecConnections() {
	if m == nil {
		return
	}
	m.OpenConnection.Dec()
}
