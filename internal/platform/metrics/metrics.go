package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	SignIns          *prometheus.CounterVec
	AccessDecisions  *prometheus.CounterVec
	GateLoadDuration *prometheus.HistogramVec
	ForcedLogouts    *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
	SweepDuration    prometheus.Histogram
	SweepExpired     prometheus.Counter
	WebsocketClients prometheus.Gauge
}

// New creates and registers all metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SignIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portalgate_sign_ins_total",
			Help: "Sign-in attempts by namespace and outcome",
		}, []string{"namespace", "outcome"}),
		AccessDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portalgate_access_decisions_total",
			Help: "Access gate decisions by namespace and terminal state",
		}, []string{"namespace", "state"}),
		GateLoadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portalgate_gate_load_duration_seconds",
			Help:    "Time from gate mount to leaving Loading",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"namespace"}),
		ForcedLogouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portalgate_forced_logouts_total",
			Help: "Forced logouts by reason",
		}, []string{"reason"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portalgate_notifications_total",
			Help: "Notifications delivered per sink and outcome",
		}, []string{"sink", "outcome"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "portalgate_sweep_duration_seconds",
			Help:    "Duration of one idle-session sweep",
			Buckets: prometheus.DefBuckets,
		}),
		SweepExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "portalgate_sweep_expired_sessions_total",
			Help: "Sessions ended by the idle sweeper",
		}),
		WebsocketClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "portalgate_websocket_clients",
			Help: "Connected notification websocket clients",
		}),
	}
}

func (m *Metrics) IncrementSignIn(namespace, outcome string) {
	m.SignIns.WithLabelValues(namespace, outcome).Inc()
}

func (m *Metrics) IncrementAccessDecision(namespace, state string) {
	m.AccessDecisions.WithLabelValues(namespace, state).Inc()
}

func (m *Metrics) ObserveGateLoad(namespace string, seconds float64) {
	m.GateLoadDuration.WithLabelValues(namespace).Observe(seconds)
}

func (m *Metrics) IncrementForcedLogout(reason string) {
	m.ForcedLogouts.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementNotification(sink, outcome string) {
	m.Notifications.WithLabelValues(sink, outcome).Inc()
}

func (m *Metrics) ObserveSweep(seconds float64, expired int) {
	m.SweepDuration.Observe(seconds)
	m.SweepExpired.Add(float64(expired))
}
