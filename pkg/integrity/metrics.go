package integrity

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts integrity channel activity. A nil *Metrics records nothing.
type Metrics struct {
	frames      *prometheus.CounterVec
	connections *prometheus.CounterVec
	refused     *prometheus.CounterVec
	digests     prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbitra",
			Subsystem: "integrity",
			Name:      "frames_total",
			Help:      "Message frames received, by outcome and message type.",
		}, []string{"outcome", "type"}),
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbitra",
			Subsystem: "integrity",
			Name:      "connections_total",
			Help:      "Connections accepted, by endpoint.",
		}, []string{"endpoint"}),
		refused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbitra",
			Subsystem: "integrity",
			Name:      "connections_refused_total",
			Help:      "Connections closed because the endpoint was at its connection limit.",
		}, []string{"endpoint"}),
		digests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbitra",
			Subsystem: "integrity",
			Name:      "oracle_digests_total",
			Help:      "Digests answered by the hash oracle.",
		}),
	}

	for _, c := range []prometheus.Collector{m.frames, m.connections, m.refused, m.digests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeFrame(outcome Outcome, msgType string) {
	if m == nil {
		return
	}
	if !KnownTypes[msgType] && msgType != "" {
		msgType = "unknown"
	}
	m.frames.WithLabelValues(string(outcome), msgType).Inc()
}

func (m *Metrics) observeConnection(endpoint string) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) observeRefused(endpoint string) {
	if m == nil {
		return
	}
	m.refused.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) observeDigests(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.digests.Add(float64(n))
}
