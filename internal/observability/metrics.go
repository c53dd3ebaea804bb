package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "remote_desktop"

type Metrics struct {
	registry       *prometheus.Registry
	ActiveSessions prometheus.Gauge
	SessionsTotal  *prometheus.CounterVec
	SessionEnds    *prometheus.CounterVec
	FramesSent     prometheus.Counter
	FrameBytes     prometheus.Counter
	FrameDuration  prometheus.Histogram
	InputEvents    *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live streaming sessions",
		}),
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Connection attempts by admission outcome",
		}, []string{"outcome"}),
		SessionEnds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_end_total",
			Help:      "Finished sessions by the reason the first loop stopped",
		}, []string{"reason"}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Frame messages written to clients",
		}),
		FrameBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_bytes_total",
			Help:      "Bytes of frame messages written to clients",
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Capture to transmit time per frame",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		InputEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_events_total",
			Help:      "Inbound client messages by kind and result",
		}, []string{"kind", "result"}),
	}
	r.MustRegister(m.ActiveSessions, m.SessionsTotal, m.SessionEnds, m.FramesSent,
		m.FrameBytes, m.FrameDuration, m.InputEvents)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
