package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "wizmerge"

// metrics are registered on a per-server registry so that several servers
// can coexist in one process.
type metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	merges          prometheus.Counter
	conflicts       *prometheus.CounterVec
	prResolutions   *prometheus.CounterVec
	wsSessions      prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method", "status"},
		),
		merges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "merges_total",
			Help:      "Total number of three-way merges performed",
		}),
		conflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "conflicts_total",
				Help:      "Conflicts found, before (raw) and after (remaining) auto-resolution",
			},
			[]string{"stage"},
		),
		prResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "pr_resolutions_total",
				Help:      "Pull request resolution attempts by outcome",
			},
			[]string{"outcome"},
		),
		wsSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "websocket_sessions",
			Help:      "Open interactive resolution sessions",
		}),
	}
}

func (m *metrics) observeMerge(raw, remaining int) {
	m.merges.Inc()
	m.conflicts.WithLabelValues("raw").Add(float64(raw))
	m.conflicts.WithLabelValues("remaining").Add(float64(remaining))
}
