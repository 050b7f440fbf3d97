package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wget"

// Failure stages reported by FetchFailuresTotal.
const (
	StageParse    = "parse"
	StageConnect  = "connect"
	StageRequest  = "request"
	StageStatus   = "status"
	StageRedirect = "redirect"
	StageScheme   = "scheme"
)

// Metrics holds the client counters on a private registry, so several
// instances can coexist in one process.
type Metrics struct {
	registry               *prometheus.Registry
	RequestsTotal          *prometheus.CounterVec
	RedirectsTotal         prometheus.Counter
	ConnectionsOpenedTotal prometheus.Counter
	ConnectionsReusedTotal prometheus.Counter
	FetchFailuresTotal     *prometheus.CounterVec
	ResponseBodyBytesTotal prometheus.Counter
	BuildInfo              *prometheus.GaugeVec
}

// NewMetrics creates and registers every counter and sets build_info.
func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Responses received by status family",
		}, []string{"family"}),
		RedirectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Redirects followed",
		}),
		ConnectionsOpenedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_opened_total",
			Help:      "Transport connections established",
		}),
		ConnectionsReusedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_reused_total",
			Help:      "Requests served over a cached connection",
		}),
		FetchFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed URL fetches by stage",
		}, []string{"stage"}),
		ResponseBodyBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_body_bytes_total",
			Help:      "Body bytes received across all responses",
		}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		}, []string{"version", "commit"}),
	}
	r.MustRegister(
		m.RequestsTotal,
		m.RedirectsTotal,
		m.ConnectionsOpenedTotal,
		m.ConnectionsReusedTotal,
		m.FetchFailuresTotal,
		m.ResponseBodyBytesTotal,
		m.BuildInfo,
	)
	m.BuildInfo.WithLabelValues(Version, Commit).Set(1)
	return m
}

// Registry returns the registry the counters are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile dumps every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
