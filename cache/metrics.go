package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional, additive set of Prometheus collectors a Container
// reports into every tick. Nothing in the Container's behavior depends on
// Metrics being present; it exists purely for operational visibility, the
// same posture the teacher gives its own controller metrics.
type Metrics struct {
	ticks         prometheus.Counter
	communicators prometheus.Gauge
	resolverDepth prometheus.Gauge
	dispatchDepth prometheus.Gauge
}

// NewMetrics builds a Metrics bundle and registers it with reg. namespace
// prefixes every collector, e.g. "data_communicator_ticks_total".
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of Container.Step calls.",
		}),
		communicators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "communicators",
			Help:      "Number of communicators currently registered with the container.",
		}),
		resolverDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resolver_in_flight",
			Help:      "Number of storage operations currently in flight.",
		}),
		dispatchDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_in_flight",
			Help:      "Number of dispatch sends currently in flight.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ticks, m.communicators, m.resolverDepth, m.dispatchDepth)
	}
	return m
}
