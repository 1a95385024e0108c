package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus counts outcomes in the replies_dispatch_total counter vector.
type Prometheus struct {
	dispatched *prometheus.CounterVec
}

// Ensure Prometheus satisfies the Recorder interface at compile time.
var _ Recorder = (*Prometheus)(nil)

// NewPrometheus registers the dispatch counter with reg, or with the default
// registerer when reg is nil. Registering twice reuses the first collector.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "replies",
		Name:      "dispatch_total",
		Help:      "Number of intercepted requests by outcome.",
	}, []string{"outcome"})

	if err := reg.Register(dispatched); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		dispatched = existing
	}

	return &Prometheus{dispatched: dispatched}, nil
}

// Observe increments the counter for outcome.
func (p *Prometheus) Observe(outcome string) {
	p.dispatched.WithLabelValues(outcome).Inc()
}
