package proofrequest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts created requests and status transitions. A nil *Metrics records nothing.
type Metrics struct {
	createdTotal prometheus.Counter
	transitions  *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	active       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		createdTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proofbridge",
			Name:      "proof_requests_created_total",
			Help:      "Number of proof requests created with the verification service",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proofbridge",
			Name:      "proof_request_transitions_total",
			Help:      "Number of applied proof request status transitions",
		}, []string{"status", "source"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proofbridge",
			Name:      "proof_request_rejected_updates_total",
			Help:      "Number of status updates ignored because they would regress a request",
		}, []string{"source"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "proofbridge",
			Name:      "proof_requests_active",
			Help:      "Number of proof requests not yet in a terminal status",
		}),
	}

	for _, c := range []prometheus.Collector{m.createdTotal, m.transitions, m.rejected, m.active} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (r *Metrics) created(terminal bool) {
	if r == nil {
		return
	}
	r.createdTotal.Inc()
	if !terminal {
		r.active.Inc()
	}
}

// replaced drops an active request whose id was taken by a newer one.
func (r *Metrics) replaced() {
	if r == nil {
		return
	}
	r.active.Dec()
}

func (r *Metrics) observe(tr Transition) {
	if r == nil {
		return
	}

	switch tr.Outcome {
	case Rejected:
		r.rejected.WithLabelValues(tr.Source).Inc()
	case Advanced:
		r.transitions.WithLabelValues(string(tr.To), tr.Source).Inc()
		if tr.To.Terminal() && !tr.From.Terminal() {
			r.active.Dec()
		}
	}
}
