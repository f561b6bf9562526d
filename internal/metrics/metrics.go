// Package metrics exposes the small set of Prometheus counters and
// gauges the host and guest managers update at state-transition points.
// Recording a metric is a plain atomic increment: it never blocks, never
// mutates protocol state, and is safe to call from the synchronous core.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the counters/gauges shared by one manager instance. A
// nil *Registry is valid and every method on it is a no-op, so callers
// that don't want metrics never have to special-case it.
type Registry struct {
	ticksFinalized   prometheus.Counter
	conflicts        prometheus.Counter
	messagesDropped  *prometheus.CounterVec
	sessionFrontier  prometheus.Gauge
	outboundMessages prometheus.Counter
}

// New constructs a Registry and registers its collectors with reg. Passing
// a fresh prometheus.NewRegistry() per session avoids collisions when
// more than one manager runs in the same process (as the demo CLI does).
func New(reg prometheus.Registerer, subsystem string) *Registry {
	r := &Registry{
		ticksFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lockstep",
			Subsystem: subsystem,
			Name:      "ticks_finalized_total",
			Help:      "Local-player ticks finalized via SubmitLocalInput.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lockstep",
			Subsystem: subsystem,
			Name:      "conflicting_finalize_total",
			Help:      "Conflicting finalize attempts rejected.",
		}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lockstep",
			Subsystem: subsystem,
			Name:      "messages_dropped_total",
			Help:      "Inbound wire messages dropped, by reason.",
		}, []string{"reason"}),
		sessionFrontier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lockstep",
			Subsystem: subsystem,
			Name:      "session_finalized_through",
			Help:      "Current session_finalized_through tick.",
		}),
		outboundMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lockstep",
			Subsystem: subsystem,
			Name:      "outbound_messages_total",
			Help:      "Outbound payloads produced by Broadcast/DrainOutboundBytes, one per destination peer.",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.ticksFinalized, r.conflicts, r.messagesDropped, r.sessionFrontier, r.outboundMessages)
	}
	return r
}

func (r *Registry) IncTicksFinalized(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.ticksFinalized.Add(float64(n))
}

func (r *Registry) IncConflict() {
	if r == nil {
		return
	}
	r.conflicts.Inc()
}

func (r *Registry) IncDropped(reason string) {
	if r == nil {
		return
	}
	r.messagesDropped.WithLabelValues(reason).Inc()
}

func (r *Registry) SetSessionFrontier(tick int64) {
	if r == nil {
		return
	}
	r.sessionFrontier.Set(float64(tick))
}

func (r *Registry) IncOutbound(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.outboundMessages.Add(float64(n))
}
