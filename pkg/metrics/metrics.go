// Package metrics exposes Prometheus instrumentation for the runtime,
// grounded on cuemby-warren's use of github.com/prometheus/client_golang
// (there: cluster/container metrics; here: message-runtime metrics).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector wraps the Prometheus instruments the runtime updates from its
// dispatcher and delivery handlers. A nil *Collector is
// valid and every method is a no-op, so instrumentation is fully optional.
type Collector struct {
	queueDepth     prometheus.Gauge
	inFlight       prometheus.Gauge
	messagesTotal  *prometheus.CounterVec
	droppedTotal   *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its instruments with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentmesh_queue_depth",
			Help: "Number of envelopes currently queued, awaiting dispatch.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentmesh_in_flight_deliveries",
			Help: "Number of delivery goroutines currently running.",
		}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentmesh_messages_total",
			Help: "Total envelopes processed by the dispatcher, by variant.",
		}, []string{"variant"}),
		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentmesh_messages_dropped_total",
			Help: "Total messages that never reached a handler, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(c.queueDepth, c.inFlight, c.messagesTotal, c.droppedTotal)
	return c
}

// SetQueueDepth records the current queue length.
func (c *Collector) SetQueueDepth(n int) {
	if c == nil {
		return
	}
	c.queueDepth.Set(float64(n))
}

// IncInFlight records a delivery goroutine starting.
func (c *Collector) IncInFlight() {
	if c == nil {
		return
	}
	c.inFlight.Inc()
}

// DecInFlight records a delivery goroutine finishing.
func (c *Collector) DecInFlight() {
	if c == nil {
		return
	}
	c.inFlight.Dec()
}

// CountMessage records one dispatched envelope of the given variant
// ("send", "publish", or "response").
func (c *Collector) CountMessage(variant string) {
	if c == nil {
		return
	}
	c.messagesTotal.WithLabelValues(variant).Inc()
}

// CountDropped records one message that never reached a handler, tagged
// with why ("intervention", "cancelled", "recipient_not_found").
func (c *Collector) CountDropped(reason string) {
	if c == nil {
		return
	}
	c.droppedTotal.WithLabelValues(reason).Inc()
}
