package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for slot, session and call flows.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reservations     *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	negotiation      *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	releaseRetries   *prometheus.CounterVec
	generatedCopy    *prometheus.CounterVec
	slotCacheLookups *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "ledger",
			Name:      "reservations_total",
			Help:      "Slot reservation attempts by outcome",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Session status transitions by operation and outcome",
		}, []string{"operation", "outcome"}),
		negotiation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "negotiation",
			Name:      "events_total",
			Help:      "Call negotiation operations by outcome",
		}, []string{"operation", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "therapy",
			Subsystem: "callprovider",
			Name:      "request_seconds",
			Help:      "Latency of call provider requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		releaseRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "lifecycle",
			Name:      "slot_release_total",
			Help:      "Slot releases after cancellation by path",
		}, []string{"path"}),
		generatedCopy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "intelligence",
			Name:      "copy_total",
			Help:      "Generated copy requests by kind and source",
		}, []string{"kind", "source"}),
		slotCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "ledger",
			Name:      "available_cache_total",
			Help:      "Available-slot cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservations, m.transitions, m.negotiation, m.providerLatency,
		m.releaseRetries, m.generatedCopy, m.slotCacheLookups)
	return m
}

func (m *Metrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTransition(operation string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) ObserveNegotiation(operation string, err error) {
	if m == nil {
		return
	}
	m.negotiation.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) ObserveProvider(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.providerLatency.WithLabelValues(operation, status).Observe(seconds)
}

// ObserveRelease records how a cancelled session's slot was freed:
// "inline", "queued", "worker" or "sweep".
func (m *Metrics) ObserveRelease(path string) {
	if m == nil {
		return
	}
	m.releaseRetries.WithLabelValues(path).Inc()
}

// ObserveCopy records whether generated text came from the model, the cache
// or the canned fallback.
func (m *Metrics) ObserveCopy(kind, source string) {
	if m == nil {
		return
	}
	m.generatedCopy.WithLabelValues(kind, source).Inc()
}

func (m *Metrics) ObserveSlotCache(hit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	m.slotCacheLookups.WithLabelValues(label).Inc()
}
