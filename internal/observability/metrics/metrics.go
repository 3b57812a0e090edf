package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the intake conversation flow.
type IntakeMetrics struct {
	turnsTotal      *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	outcomesTotal   *prometheus.CounterVec
	selectionErrors prometheus.Counter
	activeSessions  prometheus.Gauge
	turnLatency     *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "intake",
			Name:      "turns_total",
			Help:      "Conversation turns processed, by state entered and result",
		}, []string{"state", "result"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "intake",
			Name:      "bookings_total",
			Help:      "Confirmed bookings by patient classification",
		}, []string{"classification"}),
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "intake",
			Name:      "side_effect_total",
			Help:      "Ledger, notification and directory outcomes after confirmation",
		}, []string{"step", "status"}),
		selectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "intake",
			Name:      "selection_errors_total",
			Help:      "Slot selections rejected as taken or malformed",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "intake",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory",
		}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "intake",
			Name:      "turn_latency_seconds",
			Help:      "Latency of processing one conversation turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.outcomesTotal, m.selectionErrors, m.activeSessions, m.turnLatency)
	return m
}

func (m *IntakeMetrics) ObserveTurn(state, result string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(state, result).Inc()
}

func (m *IntakeMetrics) ObserveBooking(classification string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(classification).Inc()
}

// ObserveOutcome records one post-confirmation step (ledger, notify, directory).
func (m *IntakeMetrics) ObserveOutcome(step string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.outcomesTotal.WithLabelValues(step, status).Inc()
}

func (m *IntakeMetrics) ObserveSelectionError() {
	if m == nil {
		return
	}
	m.selectionErrors.Inc()
}

func (m *IntakeMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *IntakeMetrics) ObserveTurnLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(kind).Observe(seconds)
}
