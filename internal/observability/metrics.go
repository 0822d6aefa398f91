package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Metrics holds the Prometheus collectors for the service. Every method is
// safe on a nil receiver so components can run without metrics in tests.
type Metrics struct {
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	duplicateChecks  *prometheus.CounterVec
	ticketsCreated   *prometheus.CounterVec
	macros           *prometheus.CounterVec
	polls            *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfl_intake",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, partitioned by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mfl_intake",
			Name:      "http_request_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfl_intake",
			Name:      "http_errors_total",
			Help:      "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfl_intake",
			Name:      "upstream_requests_total",
			Help:      "Calls to external APIs by service, operation and outcome.",
		}, []string{"service", "operation", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mfl_intake",
			Name:      "upstream_request_seconds",
			Help:      "External API latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"service", "operation"}),
		duplicateChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfl_intake",
			Name:      "duplicate_checks_total",
			Help:      "Duplicate phone checks by resulting workflow state.",
		}, []string{"state"}),
		ticketsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfl_intake",
			Name:      "tickets_created_total",
			Help:      "Ticket creation attempts by outcome.",
		}, []string{"outcome"}),
		macros: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfl_intake",
			Name:      "macro_applications_total",
			Help:      "Macro applications by trigger status and outcome.",
		}, []string{"trigger", "outcome"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfl_intake",
			Name:      "status_polls_total",
			Help:      "Status monitor poll cycles by outcome.",
		}, []string{"outcome"}),
	}

	collectors := []prometheus.Collector{
		m.requests, m.requestDuration, m.errors,
		m.upstreamCalls, m.upstreamDuration,
		m.duplicateChecks, m.ticketsCreated, m.macros, m.polls,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// ObserveUpstream records one external API call.
func (m *Metrics) ObserveUpstream(service, operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if duration < 0 {
		duration = 0
	}
	m.upstreamCalls.WithLabelValues(service, operation, outcome).Inc()
	m.upstreamDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordDuplicateCheck(state string) {
	if m == nil {
		return
	}
	m.duplicateChecks.WithLabelValues(state).Inc()
}

func (m *Metrics) RecordTicketCreated(outcome string) {
	if m == nil {
		return
	}
	m.ticketsCreated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordMacro(trigger, outcome string) {
	if m == nil {
		return
	}
	m.macros.WithLabelValues(trigger, outcome).Inc()
}

func (m *Metrics) RecordPoll(outcome string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(outcome).Inc()
}
