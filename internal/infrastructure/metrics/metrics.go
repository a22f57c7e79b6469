package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "todoroom"

// Metrics holds the bot's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	inboundEvents  *prometheus.CounterVec
	handleDuration *prometheus.HistogramVec
	domainErrors   *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	rateLimited    prometheus.Counter
	roomsCreated   prometheus.Counter
	membersJoined  prometheus.Counter
	todoMutations  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		inboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_events_total",
			Help:      "Inbound user events by dialog state.",
		}, []string{"state"}),
		handleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handle_duration_seconds",
			Help:      "Time spent handling one inbound event.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"state"}),
		domainErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_errors_total",
			Help:      "Errors surfaced to users by kind.",
		}, []string{"kind"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by event and outcome.",
		}, []string{"event", "outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Inbound events dropped by the rate limiter.",
		}),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Rooms created.",
		}),
		membersJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "members_joined_total",
			Help:      "Memberships created by join.",
		}),
		todoMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "todo_mutations_total",
			Help:      "Todo mutations by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		m.inboundEvents,
		m.handleDuration,
		m.domainErrors,
		m.deliveries,
		m.rateLimited,
		m.roomsCreated,
		m.membersJoined,
		m.todoMutations,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveInbound(state string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inboundEvents.WithLabelValues(state).Inc()
	m.handleDuration.WithLabelValues(state).Observe(elapsed.Seconds())
}

func (m *Metrics) DomainError(kind string) {
	if m == nil {
		return
	}
	m.domainErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Delivery(event string, ok bool) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if !ok {
		outcome = "failed"
	}
	m.deliveries.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) RoomCreated() {
	if m == nil {
		return
	}
	m.roomsCreated.Inc()
}

func (m *Metrics) MemberJoined() {
	if m == nil {
		return
	}
	m.membersJoined.Inc()
}

func (m *Metrics) TodoMutation(op string) {
	if m == nil {
		return
	}
	m.todoMutations.WithLabelValues(op).Inc()
}
