// Package metrics provides Prometheus metrics for the pitch scoring server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the coordination server.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Connection metrics
	connectionsByRole *prometheus.GaugeVec
	roomsActive       prometheus.Gauge

	// Event channel metrics
	eventsReceived  *prometheus.CounterVec
	eventsBroadcast *prometheus.CounterVec

	// Coordination metrics
	dispatchRejections  prometheus.Counter
	evaluationsRecorded prometheus.Counter
	duplicateBatches    prometheus.Counter
	teamMailboxes       prometheus.Gauge

	// Store metrics
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// HTTP diagnostic surface metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitchscore",
		subsystem:        "server",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.connectionsByRole = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "connections",
			Help:      "Current number of live websocket connections by role",
		},
		[]string{"role"},
	)

	m.roomsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rooms_active",
		Help:      "Current number of totem rooms with at least one connection",
	})

	m.eventsReceived = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_received_total",
			Help:      "Total number of inbound channel events by event name",
		},
		[]string{"event"},
	)

	m.eventsBroadcast = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_broadcast_total",
			Help:      "Total number of outbound broadcasts by event name",
		},
		[]string{"event"},
	)

	m.dispatchRejections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_rejections_total",
		Help:      "Total number of team dispatches rejected by the coverage gate",
	})

	m.evaluationsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluations_recorded_total",
		Help:      "Total number of evaluation rows appended",
	})

	m.duplicateBatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_batches_total",
		Help:      "Total number of batch submissions dropped as transport retries",
	})

	m.teamMailboxes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "team_mailboxes",
		Help:      "Current number of per-team serial executors",
	})

	m.storeLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_latency_milliseconds",
			Help:      "Histogram of persistence store operation latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"op"},
	)

	m.storeErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_errors_total",
			Help:      "Total number of persistence store failures by operation",
		},
		[]string{"op"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// UpdateConnections sets the live connection count for a role.
func UpdateConnections(role string, count int) {
	globalManager.connectionsByRole.WithLabelValues(role).Set(float64(count))
}

// UpdateRoomsActive sets the number of rooms with members.
func UpdateRoomsActive(count int) {
	globalManager.roomsActive.Set(float64(count))
}

// RecordEventReceived counts one inbound channel event.
func RecordEventReceived(event string) {
	globalManager.eventsReceived.WithLabelValues(event).Inc()
}

// RecordEventBroadcast counts one outbound broadcast.
func RecordEventBroadcast(event string) {
	globalManager.eventsBroadcast.WithLabelValues(event).Inc()
}

// RecordDispatchRejection counts a dispatch blocked by the coverage gate.
func RecordDispatchRejection() {
	globalManager.dispatchRejections.Inc()
}

// RecordEvaluation counts one appended evaluation row.
func RecordEvaluation() {
	globalManager.evaluationsRecorded.Inc()
}

// RecordDuplicateBatch counts a batch dropped as a transport retry.
func RecordDuplicateBatch() {
	globalManager.duplicateBatches.Inc()
}

// UpdateTeamMailboxes sets the per-team executor count.
func UpdateTeamMailboxes(count int) {
	globalManager.teamMailboxes.Set(float64(count))
}

// RecordStoreLatency observes one store operation's latency.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts one store failure.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one HTTP request's duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets current heap allocation.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry for serving /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
