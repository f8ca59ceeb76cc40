package prometheus

import (
	"sync"
	"time"

	"github.com/TatianaIng96/driverflow-service/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Operator scope metrics
	OperatorScopeDeniedCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Membership operation metrics
	MembershipOperationsCounter *prometheus.CounterVec
	GroupsCreatedCounter        *prometheus.CounterVec

	// Per-operator occupancy
	OperatorGroupsGauge    *prometheus.GaugeVec
	OperatorClientsGauge   *prometheus.GaugeVec
	OperatorOccupancyGauge *prometheus.GaugeVec

	// Event delivery metrics
	EventsPublishedCounter *prometheus.CounterVec
	EventsFailedCounter    *prometheus.CounterVec
	WebsocketClientsGauge  prometheus.Gauge

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics with configuration.
// Only the first call registers collectors.
func InitMetrics(config *config.Config) {
	initOnce.Do(func() {
		initMetrics(config.Metrics.Prefix)
	})
}

func initMetrics(prefix string) {
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	OperatorScopeDeniedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_operator_scope_denied_total",
			Help: "Total number of requests rejected for targeting another operator",
		},
	)

	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	MembershipOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_membership_operations_total",
			Help: "Total number of membership operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	GroupsCreatedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_groups_created_total",
			Help: "Total number of groups created automatically",
		},
		[]string{"operator_id"},
	)

	OperatorGroupsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_operator_groups",
			Help: "Current number of groups per operator",
		},
		[]string{"operator_id"},
	)

	OperatorClientsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_operator_clients",
			Help: "Current number of clients per operator",
		},
		[]string{"operator_id"},
	)

	OperatorOccupancyGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_operator_group_occupancy_ratio",
			Help: "Fraction of group seats in use per operator",
		},
		[]string{"operator_id"},
	)

	EventsPublishedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_events_published_total",
			Help: "Total number of change events delivered per sink",
		},
		[]string{"sink"},
	)

	EventsFailedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_events_failed_total",
			Help: "Total number of change events that failed to publish per sink",
		},
		[]string{"sink"},
	)

	WebsocketClientsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_websocket_clients",
			Help: "Current number of connected event stream clients",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if HttpRequestsTotal == nil {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordAuthAttempt counts a token check and, when it failed, an auth error
func RecordAuthAttempt(ok bool) {
	if AuthAttemptsCounter == nil {
		return
	}
	AuthAttemptsCounter.Inc()
	if !ok {
		AuthErrorsCounter.Inc()
	}
}

// RecordScopeDenied counts a request rejected by the operator scope check
func RecordScopeDenied() {
	if OperatorScopeDeniedCounter != nil {
		OperatorScopeDeniedCounter.Inc()
	}
}

// RecordMembershipOperation counts an applied operation by outcome
func RecordMembershipOperation(operation, outcome string) {
	if MembershipOperationsCounter != nil {
		MembershipOperationsCounter.WithLabelValues(operation, outcome).Inc()
	}
}

// RecordGroupCreated counts an automatically created group
func RecordGroupCreated(operatorID string) {
	if GroupsCreatedCounter != nil {
		GroupsCreatedCounter.WithLabelValues(operatorID).Inc()
	}
}

// SetOperatorOccupancy updates the per-operator gauges
func SetOperatorOccupancy(operatorID string, groups, clients int, occupancy float64) {
	if OperatorGroupsGauge == nil {
		return
	}
	OperatorGroupsGauge.WithLabelValues(operatorID).Set(float64(groups))
	OperatorClientsGauge.WithLabelValues(operatorID).Set(float64(clients))
	OperatorOccupancyGauge.WithLabelValues(operatorID).Set(occupancy)
}

// RecordEventPublished counts an event delivery attempt on a sink
func RecordEventPublished(sink string, err error) {
	if EventsPublishedCounter == nil {
		return
	}
	if err != nil {
		EventsFailedCounter.WithLabelValues(sink).Inc()
		return
	}
	EventsPublishedCounter.WithLabelValues(sink).Inc()
}

// WebsocketConnected adjusts the connected stream clients gauge by delta
func WebsocketConnected(delta int) {
	if WebsocketClientsGauge != nil {
		WebsocketClientsGauge.Add(float64(delta))
	}
}
