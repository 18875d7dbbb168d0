package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// Tracker metrics
	DevicesOnlineGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "devices_online_total",
			Help: "Number of devices reporting within the staleness threshold",
		},
		[]string{"service"},
	)

	DevicesTrackedGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "devices_tracked_total",
			Help: "Number of devices with at least one location in the window",
		},
		[]string{"service"},
	)

	LocationsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locations_ingested_total",
			Help: "Total number of location records stored in the cache",
		},
		[]string{"service", "source", "status"},
	)

	MQTTMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mqtt_messages_total",
			Help: "Total number of MQTT messages received",
		},
		[]string{"service", "format", "status"},
	)

	WebhookFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_fetch_total",
			Help: "Total number of location webhook fetches",
		},
		[]string{"service", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CachePrunedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_cache_pruned_total",
			Help: "Total number of location records removed by retention",
		},
		[]string{"service"},
	)

	WebSocketConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_total",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service"},
	)

	DatabaseQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"service", "operation", "status"},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	RabbitMQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_published_total",
			Help: "Total number of messages published to RabbitMQ",
		},
		[]string{"service", "queue", "status"},
	)

	RabbitMQMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_consumed_total",
			Help: "Total number of messages consumed from RabbitMQ",
		},
		[]string{"service", "queue", "status"},
	)
)

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, status).Observe(duration.Seconds())
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(service, operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueriesTotal.WithLabelValues(service, operation, status).Inc()
	DatabaseQueryDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordRabbitMQPublish records RabbitMQ publish metrics
func RecordRabbitMQPublish(service, queue string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesPublished.WithLabelValues(service, queue, status).Inc()
}

// RecordRabbitMQConsume records RabbitMQ consume metrics
func RecordRabbitMQConsume(service, queue string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesConsumed.WithLabelValues(service, queue, status).Inc()
}

// RecordPresence sets the presence gauges from the latest snapshot.
func RecordPresence(service string, tracked, online int) {
	DevicesTrackedGauge.WithLabelValues(service).Set(float64(tracked))
	DevicesOnlineGauge.WithLabelValues(service).Set(float64(online))
}

// RecordLocationIngested records one stored (or rejected) location.
func RecordLocationIngested(service, source string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LocationsIngestedTotal.WithLabelValues(service, source, status).Inc()
}

// RecordMQTTMessage records one MQTT message by payload format.
func RecordMQTTMessage(service, format string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	MQTTMessagesTotal.WithLabelValues(service, format, status).Inc()
}

// RecordWebhookFetch records a webhook fetch outcome: hit, miss, error or rejected.
func RecordWebhookFetch(service, result string) {
	WebhookFetchTotal.WithLabelValues(service, result).Inc()
}
