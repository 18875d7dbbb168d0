package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionMQTTConnected    = "mqtt_connected"
	ActionMQTTMessage      = "mqtt_message"
	ActionCachePruned      = "location_cache_pruned"
	ActionDashboardPush    = "dashboard_push"
	ActionSourceFetch      = "location_source_fetch"
	ActionBreakerStateFlip = "circuit_breaker_state_change"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionExternalServiceFailed     = "external_service_failed"
)
