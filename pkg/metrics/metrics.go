package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customization_resolutions_total",
			Help: "Total number of rule resolutions performed by the customization service (count)",
		},
		[]string{"status"},
	)

	ResolutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "customization_resolution_duration_ms",
			Help:    "Duration of rule resolution in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"status"},
	)

	ResolutionRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "customization_resolution_rounds",
			Help:    "Number of evaluation rounds until resolution converged (count)",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customization_quotes_total",
			Help: "Total number of price quotes produced (count)",
		},
		[]string{"status"},
	)

	VariantLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "variant_lookups_total",
			Help: "Total number of image variant lookups (count)",
		},
		[]string{"status"},
	)

	VariantCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "variant_cache_lookups_total",
			Help: "Total number of variant asset cache lookups (count)",
		},
		[]string{"status"},
	)

	ActiveLogicRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "customization_active_logic_rules",
			Help: "Number of active logic rules across loaded product models (count)",
		},
	)

	LoadedProductModels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "customization_loaded_product_models",
			Help: "Number of product models currently loaded in the model cache (count)",
		},
	)

	ModelReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customization_model_reloads_total",
			Help: "Total number of product model reloads (count)",
		},
		[]string{"trigger", "status"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "topic"},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_total",
			Help: "Total number of messages sent to DLQ (count)",
		},
		[]string{"service", "topic", "reason"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaReadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_read_duration_ms",
			Help:    "Duration of reading messages from Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	DatabaseQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries (count)",
		},
		[]string{"service", "database", "operation", "status"},
	)

	DatabaseQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_ms",
			Help:    "Duration of database queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"service", "database", "operation"},
	)
)

func RegisterCustomizationMetrics() {
	prometheus.MustRegister(ResolutionsTotal)
	prometheus.MustRegister(ResolutionDuration)
	prometheus.MustRegister(ResolutionRounds)
	prometheus.MustRegister(QuotesTotal)
	prometheus.MustRegister(VariantLookupsTotal)
	prometheus.MustRegister(VariantCacheLookupsTotal)
	prometheus.MustRegister(ActiveLogicRules)
	prometheus.MustRegister(LoadedProductModels)
	prometheus.MustRegister(ModelReloadsTotal)
}

func RegisterCatalogMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
	prometheus.MustRegister(DatabaseQueriesTotal)
	prometheus.MustRegister(DatabaseQueryDuration)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(RetryAttemptsTotal)
	prometheus.MustRegister(DLQMessagesTotal)
	prometheus.MustRegister(KafkaMessagesReadTotal)
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaReadDuration)
	prometheus.MustRegister(KafkaWriteDuration)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func ObserveResolutionDuration(duration time.Duration, status string) {
	ResolutionDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func ObserveResolutionRounds(rounds int) {
	ResolutionRounds.Observe(float64(rounds))
}

func SetActiveLogicRules(count int) {
	ActiveLogicRules.Set(float64(count))
}

func SetLoadedProductModels(count int) {
	LoadedProductModels.Set(float64(count))
}

func IncModelReload(trigger, status string) {
	ModelReloadsTotal.WithLabelValues(trigger, status).Inc()
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaReadDuration(service, topic string, duration time.Duration) {
	KafkaReadDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func IncDatabaseQuery(service, database, operation, status string) {
	DatabaseQueriesTotal.WithLabelValues(service, database, operation, status).Inc()
}

func ObserveDatabaseQueryDuration(service, database, operation string, duration time.Duration) {
	DatabaseQueryDuration.WithLabelValues(service, database, operation).Observe(float64(duration.Milliseconds()))
}
