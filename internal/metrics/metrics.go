// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Provider API calls (list and detail endpoints)
// - Sync engine runs and per-record enrichment
// - Phone resolution outcomes
// - Database query performance (DuckDB)
// - HTTP API latency and throughput
// - Circuit breaker state

var (
	// Provider API Metrics
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of provider API requests",
		},
		[]string{"endpoint", "status_code"}, // endpoint: "list", "detail"
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Provider API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ProviderRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "provider_rate_limited_total",
			Help: "Total number of HTTP 429 responses from the provider",
		},
	)

	// Sync Engine Metrics
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // Runs can take minutes
		},
		[]string{"sync_type"},
	)

	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of sync runs by terminal status",
		},
		[]string{"status"},
	)

	SyncConversationsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_conversations_fetched_total",
			Help: "Total number of conversation summaries fetched during sync",
		},
	)

	SyncDetailsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_details_fetched_total",
			Help: "Total number of per-conversation detail fetches",
		},
		[]string{"result"}, // "success", "failure"
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total number of sync errors",
		},
		[]string{"error_type"}, // "provider_api", "database", "validation"
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of last successful sync per agent",
		},
		[]string{"agent_id"},
	)

	// Phone Resolution Metrics
	PhoneResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phone_resolutions_total",
			Help: "Total number of phone resolution outcomes by cascade stage",
		},
		[]string{"stage"}, // "body", "phone_call", "dynamic_variables", "key_search", "pattern_search", "none"
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// HTTP API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Archive Metrics
	ArchivesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archives_written_total",
			Help: "Total number of CSV archive files written",
		},
	)

	ArchiveRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_records_total",
			Help: "Total number of conversation records archived to CSV",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordProviderRequest records a provider API call.
func RecordProviderRequest(endpoint, statusCode string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(endpoint, statusCode).Inc()
	ProviderRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an HTTP API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSyncRun records a finished sync run.
func RecordSyncRun(syncType, status string, duration time.Duration) {
	SyncDuration.WithLabelValues(syncType).Observe(duration.Seconds())
	SyncRunsTotal.WithLabelValues(status).Inc()
}

// RecordSyncSuccess marks the last successful sync time for an agent.
func RecordSyncSuccess(agentID string) {
	SyncLastSuccess.WithLabelValues(agentID).Set(float64(time.Now().Unix()))
}

// RecordDetailFetch records a per-conversation detail fetch outcome.
func RecordDetailFetch(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	SyncDetailsFetched.WithLabelValues(result).Inc()
}

// RecordPhoneResolution records which cascade stage resolved a phone
// pair, or "none" when no stage produced a value.
func RecordPhoneResolution(stage string) {
	PhoneResolutions.WithLabelValues(stage).Inc()
}

// RecordArchive records a written CSV archive.
func RecordArchive(records int) {
	ArchivesWritten.Inc()
	ArchiveRecords.Add(float64(records))
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
