package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	IngestionDuration   metric.Float64Histogram
	SegmentsSaved       metric.Int64Counter
	SegmentsDropped     metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
	DatabaseOperations  metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("media-search-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	ingestionDuration, err := meter.Float64Histogram(
		"media.ingestion.duration",
		metric.WithDescription("End-to-end media ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	segmentsSaved, err := meter.Int64Counter(
		"segments.saved.total",
		metric.WithDescription("Total segments saved to a store"),
	)
	if err != nil {
		return nil, err
	}

	segmentsDropped, err := meter.Int64Counter(
		"segments.dropped.total",
		metric.WithDescription("Segments dropped during ingestion"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	databaseOperations, err := meter.Int64Counter(
		"database.operations.total",
		metric.WithDescription("Total database operations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		IngestionDuration:   ingestionDuration,
		SegmentsSaved:       segmentsSaved,
		SegmentsDropped:     segmentsDropped,
		CircuitBreakerState: circuitBreakerState,
		DatabaseOperations:  databaseOperations,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngestion records an ingestion run
func (m *Metrics) RecordIngestion(kind, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("media.kind", kind),
		attribute.String("media.status", status),
	}

	m.IngestionDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordSegmentsSaved records segments persisted to a store tier
func (m *Metrics) RecordSegmentsSaved(tier string, count int64) {
	attrs := []attribute.KeyValue{
		attribute.String("store.tier", tier),
	}

	m.SegmentsSaved.Add(context.Background(), count, metric.WithAttributes(attrs...))
}

// RecordSegmentsDropped records segments discarded before persistence
func (m *Metrics) RecordSegmentsDropped(reason string, count int64) {
	attrs := []attribute.KeyValue{
		attribute.String("drop.reason", reason),
	}

	m.SegmentsDropped.Add(context.Background(), count, metric.WithAttributes(attrs...))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordDatabaseOperation records database operation metrics
func (m *Metrics) RecordDatabaseOperation(operation, collection string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.collection", collection),
		attribute.Bool("db.success", success),
	}

	m.DatabaseOperations.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
