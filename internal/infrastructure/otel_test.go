package infrastructure

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// tracingConfig returns a configuration with tracing switched on, which the
// default configuration leaves off.
func tracingConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    "test-service",
		ServiceVersion: "v1.0.0",
		Environment:    "test",
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	}
}

// TestOTelInitialization tests OpenTelemetry initialization
func TestOTelInitialization(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// The default configuration is metrics-only.
	providers, err := InitializeOTel(nil, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = providers.Shutdown(ctx)
	assert.NoError(t, err)

	// Tracing comes up when asked for explicitly.
	providers, err = InitializeOTel(tracingConfig(), logger)
	require.NoError(t, err)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)

	err = providers.Shutdown(ctx)
	assert.NoError(t, err)
}

// TestTraceCorrelation tests trace ID correlation
func TestTraceCorrelation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	providers, err := InitializeOTel(tracingConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx := context.Background()

	// Start a span
	ctx, span := providers.Tracer.Start(ctx, "test-operation")
	defer span.End()

	// Extract trace ID
	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)

	// Verify trace ID matches span context
	expectedTraceID := span.SpanContext().TraceID().String()
	assert.Equal(t, expectedTraceID, traceID)

	// Test context with trace ID
	ctx = WithTraceID(ctx, traceID)
	retrievedTraceID := GetTraceID(ctx)
	assert.Equal(t, traceID, retrievedTraceID)
}

// TestBusinessMetrics tests business metrics creation
func TestBusinessMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	// Verify HTTP metrics
	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.HTTPRequestDuration)
	assert.NotNil(t, metrics.HTTPActiveRequests)

	// Verify analysis metrics
	assert.NotNil(t, metrics.AnalysesTotal)
	assert.NotNil(t, metrics.AnalysisDuration)
	assert.NotNil(t, metrics.ParseFailuresTotal)
	assert.NotNil(t, metrics.RowsProcessedTotal)
	assert.NotNil(t, metrics.BadCellsTotal)
	assert.NotNil(t, metrics.InputBytesTotal)

	// Verify batch metrics
	assert.NotNil(t, metrics.BatchRunsTotal)
	assert.NotNil(t, metrics.BatchFilesInFlight)

	// Verify system metrics
	assert.NotNil(t, metrics.SystemErrors)
	assert.NotNil(t, metrics.SystemUptime)
}

// TestSpanOperations tests span events and error recording
func TestSpanOperations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	providers, err := InitializeOTel(tracingConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx := context.Background()
	ctx, span := providers.Tracer.Start(ctx, "test-span")
	defer span.End()

	// Test adding span events
	AddSpanEvent(ctx, "test.event", map[string]interface{}{
		"event_data": "test_event_value",
		"row_count":  42,
		"ratio":      3.14,
		"flagged":    true,
		"timestamp":  time.Now().Unix(),
	})

	// Test error recording
	testErr := assert.AnError
	RecordError(ctx, testErr)

	// Verify span is recording
	assert.True(t, span.IsRecording())

	// Without an active span both helpers are no-ops.
	AddSpanEvent(context.Background(), "noop.event", map[string]interface{}{"k": "v"})
	RecordError(context.Background(), testErr)
}

// TestRecordAnalysisMetrics tests the audit outcome recording helpers
func TestRecordAnalysisMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	report := &domain.Report{
		TotalRows: 3,
		ValidRows: 2,
		BadCells:  []domain.BadCell{{Column: "a", RowIndex: 2, Value: "foo"}},
	}

	// Success and failure paths both record without error.
	RecordAnalysisMetrics(ctx, metrics, "text", 5*time.Millisecond, report, nil)
	RecordAnalysisMetrics(ctx, metrics, "file", time.Millisecond, nil, assert.AnError)
	RecordInputBytes(ctx, metrics, "text", 128)
	RecordBatchRun(ctx, metrics, 3, 1)
	RecordBatchFileChange(ctx, metrics, 1)
	RecordBatchFileChange(ctx, metrics, -1)

	// A nil metrics struct makes every helper a no-op.
	RecordAnalysisMetrics(ctx, nil, "text", time.Millisecond, report, nil)
	RecordInputBytes(ctx, nil, "text", 1)
	RecordBatchRun(ctx, nil, 0, 0)
	RecordBatchFileChange(ctx, nil, 1)
}

// TestPrometheusEndpoint tests the Prometheus metrics endpoint
func TestPrometheusEndpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	// Create test server with Prometheus handler
	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	// Make request to metrics endpoint
	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Verify response
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

// TestOTelConfiguration tests different configuration options
func TestOTelConfiguration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	tests := []struct {
		name    string
		config  *OTelConfig
		wantErr bool
	}{
		{
			name: "development_config",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "development",
				TraceExporter:  "stdout",
				MetricExporter: "prometheus",
				EnableMetrics:  true,
				EnableTracing:  true,
				SampleRatio:    1.0,
			},
		},
		{
			name: "disabled_tracing",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "test",
				TraceExporter:  "none",
				MetricExporter: "prometheus",
				EnableMetrics:  true,
				EnableTracing:  false,
				SampleRatio:    0.0,
			},
		},
		{
			name: "disabled_metrics",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "test",
				TraceExporter:  "stdout",
				MetricExporter: "none",
				EnableMetrics:  false,
				EnableTracing:  true,
				SampleRatio:    1.0,
			},
		},
		{
			name: "unsupported_trace_exporter",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "test",
				TraceExporter:  "jaeger",
				MetricExporter: "none",
				EnableMetrics:  false,
				EnableTracing:  true,
				SampleRatio:    1.0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, logger)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, providers)

			// Verify configuration
			if tt.config.EnableTracing {
				assert.NotNil(t, providers.TracerProvider)
				assert.NotNil(t, providers.Tracer)
			} else {
				assert.Nil(t, providers.TracerProvider)
			}

			if tt.config.EnableMetrics {
				assert.NotNil(t, providers.MeterProvider)
				assert.NotNil(t, providers.Meter)
			} else {
				assert.Nil(t, providers.MeterProvider)
			}

			// Test shutdown
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err = providers.Shutdown(ctx)
			assert.NoError(t, err)
		})
	}
}

// TestTracePropagation tests trace propagation across contexts
func TestTracePropagation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	providers, err := InitializeOTel(tracingConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	// Start parent span
	ctx := context.Background()
	ctx, parentSpan := providers.Tracer.Start(ctx, "parent-operation")
	defer parentSpan.End()

	parentTraceID := parentSpan.SpanContext().TraceID().String()

	// Create child span in same trace
	_, childSpan := providers.Tracer.Start(ctx, "child-operation")
	defer childSpan.End()

	childTraceID := childSpan.SpanContext().TraceID().String()

	// Verify trace propagation
	assert.Equal(t, parentTraceID, childTraceID, "Child span should have same trace ID as parent")

	// Verify spans are in same trace but different spans
	assert.Equal(t, parentSpan.SpanContext().TraceID(), childSpan.SpanContext().TraceID())
	assert.NotEqual(t, parentSpan.SpanContext().SpanID(), childSpan.SpanContext().SpanID())
}

// BenchmarkTraceOperations benchmarks trace operations to validate performance impact
func BenchmarkTraceOperations(b *testing.B) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	providers, err := InitializeOTel(tracingConfig(), logger)
	require.NoError(b, err)
	defer providers.Shutdown(context.Background())

	tracer := providers.Tracer

	b.ResetTimer()
	b.ReportAllocs()

	b.Run("span_creation", func(b *testing.B) {
		ctx := context.Background()
		for i := 0; i < b.N; i++ {
			_, span := tracer.Start(ctx, "benchmark-span")
			span.End()
		}
	})

	b.Run("span_events", func(b *testing.B) {
		ctx := context.Background()
		ctx, span := tracer.Start(ctx, "benchmark-span")
		defer span.End()

		for i := 0; i < b.N; i++ {
			AddSpanEvent(ctx, "benchmark.event", map[string]interface{}{
				"iteration": i,
				"timestamp": time.Now().Unix(),
			})
		}
	})
}

// BenchmarkMetricOperations benchmarks metric operations
func BenchmarkMetricOperations(b *testing.B) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(b, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(b, err)

	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	b.Run("counter_increment", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			metrics.HTTPRequestsTotal.Add(ctx, 1)
		}
	})

	b.Run("histogram_record", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			metrics.AnalysisDuration.Record(ctx, float64(i)*0.001)
		}
	})

	b.Run("updown_counter", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if i%2 == 0 {
				metrics.BatchFilesInFlight.Add(ctx, 1)
			} else {
				metrics.BatchFilesInFlight.Add(ctx, -1)
			}
		}
	})
}
