package observability

import (
	"context"
	"testing"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, toggles MetricToggles) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"), toggles)
	require.NoError(t, err)
	return m, reader
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestRecordCodegen(t *testing.T) {
	m, reader := newTestMetrics(t, AllMetrics())
	ctx := context.Background()

	m.RecordCodegen(ctx, "Go", 2*time.Second, 3, nil)
	m.RecordCodegen(ctx, "Go", time.Second, 3, errors.NewTimeoutError(3, nil))

	sums := collectSums(t, reader)
	assert.Equal(t, int64(2), sums["careercoach_codegen_requests_total"])
	assert.Equal(t, int64(4), sums["careercoach_codegen_retries_total"])
	assert.Equal(t, int64(1), sums["careercoach_code_prompts_total"])
}

func TestTrackAIOperation(t *testing.T) {
	m, reader := newTestMetrics(t, AllMetrics())

	err := m.TrackAIOperation(context.Background(), "analyze", func(context.Context) *AIOperationResult {
		return &AIOperationResult{TokenUsage: &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}
	})
	require.NoError(t, err)

	boom := errors.NewAIError(errors.ErrCodeAIServiceFailed, "down", nil)
	err = m.TrackAIOperation(context.Background(), "analyze", func(context.Context) *AIOperationResult {
		return &AIOperationResult{Error: boom}
	})
	assert.ErrorIs(t, err, boom)

	sums := collectSums(t, reader)
	assert.Equal(t, int64(2), sums["careercoach_ai_requests_total"])
	assert.Equal(t, int64(1), sums["careercoach_ai_errors_total"])
}

func TestBusinessMetricsToggle(t *testing.T) {
	toggles := AllMetrics()
	toggles.Business = false
	m, reader := newTestMetrics(t, toggles)

	m.RecordBusinessMetric(context.Background(), MetricChatQuery, true)
	m.RecordBusinessMetric(context.Background(), MetricRateLimitHit, false)

	sums := collectSums(t, reader)
	assert.Zero(t, sums["careercoach_chat_queries_total"])
	assert.Equal(t, int64(1), sums["careercoach_rate_limit_hits_total"])
}

func TestZeroMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCodegen(context.Background(), "Go", time.Second, 1, nil)
		m.RecordBusinessMetric(context.Background(), MetricSessionCreated, true)
		m.RecordCertReload(context.Background(), false, assert.AnError)
		m.RecordCertExpiry(context.Background(), time.Hour)
	})

	zero := &Metrics{}
	err := zero.TrackAIOperation(context.Background(), "chat", func(context.Context) *AIOperationResult { return nil })
	assert.NoError(t, err)
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "careercoach"}, nil)
	require.NoError(t, err)

	assert.NotNil(t, om.GetMetrics())
	assert.Nil(t, om.PrometheusHandler())
	assert.NotNil(t, om.Tracer("test"))
	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Observability.ServiceVersion = ""
	cfg.Observability.Tracing.SampleRate = 0.25
	cfg.Observability.Console.Enabled = true

	got := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "careercoach", got.ServiceName)
	assert.Equal(t, "1.2.3", got.ServiceVersion)
	assert.Equal(t, 0.25, got.SampleRate)
	assert.True(t, got.ConsoleOutput)
	assert.Equal(t, "/metrics", got.Prometheus.Endpoint)
}
