package observability

import (
	"context"
	"fmt"
	"time"

	"careercoach/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Business metric kinds accepted by RecordBusinessMetric.
const (
	MetricCodePrompt     = "code_prompt"
	MetricChatQuery      = "chat_query"
	MetricResumeAnalyzed = "resume_analyzed"
	MetricSessionCreated = "session_created"
	MetricRateLimitHit   = "rate_limit_hit"
)

// MetricToggles switches metric families on and off.
type MetricToggles struct {
	AIOperations    bool
	TrackDuration   bool
	TrackTokenUsage bool
	Business        bool
	RateLimits      bool
	CertExpiry      bool
}

// AllMetrics enables every metric family.
func AllMetrics() MetricToggles {
	return MetricToggles{
		AIOperations:    true,
		TrackDuration:   true,
		TrackTokenUsage: true,
		Business:        true,
		RateLimits:      true,
		CertExpiry:      true,
	}
}

// Metrics holds all custom instruments. The zero value is usable and
// records nothing.
type Metrics struct {
	toggles MetricToggles

	// Model operation metrics (analysis and chat)
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Code generation
	CodegenDuration metric.Float64Histogram
	CodegenRequests metric.Int64Counter
	CodegenRetries  metric.Int64Counter

	// Business metrics
	CodePrompts     metric.Int64Counter
	ChatQueries     metric.Int64Counter
	ResumesAnalyzed metric.Int64Counter
	SessionsCreated metric.Int64Counter

	// Certificate metrics
	CertReloadCount metric.Int64Counter
	CertExpiryTime  metric.Float64Gauge

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// AIOperationResult holds the result of a model operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from model responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, toggles MetricToggles) (*Metrics, error) {
	m := &Metrics{toggles: toggles}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"careercoach_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing model requests"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}
	if m.AIRequestCount, err = meter.Int64Counter(
		"careercoach_ai_requests_total",
		metric.WithDescription("Total number of model requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}
	if m.AIErrorCount, err = meter.Int64Counter(
		"careercoach_ai_errors_total",
		metric.WithDescription("Total number of model request errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}
	if m.AITokenUsage, err = meter.Int64Histogram(
		"careercoach_ai_token_usage",
		metric.WithDescription("Token usage for model requests (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	if m.CodegenDuration, err = meter.Float64Histogram(
		"careercoach_codegen_duration_seconds",
		metric.WithDescription("Wall-clock time of code generation calls including retries"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create codegen duration metric: %w", err)
	}
	if m.CodegenRequests, err = meter.Int64Counter(
		"careercoach_codegen_requests_total",
		metric.WithDescription("Total number of code generation calls by outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create codegen request metric: %w", err)
	}
	if m.CodegenRetries, err = meter.Int64Counter(
		"careercoach_codegen_retries_total",
		metric.WithDescription("Total number of code generation attempts retried after a timeout"),
	); err != nil {
		return nil, fmt.Errorf("failed to create codegen retry metric: %w", err)
	}

	business := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&m.CodePrompts, "careercoach_code_prompts_total", "Total number of completed code prompts"},
		{&m.ChatQueries, "careercoach_chat_queries_total", "Total number of answered chatbot questions"},
		{&m.ResumesAnalyzed, "careercoach_resumes_analyzed_total", "Total number of resume analyses"},
		{&m.SessionsCreated, "careercoach_sessions_created_total", "Total number of sessions created"},
	}
	for _, b := range business {
		if *b.target, err = meter.Int64Counter(b.name, metric.WithDescription(b.desc)); err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", b.name, err)
		}
	}

	if m.CertReloadCount, err = meter.Int64Counter(
		"careercoach_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads"),
	); err != nil {
		return nil, fmt.Errorf("failed to create certificate reload count metric: %w", err)
	}
	if m.CertExpiryTime, err = meter.Float64Gauge(
		"careercoach_cert_expiry_seconds",
		metric.WithDescription("Seconds until certificate expiry"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create certificate expiry time metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"careercoach_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// TrackAIOperation instruments a model operation with a span, duration,
// request and error counters, and token usage.
func (m *Metrics) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	ctx, span := otel.Tracer("careercoach.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	span.SetAttributes(attrs...)

	if m != nil && m.AIRequestCount != nil && m.toggles.AIOperations {
		opt := metric.WithAttributes(attrs...)
		if m.toggles.TrackDuration {
			m.AIProcessingTime.Record(ctx, duration, opt)
		}
		m.AIRequestCount.Add(ctx, 1, opt)
		if err != nil {
			m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(
				attribute.String("operation", operation),
				attribute.String("kind", errorKind(err)),
			))
		}
		if m.toggles.TrackTokenUsage && result != nil && result.TokenUsage != nil {
			m.recordTokenMetrics(ctx, operation, result.TokenUsage)
		}
	}

	if result != nil && result.TokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (m *Metrics) recordTokenMetrics(ctx context.Context, operation string, usage *TokenUsage) {
	for tokenType, value := range map[string]int64{
		"input":  usage.InputTokens,
		"output": usage.OutputTokens,
		"total":  usage.TotalTokens,
	} {
		m.AITokenUsage.Record(ctx, value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tokenType),
		))
	}
}

// RecordCodegen records one finished code generation call.
func (m *Metrics) RecordCodegen(ctx context.Context, language string, elapsed time.Duration, attempts int, err error) {
	if m == nil || m.CodegenRequests == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = errorKind(err)
	}
	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("outcome", outcome),
	)
	m.CodegenDuration.Record(ctx, elapsed.Seconds(), attrs)
	m.CodegenRequests.Add(ctx, 1, attrs)
	if attempts > 1 {
		m.CodegenRetries.Add(ctx, int64(attempts-1), metric.WithAttributes(attribute.String("language", language)))
	}
	if err == nil {
		m.RecordBusinessMetric(ctx, MetricCodePrompt, true, attribute.String("language", language))
	}
}

// RecordBusinessMetric increments the counter behind metricType.
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)...)

	if metricType == MetricRateLimitHit {
		if m.RateLimitHits != nil && m.toggles.RateLimits {
			m.RateLimitHits.Add(ctx, 1, attrs)
		}
		return
	}
	if !m.toggles.Business {
		return
	}

	var counter metric.Int64Counter
	switch metricType {
	case MetricCodePrompt:
		counter = m.CodePrompts
	case MetricChatQuery:
		counter = m.ChatQueries
	case MetricResumeAnalyzed:
		counter = m.ResumesAnalyzed
	case MetricSessionCreated:
		counter = m.SessionsCreated
	}
	if counter != nil {
		counter.Add(ctx, 1, attrs)
	}
}

// RecordCertReload counts a certificate reload attempt.
func (m *Metrics) RecordCertReload(ctx context.Context, success bool, err error) {
	if m == nil || m.CertReloadCount == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("cert_type", "server"),
		attribute.String("status", "success"),
	}
	if !success {
		attrs[1] = attribute.String("status", "failure")
		if err != nil {
			attrs = append(attrs, attribute.String("error", err.Error()))
		}
	}
	m.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCertExpiry records the seconds left before the serving certificate expires.
func (m *Metrics) RecordCertExpiry(ctx context.Context, remaining time.Duration) {
	if m == nil || m.CertExpiryTime == nil || !m.toggles.CertExpiry {
		return
	}
	m.CertExpiryTime.Record(ctx, remaining.Seconds(), metric.WithAttributes(attribute.String("cert_type", "server")))
}

func errorKind(err error) string {
	if kind := errors.TypeOf(err); kind != "" {
		return string(kind)
	}
	return "unknown"
}
