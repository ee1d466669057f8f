package ai

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/observability"
	"careercoach/internal/resilience"
	"careercoach/internal/stats"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// DefaultModel is used when neither the operation nor the global AI
// configuration names one.
const DefaultModel = "gemini-1.5-flash"

const (
	pdfMIMEType       = "application/pdf"
	modelCheckTimeout = 10 * time.Second
	maxBackoff        = 30 * time.Second
)

// models is the part of the Gemini API the analyzer uses. *genai.Models
// satisfies it.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// GeminiAnalyzer implements Analyzer with Google Gemini. The client is
// created on first use so a missing API key only fails analysis requests.
type GeminiAnalyzer struct {
	config       config.OperationAIConfig
	prompts      config.LoadedPrompts
	breaker      *resilience.Breaker[*genai.GenerateContentResponse]
	modelBreaker *resilience.Breaker[*genai.Model]
	metrics      *observability.Metrics
	logger       *errors.Logger
	backoff      func(int) time.Duration

	mu     sync.Mutex
	models models
}

var _ Analyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer creates an analyzer for cfg. prompts holds the
// templates loaded from files, if any.
func NewGeminiAnalyzer(cfg config.OperationAIConfig, prompts config.LoadedPrompts, metrics *observability.Metrics, logger *errors.Logger) *GeminiAnalyzer {
	cfg = withDefaults(cfg)
	logger = logger.With("component", "analyzer")
	return &GeminiAnalyzer{
		config:       cfg,
		prompts:      prompts,
		breaker:      resilience.NewBreaker[*genai.GenerateContentResponse]("gemini-analyze", cfg.CircuitBreaker, logger),
		modelBreaker: resilience.NewBreaker[*genai.Model]("gemini-model-check", cfg.CircuitBreaker, logger),
		metrics:      metrics,
		logger:       logger,
		backoff:      resilience.ExponentialBackoff(time.Second, maxBackoff),
	}
}

func withDefaults(cfg config.OperationAIConfig) config.OperationAIConfig {
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == nil || *cfg.Timeout <= 0 {
		d := 60 * time.Second
		cfg.Timeout = &d
	}
	if cfg.MaxRetries == nil || *cfg.MaxRetries < 0 {
		n := 3
		cfg.MaxRetries = &n
	}
	if cfg.Temperature == nil {
		t := float32(0.7)
		cfg.Temperature = &t
	}
	if cfg.UseSystemPrompts == nil {
		b := true
		cfg.UseSystemPrompts = &b
	}
	return cfg
}

func (g *GeminiAnalyzer) client(ctx context.Context) (models, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.models != nil {
		return g.models, nil
	}
	if g.config.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"resume analysis unavailable: set ai.apiKey or GEMINI_API_KEY", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}
	g.models = client.Models
	return g.models, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiAnalyzer) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}

	m, err := g.client(ctx)
	if err != nil {
		info.Error = errors.UserMessage(err)
		return info
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return m.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// Analyze runs one analysis. On success the usage tracker carried by ctx,
// if any, counts the resume.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	task, err := req.resolve()
	if err != nil {
		return nil, err
	}
	m, err := g.client(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("careercoach.ai.gemini").Start(ctx, "gemini.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.String("analysis.role", string(task.role)),
		attribute.String("analysis.option", task.option),
		attribute.Bool("analysis.pdf", len(req.ResumePDF) > 0),
	)

	systemPrompt, userPrompt := g.buildPrompts(task, req.JobDescription)
	contents := []*genai.Content{genai.NewContentFromParts(resumeParts(req, userPrompt), genai.RoleUser)}
	genCfg := &genai.GenerateContentConfig{
		Temperature:      g.config.Temperature,
		ResponseMIMEType: "text/plain",
	}
	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	var (
		text     string
		attempts int
	)
	start := time.Now()
	err = g.metrics.TrackAIOperation(ctx, "analyze", func(ctx context.Context) *observability.AIOperationResult {
		resp, genErr := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
			return g.generateWithRetry(ctx, m, contents, genCfg, &attempts)
		})
		if genErr != nil {
			return &observability.AIOperationResult{Error: genErr}
		}
		text = strings.TrimSpace(resp.Text())
		if text == "" {
			genErr = errors.NewInvalidResponseError("Gemini returned an empty analysis")
		}
		return &observability.AIOperationResult{Error: genErr, TokenUsage: extractTokenUsage(resp)}
	})
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("ai.attempts", attempts))

	if err != nil {
		err = g.classify(ctx, err, attempts)
		g.metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, false,
			attribute.String("role", string(task.role)))
		return nil, err
	}

	if tracker, ok := stats.FromContext(ctx); ok {
		tracker.RecordAnalysis(elapsed)
	}
	g.metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, true,
		attribute.String("role", string(task.role)))

	g.logger.Debug("Resume analyzed",
		"role", task.role,
		"option", task.option,
		"attempts", attempts,
		"elapsed", elapsed)

	return &Result{
		Role:      task.role,
		Option:    task.option,
		Text:      text,
		Model:     g.config.Model,
		Elapsed:   elapsed.Seconds(),
		CreatedAt: time.Now(),
	}, nil
}

// generateWithRetry bounds every attempt with the configured timeout and
// retries transient failures with exponential backoff.
func (g *GeminiAnalyzer) generateWithRetry(ctx context.Context, m models, contents []*genai.Content, cfg *genai.GenerateContentConfig, attempts *int) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	policy := resilience.Policy{
		MaxAttempts: *g.config.MaxRetries + 1,
		Backoff:     g.backoff,
		Retryable:   isRetryableError,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			g.logger.Warn("Retrying AI operation",
				"operation", "analyze",
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"delay", delay,
				"error", err.Error())
		},
	}
	err := resilience.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		*attempts = attempt
		attemptCtx, cancel := context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()

		out, err := m.GenerateContent(attemptCtx, g.config.Model, contents, cfg)
		if err != nil {
			if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				return errAttemptTimeout{err: err}
			}
			return err
		}
		resp = out
		return nil
	})
	return resp, err
}

type errAttemptTimeout struct{ err error }

func (e errAttemptTimeout) Error() string { return "analysis attempt timed out: " + e.err.Error() }
func (e errAttemptTimeout) Unwrap() error { return e.err }

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var timeout errAttemptTimeout
	if errors.As(err, &timeout) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (g *GeminiAnalyzer) classify(ctx context.Context, err error, attempts int) error {
	if ctx.Err() != nil {
		return errors.NewCanceledError(ctx.Err())
	}
	if resilience.IsOpen(err) {
		return errors.NewAIError(errors.ErrCodeCircuitOpen,
			"resume analysis is temporarily unavailable", err)
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var exhausted *resilience.ExhaustedError
	if errors.As(err, &exhausted) {
		var timeout errAttemptTimeout
		if errors.As(exhausted.Last, &timeout) {
			return errors.NewAIError(errors.ErrCodeAITimeout,
				fmt.Sprintf("Gemini did not answer within %s after %d attempts", *g.config.Timeout, exhausted.Attempts), err)
		}
		return errors.NewAIError(errors.ErrCodeRetriesExhausted,
			fmt.Sprintf("resume analysis failed after %d attempts", exhausted.Attempts), err)
	}
	return errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to generate resume analysis", err).
		WithContext("attempts", attempts)
}

func (g *GeminiAnalyzer) buildPrompts(t task, jobDescription string) (string, string) {
	custom := g.config.CustomPrompts
	systemPrompt := resolvePrompt(g.prompts.System, custom.SystemPrompts.AnalyzeResume, DefaultSystemPrompts.AnalyzeResume)
	userTemplate := resolvePrompt(g.prompts.User, custom.UserPrompts.AnalyzeResume, DefaultUserPrompts.AnalyzeResume)

	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		jobDescription = noJobDescription
	}
	return systemPrompt, fmt.Sprintf(userTemplate, t.role.Label(), t.instruction, jobDescription)
}

// resumeParts places the resume before the instructions, inline as a PDF
// when one was supplied.
func resumeParts(req Request, userPrompt string) []*genai.Part {
	var resume *genai.Part
	if len(req.ResumePDF) > 0 {
		resume = genai.NewPartFromBytes(req.ResumePDF, pdfMIMEType)
	} else {
		resume = genai.NewPartFromText("**Resume:**\n" + req.ResumeText)
	}
	return []*genai.Part{resume, genai.NewPartFromText(userPrompt)}
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *observability.TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &observability.TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// BreakerStats reports the analysis circuit breaker state.
func (g *GeminiAnalyzer) BreakerStats() map[string]any {
	return g.breaker.Stats()
}

// Close releases the client. The Gemini client holds no resources that need closing.
func (g *GeminiAnalyzer) Close() error {
	return nil
}
