// Package codegen talks to the text-generation endpoint that writes code for
// a session. Each Client owns a bounded prompt history and reports usage to
// the session's stats.Tracker.
package codegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/history"
	"careercoach/internal/resilience"
	"careercoach/internal/stats"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultEndpoint = "http://localhost:11434/api/generate"
	DefaultModel    = "LinguaLogic"

	maxResponseBytes = 8 << 20
)

// RetryPolicy bounds a Generate call to
// MaxAttempts*AttemptTimeout + (MaxAttempts-1)*Delay.
type RetryPolicy struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	Delay          time.Duration
}

// DefaultRetryPolicy returns 3 attempts of 60s each, 5s apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		AttemptTimeout: 60 * time.Second,
		Delay:          5 * time.Second,
	}
}

// Recorder receives one observation per finished Generate call.
type Recorder interface {
	RecordCodegen(ctx context.Context, language string, elapsed time.Duration, attempts int, err error)
}

// Options configures a Client. Zero fields take their defaults.
type Options struct {
	Endpoint    string
	Model       string
	Retry       RetryPolicy
	HistorySize int
	HTTPClient  *http.Client
	Breaker     *resilience.Breaker[string]
	Metrics     Recorder
	Logger      *errors.Logger
}

// Client generates code for one session. Calls on the same Client are
// serialized; separate Clients share nothing.
type Client struct {
	mu sync.Mutex

	endpoint   string
	model      string
	retry      RetryPolicy
	httpClient *http.Client
	breaker    *resilience.Breaker[string]
	metrics    Recorder
	logger     *errors.Logger

	history *history.History
	tracker *stats.Tracker
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// errAttemptTimeout marks an attempt that ran past its own deadline. Only
// these are retried.
type errAttemptTimeout struct {
	cause error
}

func (e *errAttemptTimeout) Error() string { return "attempt timed out: " + e.cause.Error() }
func (e *errAttemptTimeout) Unwrap() error { return e.cause }

func isAttemptTimeout(err error) bool {
	var t *errAttemptTimeout
	return errors.As(err, &t)
}

// New creates a client that reports usage to tracker.
func New(opts Options, tracker *stats.Tracker) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = DefaultRetryPolicy()
	}
	opts.Retry.MaxAttempts = max(opts.Retry.MaxAttempts, 1)
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if opts.Logger == nil {
		opts.Logger = errors.NewLogger(slog.LevelInfo)
	}

	return &Client{
		endpoint:   opts.Endpoint,
		model:      opts.Model,
		retry:      opts.Retry,
		httpClient: opts.HTTPClient,
		breaker:    opts.Breaker,
		metrics:    opts.Metrics,
		logger:     opts.Logger.With("component", "codegen"),
		history:    history.New(opts.HistorySize),
		tracker:    tracker,
	}
}

// NewFromConfig builds a client from the codegen configuration section.
// breaker may be nil and may be shared between clients.
func NewFromConfig(cfg config.CodegenConfig, tracker *stats.Tracker, breaker *resilience.Breaker[string], metrics Recorder, logger *errors.Logger) *Client {
	return New(Options{
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		Retry: RetryPolicy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			AttemptTimeout: cfg.Retry.AttemptTimeout,
			Delay:          cfg.Retry.Delay,
		},
		HistorySize: cfg.HistorySize,
		Breaker:     breaker,
		Metrics:     metrics,
		Logger:      logger,
	}, tracker)
}

// ComposePrompt builds the text sent to the model: a language header line
// followed by the prompt window, one prompt per line.
func ComposePrompt(language string, window []string) string {
	return "Language: " + language + "\n" + strings.Join(window, "\n")
}

// Generate sends prompt, preceded by the retained history, to the endpoint
// and returns the generated code. The prompt joins the history and usage is
// recorded only when the call succeeds.
//
// Failures carry one of the error types timeout, transport,
// invalid_response or canceled.
func (c *Client) Generate(ctx context.Context, language, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := otel.Tracer("careercoach.codegen").Start(ctx, "codegen.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("codegen.language", language),
		attribute.String("codegen.model", c.model),
	)

	if err := ctx.Err(); err != nil {
		return "", errors.NewCanceledError(err)
	}

	window := c.history.Window(prompt)
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: ComposePrompt(language, window),
		Stream: false,
	})
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to encode request", err)
	}

	var (
		text     string
		elapsed  time.Duration
		attempts int
	)
	started := time.Now()

	policy := resilience.Policy{
		MaxAttempts: c.retry.MaxAttempts,
		Backoff:     resilience.FixedBackoff(c.retry.Delay),
		Retryable:   isAttemptTimeout,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			c.logger.Warn("Code generation attempt timed out, retrying",
				"attempt", attempt,
				"max_attempts", c.retry.MaxAttempts,
				"delay", delay,
				"error", err)
		},
	}
	err = resilience.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		attempts = attempt
		attemptStart := time.Now()
		out, err := c.breaker.Execute(func() (string, error) {
			return c.attempt(ctx, body)
		})
		if err != nil {
			return err
		}
		text = out
		elapsed = time.Since(attemptStart)
		return nil
	})
	err = c.classify(ctx, err)
	span.SetAttributes(attribute.Int("codegen.attempts", attempts))

	if c.metrics != nil {
		c.metrics.RecordCodegen(ctx, language, time.Since(started), attempts, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("Code generation failed",
			"language", language,
			"attempts", attempts,
			"error_type", errors.TypeOf(err))
		return "", err
	}

	// The result is already in hand; a cancellation arriving now must not
	// drop the bookkeeping.
	commitCtx := context.WithoutCancel(ctx)
	if err := c.tracker.RecordCodePrompt(commitCtx, elapsed); err != nil {
		c.logger.LogError(err, "Failed to persist usage statistics")
	}
	c.history.Append(prompt)

	c.logger.Debug("Code generated",
		"language", language,
		"attempts", attempts,
		"elapsed", elapsed,
		"history_size", c.history.Len())
	return text, nil
}

// attempt performs a single POST bounded by the per-attempt timeout.
func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.retry.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.NewTransportError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.requestError(ctx, attemptCtx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", c.requestError(ctx, attemptCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NewTransportError(
			fmt.Sprintf("unexpected status %d", resp.StatusCode),
			fmt.Errorf("%s", snippet(data)),
		).WithContext("status", resp.StatusCode)
	}

	return decodeResponse(data)
}

// requestError sorts a failed round trip into caller cancellation, attempt
// timeout or transport failure.
func (c *Client) requestError(ctx, attemptCtx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if attemptCtx.Err() == context.DeadlineExceeded {
		return &errAttemptTimeout{cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &errAttemptTimeout{cause: err}
	}
	return errors.NewTransportError("request failed", err)
}

func decodeResponse(data []byte) (string, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", errors.NewTransportError("malformed response body", err)
	}

	raw, ok := payload["response"]
	if !ok {
		return "", errors.NewInvalidResponseError("response field missing")
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", errors.NewInvalidResponseError("response field is not a string")
	}
	return text, nil
}

// classify maps the outcome of the retry loop to the error types callers
// branch on.
func (c *Client) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.NewCanceledError(ctxErr)
	}

	var exhausted *resilience.ExhaustedError
	if errors.As(err, &exhausted) {
		return errors.NewTimeoutError(exhausted.Attempts, exhausted.Last)
	}
	if resilience.IsOpen(err) {
		appErr := errors.NewTransportError("code generation endpoint unavailable", err)
		appErr.Code = errors.ErrCodeCircuitOpen
		return appErr
	}

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return errors.NewTransportError("request failed", err)
}

func snippet(data []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(data))
	if len(text) > limit {
		text = text[:limit] + "..."
	}
	if text == "" {
		text = "empty body"
	}
	return text
}

// Reset clears the history and the code-generation statistics. The reset is
// persisted even when ctx is canceled. Persistence failures are logged.
func (c *Client) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history.Clear()
	if err := c.tracker.ResetCode(context.WithoutCancel(ctx)); err != nil {
		c.logger.LogError(err, "Failed to persist usage statistics after reset")
	}
}

// ResetAll clears the history and zeroes every usage counter.
func (c *Client) ResetAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history.Clear()
	if err := c.tracker.ResetAll(context.WithoutCancel(ctx)); err != nil {
		c.logger.LogError(err, "Failed to persist usage statistics after reset")
	}
}

// History returns the retained prompts in submission order.
func (c *Client) History() []string {
	return c.history.Entries()
}

func (c *Client) Tracker() *stats.Tracker {
	return c.tracker
}

func (c *Client) Model() string {
	return c.model
}
