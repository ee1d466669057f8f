package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/observability"
	"careercoach/internal/stats"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Answer is the result of one question.
type Answer struct {
	Topic    string    `json:"topic"`
	Text     string    `json:"answer"`
	Messages []Message `json:"messages"`
}

// Service answers interview questions with a chat model. The model is
// created on first use so a missing API key only fails chat requests.
type Service struct {
	cfg       config.ChatConfig
	extra     string
	logger    *errors.Logger
	metrics   *observability.Metrics
	callbacks callbacks.Handler

	mu      sync.Mutex
	model   llms.Model
	factory func() (llms.Model, error)
}

// NewService creates a service for the configured provider.
func NewService(cfg *config.Config, metrics *observability.Metrics, logger *errors.Logger) *Service {
	chatCfg := cfg.Chat
	s := newService(chatCfg, cfg.GetChatSystemPrompt(), metrics, logger)
	s.factory = func() (llms.Model, error) { return newModel(chatCfg) }
	return s
}

// NewServiceWithModel creates a service around an existing model.
func NewServiceWithModel(model llms.Model, cfg config.ChatConfig, metrics *observability.Metrics, logger *errors.Logger) *Service {
	s := newService(cfg, cfg.SystemPrompt, metrics, logger)
	s.model = model
	return s
}

func newService(cfg config.ChatConfig, extra string, metrics *observability.Metrics, logger *errors.Logger) *Service {
	logger = logger.With("component", "chat")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Service{
		cfg:       cfg,
		extra:     extra,
		logger:    logger,
		metrics:   metrics,
		callbacks: NewLogCallbackHandler(logger),
	}
}

func newModel(cfg config.ChatConfig) (llms.Model, error) {
	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{
			openai.WithModel(cfg.Model),
			openai.WithHTTPClient(httpClient),
		}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
				"chat model unavailable: set chat.apiKey or OPENAI_API_KEY", err)
		}
		return llm, nil
	case "ollama":
		llm, err := ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to create ollama client", err)
		}
		return llm, nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported chat provider: %s", cfg.Provider), nil)
	}
}

func (s *Service) getModel() (llms.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		return s.model, nil
	}
	if s.factory == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "chat model not configured", nil)
	}
	model, err := s.factory()
	if err != nil {
		return nil, err
	}
	s.model = model
	return model, nil
}

// Ask sends question about topic to the model together with the
// conversation so far. On success the exchange joins conv and the usage
// tracker carried by ctx, if any, is updated.
func (s *Service) Ask(ctx context.Context, conv *Conversation, topicName, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "question is required", nil)
	}
	topic, ok := LookupTopic(topicName)
	if !ok {
		return Answer{}, errors.NewValidationError(errors.ErrCodeUnknownTopic,
			fmt.Sprintf("unknown topic %q, expected one of: %s", topicName, strings.Join(TopicNames(), ", ")), nil)
	}

	model, err := s.getModel()
	if err != nil {
		return Answer{}, err
	}

	conv.turn.Lock()
	defer conv.turn.Unlock()

	if conv.Ensure(topic.Name) {
		s.logger.Debug("Started conversation", "topic", topic.Name)
	}
	messages := s.buildMessages(topic, conv.Messages(), question)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var text string
	start := time.Now()
	err = s.metrics.TrackAIOperation(callCtx, "chat", func(ctx context.Context) *observability.AIOperationResult {
		answer, usage, genErr := s.generate(ctx, model, messages)
		text = answer
		return &observability.AIOperationResult{Error: genErr, TokenUsage: usage}
	})
	elapsed := time.Since(start)
	if err != nil {
		return Answer{}, s.classify(ctx, callCtx, err)
	}

	conv.Exchange(question, text)
	if tracker, ok := stats.FromContext(ctx); ok {
		if err := tracker.RecordChatQuery(context.WithoutCancel(ctx), elapsed); err != nil {
			s.logger.LogError(err, "Failed to persist usage statistics")
		}
	}
	s.metrics.RecordBusinessMetric(ctx, observability.MetricChatQuery, true)

	return Answer{Topic: topic.Name, Text: text, Messages: conv.Messages()}, nil
}

func (s *Service) buildMessages(topic Topic, transcript []Message, question string) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(transcript)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, topic.SystemPrompt(s.extra)))
	for _, m := range transcript {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}
	return append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))
}

func (s *Service) generate(ctx context.Context, model llms.Model, messages []llms.MessageContent) (string, *observability.TokenUsage, error) {
	opts := []llms.CallOption{llms.WithTemperature(s.cfg.Temperature)}
	if s.cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.cfg.MaxTokens))
	}

	s.callbacks.HandleLLMGenerateContentStart(ctx, messages)
	resp, err := model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		s.callbacks.HandleLLMError(ctx, err)
		return "", nil, err
	}
	s.callbacks.HandleLLMGenerateContentEnd(ctx, resp)

	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", nil, errors.NewInvalidResponseError("chat model returned no answer")
	}
	choice := resp.Choices[0]
	return choice.Content, tokenUsage(choice.GenerationInfo), nil
}

// tokenUsage reads the counters providers report in GenerationInfo.
func tokenUsage(info map[string]any) *observability.TokenUsage {
	input, okIn := asInt64(info["PromptTokens"])
	output, okOut := asInt64(info["CompletionTokens"])
	if !okIn && !okOut {
		return nil
	}
	total, ok := asInt64(info["TotalTokens"])
	if !ok {
		total = input + output
	}
	return &observability.TokenUsage{InputTokens: input, OutputTokens: output, TotalTokens: total}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func (s *Service) classify(ctx, callCtx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.NewCanceledError(ctx.Err())
	}
	if callCtx.Err() == context.DeadlineExceeded {
		return errors.NewAIError(errors.ErrCodeAITimeout,
			fmt.Sprintf("chat model did not answer within %s", s.cfg.Timeout), err)
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return errors.NewAIError(errors.ErrCodeAIServiceFailed, "chat model request failed", err)
}
