package chat

import (
	"context"

	"careercoach/internal/errors"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

var _ callbacks.Handler = (*LogCallbackHandler)(nil)

// LogCallbackHandler reports model calls to the application logger.
type LogCallbackHandler struct {
	logger *errors.Logger
}

func NewLogCallbackHandler(logger *errors.Logger) *LogCallbackHandler {
	return &LogCallbackHandler{logger: logger}
}

func (l *LogCallbackHandler) HandleText(ctx context.Context, text string) {}

func (l *LogCallbackHandler) HandleLLMStart(ctx context.Context, prompts []string) {}

func (l *LogCallbackHandler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	l.logger.Debug("Chat model request", "messages", len(ms))
}

func (l *LogCallbackHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	if res == nil {
		return
	}
	l.logger.Debug("Chat model response", "choices", len(res.Choices))
}

func (l *LogCallbackHandler) HandleLLMError(ctx context.Context, err error) {
	l.logger.LogError(err, "Chat model error")
}

func (l *LogCallbackHandler) HandleChainStart(ctx context.Context, inputs map[string]any) {}

func (l *LogCallbackHandler) HandleChainEnd(ctx context.Context, outputs map[string]any) {}

func (l *LogCallbackHandler) HandleChainError(ctx context.Context, err error) {
	l.logger.LogError(err, "Chain error")
}

func (l *LogCallbackHandler) HandleToolStart(ctx context.Context, input string) {}

func (l *LogCallbackHandler) HandleToolEnd(ctx context.Context, output string) {}

func (l *LogCallbackHandler) HandleToolError(ctx context.Context, err error) {
	l.logger.LogError(err, "Tool error")
}

func (l *LogCallbackHandler) HandleAgentAction(ctx context.Context, action schema.AgentAction) {}

func (l *LogCallbackHandler) HandleAgentFinish(ctx context.Context, finish schema.AgentFinish) {}

func (l *LogCallbackHandler) HandleRetrieverStart(ctx context.Context, query string) {}

func (l *LogCallbackHandler) HandleRetrieverEnd(ctx context.Context, query string, documents []schema.Document) {
}

func (l *LogCallbackHandler) HandleStreamingFunc(ctx context.Context, chunk []byte) {}
