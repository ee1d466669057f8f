package chat

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	mu     sync.Mutex
	calls  [][]llms.MessageContent
	answer string
	err    error
	delay  time.Duration
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        f.answer,
		GenerationInfo: map[string]any{"PromptTokens": 12, "CompletionTokens": 8, "TotalTokens": 20},
	}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func (f *fakeModel) lastCall() []llms.MessageContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func text(t *testing.T, m llms.MessageContent) string {
	t.Helper()
	require.Len(t, m.Parts, 1)
	part, ok := m.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

func newTestService(model llms.Model) *Service {
	logger, _ := errors.NewLoggerWithOptions(errors.LoggerOptions{Output: io.Discard})
	return NewServiceWithModel(model, config.ChatConfig{
		Provider:    "openai",
		Model:       "test",
		Temperature: 0.7,
		Timeout:     time.Second,
		MaxMessages: DefaultMaxMessages,
	}, nil, logger)
}

func TestAskRecordsChatUsage(t *testing.T) {
	model := &fakeModel{answer: "Hooks let function components use state."}
	svc := newTestService(model)
	tracker := stats.NewTracker(context.Background(), stats.NewMemoryRepository(), svc.logger)
	ctx := stats.WithTracker(context.Background(), tracker)
	conv := NewConversation(DefaultMaxMessages)

	answer, err := svc.Ask(ctx, conv, "reactjs", "What are hooks?")
	require.NoError(t, err)
	assert.Equal(t, "ReactJS", answer.Topic)
	assert.Equal(t, "Hooks let function components use state.", answer.Text)

	require.Len(t, answer.Messages, 3)
	assert.Equal(t, Greeting("ReactJS"), answer.Messages[0].Content)
	assert.Equal(t, RoleUser, answer.Messages[1].Role)
	assert.Equal(t, RoleAssistant, answer.Messages[2].Role)

	rec := tracker.Snapshot()
	assert.Equal(t, 1, rec.ChatbotQueries)
	assert.Greater(t, rec.TotalChatbotTime, 0.0)
	assert.Zero(t, rec.CodePrompts)
	assert.Empty(t, rec.ResponseTimes, "chat latency stays out of response_times")

	sent := model.lastCall()
	require.Len(t, sent, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, sent[0].Role)
	assert.Contains(t, text(t, sent[0]), "ReactJS Interview Preparation Expert")
	assert.Equal(t, llms.ChatMessageTypeAI, sent[1].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, sent[2].Role)
	assert.Equal(t, "What are hooks?", text(t, sent[2]))
}

func TestAskCarriesTranscript(t *testing.T) {
	model := &fakeModel{answer: "answer"}
	svc := newTestService(model)
	conv := NewConversation(DefaultMaxMessages)

	_, err := svc.Ask(context.Background(), conv, "Angular", "What is a module?")
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), conv, "Angular", "And a component?")
	require.NoError(t, err)

	sent := model.lastCall()
	require.Len(t, sent, 5)
	assert.Equal(t, "What is a module?", text(t, sent[2]))
	assert.Equal(t, "And a component?", text(t, sent[4]))
}

func TestAskTopicChangeResetsConversation(t *testing.T) {
	svc := newTestService(&fakeModel{answer: "ok"})
	conv := NewConversation(DefaultMaxMessages)

	_, err := svc.Ask(context.Background(), conv, "Vue.js", "What is a directive?")
	require.NoError(t, err)
	answer, err := svc.Ask(context.Background(), conv, "Data Science", "What is overfitting?")
	require.NoError(t, err)

	require.Len(t, answer.Messages, 3)
	assert.Equal(t, Greeting("Data Science"), answer.Messages[0].Content)
	assert.Equal(t, "Data Science", conv.Topic())
}

func TestAskValidation(t *testing.T) {
	svc := newTestService(&fakeModel{answer: "ok"})
	conv := NewConversation(DefaultMaxMessages)

	_, err := svc.Ask(context.Background(), conv, "Cobol", "anything")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = svc.Ask(context.Background(), conv, "JavaScript", "   ")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Empty(t, conv.Messages())
}

func TestAskModelFailureLeavesState(t *testing.T) {
	svc := newTestService(&fakeModel{err: fmt.Errorf("rate limited")})
	tracker := stats.NewTracker(context.Background(), stats.NewMemoryRepository(), svc.logger)
	ctx := stats.WithTracker(context.Background(), tracker)
	conv := NewConversation(DefaultMaxMessages)

	_, err := svc.Ask(ctx, conv, "Full Stack", "What is REST?")
	assert.True(t, errors.IsType(err, errors.ErrorTypeAI))
	assert.Len(t, conv.Messages(), 1, "only the greeting")
	assert.Zero(t, tracker.Snapshot().ChatbotQueries)
}

func TestAskTimeout(t *testing.T) {
	svc := newTestService(&fakeModel{answer: "late", delay: time.Minute})
	svc.cfg.Timeout = 20 * time.Millisecond

	_, err := svc.Ask(context.Background(), NewConversation(0), "JavaScript", "What is a closure?")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeAITimeout, appErr.Code)
}

func TestAskEmptyAnswer(t *testing.T) {
	svc := newTestService(&fakeModel{answer: "  "})
	_, err := svc.Ask(context.Background(), NewConversation(0), "JavaScript", "What is hoisting?")
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidResponse))
}

func TestAskSerializesTurnsPerConversation(t *testing.T) {
	model := &fakeModel{answer: "Use memoization.", delay: 20 * time.Millisecond}
	svc := newTestService(model)
	conv := NewConversation(DefaultMaxMessages)

	var wg sync.WaitGroup
	for _, q := range []string{"What is useMemo?", "What is useCallback?"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Ask(context.Background(), conv, "ReactJS", q)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs := conv.Messages()
	require.Len(t, msgs, 5)
	for i, m := range msgs[1:] {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		assert.Equal(t, want, m.Role, "message %d", i+1)
	}

	model.mu.Lock()
	defer model.mu.Unlock()
	require.Len(t, model.calls, 2)
	assert.Len(t, model.calls[0], 3, "system, greeting, question")
	assert.Len(t, model.calls[1], 5, "second turn sees the first exchange")
}

func TestConversationIsBounded(t *testing.T) {
	conv := NewConversation(6)
	conv.Ensure("Go")
	for i := range 5 {
		conv.Exchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	msgs := conv.Messages()
	require.Len(t, msgs, 6)
	assert.Equal(t, "q2", msgs[0].Content)
	assert.Equal(t, "a4", msgs[5].Content)

	assert.False(t, conv.Ensure("Go"))
	assert.True(t, conv.Ensure("Rust"))
	assert.Len(t, conv.Messages(), 1)
}

func TestLookupTopic(t *testing.T) {
	topic, ok := LookupTopic("  full stack ")
	require.True(t, ok)
	assert.Equal(t, "Full Stack", topic.Name)

	_, ok = LookupTopic("Elixir")
	assert.False(t, ok)

	assert.Equal(t, []string{"ReactJS", "Angular", "JavaScript", "Vue.js", "Full Stack", "Data Science"}, TopicNames())
	assert.Contains(t, topic.SystemPrompt("Keep answers short."), "Keep answers short.")
}

func TestTokenUsage(t *testing.T) {
	usage := tokenUsage(map[string]any{"PromptTokens": 3, "CompletionTokens": 4})
	require.NotNil(t, usage)
	assert.Equal(t, int64(7), usage.TotalTokens)
	assert.Nil(t, tokenUsage(nil))
}
