package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"careercoach/internal/ai"
	"careercoach/internal/chat"
	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeAnalyzer struct {
	mu     sync.Mutex
	got    []ai.Request
	result *ai.Result
	err    error
	info   ai.ModelInfo
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req ai.Request) (*ai.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, req)
	return f.result, f.err
}

func (f *fakeAnalyzer) GetModelInfo(context.Context) *ai.ModelInfo {
	info := f.info
	return &info
}

func (f *fakeAnalyzer) Close() error { return nil }

type fakeModel struct {
	answer string
}

func (f *fakeModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.answer}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

type testEnv struct {
	cfg      *config.Config
	server   *Server
	handler  http.Handler
	analyzer *fakeAnalyzer
	sessions *session.Manager
	codegen  *httptest.Server
}

func quietLogger() *errors.Logger {
	logger, _ := errors.NewLoggerWithOptions(errors.LoggerOptions{Output: io.Discard})
	return logger
}

// newTestEnv serves a configuration whose code-generation endpoint answers
// with codegenBody.
func newTestEnv(t *testing.T, codegenBody string, mutate func(*config.Config)) *testEnv {
	t.Helper()

	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, codegenBody)
	}))
	t.Cleanup(endpoint.Close)

	cfg := config.Default()
	cfg.Stats.Dir = t.TempDir()
	cfg.Codegen.Endpoint = endpoint.URL
	cfg.Codegen.Retry.AttemptTimeout = time.Second
	cfg.Codegen.Retry.Delay = time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	logger := quietLogger()
	sessions, err := session.NewManager(context.Background(), cfg, nil, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close(context.Background()) })

	analyzer := &fakeAnalyzer{
		result: &ai.Result{Role: ai.RoleJobSeeker, Option: "Percentage Match", Text: "Match: 80%", Model: "gemini-test"},
		info:   ai.ModelInfo{Name: "gemini-test", Available: true},
	}
	srv := NewServer(cfg, "test", Deps{
		Sessions: sessions,
		Analyzer: analyzer,
		Chat:     chat.NewServiceWithModel(&fakeModel{answer: "Use hooks."}, cfg.Chat, nil, logger),
	}, logger)

	return &testEnv{
		cfg:      cfg,
		server:   srv,
		handler:  srv.Handler(),
		analyzer: analyzer,
		sessions: sessions,
		codegen:  endpoint,
	}
}

func (e *testEnv) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(e.cfg.Server.SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGenerateCreatesSessionAndRecordsUsage(t *testing.T) {
	env := newTestEnv(t, `{"response": "print('hello')"}`, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/generate", "", GenerateRequest{Language: "Python", Prompt: "print a greeting"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[GenerateResponse](t, rec)
	assert.Equal(t, "print('hello')", resp.Code)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, resp.SessionID, rec.Header().Get("X-Session-ID"))

	usage := decode[UsageResponse](t, env.do(t, http.MethodGet, "/api/v1/stats", resp.SessionID, nil))
	assert.Equal(t, 1, usage.CodePrompts)
	assert.Equal(t, 1, usage.Samples)

	history := decode[HistoryResponse](t, env.do(t, http.MethodGet, "/api/v1/history", resp.SessionID, nil))
	assert.Equal(t, []string{"print a greeting"}, history.History)
}

func TestGenerateValidation(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, nil)

	tests := []struct {
		name string
		body GenerateRequest
		code string
	}{
		{name: "short prompt", body: GenerateRequest{Language: "Go", Prompt: "hi"}, code: errors.ErrCodePromptTooShort},
		{name: "missing language", body: GenerateRequest{Prompt: "write a web server"}, code: errors.ErrCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/generate", "val", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, "validation", resp.Error)
			assert.Equal(t, tt.code, resp.Code)
		})
	}

	s, ok := env.sessions.Lookup("val")
	require.True(t, ok)
	assert.Empty(t, s.Codegen.History())
}

func TestGenerateInvalidResponseShape(t *testing.T) {
	env := newTestEnv(t, `{"done": true}`, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/generate", "shape", GenerateRequest{Language: "Go", Prompt: "write a web server"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_response", resp.Error)
	assert.Equal(t, "Error: Invalid API response format.", resp.Message)

	usage := decode[UsageResponse](t, env.do(t, http.MethodGet, "/api/v1/stats", "shape", nil))
	assert.Zero(t, usage.CodePrompts)
}

func TestRejectsUnsafeSessionID(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/history", "../../etc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.sessions.Len())
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, `{"response": "code"}`, nil)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/generate", "alice",
		GenerateRequest{Language: "Go", Prompt: "write a web server"}).Code)

	bob := decode[HistoryResponse](t, env.do(t, http.MethodGet, "/api/v1/history", "bob", nil))
	assert.Empty(t, bob.History)
	usage := decode[UsageResponse](t, env.do(t, http.MethodGet, "/api/v1/stats", "bob", nil))
	assert.True(t, usage.NoData)
}

func TestResetScopes(t *testing.T) {
	env := newTestEnv(t, `{"response": "code"}`, nil)
	id := "reset"

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/generate", id,
		GenerateRequest{Language: "Go", Prompt: "write a web server"}).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/chat", id,
		ChatRequest{Topic: "ReactJS", Question: "What are hooks?"}).Code)

	usage := decode[UsageResponse](t, env.do(t, http.MethodPost, "/api/v1/reset", id, nil))
	assert.Zero(t, usage.CodePrompts)
	assert.Equal(t, 1, usage.ChatbotQueries)
	assert.Zero(t, usage.Samples)
	assert.Zero(t, usage.TotalCodeTime)

	history := decode[HistoryResponse](t, env.do(t, http.MethodGet, "/api/v1/history", id, nil))
	assert.Empty(t, history.History)

	usage = decode[UsageResponse](t, env.do(t, http.MethodPost, "/api/v1/reset", id, ResetRequest{All: true}))
	assert.True(t, usage.NoData)

	s, ok := env.sessions.Lookup(id)
	require.True(t, ok)
	assert.Empty(t, s.Chat.Messages())
}

func TestChat(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/chat", "chat", ChatRequest{Topic: "ReactJS", Question: "What are hooks?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ChatResponse](t, rec)
	assert.Equal(t, "ReactJS", resp.Topic)
	assert.Equal(t, "Use hooks.", resp.Answer)
	require.Len(t, resp.Messages, 3)
	assert.Equal(t, chat.Greeting("ReactJS"), resp.Messages[0].Content)

	rec = env.do(t, http.MethodPost, "/api/v1/chat", "chat", ChatRequest{Topic: "COBOL", Question: "Why?"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeUnknownTopic, decode[ErrorResponse](t, rec).Code)
}

func TestAnalyzeAndExport(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, nil)
	id := "analysis"

	rec := env.do(t, http.MethodGet, "/api/v1/analysis/export", id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	pdf := []byte("%PDF-1.4 fake")
	rec = env.do(t, http.MethodPost, "/api/v1/analyze", id, AnalyzeRequest{
		Role:           "job-seeker",
		Option:         "Percentage Match",
		JobDescription: "Go developer",
		ResumePDF:      pdf,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, "Match: 80%", resp["response"])
	assert.Equal(t, id, resp["session_id"])

	require.Len(t, env.analyzer.got, 1)
	assert.Equal(t, pdf, env.analyzer.got[0].ResumePDF)
	assert.Equal(t, "Percentage Match", env.analyzer.got[0].Option)

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/export", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Match: 80%\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ai.ExportFileName)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestAnalyzeErrorStatus(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, nil)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: errors.NewValidationError(errors.ErrCodeInvalidRequest, "Please upload the resume", nil), status: http.StatusBadRequest},
		{name: "missing key", err: errors.NewConfigError(errors.ErrCodeMissingAPIKey, "no key", nil), status: http.StatusServiceUnavailable},
		{name: "circuit open", err: errors.NewAIError(errors.ErrCodeCircuitOpen, "open", nil), status: http.StatusServiceUnavailable},
		{name: "ai timeout", err: errors.NewAIError(errors.ErrCodeAITimeout, "slow", nil), status: http.StatusGatewayTimeout},
		{name: "upstream", err: errors.NewAIError(errors.ErrCodeAIServiceFailed, "boom", nil), status: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.analyzer.err = tt.err
			rec := env.do(t, http.MethodPost, "/api/v1/analyze", "errs", AnalyzeRequest{Role: "recruiter", Option: "Red Flag Detection", ResumeText: "cv"})
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(errors.NewTimeoutError(3, context.DeadlineExceeded)))
	assert.Equal(t, http.StatusBadGateway, statusFor(errors.NewTransportError("refused", nil)))
	assert.Equal(t, StatusClientClosedRequest, statusFor(errors.NewCanceledError(context.Canceled)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.NewPersistenceError("disk", nil)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.EOF))
}

func TestPrompts(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, nil)
	resp := decode[PromptsResponse](t, env.do(t, http.MethodGet, "/api/v1/prompts", "", nil))

	assert.Equal(t, config.DefaultLanguages, resp.Languages)
	assert.Len(t, resp.Topics, len(chat.Topics()))
	assert.Len(t, resp.Options[ai.RoleRecruiter], 6)
	assert.Len(t, resp.Options[ai.RoleJobSeeker], 11)
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, func(cfg *config.Config) {
		cfg.Server.APIKeys = []string{"secret-key-123"}
	})

	rec := env.do(t, http.MethodGet, "/api/v1/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, env.sessions.Len())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.Header.Set("X-API-Key", "secret-key-123")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays public.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "", nil).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, func(cfg *config.Config) {
		cfg.Server.RateLimit.Enabled = true
		cfg.Server.RateLimit.ByIP = true
		cfg.Server.RateLimit.RequestsPerMin = 1
		cfg.Server.RateLimit.BurstCapacity = 2
	})

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, env.do(t, http.MethodGet, "/api/v1/history", "limited", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequestSizeLimit(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, func(cfg *config.Config) {
		cfg.Server.MaxRequestSize = 64
	})

	rec := env.do(t, http.MethodPost, "/api/v1/analyze", "big", AnalyzeRequest{
		Role:       "recruiter",
		Option:     "Red Flag Detection",
		ResumeText: string(bytes.Repeat([]byte("a"), 512)),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "request body too large")
	assert.Empty(t, env.analyzer.got)
}

func TestHealthAndStats(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, nil)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", health["status"])
	assert.Contains(t, health["circuit_breakers"], "codegen")

	env.analyzer.info = ai.ModelInfo{Name: "gemini-test", Error: "no key"}
	rec = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[map[string]any](t, rec)["status"])

	env.do(t, http.MethodGet, "/api/v1/history", "one", nil)
	stats := decode[map[string]any](t, env.do(t, http.MethodGet, "/stats", "", nil))
	sessions, ok := stats["sessions"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, sessions["active"])
	assert.Equal(t, map[string]any{"enabled": false}, stats["rate_limiting"])
}

func TestMethodRouting(t *testing.T) {
	env := newTestEnv(t, `{"response": "x"}`, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/generate", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
