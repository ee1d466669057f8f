package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"careercoach/internal/ai"
	"careercoach/internal/chat"
	"careercoach/internal/common"
	"careercoach/internal/errors"
	"careercoach/internal/session"
	"careercoach/internal/stats"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// StatusClientClosedRequest is reported when the caller went away before
// the upstream call finished.
const StatusClientClosedRequest = 499

type HistoryResponse struct {
	SessionID string   `json:"session_id"`
	History   []string `json:"history"`
}

type ChatResponse struct {
	SessionID string         `json:"session_id"`
	Topic     string         `json:"topic"`
	Answer    string         `json:"answer"`
	Messages  []chat.Message `json:"messages"`
}

type AnalyzeResponse struct {
	SessionID string `json:"session_id"`
	*ai.Result
}

type UsageResponse struct {
	SessionID string `json:"session_id"`
	stats.Summary
}

type PromptsResponse struct {
	Languages       []string                `json:"languages"`
	MinPromptLength int                     `json:"min_prompt_length"`
	Topics          []chat.Topic            `json:"topics"`
	Options         map[ai.Role][]ai.Option `json:"options"`
}

// currentSession returns the session attached by sessionMiddleware.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeErrorResponse(w, "Missing session", "no session attached to request", http.StatusInternalServerError)
	}
	return sess, ok
}

// promptsHandler lists what the client can ask for.
func (s *Server) promptsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PromptsResponse{
		Languages:       s.cfg.Codegen.Languages,
		MinPromptLength: s.cfg.Codegen.MinPromptLength,
		Topics:          chat.Topics(),
		Options: map[ai.Role][]ai.Option{
			ai.RoleRecruiter: ai.Options(ai.RoleRecruiter),
			ai.RoleJobSeeker: ai.Options(ai.RoleJobSeeker),
		},
	})
}

func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	ctx, span := s.om.Tracer("careercoach.api").Start(r.Context(), "api.generate")
	defer span.End()

	var req GenerateRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if err := common.ValidatePrompt(req.Language, req.Prompt, s.cfg.Codegen.MinPromptLength); err != nil {
		span.RecordError(err)
		s.writeAppError(w, r, err)
		return
	}

	span.SetAttributes(
		attribute.String("codegen.language", req.Language),
		attribute.Int("request.prompt_length", len(req.Prompt)),
	)

	code, err := sess.Codegen.Generate(ctx, req.Language, req.Prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{Code: code, SessionID: sess.ID})
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: sess.ID, History: sess.Codegen.History()})
}

// resetHandler clears the code-generation state, or everything with {"all": true}.
// An empty body means a code-generation reset.
func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}

	var req ResetRequest
	if r.ContentLength != 0 {
		if err := parseJSONRequest(r, &req); err != nil {
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
	}

	sess.Reset(r.Context(), req.All)
	s.logger.Info("Session reset", "session_id", sess.ID, "all", req.All)

	writeJSON(w, http.StatusOK, UsageResponse{
		SessionID: sess.ID,
		Summary:   stats.SummarizeTracker(sess.Tracker()),
	})
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	ctx, span := s.om.Tracer("careercoach.api").Start(r.Context(), "api.chat")
	defer span.End()

	var req ChatRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("chat.topic", req.Topic))

	answer, err := s.chat.Ask(ctx, sess.Chat, req.Topic, req.Question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID: sess.ID,
		Topic:     answer.Topic,
		Answer:    answer.Text,
		Messages:  answer.Messages,
	})
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	ctx, span := s.om.Tracer("careercoach.api").Start(r.Context(), "api.analyze")
	defer span.End()

	var req AnalyzeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("analysis.role", req.Role),
		attribute.Int("request.job_length", len(req.JobDescription)),
		attribute.Bool("request.pdf", len(req.ResumePDF) > 0),
	)

	result, err := s.analyzer.Analyze(ctx, ai.Request{
		Role:           req.Role,
		Option:         req.Option,
		Query:          req.Query,
		JobDescription: req.JobDescription,
		ResumeText:     req.ResumeText,
		ResumePDF:      req.ResumePDF,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.writeAppError(w, r, err)
		return
	}
	sess.SetAnalysis(result)

	writeJSON(w, http.StatusOK, AnalyzeResponse{SessionID: sess.ID, Result: result})
}

// exportHandler downloads the last analysis of the session as plain text.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	result, ok := sess.LastAnalysis()
	if !ok {
		writeErrorResponse(w, "No analysis", "run an analysis before exporting it", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ai.ExportFileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Export()); err != nil {
		s.logger.Debug("Failed to write export", "error", err)
	}
}

// usageHandler reports the session's analytics summary.
func (s *Server) usageHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, UsageResponse{
		SessionID: sess.ID,
		Summary:   stats.SummarizeTracker(sess.Tracker()),
	})
}

// statusFor maps an error kind to the HTTP status reported to clients.
func statusFor(err error) int {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	if appErr.Code == errors.ErrCodeCircuitOpen {
		return http.StatusServiceUnavailable
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrorTypeCanceled:
		return StatusClientClosedRequest
	case errors.ErrorTypeTransport, errors.ErrorTypeInvalidResponse, errors.ErrorTypeNetwork:
		return http.StatusBadGateway
	case errors.ErrorTypeAI:
		if appErr.Code == errors.ErrCodeAITimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.ErrorTypeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError reports err with its kind and code. Server-side failures
// are logged; client mistakes are not.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.LogError(err, "Request failed", "endpoint", r.URL.Path, "status", status)
	}

	resp := ErrorResponse{
		Error:   string(errors.TypeOf(err)),
		Message: errors.UserMessage(err),
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		resp.Code = appErr.Code
	}
	if resp.Error == "" {
		resp.Error = "internal"
	}
	writeJSON(w, status, resp)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
