// Package server exposes code generation, the interview chatbot and resume
// analysis over HTTP.
package server

import (
	"sync"
	"time"

	"careercoach/internal/ai"
	"careercoach/internal/chat"
	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/observability"
	"careercoach/internal/session"
)

// GenerateRequest represents the request body for the generate endpoint
type GenerateRequest struct {
	Language string `json:"language"`
	Prompt   string `json:"prompt"`
}

type GenerateResponse struct {
	Code      string `json:"code"`
	SessionID string `json:"session_id"`
}

type ResetRequest struct {
	All bool `json:"all"`
}

type ChatRequest struct {
	Topic    string `json:"topic"`
	Question string `json:"question"`
}

// AnalyzeRequest carries the resume either as text or as base64 PDF bytes,
// which encoding/json decodes into ResumePDF.
type AnalyzeRequest struct {
	Role           string `json:"role"`
	Option         string `json:"option"`
	Query          string `json:"query"`
	JobDescription string `json:"job_description"`
	ResumeText     string `json:"resume_text"`
	ResumePDF      []byte `json:"resume_pdf"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Deps are the services the server exposes.
type Deps struct {
	Sessions      *session.Manager
	Analyzer      ai.Analyzer
	Chat          *chat.Service
	Observability *observability.ObservabilityManager
	Vault         VaultClientInterface
}

// Server holds the HTTP server state
type Server struct {
	cfg     *config.Config
	version string

	sessions *session.Manager
	analyzer ai.Analyzer
	chat     *chat.Service
	om       *observability.ObservabilityManager
	metrics  *observability.Metrics
	vault    VaultClientInterface

	limiter       *LimiterManager
	certs         *CertificateManager
	certWatcher   *CertWatcher
	vaultWatchers map[string]*VaultWatcher
	logger        *errors.Logger

	startedAt time.Time

	keysMu  sync.RWMutex
	apiKeys map[string]bool
}

// NewServer creates a server for cfg.Server
func NewServer(cfg *config.Config, version string, deps Deps, logger *errors.Logger) *Server {
	s := &Server{
		cfg:           cfg,
		version:       version,
		sessions:      deps.Sessions,
		analyzer:      deps.Analyzer,
		chat:          deps.Chat,
		om:            deps.Observability,
		metrics:       deps.Observability.GetMetrics(),
		vault:         deps.Vault,
		vaultWatchers: make(map[string]*VaultWatcher),
		logger:        logger.With("component", "server"),
		startedAt:     time.Now(),
	}
	s.setAPIKeys(cfg.Server.APIKeys)

	if rl := cfg.Server.RateLimit; rl.Enabled {
		s.limiter = NewLimiterManager(rl.RequestsPerMin, rl.BurstCapacity, s.logger)
	}
	return s
}

// setAPIKeys replaces the accepted API keys. Empty entries are ignored.
func (s *Server) setAPIKeys(keys []string) {
	m := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			m[key] = true
		}
	}
	s.keysMu.Lock()
	s.apiKeys = m
	s.keysMu.Unlock()
}

// checkAPIKey reports whether auth is enabled and, if so, whether key is accepted.
func (s *Server) checkAPIKey(key string) (enabled, ok bool) {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return len(s.apiKeys) > 0, s.apiKeys[key]
}

func (s *Server) apiKeyCount() int {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return len(s.apiKeys)
}
