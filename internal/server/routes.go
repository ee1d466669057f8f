package server

import (
	"net/http"
	"strings"

	"careercoach/internal/observability"
	"careercoach/internal/session"

	"go.opentelemetry.io/otel/attribute"
)

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	if h := s.om.PrometheusHandler(); h != nil {
		endpoint := s.cfg.Observability.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		mux.Handle("GET "+endpoint, h)
	}

	api := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware(s.authMiddleware(s.requestSizeLimitMiddleware(s.sessionMiddleware(h))))
	}
	mux.HandleFunc("GET /api/v1/prompts", api(s.promptsHandler))
	mux.HandleFunc("POST /api/v1/generate", api(s.generateHandler))
	mux.HandleFunc("GET /api/v1/history", api(s.historyHandler))
	mux.HandleFunc("POST /api/v1/reset", api(s.resetHandler))
	mux.HandleFunc("POST /api/v1/chat", api(s.chatHandler))
	mux.HandleFunc("POST /api/v1/analyze", api(s.analyzeHandler))
	mux.HandleFunc("GET /api/v1/analysis/export", api(s.exportHandler))
	mux.HandleFunc("GET /api/v1/stats", api(s.usageHandler))

	return s.om.HTTPMiddleware()(mux)
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := requestAPIKey(r)
		enabled, ok := s.checkAPIKey(apiKey)
		if !enabled {
			next(w, r)
			return
		}

		if apiKey == "" {
			s.logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}
		if !ok {
			s.logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

// requestAPIKey reads X-API-Key, falling back to a Bearer token.
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	limit := s.cfg.Server.MaxRequestSize
	return func(w http.ResponseWriter, r *http.Request) {
		if limit > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next(w, r)
	}
}

// sessionMiddleware resolves the session named by the session header,
// creating one when the header is absent, and echoes its id back.
func (s *Server) sessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	header := s.cfg.Server.SessionHeader
	tag := observability.SessionAttributes(header)

	return func(w http.ResponseWriter, r *http.Request) {
		sess, created, err := s.sessions.Get(r.Context(), r.Header.Get(header))
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		defer sess.Release()
		if created {
			s.logger.Debug("Session created", "session_id", sess.ID, "endpoint", r.URL.Path)
		}

		w.Header().Set(header, sess.ID)
		r.Header.Set(header, sess.ID)
		r = r.WithContext(session.WithSession(r.Context(), sess))
		tag(next)(w, r)
	}
}

// rateLimitMiddleware rejects requests over the configured rate and counts them.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	rl := s.cfg.Server.RateLimit

	return func(w http.ResponseWriter, r *http.Request) {
		key := getRateLimitKey(r, rl.ByAPIKey, rl.ByIP)
		if key == "" || s.limiter.Allow(key) {
			next(w, r)
			return
		}

		s.logger.Info("Rate limit exceeded",
			"endpoint", r.URL.Path,
			"client_ip", getClientIP(r))
		s.metrics.RecordBusinessMetric(r.Context(), observability.MetricRateLimitHit, true,
			attribute.String("endpoint", r.URL.Path),
			attribute.String("method", r.Method))
		writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
