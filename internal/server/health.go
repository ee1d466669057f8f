package server

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 5 * time.Second

// healthHandler reports the analysis model, the circuit breakers and, when
// TLS is on, the certificate. It answers 503 when any of them is unhealthy.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := map[string]any{
		"status":         "healthy",
		"service":        "careercoach",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	}
	healthy := true

	if s.analyzer != nil {
		info := s.analyzer.GetModelInfo(ctx)
		response["ai_model"] = info
		healthy = healthy && info.Available
	}

	response["circuit_breakers"] = s.breakerStatus()

	if s.certs != nil {
		certStatus := s.certs.Status()
		if s.certWatcher != nil {
			certStatus["watched_files"] = s.certWatcher.Files()
		}
		if vw, ok := s.vaultWatchers["tls"]; ok {
			certStatus["vault_watcher"] = vw.Status()
		}
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// breakerStatus collects the state of every circuit breaker the server uses.
func (s *Server) breakerStatus() map[string]any {
	breakers := map[string]any{}
	if s.sessions != nil {
		breakers["codegen"] = s.sessions.BreakerStats()
	}
	if b, ok := s.analyzer.(interface{ BreakerStats() map[string]any }); ok {
		breakers["analyze"] = b.BreakerStats()
	}
	return breakers
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	rl := s.cfg.Server.RateLimit
	response := map[string]any{
		"service":        "careercoach",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"server": map[string]any{
			"max_request_size_bytes": s.cfg.Server.MaxRequestSize,
			"api_keys_configured":    s.apiKeyCount(),
			"tls_mode":               s.cfg.Server.TLS.Mode,
		},
		"rate_limit_config": map[string]any{
			"enabled":          rl.Enabled,
			"requests_per_min": rl.RequestsPerMin,
			"burst_capacity":   rl.BurstCapacity,
			"by_ip":            rl.ByIP,
			"by_api_key":       rl.ByAPIKey,
		},
	}

	if s.limiter != nil {
		response["rate_limiting"] = s.limiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.sessions != nil {
		response["sessions"] = map[string]any{
			"active":       s.sessions.Len(),
			"idle_timeout": s.cfg.Server.SessionIdleTimeout.String(),
		}
	}

	if len(s.vaultWatchers) > 0 {
		watchers := map[string]any{}
		for name, vw := range s.vaultWatchers {
			watchers[name] = vw.Status()
		}
		response["vault_watchers"] = watchers
	}

	writeJSON(w, http.StatusOK, response)
}
